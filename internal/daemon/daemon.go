// Package daemon runs the long-lived marquee process: the HTTP API plus a
// scheduler that keeps the catalog fresh. A lock file enforces a single
// instance per data directory.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"marquee/internal/api"
	"marquee/internal/backfill"
	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/reconcile"
	"marquee/internal/resolver"
	"marquee/internal/scrape"
	"marquee/internal/tmdb"
)

// Daemon owns the serve-mode lifecycle: lock acquisition, the API listener,
// and the periodic scrape/reconcile/backfill cycle.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *catalog.Store
	runner     *scrape.Runner
	reconciler *reconcile.Reconciler
	backfiller *backfill.Backfiller
	apiServer  *api.Server

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	server   *http.Server
	interval time.Duration

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New assembles the daemon and its pipeline services. Without a TMDB API key
// the resolver still works; unknown titles just stay placeholders until a
// key shows up.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var lookup tmdb.Searcher
	if cfg.TMDB.APIKey != "" {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
		if err != nil {
			return nil, fmt.Errorf("tmdb client: %w", err)
		}
		lookup = client
	} else {
		logger.Warn("no TMDB API key configured; titles will resolve to placeholders")
	}

	res := resolver.New(store, lookup, logger)
	runner := scrape.NewRunner(store, res, cfg, logger)
	reconciler := reconcile.New(store, logger)
	backfiller := backfill.New(store, lookup, logger)

	lockPath := filepath.Join(cfg.Paths.DataDir, "marquee.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		runner:     runner,
		reconciler: reconciler,
		backfiller: backfiller,
		apiServer:  api.NewServer(store, runner, reconciler, backfiller, cfg, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		interval:   cfg.Scrape.Interval(),
	}, nil
}

// Start acquires the instance lock, binds the API listener, and launches the
// scheduler. It returns once the daemon is serving.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee instance is already running")
	}

	listener, err := net.Listen("tcp", d.cfg.API.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	server := d.apiServer.HTTPServer()
	d.listener = listener
	d.server = server

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// The goroutine holds its own server reference; it must never read the
	// shared field, which Stop can reach before the goroutine is scheduled.
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server error", logging.Error(err))
		}
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.schedule(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
		logging.Duration("scrape_interval", d.interval))
	return nil
}

// Addr reports the bound API address. Empty until Start succeeds.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Stop shuts down the API server, stops the scheduler, and releases the
// instance lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
	}
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.server.Shutdown(shutdownCtx)
	}
	if d.listener != nil {
		_ = d.listener.Close()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/resolver"
	"marquee/internal/services"
	"marquee/internal/title"
)

// CinemaResult reports one cinema's outcome within a run.
type CinemaResult struct {
	CinemaID   string `json:"cinema_id"`
	CinemaName string `json:"cinema_name"`
	Success    bool   `json:"success"`
	Created    int    `json:"showings_created"`
	Updated    int    `json:"showings_updated"`
	Error      string `json:"error,omitempty"`
}

// RunSummary aggregates a full scrape run.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	Results       []CinemaResult `json:"results"`
	TotalCreated  int            `json:"total_created"`
	TotalUpdated  int            `json:"total_updated"`
	FailedCinemas int            `json:"failed_cinemas"`
}

// Runner drives scrapes: it builds each cinema's adapter, fetches raw
// showings, resolves titles, and persists. Cinemas run with bounded
// concurrency and isolated failures; one broken site never blocks the rest.
type Runner struct {
	store    *catalog.Store
	resolver *resolver.Resolver
	cfg      *config.Config
	logger   *slog.Logger

	// newScraper is swapped out by tests.
	newScraper Factory
}

// NewRunner creates a scrape runner.
func NewRunner(store *catalog.Store, res *resolver.Resolver, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:      store,
		resolver:   res,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "scrape"),
		newScraper: New,
	}
}

// Run scrapes every listed cinema over the configured window. An empty id
// list means all cinemas.
func (r *Runner) Run(ctx context.Context, cinemaIDs []string) (*RunSummary, error) {
	var (
		cinemas []*catalog.Cinema
		err     error
	)
	if len(cinemaIDs) == 0 {
		cinemas, err = r.store.ListCinemas(ctx, "")
	} else {
		cinemas, err = r.store.GetCinemas(ctx, cinemaIDs)
	}
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	from := startOfDay(time.Now())
	to := from.AddDate(0, 0, r.cfg.Scrape.DaysAhead)
	ctx = services.WithRunID(ctx, runID)

	r.logger.Info("scrape run starting",
		logging.String(logging.FieldRunID, runID),
		logging.Int("cinemas", len(cinemas)),
		logging.String("from", from.Format("2006-01-02")),
		logging.String("to", to.Format("2006-01-02")))

	summary := &RunSummary{
		RunID:   runID,
		Results: make([]CinemaResult, len(cinemas)),
	}

	semaphore := make(chan struct{}, r.cfg.Scrape.MaxConcurrent)
	var wg sync.WaitGroup
	for i, cinema := range cinemas {
		wg.Add(1)
		go func(i int, cinema *catalog.Cinema) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			summary.Results[i] = r.scrapeCinema(ctx, cinema, from, to)
		}(i, cinema)
	}
	wg.Wait()

	for _, result := range summary.Results {
		summary.TotalCreated += result.Created
		summary.TotalUpdated += result.Updated
		if !result.Success {
			summary.FailedCinemas++
		}
	}

	r.logger.Info("scrape run finished",
		logging.String(logging.FieldRunID, runID),
		logging.Int("created", summary.TotalCreated),
		logging.Int("updated", summary.TotalUpdated),
		logging.Int("failed_cinemas", summary.FailedCinemas))
	return summary, nil
}

func (r *Runner) scrapeCinema(ctx context.Context, cinema *catalog.Cinema, from, to time.Time) CinemaResult {
	result := CinemaResult{CinemaID: cinema.ID, CinemaName: cinema.Name}
	ctx = services.WithCinemaID(ctx, cinema.ID)
	logger := r.logger.With(logging.String(logging.FieldCinemaID, cinema.ID))

	scraper, err := r.newScraper(cinema, r.cfg)
	if err != nil {
		logger.Error("scraper construction failed", logging.Error(err))
		result.Error = err.Error()
		return result
	}

	raw, err := scraper.Showings(ctx, from, to)
	if err != nil {
		logger.Error("scrape failed", logging.Error(err))
		result.Error = err.Error()
		return result
	}
	logger.Info("raw showings fetched", logging.Int("count", len(raw)))

	for _, showing := range raw {
		if err := showing.Validate(); err != nil {
			logger.Warn("invalid raw showing skipped", logging.Error(err))
			continue
		}
		for _, part := range title.SplitDoubleBill(showing.Title) {
			if len([]rune(part)) < r.cfg.Scrape.MinTitleLength {
				continue
			}
			created, err := r.ingest(ctx, cinema.ID, part, showing)
			if err != nil {
				// Per-showing isolation: log, skip, keep the batch going.
				logger.Error("showing ingest failed",
					logging.String("raw_title", showing.Title),
					logging.Error(err))
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
	}

	result.Success = true
	logger.Info("cinema scraped",
		logging.Int("created", result.Created),
		logging.Int("updated", result.Updated))
	return result
}

// ingest resolves one title and upserts its showing. When the resolved film
// is real and a placeholder showing occupies the same cinema and start time
// from an earlier scrape, that showing is migrated rather than duplicated.
func (r *Runner) ingest(ctx context.Context, cinemaID, resolveTitle string, raw RawShowing) (created bool, err error) {
	film, err := r.resolver.Resolve(ctx, resolveTitle)
	if err != nil {
		return false, err
	}

	if film.TMDBID != 0 {
		existing, err := r.store.FindShowing(ctx, cinemaID, film.ID, raw.StartTime)
		if err != nil {
			return false, err
		}
		if existing == nil {
			stale, err := r.store.PlaceholderShowingAt(ctx, cinemaID, raw.StartTime)
			if err != nil {
				return false, err
			}
			if stale != nil {
				r.logger.Info("migrating placeholder showing",
					logging.String(logging.FieldCinemaID, cinemaID),
					logging.String(logging.FieldFilmID, film.ID),
					logging.String("raw_title", raw.Title))
				if err := r.store.RepointShowing(ctx, stale.ID, film.ID); err != nil {
					return false, err
				}
			}
		}
	}

	result, err := r.store.UpsertShowing(ctx, &catalog.Showing{
		CinemaID:   cinemaID,
		FilmID:     film.ID,
		StartTime:  raw.StartTime,
		BookingURL: raw.BookingURL,
		ScreenName: raw.ScreenName,
		FormatTags: raw.FormatTags,
		Price:      raw.Price,
		RawTitle:   raw.Title,
	})
	if err != nil {
		return false, err
	}
	return result == catalog.ShowingCreated, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

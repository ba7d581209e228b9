package api

import (
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"marquee/internal/backfill"
	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/reconcile"
	"marquee/internal/scrape"
)

// Server owns the HTTP query and admin surface. The read endpoints serve
// straight from the catalog; the admin endpoints trigger synchronous
// pipeline passes.
type Server struct {
	store      *catalog.Store
	runner     *scrape.Runner
	reconciler *reconcile.Reconciler
	backfiller *backfill.Backfiller
	cfg        *config.Config
	logger     *slog.Logger
	location   *time.Location
}

// NewServer wires the API handlers. The runner, reconciler, and backfiller
// may be nil; the corresponding admin endpoints then reply 503.
func NewServer(store *catalog.Store, runner *scrape.Runner, reconciler *reconcile.Reconciler, backfiller *backfill.Backfiller, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	location, err := time.LoadLocation("Europe/London")
	if err != nil {
		location = time.UTC
	}
	return &Server{
		store:      store,
		runner:     runner,
		reconciler: reconciler,
		backfiller: backfiller,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "api"),
		location:   location,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/showings", s.handleShowings)
		r.Get("/director-showings", s.handleDirectorShowings)
		r.Get("/films/search", s.handleFilmSearch)
		r.Get("/cinemas", s.handleCinemas)
		r.Post("/admin/scrape", s.handleScrape)
		r.Post("/admin/reconcile", s.handleReconcile)
		r.Post("/admin/backfill", s.handleBackfill)
	})

	return r
}

// HTTPServer wraps the handler with explicit timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logError(r, err)
	}
}

func (s *Server) logError(r *http.Request, err error) {
	s.logger.Error(err.Error(),
		logging.String("method", r.Method),
		logging.String("uri", r.URL.RequestURI()))
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	payload := map[string]any{
		"message":    message,
		"request_id": middleware.GetReqID(r.Context()),
		"timestamp":  time.Now().UTC(),
	}
	s.writeJSON(w, r, status, payload)
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	s.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	s.errorResponse(w, r, http.StatusBadRequest, message)
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusNotFound, "the requested resource was not found")
}

func (s *Server) unavailableResponse(w http.ResponseWriter, r *http.Request, message string) {
	s.errorResponse(w, r, http.StatusServiceUnavailable, message)
}

// city returns the requested city or the configured default.
func (s *Server) city(r *http.Request) string {
	if city := r.URL.Query().Get("city"); city != "" {
		return city
	}
	if s.cfg != nil {
		return s.cfg.API.DefaultCity
	}
	return ""
}

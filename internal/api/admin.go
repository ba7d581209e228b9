package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// handleScrape serves POST /api/v1/admin/scrape. The optional JSON body
// narrows the run to a cinema_ids subset; an empty body scrapes everything.
// The run is synchronous, so the response carries the full per-cinema
// breakdown.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.unavailableResponse(w, r, "scraping is not enabled on this server")
		return
	}

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.badRequestResponse(w, r, "request body must be valid JSON")
		return
	}

	if len(req.CinemaIDs) > 0 {
		cinemas, err := s.store.GetCinemas(r.Context(), req.CinemaIDs)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}
		if len(cinemas) == 0 {
			s.notFoundResponse(w, r)
			return
		}
	}

	summary, err := s.runner.Run(r.Context(), req.CinemaIDs)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, summary)
}

// handleReconcile serves POST /api/v1/admin/reconcile. With dry_run=true the
// pass only reports what it would merge.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		s.unavailableResponse(w, r, "reconciliation is not enabled on this server")
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"
	summary, err := s.reconciler.Reconcile(r.Context(), dryRun)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, summary)
}

// handleBackfill serves POST /api/v1/admin/backfill: fills in metadata for
// films that resolved without it.
func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.backfiller == nil {
		s.unavailableResponse(w, r, "backfill is not enabled on this server")
		return
	}

	summary, err := s.backfiller.Run(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, summary)
}

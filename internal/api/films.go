package api

import (
	"net/http"
	"strconv"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// handleFilmSearch serves GET /api/v1/films/search: films matching a title
// substring that have at least one showing in the city, alphabetically.
func (s *Server) handleFilmSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := query.Get("q")
	if q == "" {
		s.badRequestResponse(w, r, "q must be provided")
		return
	}

	limit := defaultSearchLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.badRequestResponse(w, r, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	films, err := s.store.SearchFilms(r.Context(), q, s.city(r), limit)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	results := make([]FilmSearchResult, 0, len(films))
	for _, film := range films {
		results = append(results, FilmSearchResult{ID: film.ID, Title: film.Title, Year: film.Year})
	}
	s.writeJSON(w, r, http.StatusOK, results)
}

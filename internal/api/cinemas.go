package api

import "net/http"

// handleCinemas serves GET /api/v1/cinemas: venues in a city, by name.
func (s *Server) handleCinemas(w http.ResponseWriter, r *http.Request) {
	cinemas, err := s.store.ListCinemas(r.Context(), s.city(r))
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	results := make([]CinemaSummary, 0, len(cinemas))
	for _, cinema := range cinemas {
		results = append(results, toCinemaSummary(cinema))
	}
	s.writeJSON(w, r, http.StatusOK, results)
}

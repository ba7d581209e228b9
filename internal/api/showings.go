package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"marquee/internal/catalog"
)

// handleShowings serves GET /api/v1/showings: every screening on a date
// within an optional time-of-day window, grouped film by film and cinema by
// cinema, busiest films first.
func (s *Server) handleShowings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	day, err := time.ParseInLocation("2006-01-02", query.Get("date"), s.location)
	if err != nil {
		s.badRequestResponse(w, r, "date must be provided as YYYY-MM-DD")
		return
	}

	timeFrom := query.Get("time_from")
	if timeFrom == "" {
		timeFrom = "00:00"
	}
	timeTo := query.Get("time_to")
	if timeTo == "" {
		timeTo = "23:59"
	}
	from, err := combineClock(day, timeFrom)
	if err != nil {
		s.badRequestResponse(w, r, "time_from must be HH:MM")
		return
	}
	to, err := combineClock(day, timeTo)
	if err != nil {
		s.badRequestResponse(w, r, "time_to must be HH:MM")
		return
	}

	city := s.city(r)
	showings, err := s.store.ShowingsInWindow(r.Context(), city, from, to)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	groups, err := s.groupShowings(r.Context(), showings, "", nil)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Film.ShowingCount > groups[j].Film.ShowingCount
	})

	s.writeJSON(w, r, http.StatusOK, ShowingsResponse{
		Films:         groups,
		TotalFilms:    len(groups),
		TotalShowings: len(showings),
		Query: ShowingsQuery{
			Date:     day.Format("2006-01-02"),
			City:     city,
			TimeFrom: timeFrom,
			TimeTo:   timeTo,
		},
	})
}

// handleDirectorShowings serves GET /api/v1/director-showings: everything a
// director has screening over a date range, grouped the same way as
// /showings but ordered by title. The exclude_film_id parameter lets a film
// detail page ask for "more by this director".
func (s *Server) handleDirectorShowings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	director := query.Get("director")
	if director == "" {
		s.badRequestResponse(w, r, "director must be provided")
		return
	}
	dateFrom, err := time.ParseInLocation("2006-01-02", query.Get("date_from"), s.location)
	if err != nil {
		s.badRequestResponse(w, r, "date_from must be provided as YYYY-MM-DD")
		return
	}
	dateTo, err := time.ParseInLocation("2006-01-02", query.Get("date_to"), s.location)
	if err != nil {
		s.badRequestResponse(w, r, "date_to must be provided as YYYY-MM-DD")
		return
	}
	excludeFilmID := query.Get("exclude_film_id")

	from := dateFrom
	to := dateTo.AddDate(0, 0, 1)
	showings, err := s.store.ShowingsInWindow(r.Context(), s.city(r), from, to)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	groups, err := s.groupShowings(r.Context(), showings, excludeFilmID, func(film *catalog.Film) bool {
		for _, name := range film.Directors {
			if name == director {
				return true
			}
		}
		return false
	})
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Film.Title < groups[j].Film.Title
	})

	s.writeJSON(w, r, http.StatusOK, groups)
}

// groupShowings folds a flat, time-ordered showing list into film > cinema >
// times groups. Films and cinemas keep first-appearance order; keep is an
// optional film filter applied after the rows are fetched.
func (s *Server) groupShowings(ctx context.Context, showings []*catalog.Showing, excludeFilmID string, keep func(*catalog.Film) bool) ([]FilmGroup, error) {
	films := make(map[string]*catalog.Film)
	cinemas := make(map[string]*catalog.Cinema)
	grouped := make(map[string]map[string][]*catalog.Showing)
	var filmOrder []string
	cinemaOrder := make(map[string][]string)

	for _, showing := range showings {
		if excludeFilmID != "" && showing.FilmID == excludeFilmID {
			continue
		}
		film, ok := films[showing.FilmID]
		if !ok {
			var err error
			film, err = s.store.GetFilm(ctx, showing.FilmID)
			if err != nil {
				return nil, err
			}
			if film == nil {
				continue
			}
			films[showing.FilmID] = film
		}
		if keep != nil && !keep(film) {
			continue
		}
		if _, ok := cinemas[showing.CinemaID]; !ok {
			cinema, err := s.store.GetCinema(ctx, showing.CinemaID)
			if err != nil {
				return nil, err
			}
			if cinema == nil {
				continue
			}
			cinemas[showing.CinemaID] = cinema
		}

		byCinema, ok := grouped[showing.FilmID]
		if !ok {
			byCinema = make(map[string][]*catalog.Showing)
			grouped[showing.FilmID] = byCinema
			filmOrder = append(filmOrder, showing.FilmID)
		}
		if _, ok := byCinema[showing.CinemaID]; !ok {
			cinemaOrder[showing.FilmID] = append(cinemaOrder[showing.FilmID], showing.CinemaID)
		}
		byCinema[showing.CinemaID] = append(byCinema[showing.CinemaID], showing)
	}

	groups := make([]FilmGroup, 0, len(filmOrder))
	for _, filmID := range filmOrder {
		total := 0
		cinemaGroups := make([]CinemaShowings, 0, len(cinemaOrder[filmID]))
		for _, cinemaID := range cinemaOrder[filmID] {
			rows := grouped[filmID][cinemaID]
			times := make([]ShowingTime, 0, len(rows))
			for _, row := range rows {
				times = append(times, toShowingTime(row))
			}
			total += len(rows)
			cinemaGroups = append(cinemaGroups, CinemaShowings{
				Cinema: toCinemaSummary(cinemas[cinemaID]),
				Times:  times,
			})
		}
		groups = append(groups, FilmGroup{
			Film:    toFilmSummary(films[filmID], total),
			Cinemas: cinemaGroups,
		})
	}
	return groups, nil
}

// combineClock applies an HH:MM wall clock to a date in its location.
func combineClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

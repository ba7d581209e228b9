package api

import (
	"time"

	"marquee/internal/catalog"
)

// ShowingTime is a single screening slot within a grouped response.
type ShowingTime struct {
	ID         int64     `json:"id"`
	StartTime  time.Time `json:"start_time"`
	ScreenName string    `json:"screen_name,omitempty"`
	FormatTags string    `json:"format_tags,omitempty"`
	BookingURL string    `json:"booking_url,omitempty"`
	Price      float64   `json:"price,omitempty"`
	RawTitle   string    `json:"raw_title,omitempty"`
}

// CinemaSummary is the venue payload embedded in grouped responses and
// returned by the cinemas listing.
type CinemaSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	City             string  `json:"city"`
	Address          string  `json:"address,omitempty"`
	Postcode         string  `json:"postcode,omitempty"`
	Latitude         float64 `json:"latitude,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`
	Website          string  `json:"website,omitempty"`
	HasOnlineBooking bool    `json:"has_online_booking"`
}

// FilmSummary is the film payload embedded in grouped responses. ShowingCount
// covers every cinema in the group and drives the response ordering.
type FilmSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Year         int      `json:"year,omitempty"`
	TMDBID       int64    `json:"tmdb_id,omitempty"`
	Directors    []string `json:"directors,omitempty"`
	Countries    []string `json:"countries,omitempty"`
	Runtime      int      `json:"runtime,omitempty"`
	Overview     string   `json:"overview,omitempty"`
	PosterPath   string   `json:"poster_path,omitempty"`
	ShowingCount int      `json:"showing_count"`
}

// CinemaShowings pairs one cinema with its screening times for a film.
type CinemaShowings struct {
	Cinema CinemaSummary `json:"cinema"`
	Times  []ShowingTime `json:"times"`
}

// FilmGroup is one film with every cinema screening it.
type FilmGroup struct {
	Film    FilmSummary      `json:"film"`
	Cinemas []CinemaShowings `json:"cinemas"`
}

// ShowingsQuery echoes the resolved query parameters back to the caller.
type ShowingsQuery struct {
	Date     string `json:"date"`
	City     string `json:"city"`
	TimeFrom string `json:"time_from"`
	TimeTo   string `json:"time_to"`
}

// ShowingsResponse is the grouped payload for GET /showings.
type ShowingsResponse struct {
	Films         []FilmGroup   `json:"films"`
	TotalFilms    int           `json:"total_films"`
	TotalShowings int           `json:"total_showings"`
	Query         ShowingsQuery `json:"query"`
}

// FilmSearchResult is a minimal film row for the search endpoint.
type FilmSearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
}

// ScrapeRequest selects which cinemas a manual scrape covers. An empty or
// absent cinema_ids list means every cinema.
type ScrapeRequest struct {
	CinemaIDs []string `json:"cinema_ids"`
}

func toCinemaSummary(cinema *catalog.Cinema) CinemaSummary {
	return CinemaSummary{
		ID:               cinema.ID,
		Name:             cinema.Name,
		City:             cinema.City,
		Address:          cinema.Address,
		Postcode:         cinema.Postcode,
		Latitude:         cinema.Latitude,
		Longitude:        cinema.Longitude,
		Website:          cinema.Website,
		HasOnlineBooking: cinema.HasOnlineBooking,
	}
}

func toFilmSummary(film *catalog.Film, showingCount int) FilmSummary {
	return FilmSummary{
		ID:           film.ID,
		Title:        film.Title,
		Year:         film.Year,
		TMDBID:       film.TMDBID,
		Directors:    film.Directors,
		Countries:    film.Countries,
		Runtime:      film.Runtime,
		Overview:     film.Overview,
		PosterPath:   film.PosterPath,
		ShowingCount: showingCount,
	}
}

func toShowingTime(showing *catalog.Showing) ShowingTime {
	return ShowingTime{
		ID:         showing.ID,
		StartTime:  showing.StartTime,
		ScreenName: showing.ScreenName,
		FormatTags: showing.FormatTags,
		BookingURL: showing.BookingURL,
		Price:      showing.Price,
		RawTitle:   showing.RawTitle,
	}
}

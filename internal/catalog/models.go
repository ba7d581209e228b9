package catalog

import "time"

// Film is the single deduplicated identity record for a motion picture,
// regardless of how many cinemas list it under differing title strings.
// A film without a TMDB ID is a placeholder: it stands in until external
// metadata arrives or reconciliation merges it away.
type Film struct {
	ID         string
	Title      string
	Year       int
	TMDBID     int64
	Directors  []string
	Countries  []string
	Cast       []string
	Overview   string
	PosterPath string
	Runtime    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsPlaceholder reports whether the film was created without external
// metadata.
func (f *Film) IsPlaceholder() bool {
	return f != nil && f.TMDBID == 0
}

// Alias caches one normalized title to the canonical film it resolved to.
// normalized_title is globally unique: at most one film per normalized title.
type Alias struct {
	ID              int64
	NormalizedTitle string
	FilmID          string
	CreatedAt       time.Time
}

// Showing is a single screening: one cinema, one film, one start time.
// The (cinema, film, start_time) triple is unique; that constraint is the
// concurrency correctness boundary for the scrape pipeline.
type Showing struct {
	ID         int64
	CinemaID   string
	FilmID     string
	StartTime  time.Time
	BookingURL string
	ScreenName string
	FormatTags string
	Price      float64
	RawTitle   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Cinema is a venue with an attached scraper configuration.
type Cinema struct {
	ID                        string
	Name                      string
	City                      string
	Address                   string
	Postcode                  string
	Latitude                  float64
	Longitude                 float64
	Website                   string
	ScraperType               string
	ScraperConfig             string
	Pricing                   string
	HasOnlineBooking          bool
	SupportsAvailabilityCheck bool
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

package scrape

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RawShowing is the output format every site adapter produces. The scrape
// runner resolves the title and persists the rest verbatim.
type RawShowing struct {
	Title      string
	StartTime  time.Time
	BookingURL string
	ScreenName string
	FormatTags string
	Price      float64
}

// Validate rejects showings an adapter should never have emitted. A zero
// start time usually means the adapter failed to attach the venue timezone.
func (r RawShowing) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("raw showing has empty title")
	}
	if r.StartTime.IsZero() {
		return errors.New("raw showing has zero start time")
	}
	return nil
}

// Scraper fetches the raw showings one cinema lists between two instants.
// Implementations log and return an error on failure; the runner isolates
// failures per cinema, so an error here never aborts sibling scrapes.
type Scraper interface {
	Showings(ctx context.Context, from, to time.Time) ([]RawShowing, error)
}

// AvailabilityChecker is the optional second capability a Scraper may
// implement for venues whose booking systems expose live seat counts.
// Callers type-assert for it; the cinemas table flags which venues have
// a backend worth asking (supports_availability_check).
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, bookingURL string) (available bool, err error)
}

package testsupport

import (
	"context"
	"testing"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCinema inserts a cinema row for tests using the provided store.
func NewCinema(t testing.TB, store *catalog.Store, id, name, city string) *catalog.Cinema {
	t.Helper()

	cinema := &catalog.Cinema{
		ID:               id,
		Name:             name,
		City:             city,
		ScraperType:      "listings",
		HasOnlineBooking: true,
	}
	if err := store.UpsertCinema(context.Background(), cinema); err != nil {
		t.Fatalf("store.UpsertCinema: %v", err)
	}
	return cinema
}

// NewFilm inserts a film row for tests using the provided store.
func NewFilm(t testing.TB, store *catalog.Store, film *catalog.Film) *catalog.Film {
	t.Helper()

	if err := store.CreateFilm(context.Background(), film); err != nil {
		t.Fatalf("store.CreateFilm: %v", err)
	}
	return film
}

// NewShowing inserts a showing row for tests using the provided store.
func NewShowing(t testing.TB, store *catalog.Store, cinemaID, filmID string, start time.Time) *catalog.Showing {
	t.Helper()

	showing := &catalog.Showing{
		CinemaID:  cinemaID,
		FilmID:    filmID,
		StartTime: start,
	}
	if _, err := store.UpsertShowing(context.Background(), showing); err != nil {
		t.Fatalf("store.UpsertShowing: %v", err)
	}
	return showing
}

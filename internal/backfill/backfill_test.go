package backfill_test

import (
	"context"
	"errors"
	"testing"

	"marquee/internal/backfill"
	"marquee/internal/catalog"
	"marquee/internal/testsupport"
	"marquee/internal/tmdb"
)

type fakeSearcher struct {
	searchFunc  func(ctx context.Context, title string, year int) (*tmdb.Result, error)
	detailsFunc func(ctx context.Context, filmID int64) (*tmdb.FilmDetails, error)
}

func (f *fakeSearcher) SearchFilm(ctx context.Context, title string, year int) (*tmdb.Result, error) {
	if f.searchFunc == nil {
		return nil, nil
	}
	return f.searchFunc(ctx, title, year)
}

func (f *fakeSearcher) GetFilmDetails(ctx context.Context, filmID int64) (*tmdb.FilmDetails, error) {
	if f.detailsFunc == nil {
		return nil, nil
	}
	return f.detailsFunc(ctx, filmID)
}

func nosferatuDetails() *tmdb.FilmDetails {
	return &tmdb.FilmDetails{
		ID:          653,
		Title:       "Nosferatu",
		ReleaseDate: "1922-03-04",
		Runtime:     94,
		ProductionCountries: []tmdb.ProductionCountry{
			{ISO: "DE", Name: "Germany"},
		},
		Credits: tmdb.Credits{
			Crew: []tmdb.CrewMember{{Name: "F.W. Murnau", Job: "Director"}},
			Cast: []tmdb.CastMember{{Name: "Max Schreck"}},
		},
	}
}

func TestBackfillSearchesPlaceholders(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewFilm(t, store, &catalog.Film{ID: "nosferatu", Title: "Nosferatu"})

	searcher := &fakeSearcher{
		searchFunc: func(_ context.Context, title string, _ int) (*tmdb.Result, error) {
			if title != "Nosferatu" {
				t.Fatalf("search query = %q", title)
			}
			return &tmdb.Result{ID: 653, Title: "Nosferatu"}, nil
		},
		detailsFunc: func(_ context.Context, filmID int64) (*tmdb.FilmDetails, error) {
			return nosferatuDetails(), nil
		},
	}

	summary, err := backfill.New(store, searcher, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 || summary.Missed != 0 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	film, err := store.GetFilm(ctx, "nosferatu")
	if err != nil {
		t.Fatalf("GetFilm: %v", err)
	}
	if film.TMDBID != 653 || film.Year != 1922 || film.Runtime != 94 {
		t.Fatalf("metadata not applied: %+v", film)
	}
	if len(film.Directors) != 1 || film.Directors[0] != "F.W. Murnau" {
		t.Fatalf("directors = %v", film.Directors)
	}
	if film.IsPlaceholder() {
		t.Fatal("film still a placeholder after backfill")
	}
}

func TestBackfillPrefersDirectFetch(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	// Resolved film whose details fetch failed at resolution time.
	testsupport.NewFilm(t, store, &catalog.Film{ID: "nosferatu-1922", Title: "Nosferatu", TMDBID: 653})

	searcher := &fakeSearcher{
		searchFunc: func(_ context.Context, _ string, _ int) (*tmdb.Result, error) {
			t.Fatal("search used despite known tmdb id")
			return nil, nil
		},
		detailsFunc: func(_ context.Context, filmID int64) (*tmdb.FilmDetails, error) {
			if filmID != 653 {
				t.Fatalf("details id = %d", filmID)
			}
			return nosferatuDetails(), nil
		},
	}

	summary, err := backfill.New(store, searcher, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestBackfillSkipsFilmsWithMetadata(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewFilm(t, store, &catalog.Film{
		ID: "the-third-man-1949", Title: "The Third Man", Year: 1949,
		TMDBID: 1092, Directors: []string{"Carol Reed"},
	})

	searcher := &fakeSearcher{
		detailsFunc: func(_ context.Context, _ int64) (*tmdb.FilmDetails, error) {
			t.Fatal("lookup reached for a film with metadata")
			return nil, nil
		},
	}

	summary, err := backfill.New(store, searcher, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 0 || summary.Missed != 0 {
		t.Fatalf("summary = %+v, want all skipped", summary)
	}
}

func TestBackfillLookupFailureCountsAsMiss(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewFilm(t, store, &catalog.Film{ID: "obscure-short", Title: "Obscure Short"})

	searcher := &fakeSearcher{
		searchFunc: func(_ context.Context, _ string, _ int) (*tmdb.Result, error) {
			return nil, errors.New("tmdb search returned 503")
		},
	}

	summary, err := backfill.New(store, searcher, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Missed != 1 || summary.Updated != 0 {
		t.Fatalf("summary = %+v, want 1 missed", summary)
	}
	if film, _ := store.GetFilm(ctx, "obscure-short"); !film.IsPlaceholder() {
		t.Fatal("failed lookup must leave the placeholder untouched")
	}
}

func TestBackfillNoClientIsNoop(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	summary, err := backfill.New(store, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Updated != 0 || summary.Missed != 0 {
		t.Fatalf("summary = %+v, want noop", summary)
	}
}

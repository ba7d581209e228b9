package scrape_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/resolver"
	"marquee/internal/scrape"
	"marquee/internal/testsupport"
)

type stubScraper struct {
	showings []scrape.RawShowing
	err      error
}

func (s *stubScraper) Showings(_ context.Context, _, _ time.Time) ([]scrape.RawShowing, error) {
	return s.showings, s.err
}

// stubs maps cinema id to its canned scraper for the "stub" type.
var stubs = map[string]*stubScraper{}

func init() {
	scrape.Register("stub", func(cinema *catalog.Cinema, _ *config.Config) (scrape.Scraper, error) {
		stub, ok := stubs[cinema.ID]
		if !ok {
			return nil, errors.New("no stub for cinema " + cinema.ID)
		}
		return stub, nil
	})
}

func futureTime(hours int) time.Time {
	return time.Now().UTC().Truncate(time.Hour).Add(time.Duration(hours) * time.Hour)
}

func newStubCinema(t *testing.T, store *catalog.Store, id, name string) {
	t.Helper()
	cinema := testsupport.NewCinema(t, store, id, name, "london")
	cinema.ScraperType = "stub"
	if err := store.UpsertCinema(context.Background(), cinema); err != nil {
		t.Fatalf("UpsertCinema: %v", err)
	}
}

func newRunner(t *testing.T, store *catalog.Store) *scrape.Runner {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	res := resolver.New(store, nil, nil)
	return scrape.NewRunner(store, res, cfg, nil)
}

func TestRunnerIngestsShowings(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	newStubCinema(t, store, "stub-one", "Stub One")
	stubs["stub-one"] = &stubScraper{showings: []scrape.RawShowing{
		{Title: "Nosferatu (2024)", StartTime: futureTime(30)},
		{Title: "Preview: Nosferatu [35mm] (2024)", StartTime: futureTime(54)},
	}}

	summary, err := newRunner(t, store).Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("run id missing")
	}
	if summary.TotalCreated != 2 || summary.FailedCinemas != 0 {
		t.Fatalf("summary = %+v, want 2 created", summary)
	}

	// Both raw titles resolve to one film.
	total, _, err := store.CountFilms(ctx)
	if err != nil {
		t.Fatalf("CountFilms: %v", err)
	}
	if total != 1 {
		t.Fatalf("films = %d, want 1", total)
	}

	// A second run updates rather than duplicates.
	summary, err = newRunner(t, store).Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run again: %v", err)
	}
	if summary.TotalCreated != 0 || summary.TotalUpdated != 2 {
		t.Fatalf("second run summary = %+v, want 0 created 2 updated", summary)
	}
}

func TestRunnerSplitsDoubleBills(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	newStubCinema(t, store, "stub-bill", "Stub Bill")
	stubs["stub-bill"] = &stubScraper{showings: []scrape.RawShowing{
		{Title: "The Devil-Doll (1936) and Witchcraft (1964)", StartTime: futureTime(26)},
	}}

	summary, err := newRunner(t, store).Run(ctx, []string{"stub-bill"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalCreated != 2 {
		t.Fatalf("created = %d, want 2 for a double bill", summary.TotalCreated)
	}

	total, _, err := store.CountFilms(ctx)
	if err != nil {
		t.Fatalf("CountFilms: %v", err)
	}
	if total != 2 {
		t.Fatalf("films = %d, want 2", total)
	}
}

func TestRunnerFiltersShortAndInvalidShowings(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	newStubCinema(t, store, "stub-filter", "Stub Filter")
	stubs["stub-filter"] = &stubScraper{showings: []scrape.RawShowing{
		{Title: "M", StartTime: futureTime(26)},
		{Title: "Valid Film", StartTime: time.Time{}},
		{Title: "Valid Film", StartTime: futureTime(28)},
	}}

	summary, err := newRunner(t, store).Run(ctx, []string{"stub-filter"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalCreated != 1 {
		t.Fatalf("created = %d, want 1 after filtering", summary.TotalCreated)
	}
	if summary.FailedCinemas != 0 {
		t.Fatalf("filtering must not count as cinema failure: %+v", summary)
	}
}

func TestRunnerIsolatesCinemaFailures(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	newStubCinema(t, store, "stub-good", "Stub Good")
	newStubCinema(t, store, "stub-bad", "Stub Bad")
	stubs["stub-good"] = &stubScraper{showings: []scrape.RawShowing{
		{Title: "Perfect Days", StartTime: futureTime(26)},
	}}
	stubs["stub-bad"] = &stubScraper{err: errors.New("site unreachable")}

	summary, err := newRunner(t, store).Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FailedCinemas != 1 {
		t.Fatalf("failed cinemas = %d, want 1", summary.FailedCinemas)
	}
	if summary.TotalCreated != 1 {
		t.Fatalf("healthy cinema blocked by failing sibling: %+v", summary)
	}
}

func TestRunnerMigratesPlaceholderShowing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	newStubCinema(t, store, "stub-migrate", "Stub Migrate")

	start := futureTime(26)
	testsupport.NewFilm(t, store, &catalog.Film{ID: "certain-women", Title: "Certain Women"})
	testsupport.NewShowing(t, store, "stub-migrate", "certain-women", start)

	// The alias now routes the title to a real film, as after a backfill.
	testsupport.NewFilm(t, store, &catalog.Film{ID: "certain-women-2016", Title: "Certain Women", Year: 2016, TMDBID: 339877})
	if err := store.RepointAlias(ctx, storeAliasRow(t, store, "Certain Women", "certain-women"), "certain-women-2016"); err != nil {
		t.Fatalf("RepointAlias: %v", err)
	}

	stubs["stub-migrate"] = &stubScraper{showings: []scrape.RawShowing{
		{Title: "Certain Women", StartTime: start},
	}}

	summary, err := newRunner(t, store).Run(ctx, []string{"stub-migrate"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalCreated != 0 || summary.TotalUpdated != 1 {
		t.Fatalf("summary = %+v, want migration counted as update", summary)
	}

	if count, err := store.CountShowings(ctx); err != nil || count != 1 {
		t.Fatalf("showings = %d err=%v, want exactly 1 after migration", count, err)
	}
	migrated, err := store.FindShowing(ctx, "stub-migrate", "certain-women-2016", start)
	if err != nil {
		t.Fatalf("FindShowing: %v", err)
	}
	if migrated == nil {
		t.Fatal("placeholder showing was not migrated to the real film")
	}
}

func storeAliasRow(t *testing.T, store *catalog.Store, normalized, filmID string) int64 {
	t.Helper()
	ctx := context.Background()
	if err := store.StoreAlias(ctx, normalized, filmID); err != nil {
		t.Fatalf("StoreAlias: %v", err)
	}
	aliases, err := store.AliasesForFilm(ctx, filmID)
	if err != nil {
		t.Fatalf("AliasesForFilm: %v", err)
	}
	for _, alias := range aliases {
		if alias.NormalizedTitle == normalized {
			return alias.ID
		}
	}
	t.Fatalf("alias %q missing", normalized)
	return 0
}

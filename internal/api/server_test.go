package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"marquee/internal/api"
	"marquee/internal/backfill"
	"marquee/internal/catalog"
	"marquee/internal/reconcile"
	"marquee/internal/resolver"
	"marquee/internal/scrape"
	"marquee/internal/testsupport"
)

func newTestServer(t *testing.T) (*api.Server, *catalog.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := scrape.NewRunner(store, resolver.New(store, nil, nil), cfg, nil)
	srv := api.NewServer(store, runner, reconcile.New(store, nil), backfill.New(store, nil, nil), cfg, nil)
	return srv, store
}

func doRequest(t *testing.T, srv *api.Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(recorder.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	body := decodeBody[map[string]string](t, recorder)
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestShowingsGroupsByFilmThenCinema(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	testsupport.NewCinema(t, store, "pcc", "Prince Charles Cinema", "london")
	testsupport.NewCinema(t, store, "hyde-park", "Hyde Park Picture House", "leeds")

	chimera := testsupport.NewFilm(t, store, &catalog.Film{ID: "la-chimera-2023", Title: "La Chimera", Year: 2023, TMDBID: 838240})
	aftersun := testsupport.NewFilm(t, store, &catalog.Film{ID: "aftersun-2022", Title: "Aftersun", Year: 2022, TMDBID: 965150})

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testsupport.NewShowing(t, store, "rio", chimera.ID, day.Add(18*time.Hour))
	testsupport.NewShowing(t, store, "rio", chimera.ID, day.Add(20*time.Hour+30*time.Minute))
	testsupport.NewShowing(t, store, "pcc", chimera.ID, day.Add(19*time.Hour))
	testsupport.NewShowing(t, store, "pcc", aftersun.ID, day.Add(17*time.Hour+45*time.Minute))
	// Outside the requested slice: wrong city, wrong day.
	testsupport.NewShowing(t, store, "hyde-park", chimera.ID, day.Add(18*time.Hour))
	testsupport.NewShowing(t, store, "rio", aftersun.ID, day.Add(42*time.Hour))

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/showings?date=2026-03-02&city=london", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body.String())
	}
	resp := decodeBody[api.ShowingsResponse](t, recorder)

	if resp.TotalFilms != 2 {
		t.Fatalf("TotalFilms = %d, want 2", resp.TotalFilms)
	}
	if resp.TotalShowings != 4 {
		t.Fatalf("TotalShowings = %d, want 4", resp.TotalShowings)
	}
	if resp.Films[0].Film.ID != chimera.ID {
		t.Fatalf("busiest film = %q, want %q", resp.Films[0].Film.ID, chimera.ID)
	}
	if resp.Films[0].Film.ShowingCount != 3 {
		t.Fatalf("ShowingCount = %d, want 3", resp.Films[0].Film.ShowingCount)
	}
	if len(resp.Films[0].Cinemas) != 2 {
		t.Fatalf("cinema groups = %d, want 2", len(resp.Films[0].Cinemas))
	}
	if resp.Films[1].Film.ID != aftersun.ID || resp.Films[1].Film.ShowingCount != 1 {
		t.Fatalf("second film = %q count %d", resp.Films[1].Film.ID, resp.Films[1].Film.ShowingCount)
	}
	if resp.Query.City != "london" || resp.Query.Date != "2026-03-02" {
		t.Fatalf("query echo = %+v", resp.Query)
	}
	if resp.Query.TimeFrom != "00:00" || resp.Query.TimeTo != "23:59" {
		t.Fatalf("default time window = %s to %s", resp.Query.TimeFrom, resp.Query.TimeTo)
	}
}

func TestShowingsTimeWindow(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	film := testsupport.NewFilm(t, store, &catalog.Film{ID: "la-chimera-2023", Title: "La Chimera", TMDBID: 838240})

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testsupport.NewShowing(t, store, "rio", film.ID, day.Add(14*time.Hour+30*time.Minute))
	testsupport.NewShowing(t, store, "rio", film.ID, day.Add(18*time.Hour))

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/showings?date=2026-03-02&city=london&time_from=17:00", "")
	resp := decodeBody[api.ShowingsResponse](t, recorder)
	if resp.TotalShowings != 1 {
		t.Fatalf("TotalShowings = %d, want 1", resp.TotalShowings)
	}
}

func TestShowingsRejectsMissingDate(t *testing.T) {
	srv, _ := newTestServer(t)

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/showings?city=london", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	body := decodeBody[map[string]any](t, recorder)
	if body["message"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestShowingsDefaultsCityFromConfig(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	film := testsupport.NewFilm(t, store, &catalog.Film{ID: "aftersun-2022", Title: "Aftersun", TMDBID: 965150})
	testsupport.NewShowing(t, store, "rio", film.ID, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/showings?date=2026-03-02", "")
	resp := decodeBody[api.ShowingsResponse](t, recorder)
	if resp.Query.City != "london" {
		t.Fatalf("default city = %q, want london", resp.Query.City)
	}
	if resp.TotalShowings != 1 {
		t.Fatalf("TotalShowings = %d, want 1", resp.TotalShowings)
	}
}

func TestDirectorShowings(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	first := testsupport.NewFilm(t, store, &catalog.Film{
		ID: "certain-women-2016", Title: "Certain Women", Year: 2016, TMDBID: 339408,
		Directors: []string{"Kelly Reichardt"},
	})
	second := testsupport.NewFilm(t, store, &catalog.Film{
		ID: "first-cow-2019", Title: "First Cow", Year: 2019, TMDBID: 531454,
		Directors: []string{"Kelly Reichardt"},
	})
	other := testsupport.NewFilm(t, store, &catalog.Film{
		ID: "la-chimera-2023", Title: "La Chimera", Year: 2023, TMDBID: 838240,
		Directors: []string{"Alice Rohrwacher"},
	})

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testsupport.NewShowing(t, store, "rio", first.ID, day.Add(18*time.Hour))
	testsupport.NewShowing(t, store, "rio", second.ID, day.Add(20*time.Hour))
	testsupport.NewShowing(t, store, "rio", other.ID, day.Add(19*time.Hour))

	target := "/api/v1/director-showings?director=Kelly+Reichardt&date_from=2026-03-02&date_to=2026-03-03"
	recorder := doRequest(t, srv, http.MethodGet, target, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body.String())
	}
	groups := decodeBody[[]api.FilmGroup](t, recorder)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// Alphabetical by title, not by screening volume.
	if groups[0].Film.ID != first.ID || groups[1].Film.ID != second.ID {
		t.Fatalf("order = %q, %q", groups[0].Film.ID, groups[1].Film.ID)
	}

	recorder = doRequest(t, srv, http.MethodGet, target+"&exclude_film_id="+first.ID, "")
	groups = decodeBody[[]api.FilmGroup](t, recorder)
	if len(groups) != 1 || groups[0].Film.ID != second.ID {
		t.Fatalf("excluded groups = %+v", groups)
	}
}

func TestDirectorShowingsRequiresDirector(t *testing.T) {
	srv, _ := newTestServer(t)

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/director-showings?date_from=2026-03-02&date_to=2026-03-03", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestFilmSearch(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	listed := testsupport.NewFilm(t, store, &catalog.Film{ID: "la-chimera-2023", Title: "La Chimera", Year: 2023, TMDBID: 838240})
	unlisted := testsupport.NewFilm(t, store, &catalog.Film{ID: "la-haine-1995", Title: "La Haine", Year: 1995, TMDBID: 406})
	testsupport.NewShowing(t, store, "rio", listed.ID, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/films/search?q=chimera&city=london", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body.String())
	}
	results := decodeBody[[]api.FilmSearchResult](t, recorder)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].ID != listed.ID || results[0].Year != 2023 {
		t.Fatalf("result = %+v", results[0])
	}

	// Films with no showings never surface, even on an exact title match.
	recorder = doRequest(t, srv, http.MethodGet, "/api/v1/films/search?q="+url.QueryEscape(unlisted.Title), "")
	results = decodeBody[[]api.FilmSearchResult](t, recorder)
	if len(results) != 0 {
		t.Fatalf("unlisted results = %d, want 0", len(results))
	}
}

func TestFilmSearchRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/films/search", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestCinemasFiltersByCity(t *testing.T) {
	srv, store := newTestServer(t)

	testsupport.NewCinema(t, store, "rio", "Rio Cinema", "london")
	testsupport.NewCinema(t, store, "pcc", "Prince Charles Cinema", "london")
	testsupport.NewCinema(t, store, "hyde-park", "Hyde Park Picture House", "leeds")

	recorder := doRequest(t, srv, http.MethodGet, "/api/v1/cinemas?city=london", "")
	cinemas := decodeBody[[]api.CinemaSummary](t, recorder)
	if len(cinemas) != 2 {
		t.Fatalf("cinemas = %d, want 2", len(cinemas))
	}
	if cinemas[0].Name != "Prince Charles Cinema" || cinemas[1].Name != "Rio Cinema" {
		t.Fatalf("name order = %q, %q", cinemas[0].Name, cinemas[1].Name)
	}
}

func TestAdminScrapeUnknownCinemas(t *testing.T) {
	srv, _ := newTestServer(t)

	recorder := doRequest(t, srv, http.MethodPost, "/api/v1/admin/scrape", `{"cinema_ids":["nowhere"]}`)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestAdminScrapeDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := api.NewServer(store, nil, nil, nil, cfg, nil)

	recorder := doRequest(t, srv, http.MethodPost, "/api/v1/admin/scrape", "")
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusServiceUnavailable)
	}
}

func TestAdminReconcileDryRun(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	// A placeholder whose title now normalizes to a resolved film's alias.
	placeholder := testsupport.NewFilm(t, store, &catalog.Film{ID: "film-club-la-chimera", Title: "Film Club: La Chimera"})
	real := testsupport.NewFilm(t, store, &catalog.Film{ID: "la-chimera-2023", Title: "La Chimera", TMDBID: 838240})
	if err := store.StoreAlias(ctx, "La Chimera", real.ID); err != nil {
		t.Fatalf("StoreAlias: %v", err)
	}

	recorder := doRequest(t, srv, http.MethodPost, "/api/v1/admin/reconcile?dry_run=true", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body.String())
	}
	summary := decodeBody[reconcile.Summary](t, recorder)
	if summary.Merged != 1 {
		t.Fatalf("Merged = %d, want 1", summary.Merged)
	}

	// Dry run never mutates: the placeholder survives.
	kept, err := store.GetFilm(ctx, placeholder.ID)
	if err != nil || kept == nil {
		t.Fatalf("placeholder after dry run: %v, %v", kept, err)
	}
}

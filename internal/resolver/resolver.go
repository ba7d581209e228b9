package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/match"
	"marquee/internal/title"
	"marquee/internal/tmdb"
)

// Resolver maps raw scraped titles onto canonical films. Resolution runs
// through normalize, alias cache, fuzzy match, TMDB search, and finally a
// placeholder, stopping at the first stage that produces a film. It never
// fails on bad input; the worst case is a placeholder row.
type Resolver struct {
	store  *catalog.Store
	lookup tmdb.Searcher
	logger *slog.Logger
}

// New creates a resolver. lookup may be nil when no TMDB key is configured;
// the external stage is then skipped and unseen titles go straight to
// placeholders for the backfill passes to pick up later.
func New(store *catalog.Store, lookup tmdb.Searcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		store:  store,
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve returns the canonical film for a raw scraped title. Safe to call
// concurrently: creation races on the deterministic film id are resolved by
// re-reading the winner's row, and alias writes are first-writer-wins.
func (r *Resolver) Resolve(ctx context.Context, rawTitle string) (*catalog.Film, error) {
	normalized := title.Normalize(rawTitle)
	if normalized == "" {
		// Whitespace-only titles still get a row so the showing is never
		// dropped. The scrape runner filters these upstream in practice.
		return r.createOrGet(ctx, &catalog.Film{ID: "untitled", Title: "Untitled"})
	}

	film, err := r.fromAlias(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if film != nil {
		return film, nil
	}

	film, err = r.fromFuzzyMatch(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if film != nil {
		return film, nil
	}

	film = r.fromExternalLookup(ctx, normalized)
	if film == nil {
		film = placeholderFilm(normalized)
	}

	film, err = r.createOrGet(ctx, film)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreAlias(ctx, normalized, film.ID); err != nil {
		return nil, err
	}
	return film, nil
}

func (r *Resolver) fromAlias(ctx context.Context, normalized string) (*catalog.Film, error) {
	filmID, err := r.store.LookupAlias(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if filmID == "" {
		return nil, nil
	}
	film, err := r.store.GetFilm(ctx, filmID)
	if err != nil {
		return nil, err
	}
	if film == nil {
		// Dangling alias; the cascade normally prevents this. Fall through
		// to the later stages and let the alias be rewritten.
		r.logger.Warn("alias points at missing film",
			logging.String("normalized_title", normalized),
			logging.String(logging.FieldFilmID, filmID))
		return nil, nil
	}
	return film, nil
}

func (r *Resolver) fromFuzzyMatch(ctx context.Context, normalized string) (*catalog.Film, error) {
	candidates, err := r.store.ListFilms(ctx)
	if err != nil {
		return nil, err
	}
	result := match.Best(normalized, candidates)
	if result == nil {
		return nil, nil
	}
	r.logger.Debug("fuzzy match",
		logging.String("normalized_title", normalized),
		logging.String(logging.FieldFilmID, result.Film.ID),
		logging.Int("score", result.Score))
	if err := r.store.StoreAlias(ctx, normalized, result.Film.ID); err != nil {
		return nil, err
	}
	return result.Film, nil
}

// fromExternalLookup queries TMDB for the title. Any lookup failure is
// treated as a miss; resolution never retries inline, the backfill pass
// owns retries.
func (r *Resolver) fromExternalLookup(ctx context.Context, normalized string) *catalog.Film {
	if r.lookup == nil {
		return nil
	}

	query := title.StripTrailingYear(normalized)
	year, _ := title.EmbeddedYear(normalized)

	result, err := r.lookup.SearchFilm(ctx, query, year)
	if err != nil {
		r.logger.Warn("tmdb search failed",
			logging.String("normalized_title", normalized),
			logging.Error(err))
		return nil
	}
	if result == nil {
		return nil
	}

	film := &catalog.Film{
		Title:      result.Title,
		Year:       result.Year(),
		TMDBID:     result.ID,
		Overview:   result.Overview,
		PosterPath: result.PosterPath,
	}
	details, err := r.lookup.GetFilmDetails(ctx, result.ID)
	if err != nil {
		// Keep the search result; the metadata backfill fills the gaps.
		r.logger.Warn("tmdb details failed",
			logging.Int64("tmdb_id", result.ID),
			logging.Error(err))
	} else if details != nil {
		film.Title = details.Title
		film.Year = details.Year()
		film.Overview = details.Overview
		film.PosterPath = details.PosterPath
		film.Runtime = details.Runtime
		film.Directors = details.Directors()
		film.Countries = details.Countries()
		film.Cast = details.TopCast(3)
	}
	film.ID = FilmID(film.Title, film.Year)
	return film
}

func placeholderFilm(normalized string) *catalog.Film {
	display := title.StripTrailingYear(normalized)
	year := 0
	if y, ok := title.EmbeddedYear(normalized); ok && display != normalized {
		// Only a year that actually trailed the normalized title feeds the
		// placeholder's year field.
		year = y
	}
	return &catalog.Film{
		ID:    FilmID(display, year),
		Title: display,
		Year:  year,
	}
}

// FilmID derives the deterministic film id from display title and year.
// Determinism is what lets concurrent first sightings collide on insert
// instead of creating duplicates.
func FilmID(displayTitle string, year int) string {
	slug := title.Slugify(displayTitle)
	if slug == "" {
		slug = "untitled"
	}
	if year > 0 {
		return slug + "-" + strconv.Itoa(year)
	}
	return slug
}

// createOrGet inserts the film, treating a uniqueness violation as "another
// caller won the race" and returning the existing row instead.
func (r *Resolver) createOrGet(ctx context.Context, film *catalog.Film) (*catalog.Film, error) {
	err := r.store.CreateFilm(ctx, film)
	if err == nil {
		r.logger.Info("film created",
			logging.String(logging.FieldFilmID, film.ID),
			logging.String("film_title", film.Title),
			logging.Bool("placeholder", film.IsPlaceholder()))
		return film, nil
	}
	if !catalog.IsUniqueViolation(err) {
		return nil, fmt.Errorf("create film %s: %w", film.ID, err)
	}

	existing, rerr := r.store.GetFilm(ctx, film.ID)
	if rerr != nil {
		return nil, rerr
	}
	if existing != nil {
		return existing, nil
	}
	// The collision was on tmdb_id, not the id: the same TMDB film already
	// exists under a different slug (year drift between search and details).
	if film.TMDBID != 0 {
		existing, rerr = r.store.GetFilmByTMDBID(ctx, film.TMDBID)
		if rerr != nil {
			return nil, rerr
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("create film %s: %w", film.ID, err)
}

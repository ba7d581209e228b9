// Package backfill fills in TMDB metadata for films the resolver stored
// before full details were available.
package backfill

import (
	"context"
	"log/slog"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/tmdb"
)

// Summary reports the outcome of a backfill pass.
type Summary struct {
	Updated int `json:"updated"`
	Missed  int `json:"missed"`
}

// Backfiller retries TMDB lookups for films with no directors, countries,
// or year on record.
type Backfiller struct {
	store  *catalog.Store
	lookup tmdb.Searcher
	logger *slog.Logger
}

// New creates a backfiller.
func New(store *catalog.Store, lookup tmdb.Searcher, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backfiller{
		store:  store,
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "backfill"),
	}
}

// Run fetches metadata for every film still missing it. Films with a TMDB
// id are fetched directly; the rest go through a title search first. A film
// TMDB does not know stays untouched and is retried on the next pass.
func (b *Backfiller) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if b.lookup == nil {
		b.logger.Warn("no tmdb client configured, skipping backfill")
		return summary, nil
	}

	films, err := b.store.FilmsMissingMetadata(ctx)
	if err != nil {
		return summary, err
	}
	b.logger.Info("backfill starting", logging.Int("films", len(films)))

	for _, film := range films {
		details := b.fetchDetails(ctx, film)
		if details == nil {
			b.logger.Warn("no tmdb data found",
				logging.String(logging.FieldFilmID, film.ID),
				logging.String("film_title", film.Title))
			summary.Missed++
			continue
		}

		film.Directors = details.Directors()
		film.Countries = details.Countries()
		film.Cast = details.TopCast(3)
		if year := details.Year(); year > 0 {
			film.Year = year
		}
		if details.Overview != "" {
			film.Overview = details.Overview
		}
		if details.PosterPath != "" {
			film.PosterPath = details.PosterPath
		}
		if details.Runtime > 0 {
			film.Runtime = details.Runtime
		}
		if film.TMDBID == 0 {
			film.TMDBID = details.ID
		}

		if err := b.store.UpdateFilm(ctx, film); err != nil {
			// A tmdb_id collision here means another film already owns this
			// identity; leave it for the reconciler.
			b.logger.Warn("could not update film",
				logging.String(logging.FieldFilmID, film.ID),
				logging.Error(err))
			summary.Missed++
			continue
		}
		summary.Updated++
	}

	b.logger.Info("backfill finished",
		logging.Int("updated", summary.Updated),
		logging.Int("missed", summary.Missed))
	return summary, nil
}

func (b *Backfiller) fetchDetails(ctx context.Context, film *catalog.Film) *tmdb.FilmDetails {
	if film.TMDBID != 0 {
		details, err := b.lookup.GetFilmDetails(ctx, film.TMDBID)
		if err == nil && details != nil {
			return details
		}
		if err != nil {
			b.logger.Warn("details fetch failed",
				logging.Int64("tmdb_id", film.TMDBID),
				logging.Error(err))
		}
	}

	result, err := b.lookup.SearchFilm(ctx, film.Title, film.Year)
	if err != nil || result == nil {
		if err != nil {
			b.logger.Warn("search failed",
				logging.String("film_title", film.Title),
				logging.Error(err))
		}
		return nil
	}
	details, err := b.lookup.GetFilmDetails(ctx, result.ID)
	if err != nil {
		b.logger.Warn("details fetch failed",
			logging.Int64("tmdb_id", result.ID),
			logging.Error(err))
		return nil
	}
	return details
}

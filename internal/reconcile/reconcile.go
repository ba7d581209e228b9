// Package reconcile merges placeholder films into resolved films once a
// real identity for the same normalized title shows up. The resolver
// deliberately favors producing a placeholder over blocking on lookup
// retries; this is the deferred correction path.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/title"
)

// Summary reports the outcome of a reconciliation pass.
type Summary struct {
	Merged int `json:"merged"`
	Kept   int `json:"kept"`
}

// Reconciler folds placeholder films into their resolved counterparts.
type Reconciler struct {
	store  *catalog.Store
	logger *slog.Logger
}

// New creates a reconciler.
func New(store *catalog.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:  store,
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Reconcile scans every placeholder film for a resolved film covering the
// same normalized title and merges the placeholder into it: showings and
// aliases are re-pointed unless the target already holds an equivalent row,
// in which case the placeholder's copy is deleted, and finally the
// placeholder itself is removed. With dryRun set the pass only detects and
// logs intended merges without touching any rows.
func (r *Reconciler) Reconcile(ctx context.Context, dryRun bool) (Summary, error) {
	var summary Summary

	placeholders, err := r.store.ListPlaceholders(ctx)
	if err != nil {
		return summary, fmt.Errorf("list placeholders: %w", err)
	}

	for _, placeholder := range placeholders {
		normalized := title.Normalize(placeholder.Title)

		alias, err := r.store.FindAliasToRealFilm(ctx, normalized, placeholder.ID)
		if err != nil {
			return summary, fmt.Errorf("probe alias for %s: %w", placeholder.ID, err)
		}
		if alias == nil {
			summary.Kept++
			continue
		}

		if dryRun {
			r.logger.Info("would merge placeholder",
				logging.String(logging.FieldFilmID, placeholder.ID),
				logging.String("target_film_id", alias.FilmID),
				logging.String("normalized_title", normalized))
			summary.Merged++
			continue
		}

		if err := r.merge(ctx, placeholder, alias.FilmID); err != nil {
			return summary, err
		}
		summary.Merged++
	}

	r.logger.Info("reconciliation complete",
		logging.Int("merged", summary.Merged),
		logging.Int("kept", summary.Kept),
		logging.Bool("dry_run", dryRun))
	return summary, nil
}

func (r *Reconciler) merge(ctx context.Context, placeholder *catalog.Film, targetID string) error {
	showings, err := r.store.ShowingsForFilm(ctx, placeholder.ID)
	if err != nil {
		return fmt.Errorf("load showings for %s: %w", placeholder.ID, err)
	}
	for _, showing := range showings {
		existing, err := r.store.FindShowing(ctx, showing.CinemaID, targetID, showing.StartTime)
		if err != nil {
			return fmt.Errorf("probe target showing: %w", err)
		}
		if existing != nil {
			if err := r.store.DeleteShowing(ctx, showing.ID); err != nil {
				return fmt.Errorf("delete duplicate showing %d: %w", showing.ID, err)
			}
			continue
		}
		if err := r.store.RepointShowing(ctx, showing.ID, targetID); err != nil {
			return fmt.Errorf("repoint showing %d: %w", showing.ID, err)
		}
	}

	aliases, err := r.store.AliasesForFilm(ctx, placeholder.ID)
	if err != nil {
		return fmt.Errorf("load aliases for %s: %w", placeholder.ID, err)
	}
	for _, alias := range aliases {
		owned, err := r.store.HasAlias(ctx, alias.NormalizedTitle, targetID)
		if err != nil {
			return fmt.Errorf("probe target alias: %w", err)
		}
		if owned {
			if err := r.store.DeleteAlias(ctx, alias.ID); err != nil {
				return fmt.Errorf("delete stale alias %d: %w", alias.ID, err)
			}
			continue
		}
		if err := r.store.RepointAlias(ctx, alias.ID, targetID); err != nil {
			return fmt.Errorf("repoint alias %d: %w", alias.ID, err)
		}
	}

	if _, err := r.store.DeleteFilm(ctx, placeholder.ID); err != nil {
		return fmt.Errorf("delete placeholder %s: %w", placeholder.ID, err)
	}

	r.logger.Info("merged placeholder",
		logging.String(logging.FieldFilmID, placeholder.ID),
		logging.String("target_film_id", targetID),
		logging.Int("showings", len(showings)),
		logging.Int("aliases", len(aliases)))
	return nil
}

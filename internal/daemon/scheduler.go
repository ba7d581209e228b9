package daemon

import (
	"context"
	"time"

	"marquee/internal/logging"
)

// schedule runs a refresh cycle at startup and then once per configured
// interval until the context ends.
func (d *Daemon) schedule(ctx context.Context) {
	d.runCycle(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runCycle(ctx)
		}
	}
}

// runCycle is one full refresh: prune stale showings, scrape every cinema,
// merge any placeholders the new data resolved, then backfill metadata.
// Each stage failure is logged and the cycle moves on; the next tick
// retries everything anyway.
func (d *Daemon) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cutoff := startOfDay(time.Now())
	if pruned, err := d.store.DeleteShowingsBefore(ctx, cutoff); err != nil {
		d.logger.Warn("prune failed", logging.Error(err))
	} else if pruned > 0 {
		d.logger.Info("pruned stale showings", logging.Int64("count", pruned))
	}

	if _, err := d.runner.Run(ctx, nil); err != nil {
		d.logger.Warn("scheduled scrape failed", logging.Error(err))
	}

	summary, err := d.reconciler.Reconcile(ctx, false)
	if err != nil {
		d.logger.Warn("scheduled reconcile failed", logging.Error(err))
	} else if summary.Merged > 0 {
		d.logger.Info("reconciled placeholders",
			logging.Int("merged", summary.Merged),
			logging.Int("kept", summary.Kept))
	}

	if _, err := d.backfiller.Run(ctx); err != nil {
		d.logger.Warn("scheduled backfill failed", logging.Error(err))
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

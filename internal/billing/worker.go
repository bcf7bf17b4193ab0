// internal/billing/worker.go
//
// Suspension sweep.
//
// Context
// -------
// A lapsed subscription must eventually take its site offline, but only
// after a grace window so a late renewal does not bounce visitors.  The
// Worker ticks on its interval, moves lapsed rows to past_due, and stamps
// suspended_at on their sites.  The tenant loader refuses suspended sites,
// so the change takes effect as caches expire.
package billing

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/metrics"
)

// Worker suspends sites whose subscriptions lapsed past the grace window.
type Worker struct {
	db       *sqlx.DB
	log      *zap.SugaredLogger
	interval time.Duration
	grace    time.Duration
}

// NewWorker returns a Worker; call Run to start it.
func NewWorker(db *sqlx.DB, log *zap.SugaredLogger, interval, grace time.Duration) *Worker {
	return &Worker{db: db, log: log, interval: interval, grace: grace}
}

// Run blocks until ctx ends, sweeping once per interval.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Infow("billing worker started",
		"interval", w.interval,
		"grace", w.grace)

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("billing worker stopped")
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep suspends every site whose subscription lapsed before now-grace.
func (w *Worker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.grace)

	subs, err := DueForSuspension(ctx, w.db, cutoff)
	if err != nil {
		w.log.Errorw("billing sweep query failed", "err", err)
		return
	}
	for _, sub := range subs {
		if err := w.suspend(ctx, sub); err != nil {
			w.log.Errorw("site suspend failed",
				"site", sub.SiteID,
				"subscription", sub.ID,
				"err", err)
			continue
		}
		metrics.SitesSuspendedTotal.Inc()
		w.log.Warnw("site suspended, subscription lapsed",
			"site", sub.SiteID,
			"plan", sub.Plan,
			"period_end", sub.CurrentPeriodEnd)
	}
}

func (w *Worker) suspend(ctx context.Context, sub Subscription) error {
	if err := UpdateStatus(ctx, w.db, sub.ID, StatusPastDue); err != nil {
		return err
	}
	const q = `
        UPDATE sites
        SET    suspended_at = CURRENT_TIMESTAMP
        WHERE  id = ?
          AND  suspended_at IS NULL`
	_, err := w.db.ExecContext(ctx, q, sub.SiteID)
	return err
}

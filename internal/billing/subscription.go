// internal/billing/subscription.go
//
// One subscription row per site.  Status walks trialing → active → past_due
// or canceled; the worker moves lapsed rows to past_due and suspends the
// site, Reactivate walks them back.  No payment provider is wired; period
// ends are set by operators or the seeder.
package billing

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

const (
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Subscription is one row of `subscriptions`.
type Subscription struct {
	entity.Base

	SiteID           int64      `db:"site_id"`
	Plan             string     `db:"plan"`
	Status           string     `db:"status"`
	CurrentPeriodEnd *time.Time `db:"current_period_end"`
}

const subCols = `id, site_id, plan, status, current_period_end, created_at, updated_at`

// BySite fetches the subscription of one site.
func BySite(ctx context.Context, db *sqlx.DB, siteID int64) (*Subscription, error) {
	const q = `
        SELECT ` + subCols + `
        FROM   subscriptions
        WHERE  site_id = ?
        LIMIT  1`
	var sub Subscription
	if err := db.GetContext(ctx, &sub, q, siteID); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Insert stores a new subscription and fills sub.ID.
func Insert(ctx context.Context, db *sqlx.DB, sub *Subscription) error {
	const q = `
        INSERT INTO subscriptions (site_id, plan, status, current_period_end)
        VALUES (?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q, sub.SiteID, sub.Plan, sub.Status, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}
	sub.ID, _ = res.LastInsertId()
	return nil
}

// UpdateStatus moves one subscription to status.
func UpdateStatus(ctx context.Context, db *sqlx.DB, id int64, status string) error {
	const q = `UPDATE subscriptions SET status = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, status, id)
	return err
}

// UpdatePlan moves one subscription to another tier.  Quota checks read the
// plan live, so the new limits apply immediately.
func UpdatePlan(ctx context.Context, db *sqlx.DB, id int64, plan string) error {
	const q = `UPDATE subscriptions SET plan = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, plan, id)
	return err
}

// Renew marks a subscription active through periodEnd.
func Renew(ctx context.Context, db *sqlx.DB, id int64, periodEnd time.Time) error {
	const q = `
        UPDATE subscriptions
        SET    status = ?, current_period_end = ?
        WHERE  id = ?`
	_, err := db.ExecContext(ctx, q, StatusActive, periodEnd, id)
	return err
}

// DueForSuspension lists trialing or active subscriptions whose period ended
// before cutoff.  Rows with no period end never lapse.
func DueForSuspension(ctx context.Context, db *sqlx.DB, cutoff time.Time) ([]Subscription, error) {
	const q = `
        SELECT ` + subCols + `
        FROM   subscriptions
        WHERE  status IN (?, ?)
          AND  current_period_end IS NOT NULL
          AND  current_period_end < ?`
	var subs []Subscription
	if err := db.SelectContext(ctx, &subs, q, StatusTrialing, StatusActive, cutoff); err != nil {
		return nil, err
	}
	return subs, nil
}

// Reactivate renews a site's subscription and lifts the suspension the
// billing worker imposed.  Raw SQL on `sites` keeps this package from
// importing internal/site.
func Reactivate(ctx context.Context, db *sqlx.DB, siteID int64, periodEnd time.Time) error {
	sub, err := BySite(ctx, db, siteID)
	if err != nil {
		return err
	}
	if err := Renew(ctx, db, sub.ID, periodEnd); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE sites SET suspended_at = NULL WHERE id = ?`, siteID)
	return err
}

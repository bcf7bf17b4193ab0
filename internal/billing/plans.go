// internal/billing/plans.go
//
// Static plan catalog and the quota checks page and content creation run
// before inserting.  A site without a subscription row counts as free.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	PlanFree     = "free"
	PlanStarter  = "starter"
	PlanBusiness = "business"
)

// ErrQuotaExceeded wraps every quota refusal; callers show the message as is.
var ErrQuotaExceeded = errors.New("plan quota exceeded")

// Plan describes what one tier allows.
type Plan struct {
	Name        string
	DisplayName string
	MaxPages    int
	MaxContent  int
}

var catalog = []Plan{
	{Name: PlanFree, DisplayName: "Free", MaxPages: 10, MaxContent: 25},
	{Name: PlanStarter, DisplayName: "Starter", MaxPages: 100, MaxContent: 500},
	{Name: PlanBusiness, DisplayName: "Business", MaxPages: 1000, MaxContent: 10000},
}

// Plans lists the catalog, cheapest first.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// PlanByName resolves a plan; unknown names report ok=false.
func PlanByName(name string) (Plan, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// CheckPageQuota fails with ErrQuotaExceeded when the site is at its page
// limit.  Call before inserting a page.
func CheckPageQuota(ctx context.Context, db *sqlx.DB, siteID int64) error {
	const q = `SELECT COUNT(*) FROM pages WHERE site_id = ? AND deleted_at IS NULL`
	return checkQuota(ctx, db, siteID, q, "pages", func(p Plan) int { return p.MaxPages })
}

// CheckContentQuota fails with ErrQuotaExceeded when the site is at its
// content limit.  Call before inserting a content item.
func CheckContentQuota(ctx context.Context, db *sqlx.DB, siteID int64) error {
	const q = `SELECT COUNT(*) FROM content WHERE site_id = ? AND deleted_at IS NULL`
	return checkQuota(ctx, db, siteID, q, "content items", func(p Plan) int { return p.MaxContent })
}

func checkQuota(ctx context.Context, db *sqlx.DB, siteID int64, countQ, noun string, limit func(Plan) int) error {
	plan, err := sitePlan(ctx, db, siteID)
	if err != nil {
		return err
	}

	var count int
	if err := db.GetContext(ctx, &count, countQ, siteID); err != nil {
		return err
	}
	if max := limit(plan); count >= max {
		return fmt.Errorf("%w: the %s plan allows %d %s", ErrQuotaExceeded, plan.DisplayName, max, noun)
	}
	return nil
}

// sitePlan resolves the site's plan, treating a missing or unknown
// subscription as free.
func sitePlan(ctx context.Context, db *sqlx.DB, siteID int64) (Plan, error) {
	free, _ := PlanByName(PlanFree)

	sub, err := BySite(ctx, db, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return free, nil
	}
	if err != nil {
		return Plan{}, err
	}
	if p, ok := PlanByName(sub.Plan); ok {
		return p, nil
	}
	return free, nil
}

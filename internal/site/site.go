// internal/site/site.go
//
// Site records.
//
// A site is one tenant: a hostname, a theme, and the pages under it.  The
// operational state is captured by two nullable timestamps:
//
//   - SuspendedAt – site is temporarily offline (billing lapse, abuse).
//   - DeletedAt   – site is removed; kept for restore.
//
// Either timestamp being non-NULL keeps the tenant loader from serving the
// site.  RouteVersion increments on every page mutation; the per-tenant
// path cache compares it before trusting a hit.
package site

import (
	"time"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// Record mirrors one row of the `sites` table.
type Record struct {
	entity.Base
	entity.SoftDelete
	Host         string     `db:"host"`
	Name         string     `db:"name"`
	URLSlug      string     `db:"url_slug"`
	AdminEmail   string     `db:"admin_email"`
	Title        string     `db:"title"`
	Locale       string     `db:"locale"`
	ThemeID      *int64     `db:"theme_id"`
	RouteVersion int        `db:"route_version"`
	SuspendedAt  *time.Time `db:"suspended_at"`
}

// Active reports whether the site may serve traffic.
func (r *Record) Active() bool {
	return r.SuspendedAt == nil && !r.Deleted()
}

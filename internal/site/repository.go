// internal/site/repository.go
//
// Queries against the `sites` and `site_config` tables.  Driver errors
// return verbatim; the service layer maps duplicates and missing rows to
// user-facing failures.
package site

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const siteCols = `id, host, name, url_slug, admin_email, title, locale, theme_id,
	       route_version, suspended_at, deleted_at, created_at, updated_at`

// ByHost fetches a not-deleted site row by hostname.  Suspended rows come
// back so the tenant loader can refuse them distinctly from unknown
// hosts.  This sits on the hot path: every tenant cache miss lands here.
func ByHost(ctx context.Context, db *sqlx.DB, host string) (*Record, error) {
	const q = `
        SELECT ` + siteCols + `
        FROM   sites
        WHERE  host = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, host); err != nil {
		return nil, err
	}
	return &rec, nil
}

// BySlug fetches an active site by its URL slug.
func BySlug(ctx context.Context, db *sqlx.DB, slug string) (*Record, error) {
	const q = `
        SELECT ` + siteCols + `
        FROM   sites
        WHERE  url_slug = ?
          AND  suspended_at IS NULL
          AND  deleted_at   IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, slug); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a not-deleted site, suspended included, for admin use.
func ByID(ctx context.Context, db *sqlx.DB, id int64) (*Record, error) {
	const q = `
        SELECT ` + siteCols + `
        FROM   sites
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// All returns every not-deleted site for the admin listing, suspended
// included, newest first.
func All(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT ` + siteCols + `
        FROM   sites
        WHERE  deleted_at IS NULL
        ORDER  BY id DESC`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// AllActive returns every servable site.  Batch jobs and diagnostics use
// it, not the HTTP path.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT ` + siteCols + `
        FROM   sites
        WHERE  suspended_at IS NULL
          AND  deleted_at   IS NULL
        ORDER  BY host`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActive backs the billing quota check and diagnostics.
func CountActive(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	err := db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM sites WHERE suspended_at IS NULL AND deleted_at IS NULL`)
	return n, err
}

// Insert stores a new site and returns its ID.  Host and slug collisions
// surface as MySQL 1062.
func Insert(ctx context.Context, db *sqlx.DB, r *Record) (int64, error) {
	const q = `
        INSERT INTO sites (host, name, url_slug, admin_email, title, locale, theme_id)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		r.Host, r.Name, r.URLSlug, r.AdminEmail, r.Title, r.Locale, r.ThemeID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the editable columns and bumps the route version, since
// title and locale feed rendered pages.
func Update(ctx context.Context, db *sqlx.DB, r *Record) error {
	const q = `
        UPDATE sites
        SET    name = ?, admin_email = ?, title = ?, locale = ?,
               route_version = route_version + 1
        WHERE  id = ? AND deleted_at IS NULL`
	_, err := db.ExecContext(ctx, q, r.Name, r.AdminEmail, r.Title, r.Locale, r.ID)
	return err
}

// SetTheme points the site at a theme and bumps the route version.
func SetTheme(ctx context.Context, db *sqlx.DB, siteID, themeID int64) error {
	const q = `
        UPDATE sites
        SET    theme_id = ?, route_version = route_version + 1
        WHERE  id = ? AND deleted_at IS NULL`
	_, err := db.ExecContext(ctx, q, themeID, siteID)
	return err
}

// Suspend takes a site offline without touching its content.
func Suspend(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sites SET suspended_at = CURRENT_TIMESTAMP WHERE id = ? AND suspended_at IS NULL`, id)
	return err
}

// Unsuspend brings a suspended site back.
func Unsuspend(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sites SET suspended_at = NULL WHERE id = ?`, id)
	return err
}

// SoftDelete hides the site from every query path.  Content rows stay for
// Restore.
func SoftDelete(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sites SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	return err
}

// Restore undoes a soft delete.
func Restore(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sites SET deleted_at = NULL WHERE id = ?`, id)
	return err
}

// RouteVersion reads the current version for path-cache validation.
func RouteVersion(ctx context.Context, db *sqlx.DB, id int64) (int, error) {
	var v int
	err := db.GetContext(ctx, &v, `SELECT route_version FROM sites WHERE id = ?`, id)
	return v, err
}

// ConfigBySite returns the site's key-value settings as a map.  The query
// runs once when the tenant loads; the map is cached on the tenant entry.
func ConfigBySite(ctx context.Context, db *sqlx.DB, siteID int64) (map[string]string, error) {
	const q = `
        SELECT name, value
        FROM   site_config
        WHERE  site_id = ?`
	rows := make([]struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}, 0, 8) // small default cap

	if err := db.SelectContext(ctx, &rows, q, siteID); err != nil {
		return nil, err
	}

	cfg := make(map[string]string, len(rows))
	for _, r := range rows {
		cfg[r.Name] = r.Value
	}
	return cfg, nil
}

// SetConfig upserts one site_config row.
func SetConfig(ctx context.Context, db *sqlx.DB, siteID int64, name, value string) error {
	const q = `
        INSERT INTO site_config (site_id, name, value)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE value = VALUES(value)`
	_, err := db.ExecContext(ctx, q, siteID, name, value)
	return err
}

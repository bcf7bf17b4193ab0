// internal/page/repository.go
//
// Queries against the `pages` table.  Every mutation bumps the owning site's
// route_version so per-tenant path caches notice the change on their next
// check.  Driver errors return verbatim; the service layer maps duplicates
// and missing rows to user-facing failures.
package page

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const pageCols = `id, site_id, master_page_id, title, slug, path, body_html,
	       meta_description, show_in_navigation, is_published, sort_order,
	       deleted_at, created_at, updated_at`

// ByPath fetches one published page of a site.  Hot path: the portal renderer
// calls it on every path-cache hit.
func ByPath(ctx context.Context, db *sqlx.DB, siteID int64, path string) (*Record, error) {
	const q = `
        SELECT ` + pageCols + `
        FROM   pages
        WHERE  site_id = ?
          AND  path = ?
          AND  is_published = 1
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, siteID, path); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a not-deleted page, drafts included, for admin use.
func ByID(ctx context.Context, db *sqlx.DB, id int64) (*Record, error) {
	const q = `
        SELECT ` + pageCols + `
        FROM   pages
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// BySite lists all live pages of a site ordered by path, drafts included.
func BySite(ctx context.Context, db *sqlx.DB, siteID int64) ([]Record, error) {
	const q = `
        SELECT ` + pageCols + `
        FROM   pages
        WHERE  site_id = ?
          AND  deleted_at IS NULL
        ORDER  BY path`
	var recs []Record
	if err := db.SelectContext(ctx, &recs, q, siteID); err != nil {
		return nil, err
	}
	return recs, nil
}

// Navigation lists the published pages a site's menu shows, in menu order.
func Navigation(ctx context.Context, db *sqlx.DB, siteID int64) ([]Record, error) {
	const q = `
        SELECT ` + pageCols + `
        FROM   pages
        WHERE  site_id = ?
          AND  show_in_navigation = 1
          AND  is_published = 1
          AND  deleted_at IS NULL
        ORDER  BY sort_order, title`
	var recs []Record
	if err := db.SelectContext(ctx, &recs, q, siteID); err != nil {
		return nil, err
	}
	return recs, nil
}

// Insert stores a new page and fills rec.ID.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO pages
               (site_id, master_page_id, title, slug, path, body_html,
                meta_description, show_in_navigation, is_published, sort_order)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		rec.SiteID, rec.MasterPageID, rec.Title, rec.Slug, rec.Path,
		rec.BodyHTML, rec.MetaDescription, rec.ShowInNavigation,
		rec.IsPublished, rec.SortOrder)
	if err != nil {
		return err
	}
	rec.ID, _ = res.LastInsertId()
	return bumpRouteVersion(ctx, db, rec.SiteID)
}

// Update rewrites the editable columns of rec.
func Update(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        UPDATE pages
        SET    master_page_id = ?, title = ?, slug = ?, path = ?, body_html = ?,
               meta_description = ?, show_in_navigation = ?, sort_order = ?
        WHERE  id = ?
          AND  site_id = ?`
	if _, err := db.ExecContext(ctx, q,
		rec.MasterPageID, rec.Title, rec.Slug, rec.Path, rec.BodyHTML,
		rec.MetaDescription, rec.ShowInNavigation, rec.SortOrder,
		rec.ID, rec.SiteID); err != nil {
		return err
	}
	return bumpRouteVersion(ctx, db, rec.SiteID)
}

// Publish makes a page visible to portal visitors.
func Publish(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	return setPublished(ctx, db, siteID, id, true)
}

// Unpublish pulls a page back to draft.
func Unpublish(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	return setPublished(ctx, db, siteID, id, false)
}

func setPublished(ctx context.Context, db *sqlx.DB, siteID, id int64, published bool) error {
	const q = `
        UPDATE pages
        SET    is_published = ?
        WHERE  id = ?
          AND  site_id = ?
          AND  deleted_at IS NULL`
	if _, err := db.ExecContext(ctx, q, published, id, siteID); err != nil {
		return err
	}
	return bumpRouteVersion(ctx, db, siteID)
}

// SoftDelete stamps deleted_at; the row stays for audit and undelete.
func SoftDelete(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	const q = `
        UPDATE pages
        SET    deleted_at = CURRENT_TIMESTAMP
        WHERE  id = ?
          AND  site_id = ?
          AND  deleted_at IS NULL`
	if _, err := db.ExecContext(ctx, q, id, siteID); err != nil {
		return err
	}
	return bumpRouteVersion(ctx, db, siteID)
}

// MasterChain resolves rec's layout inheritance, innermost page first.  The
// walk fails when it revisits a page or grows past MaxMasterDepth.
func MasterChain(ctx context.Context, db *sqlx.DB, rec *Record) ([]*Record, error) {
	chain := []*Record{rec}
	seen := map[int64]bool{rec.ID: true}

	cur := rec
	for cur.MasterPageID != nil {
		next := *cur.MasterPageID
		if seen[next] {
			return nil, fmt.Errorf("page %d: master chain loops at page %d", rec.ID, next)
		}
		if len(chain) == MaxMasterDepth {
			return nil, fmt.Errorf("page %d: master chain deeper than %d", rec.ID, MaxMasterDepth)
		}
		m, err := ByID(ctx, db, next)
		if err != nil {
			return nil, fmt.Errorf("page %d: resolve master %d: %w", rec.ID, next, err)
		}
		seen[m.ID] = true
		chain = append(chain, m)
		cur = m
	}
	return chain, nil
}

// bumpRouteVersion invalidates path caches for one site.  Raw SQL on `sites`
// keeps this package from importing internal/site.
func bumpRouteVersion(ctx context.Context, db *sqlx.DB, siteID int64) error {
	const q = `UPDATE sites SET route_version = route_version + 1 WHERE id = ?`
	_, err := db.ExecContext(ctx, q, siteID)
	return err
}

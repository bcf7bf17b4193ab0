// internal/content/content.go
//
// Content items are uploaded assets tracked per site.  The row stores
// metadata only; bytes live wherever the asset_key points (local disk today,
// object storage later).  Keys are opaque UUIDs so nothing about the tenant
// or filename leaks into public URLs.
package content

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// Record is one row of `content`.
type Record struct {
	entity.Base
	entity.SoftDelete

	SiteID      int64  `db:"site_id"`
	Title       string `db:"title"`
	AssetKey    string `db:"asset_key"`
	MimeType    string `db:"mime_type"`
	SizeBytes   int64  `db:"size_bytes"`
	Description string `db:"description"`
}

const contentCols = `id, site_id, title, asset_key, mime_type, size_bytes,
	       description, deleted_at, created_at, updated_at`

// ByID fetches one live content row.
func ByID(ctx context.Context, db *sqlx.DB, id int64) (*Record, error) {
	const q = `
        SELECT ` + contentCols + `
        FROM   content
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByAssetKey resolves the public asset URL back to its row.
func ByAssetKey(ctx context.Context, db *sqlx.DB, key string) (*Record, error) {
	const q = `
        SELECT ` + contentCols + `
        FROM   content
        WHERE  asset_key = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, key); err != nil {
		return nil, err
	}
	return &rec, nil
}

// BySite lists a site's live content, newest first.
func BySite(ctx context.Context, db *sqlx.DB, siteID int64) ([]Record, error) {
	const q = `
        SELECT ` + contentCols + `
        FROM   content
        WHERE  site_id = ?
          AND  deleted_at IS NULL
        ORDER  BY id DESC`
	var recs []Record
	if err := db.SelectContext(ctx, &recs, q, siteID); err != nil {
		return nil, err
	}
	return recs, nil
}

// Insert stores a new row and fills rec.ID.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO content (site_id, title, asset_key, mime_type, size_bytes, description)
        VALUES (?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		rec.SiteID, rec.Title, rec.AssetKey, rec.MimeType, rec.SizeBytes, rec.Description)
	if err != nil {
		return err
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// Update rewrites the editable metadata.  The asset key never changes.
func Update(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        UPDATE content
        SET    title = ?, description = ?
        WHERE  id = ?
          AND  site_id = ?
          AND  deleted_at IS NULL`
	_, err := db.ExecContext(ctx, q, rec.Title, rec.Description, rec.ID, rec.SiteID)
	return err
}

// SoftDelete stamps deleted_at; the row stays for audit and undelete.
func SoftDelete(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	const q = `
        UPDATE content
        SET    deleted_at = CURRENT_TIMESTAMP
        WHERE  id = ?
          AND  site_id = ?
          AND  deleted_at IS NULL`
	_, err := db.ExecContext(ctx, q, id, siteID)
	return err
}

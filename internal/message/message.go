// internal/message/message.go
//
// Contact messages.  The portal's contact form stores one row per
// submission; the admin API lists them per site.  Outbound delivery
// (email, webhooks) is deliberately absent, the inbox is the product.
package message

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// Record mirrors one row of `messages`.
type Record struct {
	entity.Base
	SiteID  int64  `db:"site_id"`
	Name    string `db:"name"`
	Email   string `db:"email"`
	Subject string `db:"subject"`
	Body    string `db:"body"`
}

const messageCols = `id, site_id, name, email, subject, body, created_at, updated_at`

// Insert stores one contact message and returns its ID.
func Insert(ctx context.Context, db *sqlx.DB, r *Record) (int64, error) {
	const q = `
        INSERT INTO messages (site_id, name, email, subject, body)
        VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q, r.SiteID, r.Name, r.Email, r.Subject, r.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BySite lists a site's messages, newest first.  limit <= 0 means 100.
func BySite(ctx context.Context, db *sqlx.DB, siteID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
        SELECT ` + messageCols + `
        FROM   messages
        WHERE  site_id = ?
        ORDER  BY id DESC
        LIMIT  ?`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q, siteID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes one message, admin inbox cleanup.
func Delete(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND site_id = ?`, id, siteID)
	return err
}

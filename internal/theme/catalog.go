// internal/theme/catalog.go
//
// The `themes` table is the catalog of installed themes.  A row's name is the
// directory under the themes root that the Manager parses; sites reference
// rows by id.  Exactly one row should carry is_default, which provisioning
// falls back to when a new site names no theme.
package theme

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// Record is one row of `themes`.
type Record struct {
	entity.Base

	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	Description string `db:"description"`
	Version     string `db:"version"`
	IsDefault   bool   `db:"is_default"`
}

const themeCols = `id, name, display_name, description, version, is_default,
	       created_at, updated_at`

// All lists the catalog ordered by name.
func All(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT ` + themeCols + `
        FROM   themes
        ORDER  BY name`
	var recs []Record
	if err := db.SelectContext(ctx, &recs, q); err != nil {
		return nil, err
	}
	return recs, nil
}

// ByID fetches one catalog row.
func ByID(ctx context.Context, db *sqlx.DB, id int64) (*Record, error) {
	const q = `
        SELECT ` + themeCols + `
        FROM   themes
        WHERE  id = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByName fetches a catalog row by its directory name.
func ByName(ctx context.Context, db *sqlx.DB, name string) (*Record, error) {
	const q = `
        SELECT ` + themeCols + `
        FROM   themes
        WHERE  name = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, name); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Default fetches the fallback theme for sites that name none.
func Default(ctx context.Context, db *sqlx.DB) (*Record, error) {
	const q = `
        SELECT ` + themeCols + `
        FROM   themes
        WHERE  is_default = 1
        ORDER  BY id
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert stores a new catalog row and fills rec.ID.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO themes (name, display_name, description, version, is_default)
        VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		rec.Name, rec.DisplayName, rec.Description, rec.Version, rec.IsDefault)
	if err != nil {
		return err
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// SetDefault moves the default flag to one theme in a single statement pair.
func SetDefault(ctx context.Context, db *sqlx.DB, id int64) error {
	if _, err := db.ExecContext(ctx, `UPDATE themes SET is_default = 0 WHERE is_default = 1`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `UPDATE themes SET is_default = 1 WHERE id = ?`, id)
	return err
}

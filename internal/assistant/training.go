// internal/assistant/training.go
//
// Curated knowledge rows an operator feeds the assistant beyond what the
// site's pages say.  Rows are hard-deleted: they are operator notes, not
// customer content, so nothing audits their removal.
package assistant

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// TrainingRow is one row of `training_data`.
type TrainingRow struct {
	entity.Base

	SiteID   int64  `db:"site_id"`
	Category string `db:"category"`
	Content  string `db:"content"`
	Source   string `db:"source"`
	Priority int    `db:"priority"`
	IsActive bool   `db:"is_active"`
}

const trainingCols = `id, site_id, category, content, source, priority, is_active,
	       created_at, updated_at`

// TrainingBySite lists every training row of a site for the admin screens,
// highest priority first.
func TrainingBySite(ctx context.Context, db *sqlx.DB, siteID int64) ([]TrainingRow, error) {
	const q = `
        SELECT ` + trainingCols + `
        FROM   training_data
        WHERE  site_id = ?
        ORDER  BY priority DESC, created_at DESC`
	var rows []TrainingRow
	if err := db.SelectContext(ctx, &rows, q, siteID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ActiveBySite lists the active rows the prompt builder uses, capped.
func ActiveBySite(ctx context.Context, db *sqlx.DB, siteID int64, limit int) ([]TrainingRow, error) {
	const q = `
        SELECT ` + trainingCols + `
        FROM   training_data
        WHERE  site_id = ?
          AND  is_active = 1
        ORDER  BY priority DESC, created_at DESC
        LIMIT  ?`
	var rows []TrainingRow
	if err := db.SelectContext(ctx, &rows, q, siteID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertTraining stores a new row and fills row.ID.
func InsertTraining(ctx context.Context, db *sqlx.DB, row *TrainingRow) error {
	const q = `
        INSERT INTO training_data (site_id, category, content, source, priority, is_active)
        VALUES (?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		row.SiteID, row.Category, row.Content, row.Source, row.Priority, row.IsActive)
	if err != nil {
		return err
	}
	row.ID, _ = res.LastInsertId()
	return nil
}

// UpdateTraining rewrites an existing row's editable columns.
func UpdateTraining(ctx context.Context, db *sqlx.DB, row *TrainingRow) error {
	const q = `
        UPDATE training_data
        SET    category = ?, content = ?, source = ?, priority = ?, is_active = ?
        WHERE  id = ?
          AND  site_id = ?`
	_, err := db.ExecContext(ctx, q,
		row.Category, row.Content, row.Source, row.Priority, row.IsActive,
		row.ID, row.SiteID)
	return err
}

// DeleteTraining removes a row outright.
func DeleteTraining(ctx context.Context, db *sqlx.DB, siteID, id int64) error {
	const q = `DELETE FROM training_data WHERE id = ? AND site_id = ?`
	_, err := db.ExecContext(ctx, q, id, siteID)
	return err
}

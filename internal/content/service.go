// internal/content/service.go
//
// Creation path: verify the site, check the plan quota, mint the asset key.
// Callers never supply keys; a fresh UUID per item keeps them unguessable
// and collision-free across every tenant in the shared table.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/site"
)

// NewContent is the creation input.
type NewContent struct {
	SiteID      int64
	Title       string
	MimeType    string
	SizeBytes   int64
	Description string
}

// Service creates content items.
type Service struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// NewService returns a Service over db.
func NewService(db *sqlx.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Create validates the site, enforces the plan quota, and stores the item
// under a fresh asset key.
func (s *Service) Create(ctx context.Context, in NewContent) (*Record, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("content: title is required")
	}

	if _, err := site.ByID(ctx, s.db, in.SiteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, site.ErrUnknownSite
		}
		return nil, err
	}
	if err := billing.CheckContentQuota(ctx, s.db, in.SiteID); err != nil {
		return nil, err
	}

	if in.MimeType == "" {
		in.MimeType = "application/octet-stream"
	}
	rec := &Record{
		SiteID:      in.SiteID,
		Title:       in.Title,
		AssetKey:    uuid.NewString(),
		MimeType:    in.MimeType,
		SizeBytes:   in.SizeBytes,
		Description: in.Description,
	}
	if err := Insert(ctx, s.db, rec); err != nil {
		return nil, err
	}

	s.log.Infow("content created",
		"site", rec.SiteID,
		"content", rec.ID,
		"asset_key", rec.AssetKey,
		"mime", rec.MimeType)
	return rec, nil
}

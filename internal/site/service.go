// internal/site/service.go
//
// Provisioning and theme application.
//
// Context
// -------
// A new customer gets a whole tenant from one call: the site row, its
// default config, a published home page, and a trial subscription.  The
// steps run sequentially without a wrapping transaction; a duplicate host
// fails first, before anything else exists, which is the only collision
// seen in practice.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

var (
	ErrUnknownSite   = errors.New("site: unknown site")
	ErrUnknownTheme  = errors.New("site: unknown theme")
	ErrDuplicateHost = errors.New("site: host already in use")
	ErrDuplicateSlug = errors.New("site: url slug already in use")
)

// NewSite is the provisioning input.  ThemeID may stay nil to take the
// catalog default.
type NewSite struct {
	Host       string
	Name       string
	URLSlug    string
	AdminEmail string
	Title      string
	Locale     string
	ThemeID    *int64
}

// Service provisions sites and applies themes.
type Service struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// NewService returns a Service over db.
func NewService(db *sqlx.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Provision creates a complete tenant and returns the site row.
func (s *Service) Provision(ctx context.Context, in NewSite) (*Record, error) {
	in.Host = strings.ToLower(strings.TrimSpace(in.Host))
	in.Name = strings.TrimSpace(in.Name)
	if in.Host == "" || in.Name == "" {
		return nil, fmt.Errorf("site: host and name are required")
	}
	if in.URLSlug == "" {
		in.URLSlug = page.MakeSlug(in.Name)
	}
	if in.Title == "" {
		in.Title = in.Name
	}
	if in.Locale == "" {
		in.Locale = "en"
	}

	th, err := s.resolveTheme(ctx, in.ThemeID)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Host:       in.Host,
		Name:       in.Name,
		URLSlug:    in.URLSlug,
		AdminEmail: in.AdminEmail,
		Title:      in.Title,
		Locale:     in.Locale,
		ThemeID:    &th.ID,
	}
	id, err := Insert(ctx, s.db, rec)
	if err != nil {
		return nil, mapDuplicate(err)
	}
	rec.ID = id

	defaults := []struct{ name, value string }{
		{"tagline", ""},
		{"footer_text", "Powered by Mosaic"},
		{"contact_email", in.AdminEmail},
	}
	for _, d := range defaults {
		if err := SetConfig(ctx, s.db, rec.ID, d.name, d.value); err != nil {
			return nil, fmt.Errorf("site %d: seed config %q: %w", rec.ID, d.name, err)
		}
	}

	home := &page.Record{
		SiteID:           rec.ID,
		Title:            "Home",
		Slug:             "home",
		Path:             "/",
		BodyHTML:         "<h1>Welcome to " + in.Title + "</h1>",
		ShowInNavigation: true,
		IsPublished:      true,
	}
	if err := page.Insert(ctx, s.db, home); err != nil {
		return nil, fmt.Errorf("site %d: create home page: %w", rec.ID, err)
	}

	sub := &billing.Subscription{
		SiteID: rec.ID,
		Plan:   billing.PlanFree,
		Status: billing.StatusTrialing,
	}
	if err := billing.Insert(ctx, s.db, sub); err != nil {
		return nil, fmt.Errorf("site %d: create subscription: %w", rec.ID, err)
	}

	s.log.Infow("site provisioned",
		"site", rec.ID,
		"host", rec.Host,
		"theme", th.Name,
		"plan", sub.Plan)
	return rec, nil
}

// ApplyTheme points a site at a catalog theme and bumps its route version so
// tenants re-render with the new look.
func (s *Service) ApplyTheme(ctx context.Context, siteID, themeID int64) error {
	rec, err := ByID(ctx, s.db, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownSite
	}
	if err != nil {
		return err
	}

	th, err := theme.ByID(ctx, s.db, themeID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownTheme
	}
	if err != nil {
		return err
	}

	if err := SetTheme(ctx, s.db, rec.ID, th.ID); err != nil {
		return err
	}
	s.log.Infow("theme applied",
		"site", rec.ID,
		"host", rec.Host,
		"theme", th.Name)
	return nil
}

func (s *Service) resolveTheme(ctx context.Context, id *int64) (*theme.Record, error) {
	if id != nil {
		th, err := theme.ByID(ctx, s.db, *id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownTheme
		}
		return th, err
	}
	th, err := theme.Default(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site: no default theme installed")
	}
	return th, err
}

// mapDuplicate turns a unique-key collision into the matching sentinel.
func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return err
	}
	switch {
	case strings.Contains(me.Message, "uq_sites_host"):
		return ErrDuplicateHost
	case strings.Contains(me.Message, "uq_sites_url_slug"):
		return ErrDuplicateSlug
	}
	return err
}

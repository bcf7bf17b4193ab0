// internal/seed/seed.go
//
// First-boot data.
//
// Context
// -------
// A fresh database has tables but nothing to serve.  Run inserts the
// rows a new install needs: the three role names, the catalog entry for
// the bundled "base" theme, an administrator account, and a demo site
// answering on localhost with starter pages and assistant notes.  Every
// step checks before it creates, so Run is safe on every boot when
// database.seed stays on.
//
// Notes
// -----
//   - The admin password is a known bootstrap value; Run logs a warning
//     until it is changed.
//   - Oxford commas, two spaces after periods.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mosaic-cms/mosaic/internal/assistant"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

// Bootstrap values for a fresh install.
const (
	DefaultTheme  = "base"
	AdminEmail    = "admin@localhost"
	AdminUsername = "admin"
	AdminPassword = "change-me-now"
	DemoHost      = "localhost"
)

// Run makes sure the bootstrap rows exist.  Idempotent; the closing log
// line reports how many steps created rows and how many found their rows
// already present.
func Run(ctx context.Context, db *sqlx.DB, log *zap.SugaredLogger) error {
	steps := []struct {
		name string
		fn   func(context.Context, *sqlx.DB, *zap.SugaredLogger) (bool, error)
	}{
		{"roles", roles},
		{"theme", defaultTheme},
		{"admin", adminUser},
		{"demo site", demoSite},
	}

	created, skipped := 0, 0
	for _, s := range steps {
		did, err := s.fn(ctx, db, log)
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.name, err)
		}
		if did {
			created++
		} else {
			skipped++
		}
	}
	log.Infow("seed complete", "created", created, "skipped", skipped)
	return nil
}

func roles(ctx context.Context, db *sqlx.DB, _ *zap.SugaredLogger) (bool, error) {
	const q = `INSERT IGNORE INTO roles (name) VALUES (?), (?), (?)`
	res, err := db.ExecContext(ctx, q,
		identity.RoleAdministrator, identity.RoleEditor, identity.RoleMember)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func defaultTheme(ctx context.Context, db *sqlx.DB, log *zap.SugaredLogger) (bool, error) {
	_, err := theme.ByName(ctx, db, DefaultTheme)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	rec := &theme.Record{
		Name:        DefaultTheme,
		DisplayName: "Base",
		Description: "Bundled starter theme.",
		Version:     "1.0.0",
		IsDefault:   true,
	}
	if err := theme.Insert(ctx, db, rec); err != nil {
		return false, err
	}
	log.Infow("seeded default theme", "theme", DefaultTheme)
	return true, nil
}

func adminUser(ctx context.Context, db *sqlx.DB, log *zap.SugaredLogger) (bool, error) {
	_, err := identity.ByLogin(ctx, db, AdminEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	u := &identity.User{
		Email:         AdminEmail,
		Username:      AdminUsername,
		PasswordHash:  string(hash),
		DisplayName:   "Administrator",
		SecurityStamp: identity.NewSecurityStamp(),
	}
	id, err := identity.Insert(ctx, db, u)
	if err != nil {
		return false, err
	}
	if err := identity.AddRole(ctx, db, id, identity.RoleAdministrator); err != nil {
		return false, err
	}
	log.Warnw("seeded admin user with the bootstrap password, change it",
		"email", AdminEmail)
	return true, nil
}

func demoSite(ctx context.Context, db *sqlx.DB, log *zap.SugaredLogger) (bool, error) {
	_, err := site.ByHost(ctx, db, DemoHost)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	svc := site.NewService(db, log)
	rec, err := svc.Provision(ctx, site.NewSite{
		Host:       DemoHost,
		Name:       "Mosaic Demo",
		AdminEmail: AdminEmail,
		Title:      "Mosaic Demo",
	})
	if err != nil {
		return false, err
	}

	// Provision covers the home page, config, and subscription; the demo
	// site additionally gets an about page and two assistant notes so the
	// first chat has something to say.
	about := &page.Record{
		SiteID:           rec.ID,
		Title:            "About",
		Slug:             "about",
		Path:             "/about",
		BodyHTML:         "<h1>About this site</h1><p>Mosaic Demo shows the platform serving pages, themes, and the assistant from one process.</p>",
		ShowInNavigation: true,
		IsPublished:      true,
	}
	if err := page.Insert(ctx, db, about); err != nil {
		return false, fmt.Errorf("about page: %w", err)
	}

	notes := []assistant.TrainingRow{
		{SiteID: rec.ID, Category: "about",
			Content: "Mosaic Demo is a sample site showing pages, themes, and the conversational assistant.",
			Source: "seed", Priority: 10, IsActive: true},
		{SiteID: rec.ID, Category: "contact",
			Content: "Reach the demo administrator at " + AdminEmail + ".",
			Source: "seed", Priority: 5, IsActive: true},
	}
	for i := range notes {
		if err := assistant.InsertTraining(ctx, db, &notes[i]); err != nil {
			return false, fmt.Errorf("training row: %w", err)
		}
	}

	log.Infow("seeded demo site", "site", rec.ID, "host", rec.Host)
	return true, nil
}

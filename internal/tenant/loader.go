// internal/tenant/loader.go
//
// Cold-load: host → *Tenant.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

// pathCacheTTL bounds how long a tenant's path cache trusts itself
// between route-version checks.
const pathCacheTTL = 30 * time.Second

// loadHost builds the aggregate for one host.  Steps:
//
//  1. Fetch the site row; refuse unknown and suspended hosts.
//  2. Fetch key-value config.
//  3. Resolve and parse the theme set.
//  4. Assemble, then give components their Init hook.
func (c *Cache) loadHost(ctx context.Context, host string) (*Tenant, error) {
	rec, err := site.ByHost(ctx, c.db, host)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownHost
	}
	if err != nil {
		return nil, fmt.Errorf("load site %s: %w", host, err)
	}
	if rec.SuspendedAt != nil {
		return nil, ErrSuspended
	}

	cfg, err := site.ConfigBySite(ctx, c.db, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", host, err)
	}

	themeName, err := c.themeNameFor(ctx, rec)
	if err != nil {
		return nil, err
	}
	set, err := c.themes.Get(themeName)
	if err != nil {
		return nil, fmt.Errorf("load theme for %s: %w", host, err)
	}

	ten := &Tenant{
		Site:     *rec,
		Config:   cfg,
		Theme:    set,
		DB:       c.db,
		paths:    page.NewPathCache(c.db, rec.ID, pathCacheTTL),
		loadedAt: time.Now(),
	}

	// Init is best-effort warm-up; a failing component must not keep the
	// site offline.
	for _, comp := range component.All() {
		if err := comp.Init(ten); err != nil {
			c.log.Warnw("component init failed",
				"component", comp.Name(),
				"host", host,
				"err", err)
		}
	}

	c.log.Infow("tenant loaded",
		"host", host,
		"site", rec.ID,
		"theme", themeName,
		"config_keys", len(cfg))
	return ten, nil
}

// themeNameFor resolves the directory name of the site's theme, falling
// back to the catalog default when the site has none assigned.
func (c *Cache) themeNameFor(ctx context.Context, rec *site.Record) (string, error) {
	if rec.ThemeID != nil {
		th, err := theme.ByID(ctx, c.db, *rec.ThemeID)
		if err != nil {
			return "", fmt.Errorf("resolve theme %d for %s: %w", *rec.ThemeID, rec.Host, err)
		}
		return th.Name, nil
	}
	th, err := theme.Default(ctx, c.db)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("site %s has no theme and no default theme is installed", rec.Host)
	}
	if err != nil {
		return "", err
	}
	return th.Name, nil
}

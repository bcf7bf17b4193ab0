// internal/page/pathcache.go
//
// Per-site path→page-id cache.
//
// Context
// -------
// The portal renderer resolves every request path against the `pages` table.
// PathCache keeps that lookup out of MySQL: each tenant holds one cache that
// stays valid until its TTL lapses or the site's route_version moves, which
// every page mutation does.
//
// Workflow
// --------
//   1. Tenant cold-load constructs the cache via NewPathCache().
//   2. The renderer calls Ensure() with the site's current route_version,
//      then Lookup() for the request path.
//   3. A miss after Ensure is a genuine 404.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package page

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PathCache stores path→page-id pairs plus TTL/version state for one site.
// Zero value is unusable; construct with NewPathCache.
type PathCache struct {
	mu       sync.RWMutex
	db       *sqlx.DB
	siteID   int64
	ttl      time.Duration
	byPath   map[string]int64
	loadedAt time.Time
	version  int
}

// NewPathCache returns an empty cache for one site.  The first Ensure call
// fills it.
func NewPathCache(db *sqlx.DB, siteID int64, ttl time.Duration) *PathCache {
	return &PathCache{db: db, siteID: siteID, ttl: ttl, byPath: map[string]int64{}}
}

// Ensure reloads the cache when it is stale or the route version moved.
func (c *PathCache) Ensure(ctx context.Context, version int) error {
	if !c.Stale(version) {
		return nil
	}
	return c.Load(ctx, version)
}

// Load refreshes all published paths of the site and records version.
func (c *PathCache) Load(ctx context.Context, version int) error {
	const q = `
        SELECT id, path
        FROM   pages
        WHERE  site_id = ?
          AND  is_published = 1
          AND  deleted_at IS NULL`
	rows, err := c.db.QueryContext(ctx, q, c.siteID)
	if err != nil {
		return err
	}
	defer rows.Close()

	fresh := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			path string
		)
		if err := rows.Scan(&id, &path); err != nil {
			return err
		}
		fresh[path] = id
	}
	if err := rows.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.byPath = fresh
	c.loadedAt = time.Now()
	c.version = version
	c.mu.Unlock()

	zap.L().Debug("path cache load",
		zap.Int64("site", c.siteID),
		zap.Int("count", len(fresh)),
		zap.Int("version", version))
	return nil
}

// Lookup resolves a request path.  A stale hit counts as a miss so callers
// fall through to Ensure.
func (c *PathCache) Lookup(path string) (int64, bool) {
	c.mu.RLock()
	id, ok := c.byPath[path]
	stale := time.Since(c.loadedAt) > c.ttl
	c.mu.RUnlock()
	return id, ok && !stale
}

// Stale reports whether the cache must reload before serving current.
func (c *PathCache) Stale(current int) bool {
	c.mu.RLock()
	stale := time.Since(c.loadedAt) > c.ttl || current != c.version
	c.mu.RUnlock()
	return stale
}

// Len reports the number of cached paths, for diagnostics.
func (c *PathCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}

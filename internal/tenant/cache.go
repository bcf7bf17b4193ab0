// internal/tenant/cache.go
//
// Host → Tenant cache.
//
// Context
// -------
// Tenants load lazily on the first request for their host and stay warm
// in a sync.Map.  singleflight collapses concurrent cold-loads of the
// same host into one database trip.  A background evictor drops tenants
// idle past the TTL, and the least recently used ones when the map
// outgrows its cap.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/metrics"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

// Fallbacks when the config section leaves a knob zero.
const (
	defaultIdleTTL       = 30 * time.Minute
	defaultMaxEntries    = 100
	defaultSweepInterval = 5 * time.Minute
)

var (
	// ErrUnknownHost means no live site row matches the host.
	ErrUnknownHost = errors.New("tenant: unknown host")
	// ErrSuspended means the site exists but may not serve traffic.
	ErrSuspended = errors.New("tenant: site suspended")
)

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

// Cache lazily loads tenants and evicts them on idle TTL or LRU pressure.
type Cache struct {
	db     *sqlx.DB
	themes *theme.Manager
	log    *zap.SugaredLogger

	sfg singleflight.Group
	m   sync.Map

	idleTTL        time.Duration
	maxEntries     int
	localhostAlias string

	ticker *time.Ticker
	done   chan struct{}

	// loadFn stands in for loadHost in tests.
	loadFn func(ctx context.Context, host string) (*Tenant, error)
}

// New constructs a Cache and starts the background evictor.  Call Close
// to stop it.
func New(db *sqlx.DB, themes *theme.Manager, log *zap.SugaredLogger, cfg config.Tenant) *Cache {
	ttl := cfg.IdleTTL
	if ttl == 0 {
		ttl = defaultIdleTTL
	}
	max := cfg.MaxEntries
	if max == 0 {
		max = defaultMaxEntries
	}
	sweep := cfg.SweepInterval
	if sweep == 0 {
		sweep = defaultSweepInterval
	}

	c := &Cache{
		db:             db,
		themes:         themes,
		log:            log,
		idleTTL:        ttl,
		maxEntries:     max,
		localhostAlias: cfg.LocalhostAlias,
		ticker:         time.NewTicker(sweep),
		done:           make(chan struct{}),
	}
	c.loadFn = c.loadHost
	go c.evictLoop()
	return c
}

// Get returns the Tenant for host, loading it on demand.
func (c *Cache) Get(ctx context.Context, host string) (*Tenant, error) {
	key := c.lookupHost(host)

	if v, ok := c.m.Load(key); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		// Double-check after the singleflight barrier.
		if v, ok := c.m.Load(key); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.tenant, nil
		}
		ten, err := c.loadFn(ctx, key)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			return nil, err
		}
		c.m.Store(key, &entry{tenant: ten, lastSeen: time.Now().UnixNano()})
		metrics.TenantLoadTotal.Inc()
		metrics.ActiveTenants.Inc()
		return ten, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// Invalidate drops one host so the next request reloads it.  Admin
// mutations call it after changing a site's theme, config, or state.
func (c *Cache) Invalidate(host string) {
	key := c.lookupHost(host)
	if _, ok := c.m.LoadAndDelete(key); ok {
		metrics.ActiveTenants.Dec()
	}
}

// Len reports the number of cached tenants.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(any, any) bool { n++; return true })
	return n
}

// Hosts returns the cached host names, for diagnostics.
func (c *Cache) Hosts() []string {
	var hosts []string
	c.m.Range(func(key, _ any) bool {
		hosts = append(hosts, key.(string))
		return true
	})
	return hosts
}

// Close stops the evictor goroutine.  Safe to call once.
func (c *Cache) Close() {
	c.ticker.Stop()
	close(c.done)
}

// lookupHost canonicalizes an incoming Host header: strip the port,
// lowercase, and map loopback names to the configured alias so local
// development can masquerade as a real site row.
func (c *Cache) lookupHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if c.localhostAlias != "" && (host == "localhost" || host == "127.0.0.1" || host == "::1") {
		return c.localhostAlias
	}
	return host
}

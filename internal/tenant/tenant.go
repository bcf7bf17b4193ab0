// internal/tenant/tenant.go
//
// Tenant aggregate.
//
// Context
// -------
// A live Tenant groups everything request handlers need to serve one
// site: the `sites` row, its key-value config, the parsed theme set, a
// path cache over its published pages, and a lazily built router.  The
// cache stores Tenants and hands the same pointer to every request, so
// handlers must treat the aggregate as immutable after load.
//
// Notes
// -----
//   - The DB handle is the shared control pool; rows are scoped by
//     site_id, there is no per-tenant schema.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

// Tenant groups all per-site runtime assets needed by request handlers.
type Tenant struct {
	Site   site.Record
	Config map[string]string
	Theme  *theme.Set
	DB     *sqlx.DB

	paths    *page.PathCache
	loadedAt time.Time

	routerOnce sync.Once
	router     http.Handler
}

// Tenants satisfy the component registry's read-only view.
var _ component.TenantInfo = (*Tenant)(nil)

func (t *Tenant) SiteID() int64          { return t.Site.ID }
func (t *Tenant) Host() string           { return t.Site.Host }
func (t *Tenant) RouteVersion() int      { return t.Site.RouteVersion }
func (t *Tenant) Paths() *page.PathCache { return t.paths }

// ThemeName reports the active theme directory name.
func (t *Tenant) ThemeName() string {
	if t.Theme == nil {
		return ""
	}
	return t.Theme.Name
}

// ConfigValue returns one site_config value or "".
func (t *Tenant) ConfigValue(name string) string { return t.Config[name] }

// Router builds (once) and returns the handler for this tenant.  Every
// registered component mounts at its own prefix; the portal's catch-all
// at "/" picks up whatever nothing else claimed.
func (t *Tenant) Router() http.Handler {
	t.routerOnce.Do(func() {
		r := chi.NewRouter()
		for _, c := range component.All() {
			r.Mount(c.Mount(), c.Routes())
		}
		t.router = r
	})
	return t.router
}

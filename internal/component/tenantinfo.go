// internal/component/tenantinfo.go
//
// Exposes per-tenant resources to components during Init() without
// importing the concrete tenant package, which would cycle.

package component

import "github.com/mosaic-cms/mosaic/internal/page"

// TenantInfo provides read-only access to the aggregate a component may
// need at Init time.  The concrete *tenant.Tenant satisfies it.
type TenantInfo interface {
	SiteID() int64
	Host() string
	ThemeName() string
	ConfigValue(name string) string
	RouteVersion() int
	Paths() *page.PathCache
}

// internal/component/registry.go
//
// Component registry (cycle-free).
//
// A component is one mountable surface of the CMS: the admin area, the
// public portal.  Concrete components live under components/<name>; the
// serve command constructs them with their dependencies and calls
// Register before the first tenant loads.  The tenant router mounts every
// registered component at its Mount prefix, and the migration runner
// collects their schema changes before Up.
package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/mosaic-cms/mosaic/internal/migrate"
)

// Initializer runs once per tenant cold-load, after the aggregate is
// built.  Init failures are logged and do not fail the load; use it for
// best-effort warm-up, not correctness.
type Initializer interface {
	Init(TenantInfo) error
}

// Component contract.
//
// Routes() must return a fresh router on every call; each tenant mounts
// its own copy.  Migrations() may return nil when the component has no
// schema of its own.
type Component interface {
	Name() string
	Mount() string // router prefix: "/admin", "/"
	Routes() chi.Router
	Migrations() []migrate.Migration
	Initializer
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is called from the serve command during boot.  Re-registering
// a name replaces the previous component.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so routers and
// migration runs are deterministic.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Lookup returns the named component or nil.
func Lookup(name string) Component {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// Names returns the sorted names of registered components.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name()
	}
	return names
}

// internal/tenant/context.go
//
// Request-context plumbing: the dispatch handler stores the resolved
// *Tenant, downstream handlers read it back.
package tenant

import "context"

type ctxKey struct{}

// WithTenant returns a child context carrying t.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the Tenant stored by the dispatch handler, or nil.
func FromContext(ctx context.Context) *Tenant {
	v, _ := ctx.Value(ctxKey{}).(*Tenant)
	return v
}

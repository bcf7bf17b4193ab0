// internal/tenant/handler.go
//
// Multi-tenant dispatch: resolve the Host header to a Tenant, stash it in
// the request context, and hand the request to that tenant's router.
package tenant

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Handler returns the root handler of the main listener.
func Handler(c *Cache, log *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ten, err := c.Get(r.Context(), r.Host)
		switch {
		case errors.Is(err, ErrUnknownHost):
			http.NotFound(w, r)
			return
		case errors.Is(err, ErrSuspended):
			http.Error(w, "site suspended", http.StatusServiceUnavailable)
			return
		case err != nil:
			log.Errorw("tenant load failed", "host", r.Host, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}
		ten.Router().ServeHTTP(w, r.WithContext(WithTenant(r.Context(), ten)))
	})
}

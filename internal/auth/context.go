// internal/auth/context.go
//
// Request-scoped identity for the portal's bearer-token API.
//
// Context
// -------
// The admin surface resolves its user through server-side sessions; the
// portal API is stateless, so the verified token claims are the only
// identity a request carries.  Require (middleware.go) parses and
// verifies the Authorization header and stores the claims here;
// handlers read them back without touching the token again.
//
// Notes
// -----
//   - The context carries claims, not a user row.  Handlers that need
//     fresh row data (display name, deletion state) re-fetch by ID.
//   - Oxford commas, two spaces after periods.
package auth

import (
	"context"

	"github.com/mosaic-cms/mosaic/internal/identity"
)

// claimsKey is unexported to avoid context-key collisions.
type claimsKey struct{}

// WithClaims returns a new context carrying verified token claims.
func WithClaims(ctx context.Context, c *identity.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom extracts the claims from ctx, or nil when the request never
// passed through Require.
func ClaimsFrom(ctx context.Context) *identity.TokenClaims {
	c, _ := ctx.Value(claimsKey{}).(*identity.TokenClaims)
	return c
}

// UserID extracts the authenticated user's ID from ctx.  It returns
// (0, false) if no claims are set.
func UserID(ctx context.Context) (int64, bool) {
	c := ClaimsFrom(ctx)
	if c == nil {
		return 0, false
	}
	return c.UserID, true
}

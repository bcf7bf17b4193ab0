// internal/auth/middleware.go
//
// Bearer-token gate for portal API routes.
package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mosaic-cms/mosaic/internal/identity"
)

// Require verifies the Authorization header against the issuer and
// stores the claims in the request context.  Requests without a valid
// token get a JSON 401; the guarded routes all speak JSON.
func Require(tokens *identity.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				deny(w, "missing bearer token")
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				deny(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// internal/middleware/https.go
//
// Plain-HTTP requests get a 308 to the HTTPS origin.  The serve command
// installs this only when http.force_https is on; loopback hosts are
// exempt so local development never lands on a TLS port that is not
// there.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ForceHTTPS redirects plain-HTTP traffic to https://<host><uri>.  A
// TLS-terminating proxy is honored through X-Forwarded-Proto.
func ForceHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil ||
			strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") ||
			isLoopback(r.Host) {
			next.ServeHTTP(w, r)
			return
		}
		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}

func isLoopback(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

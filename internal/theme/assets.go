// internal/theme/assets.go
//
// Public theme assets.  The `asset` template helper emits
// /themes/<name>/assets/... URLs; this handler serves exactly those
// files and nothing else, so templates never leave the process.
package theme

import (
	"net/http"
	"path"
	"strings"
)

// Assets serves /themes/<name>/assets/* out of baseDir.  Requests that
// resolve outside an assets directory are 404s.
func Assets(baseDir string) http.Handler {
	fs := http.StripPrefix("/themes/", http.FileServer(http.Dir(baseDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean(r.URL.Path)
		parts := strings.Split(strings.TrimPrefix(clean, "/themes/"), "/")
		if len(parts) < 3 || parts[0] == "" || parts[0] == ".." || parts[1] != "assets" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fs.ServeHTTP(w, r)
	})
}

// internal/middleware/recover.go
//
// Panic recovery for the outer handler chain.
package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recover turns handler panics into 500s instead of dropped connections.
// http.ErrAbortHandler passes through, it is the sanctioned way to abort
// a response mid-stream.
func Recover(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.Errorw("handler panic",
						"method", r.Method,
						"host", r.Host,
						"path", r.URL.Path,
						"panic", v,
						"stack", string(debug.Stack()))
					http.Error(w, http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

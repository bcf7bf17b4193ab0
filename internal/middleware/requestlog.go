// internal/middleware/requestlog.go
//
// Access logging and request metrics.  Sits outermost in the chain so
// the measured duration covers everything below it.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/metrics"
)

// statusWriter records the status code and body size for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer so streaming handlers keep
// working behind the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLog writes one line per request and feeds the Prometheus
// request counters.
func RequestLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 {
				// Handler wrote nothing; net/http will send 200.
				sw.status = http.StatusOK
			}
			dur := time.Since(start)

			metrics.HTTPRequestsTotal.
				WithLabelValues(r.Method, statusClass(sw.status)).Inc()
			metrics.HTTPRequestSeconds.
				WithLabelValues(r.Method).Observe(dur.Seconds())

			log.Infow("request",
				"method", r.Method,
				"host", r.Host,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"dur", dur.Truncate(time.Millisecond))
		})
	}
}

// statusClass folds a status code into its hundred bucket ("2xx").
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// internal/diagnostics/server.go
//
// The diagnostics listener.
//
// Context
// -------
// A second, minimal HTTP surface for operators, never exposed through
// the tenant router: health dashboard, JSON report, recent requests,
// log tail (REST and websocket), and Prometheus metrics.  An empty
// listen address disables the whole thing; a configured token gates
// every route.
//
// Notes
// -----
//   - Websocket clients cannot set Authorization headers from the
//     browser, so the token is also accepted as ?token=.
//   - Oxford commas, two spaces after periods.
package diagnostics

import (
	"bufio"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/logger"
	"github.com/mosaic-cms/mosaic/internal/requestinfo"
)

// Server owns the diagnostics routes.  Lifecycle (listen addresses,
// graceful shutdown) belongs to the serve command.
type Server struct {
	env    string
	root   string
	token  string
	log    *zap.SugaredLogger
	checks []Check
	tmpl   *template.Template
}

// NewServer wires the dashboard against the standard check set.
func NewServer(cfg *config.Config, log *zap.SugaredLogger, checks []Check) *Server {
	return &Server{
		env:    cfg.Env,
		root:   cfg.Paths.Root,
		token:  cfg.Diagnostics.Token,
		log:    log,
		checks: checks,
		tmpl:   template.Must(template.New("dashboard").Parse(dashboardHTML)),
	}
}

// Handler returns the routed diagnostics surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.dashboard)
	r.Get("/api/report", s.apiReport)
	r.Get("/api/requests", s.apiRequests)
	r.Get("/api/logs", s.apiLogs)
	r.Get("/ws/logs", s.wsLogs)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return s.guard(r)
}

// guard enforces the bearer token when one is configured.
func (s *Server) guard(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" {
			got = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type dashboardData struct {
	Env    string
	Report *Report
	Recent []requestinfo.Sample
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Env:    s.env,
		Report: Build(r.Context(), s.env, s.checks),
		Recent: requestinfo.Recent(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Errorw("dashboard render failed", "err", err)
	}
}

func (s *Server) apiReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Build(r.Context(), s.env, s.checks))
}

func (s *Server) apiRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, requestinfo.Recent())
}

func (s *Server) apiLogs(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("lines"))
	if n <= 0 {
		n = 100
	}
	if n > 1000 {
		n = 1000
	}
	lines, err := TailFile(logger.FileName(s.root, time.Now()), n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, line := range lines {
		io.WriteString(w, line)
		io.WriteString(w, "\n")
	}
}

// upgrader trusts every origin; this listener is operator-facing and
// token-gated, not a tenant surface.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) wsLogs(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	// Read pump: we never expect client frames, but reading is how the
	// close handshake surfaces.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.streamLog(ws, done); err != nil &&
		!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debugw("log stream ended", "err", err)
	}
}

// streamLog follows today's log file, switching files at day rollover.
func (s *Server) streamLog(ws *websocket.Conn, done <-chan struct{}) error {
	path := logger.FileName(s.root, time.Now())
	f, err := os.Open(path)
	if err != nil {
		ws.WriteMessage(websocket.TextMessage, []byte("no log file yet: "+path))
		return err
	}
	defer func() { f.Close() }()
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	rd := bufio.NewReader(f)

	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()

	var pending string
	for {
		chunk, err := rd.ReadString('\n')
		if err == nil {
			line := pending + strings.TrimRight(chunk, "\n")
			pending = ""
			if err := ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return err
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			return err
		}
		pending += chunk

		select {
		case <-done:
			return nil
		case <-ping.C:
			ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-time.After(500 * time.Millisecond):
		}

		// Day rollover: hop to the new file when it appears.
		if p := logger.FileName(s.root, time.Now()); p != path {
			if nf, err := os.Open(p); err == nil {
				f.Close()
				f, rd, path, pending = nf, bufio.NewReader(nf), p, ""
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

const dashboardHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Mosaic diagnostics</title>
<style>
body { font: 14px/1.5 system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: .3rem .7rem; text-align: left; }
th { background: #f4f4f4; }
td.ok { color: #1a7f37; }
td.warn { color: #b35900; }
td.fail { color: #c0201e; font-weight: bold; }
small { color: #777; font-weight: normal; }
</style>
</head>
<body>
<h1>Mosaic diagnostics <small>{{.Env}}</small></h1>
<p>generated {{.Report.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}</p>
<table>
<tr><th>check</th><th>status</th><th>detail</th></tr>
{{range .Report.Checks}}<tr><td>{{.Name}}</td><td class="{{.Status}}">{{.Status}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
<h2>Recent requests</h2>
<table>
<tr><th>time</th><th>method</th><th>host</th><th>path</th><th>ip</th><th>country</th><th>browser</th><th>device</th><th>bot</th></tr>
{{range .Recent}}<tr><td>{{.Time.Format "15:04:05"}}</td><td>{{.Method}}</td><td>{{.Host}}</td><td>{{.Path}}</td><td>{{.IP}}</td><td>{{.Country}}</td><td>{{.Browser}}</td><td>{{.Device}}</td><td>{{if .Bot}}yes{{end}}</td></tr>
{{end}}</table>
<p><a href="/api/report">report.json</a> | <a href="/api/logs?lines=200">log tail</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

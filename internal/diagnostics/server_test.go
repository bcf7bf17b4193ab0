// internal/diagnostics/server_test.go
package diagnostics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/logger"
)

func testServer(t *testing.T, token string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Env:         "development",
		Diagnostics: config.Diagnostics{Token: token},
	}
	cfg.Paths.Root = root
	checks := []Check{fakeCheck("alpha", StatusOK), fakeCheck("beta", StatusWarn)}
	return NewServer(cfg, zap.NewNop().Sugar(), checks), root
}

func TestGuardToken(t *testing.T) {
	s, _ := testServer(t, "secret")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	// Header token.
	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("header token status = %d", rec.Code)
	}

	// Query token, the websocket path.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report?token=secret", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("query token status = %d", rec.Code)
	}
}

func TestGuardOpenWithoutConfiguredToken(t *testing.T) {
	s, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIReportShape(t *testing.T) {
	s, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	var rep Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.Checks) != 2 || rep.Checks[0].Name != "alpha" {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Checks[1].Status != StatusWarn {
		t.Fatalf("beta status = %q", rep.Checks[1].Status)
	}
}

func TestDashboardRenders(t *testing.T) {
	s, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Mosaic diagnostics", "alpha", "beta", "detail for beta"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestAPILogsTailsToday(t *testing.T) {
	s, root := testServer(t, "")
	path := logger.FileName(root, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs?lines=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "two\nthree\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestWSLogsStreamsAppendedLines(t *testing.T) {
	s, root := testServer(t, "")
	path := logger.FileName(root, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/logs"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	// The stream starts at the current end of file; give the handler a
	// beat to get there before appending.
	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("fresh line\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "fresh line" {
		t.Fatalf("msg = %q", msg)
	}
}

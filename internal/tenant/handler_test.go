// internal/tenant/handler_test.go
package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/migrate"
)

// stubComponent serves a fixed body at "/" and checks that the handler
// stashed the tenant in the request context before dispatch.
type stubComponent struct{ body string }

func (s *stubComponent) Name() string { return "stub" }

func (s *stubComponent) Mount() string { return "/" }

func (s *stubComponent) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if FromContext(req.Context()) == nil {
			http.Error(w, "no tenant in context", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(s.body))
	})
	return r
}

func (s *stubComponent) Migrations() []migrate.Migration { return nil }

func (s *stubComponent) Init(component.TenantInfo) error { return nil }

func TestHandlerServesKnownHost(t *testing.T) {
	component.Register(&stubComponent{body: "portal home"})
	c := newTestCache(t, config.Tenant{}, func(_ context.Context, host string) (*Tenant, error) {
		return fakeTenant(host), nil
	})
	h := Handler(c, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://acme.test/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "portal home" {
		t.Fatalf("body = %q", got)
	}
}

func TestHandlerUnknownHostIs404(t *testing.T) {
	c := newTestCache(t, config.Tenant{}, func(context.Context, string) (*Tenant, error) {
		return nil, ErrUnknownHost
	})
	h := Handler(c, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://nope.test/", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerSuspendedHostIs503(t *testing.T) {
	c := newTestCache(t, config.Tenant{}, func(context.Context, string) (*Tenant, error) {
		return nil, ErrSuspended
	})
	h := Handler(c, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://paused.test/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandlerLoaderFailureIs500(t *testing.T) {
	c := newTestCache(t, config.Tenant{}, func(context.Context, string) (*Tenant, error) {
		return nil, errors.New("database is down")
	})
	h := Handler(c, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://acme.test/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

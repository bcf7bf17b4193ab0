// components/portal/portal.go
//
// Portal component: the public face of every tenant.
//
// Context
// -------
// Mounted at / by the tenant router, behind every other component, so it
// owns whatever no other mount claimed.  Two surfaces: a JSON API for the
// single-page portal frontends (site info, page bodies, bearer-token
// login, the contact form, and the assistant), and the server-rendered
// catch-all that resolves a URL path through the tenant's path cache and
// composes the page through its master chain and theme layout.
//
// Notes
// -----
//   - The path cache is checked against the live route_version on every
//     page request, so admin edits are visible without any push channel.
//   - Oxford commas, two spaces after periods.
package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/assistant"
	"github.com/mosaic-cms/mosaic/internal/auth"
	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/migrate"
)

var _ component.Component = (*Component)(nil)

// contactFormID keys the YAML definition under components/portal/forms.
const contactFormID = "portal/contact"

// warmTimeout bounds the Init path-cache warm-up; a slow warm-up must not
// stall a tenant cold load.
const warmTimeout = 5 * time.Second

// Component carries the portal's dependencies.  Construct with New at
// boot; the zero value is not usable.
type Component struct {
	db     *sqlx.DB
	log    *zap.SugaredLogger
	signin *identity.Service
	tokens *identity.TokenIssuer
	chat   *assistant.Service
}

// New wires the portal component.
func New(db *sqlx.DB, log *zap.SugaredLogger, signin *identity.Service, tokens *identity.TokenIssuer, chat *assistant.Service) *Component {
	return &Component{db: db, log: log, signin: signin, tokens: tokens, chat: chat}
}

func (c *Component) Name() string  { return "portal" }
func (c *Component) Mount() string { return "/" }

// Migrations contributes the contact-message table; the inbox belongs to
// the portal, not the core schema.
func (c *Component) Migrations() []migrate.Migration {
	return []migrate.Migration{{
		ID: "0011_messages",
		Statements: []string{`CREATE TABLE messages (
  id         BIGINT       NOT NULL AUTO_INCREMENT,
  site_id    BIGINT       NOT NULL,
  name       VARCHAR(191) NOT NULL,
  email      VARCHAR(254) NOT NULL,
  subject    VARCHAR(191) NOT NULL,
  body       TEXT         NOT NULL,
  created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY ix_messages_site (site_id, id),
  CONSTRAINT fk_messages_site FOREIGN KEY (site_id) REFERENCES sites (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Probe: migrate.Probe{Table: "messages"},
	}}
}

// Init warms the tenant's path cache so the first page hit does not pay
// the load.  Failures are logged by the caller and never fail the load.
func (c *Component) Init(info component.TenantInfo) error {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()
	return info.Paths().Ensure(ctx, info.RouteVersion())
}

// Routes builds a fresh router.  API first, the page catch-all last.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/site", c.apiSite)
		r.Get("/pages", c.apiPage)
		r.Post("/auth/login", c.apiLogin)
		r.Post("/contact", c.apiContact)
		r.Post("/assistant/chat", c.apiChat)
		r.Get("/assistant/config", c.apiAssistantConfig)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require(c.tokens))
			r.Get("/auth/me", c.apiMe)
		})
	})

	r.Get("/*", c.page)
	return r
}

/* ── JSON plumbing ──────────────────────────────────────────────────── */

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondErr(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

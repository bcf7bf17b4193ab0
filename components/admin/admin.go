// components/admin/admin.go
//
// Admin component: the session-authenticated management surface.
//
// Context
// -------
// Mounted at /admin by the tenant router.  Two faces: a small HTML login
// flow (form definition + antiforgery + sign-in service + session issue)
// and a JSON API for the management concerns: sites, pages, themes,
// content, users, subscriptions, assistant training data, and contact
// messages.  The serve command constructs the component with its
// dependencies and registers it before the first tenant loads.
//
// Notes
// -----
//   - API mutations require the administrator or editor role; role
//     membership is read per request, so a revoked role takes effect
//     without waiting for the session to expire.
//   - Mutations that change how a host routes (suspend, restore, delete,
//     theme change) invalidate the tenant cache entry for that host.
//   - Oxford commas, two spaces after periods.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/antiforgery"
	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/content"
	"github.com/mosaic-cms/mosaic/internal/form"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/migrate"
	"github.com/mosaic-cms/mosaic/internal/session"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/tenant"
	"github.com/mosaic-cms/mosaic/internal/view"
)

var _ component.Component = (*Component)(nil)

// csrfField is the hidden input the login template posts back.
const csrfField = "csrf_token"

// anonScope binds pre-authentication antiforgery tokens.  The login form
// renders before any session exists, so its tokens sign the empty scope;
// post-login forms bind to the real session ID.
const anonScope = ""

// loginFormID keys the YAML definition under components/admin/forms.
const loginFormID = "admin/login"

// Component carries the admin surface's dependencies.  Construct with New
// at boot; the zero value is not usable.
type Component struct {
	db       *sqlx.DB
	log      *zap.SugaredLogger
	views    *view.Engine
	sessions *session.Manager
	guard    *antiforgery.Guard
	signin   *identity.Service
	sites    *site.Service
	contents *content.Service
	tenants  *tenant.Cache
	vld      *validator.Validate
}

// New wires the admin component.
func New(
	db *sqlx.DB,
	log *zap.SugaredLogger,
	views *view.Engine,
	sessions *session.Manager,
	guard *antiforgery.Guard,
	signin *identity.Service,
	sites *site.Service,
	contents *content.Service,
	tenants *tenant.Cache,
) *Component {
	return &Component{
		db:       db,
		log:      log,
		views:    views,
		sessions: sessions,
		guard:    guard,
		signin:   signin,
		sites:    sites,
		contents: contents,
		tenants:  tenants,
		vld:      validator.New(),
	}
}

func (c *Component) Name() string  { return "admin" }
func (c *Component) Mount() string { return "/admin" }

// Migrations returns nil; the admin surface owns no schema of its own.
func (c *Component) Migrations() []migrate.Migration { return nil }

// Init satisfies component.Initializer; no per-tenant warm-up.
func (c *Component) Init(component.TenantInfo) error { return nil }

// Routes builds a fresh router.  The login flow stays outside the gate;
// everything else stacks session resolution, the user requirement, and
// the role requirement.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.sessions.Middleware)

	r.Get("/login", c.loginForm)
	r.Post("/login", c.login)
	r.Post("/logout", c.logout)

	r.Group(func(r chi.Router) {
		r.Use(session.RequireUser("/admin/login"))
		r.Use(session.RequireRole(c.lookupRoles, identity.RoleAdministrator, identity.RoleEditor))

		r.Get("/", c.dashboard)

		r.Route("/api", func(r chi.Router) {
			r.Route("/sites", func(r chi.Router) {
				r.Get("/", c.listSites)
				r.Post("/", c.createSite)

				r.Route("/{siteID}", func(r chi.Router) {
					r.Put("/", c.updateSite)
					r.Delete("/", c.deleteSite)
					r.Post("/suspend", c.suspendSite)
					r.Post("/restore", c.restoreSite)
					r.Post("/theme", c.applyTheme)

					r.Get("/subscription", c.getSubscription)
					r.Post("/subscription/renew", c.renewSubscription)

					r.Route("/pages", func(r chi.Router) {
						r.Get("/", c.listPages)
						r.Post("/", c.createPage)
						r.Put("/{pageID}", c.updatePage)
						r.Delete("/{pageID}", c.deletePage)
						r.Post("/{pageID}/publish", c.publishPage)
						r.Post("/{pageID}/unpublish", c.unpublishPage)
					})

					r.Route("/content", func(r chi.Router) {
						r.Get("/", c.listContent)
						r.Post("/", c.createContent)
						r.Put("/{contentID}", c.updateContent)
						r.Delete("/{contentID}", c.deleteContent)
					})

					r.Route("/training", func(r chi.Router) {
						r.Get("/", c.listTraining)
						r.Post("/", c.createTraining)
						r.Put("/{rowID}", c.updateTraining)
						r.Delete("/{rowID}", c.deleteTraining)
					})

					r.Route("/messages", func(r chi.Router) {
						r.Get("/", c.listMessages)
						r.Delete("/{messageID}", c.deleteMessage)
					})
				})
			})

			r.Get("/themes", c.listThemes)
			r.Get("/plans", c.listPlans)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", c.listUsers)
				r.Post("/", c.createUser)
			})
		})
	})
	return r
}

// lookupRoles adapts the role repository for session.RequireRole.
func (c *Component) lookupRoles(ctx context.Context, userID int64) ([]string, error) {
	return identity.Roles(ctx, c.db, userID)
}

/* ── login flow ─────────────────────────────────────────────────────── */

func (c *Component) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}
	c.renderLogin(w, r, nil, "", nil)
}

func (c *Component) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	// Verify antiforgery before touching credentials, and log the typed
	// reason; the 400s the original platform served were undiagnosable
	// without it.
	if reason := c.guard.Verify(r.PostFormValue(csrfField), anonScope); reason != antiforgery.ReasonOK {
		c.log.Warnw("login antiforgery rejected",
			"host", r.Host,
			"reason", reason.String(),
		)
		http.Error(w, "the form has expired, reload the page and try again", http.StatusBadRequest)
		return
	}

	data, err := form.HandleSubmit(loginFormID, r)
	if err != nil {
		if form.IsValidationError(err) {
			c.renderLogin(w, r, form.Errors(err), "", r.PostForm)
			return
		}
		c.log.Errorw("login form submit failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	login := data["login"].(string)
	password := data["password"].(string)

	u, err := c.signin.SignIn(r.Context(), login, password)
	switch {
	case errors.Is(err, identity.ErrLockedOut):
		c.renderLogin(w, r, nil, "This account is locked.  Try again later.", r.PostForm)
		return
	case errors.Is(err, identity.ErrUnknownUser), errors.Is(err, identity.ErrBadCredentials):
		c.renderLogin(w, r, nil, "Incorrect username or password.", r.PostForm)
		return
	case err != nil:
		c.log.Errorw("sign-in failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if _, err := c.sessions.Issue(r.Context(), w, u); err != nil {
		c.log.Errorw("session issue failed", "user_id", u.ID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (c *Component) logout(w http.ResponseWriter, r *http.Request) {
	c.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// renderLogin draws the login page with a fresh antiforgery token.
func (c *Component) renderLogin(w http.ResponseWriter, r *http.Request, fieldErrs []form.FieldError, message string, prefill map[string][]string) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	tok, err := c.guard.Issue(anonScope)
	if err != nil {
		c.log.Errorw("antiforgery issue failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var loginVal string
	if prefill != nil {
		loginVal = url.Values(prefill).Get("login")
	}
	data := map[string]any{
		"Site":       ten.Site,
		"CSRF":       tok,
		"Errors":     fieldErrs,
		"Message":    message,
		"LoginValue": loginVal,
	}
	if err := c.views.Render(w, ten, "admin", "login", data, view.CacheSkip); err != nil {
		c.log.Errorw("render login failed", "host", ten.Host(), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (c *Component) dashboard(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	u, _, _ := session.FromContext(r.Context())

	sites, err := site.All(r.Context(), c.db)
	if err != nil {
		c.log.Errorw("dashboard site list failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Site":  ten.Site,
		"User":  u,
		"Sites": sites,
	}
	if err := c.views.Render(w, ten, "admin", "dashboard", data, view.CacheDefault); err != nil {
		c.log.Errorw("render dashboard failed", "host", ten.Host(), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
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

// readJSON decodes a capped request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// checkStruct validates dst and, on failure, writes a 422 naming the
// offending fields.  Returns false when the response has been written.
func (c *Component) checkStruct(w http.ResponseWriter, dst any) bool {
	err := c.vld.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		respond(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return false
	}
	respondErr(w, http.StatusUnprocessableEntity, "validation failed")
	return false
}

// urlID parses one numeric chi URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("bad id")
	}
	return id, nil
}

// fail maps service and repository errors onto API statuses.  Sentinels
// carry user-facing messages; everything else is a logged 500.
func (c *Component) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		respondErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, site.ErrUnknownSite), errors.Is(err, site.ErrUnknownTheme):
		respondErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, site.ErrDuplicateHost), errors.Is(err, site.ErrDuplicateSlug),
		errors.Is(err, identity.ErrTaken):
		respondErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, billing.ErrQuotaExceeded):
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, identity.ErrWeakPassword):
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
	default:
		c.log.Errorw("admin api error", "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
	}
}

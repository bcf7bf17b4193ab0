// components/portal/api.go
//
// The portal JSON API.  Responses carry only what a public frontend may
// see; drafts, deleted rows, and anything security-bearing stay out.
package portal

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/mosaic-cms/mosaic/internal/assistant"
	"github.com/mosaic-cms/mosaic/internal/auth"
	"github.com/mosaic-cms/mosaic/internal/form"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/message"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/tenant"
	"github.com/mosaic-cms/mosaic/internal/view"
)

type navItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type siteInfo struct {
	Name    string    `json:"name"`
	Host    string    `json:"host"`
	Title   string    `json:"title"`
	Locale  string    `json:"locale"`
	Tagline string    `json:"tagline,omitempty"`
	Nav     []navItem `json:"nav"`
}

type pageBody struct {
	Title           string `json:"title"`
	Path            string `json:"path"`
	Body            string `json:"body"`
	MetaDescription string `json:"meta_description,omitempty"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message string           `json:"message"`
	History []assistant.Turn `json:"history"`
}

// apiSite answers GET /api/site with the tenant's public identity and
// navigation.
func (c *Component) apiSite(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		respondErr(w, http.StatusInternalServerError, "no tenant")
		return
	}

	nav, err := page.Navigation(r.Context(), c.db, ten.SiteID())
	if err != nil {
		c.log.Errorw("navigation query failed", "host", ten.Host(), "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]navItem, 0, len(nav))
	for _, p := range nav {
		items = append(items, navItem{Title: p.Title, Path: p.Path})
	}

	respond(w, http.StatusOK, siteInfo{
		Name:    ten.Site.Name,
		Host:    ten.Site.Host,
		Title:   ten.Site.Title,
		Locale:  ten.Site.Locale,
		Tagline: ten.ConfigValue("site.tagline"),
		Nav:     items,
	})
}

// apiPage answers GET /api/pages?path=/about with the composed body of
// one published page.
func (c *Component) apiPage(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		respondErr(w, http.StatusInternalServerError, "no tenant")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	rec, err := page.ByPath(r.Context(), c.db, ten.SiteID(), path)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "page not found")
		return
	}
	if err != nil {
		c.log.Errorw("page query failed", "host", ten.Host(), "path", path, "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	chain, err := page.MasterChain(r.Context(), c.db, rec)
	if err != nil {
		c.log.Errorw("master chain failed", "host", ten.Host(), "page", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, http.StatusOK, pageBody{
		Title:           rec.Title,
		Path:            rec.Path,
		Body:            string(view.ComposeBody(chain)),
		MetaDescription: rec.MetaDescription,
	})
}

// apiLogin answers POST /api/auth/login with a short-lived bearer token.
func (c *Component) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}

	u := c.signinUser(w, r, req)
	if u == nil {
		return // response written
	}

	roles, err := identity.Roles(r.Context(), c.db, u.ID)
	if err != nil {
		c.log.Errorw("role lookup failed", "user_id", u.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	tok, err := c.tokens.Issue(u, roles)
	if err != nil {
		c.log.Errorw("token issue failed", "user_id", u.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"token": tok,
		"user": map[string]any{
			"id":           u.ID,
			"email":        u.Email,
			"username":     u.Username,
			"display_name": u.DisplayName,
			"roles":        roles,
		},
	})
}

// apiMe answers GET /api/auth/me with the token holder's profile.  The
// row is re-fetched so a user deleted after issue loses access within
// the token's own lifetime.
func (c *Component) apiMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		respondErr(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	u, err := identity.ByID(r.Context(), c.db, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusUnauthorized, "account no longer active")
		return
	}
	if err != nil {
		c.log.Errorw("profile lookup failed", "user_id", claims.UserID, "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"roles":        claims.Roles,
	})
}

// signinUser runs the sign-in service and writes the failure response
// itself; a nil user means the caller is done.
func (c *Component) signinUser(w http.ResponseWriter, r *http.Request, req loginRequest) *identity.User {
	u, err := c.signin.SignIn(r.Context(), req.Login, req.Password)
	switch {
	case errors.Is(err, identity.ErrLockedOut):
		respondErr(w, http.StatusForbidden, "account locked, try again later")
		return nil
	case errors.Is(err, identity.ErrUnknownUser), errors.Is(err, identity.ErrBadCredentials):
		respondErr(w, http.StatusUnauthorized, "incorrect username or password")
		return nil
	case err != nil:
		c.log.Errorw("portal sign-in failed", "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return u
}

// apiContact validates the contact form and stores the message for the
// admin inbox.
func (c *Component) apiContact(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		respondErr(w, http.StatusInternalServerError, "no tenant")
		return
	}

	data, err := form.HandleSubmit(contactFormID, r)
	if err != nil {
		if form.IsValidationError(err) {
			respond(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": form.Errors(err),
			})
			return
		}
		c.log.Errorw("contact form submit failed", "host", ten.Host(), "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	rec := &message.Record{
		SiteID:  ten.SiteID(),
		Name:    data["name"].(string),
		Email:   data["email"].(string),
		Subject: data["subject"].(string),
		Body:    data["body"].(string),
	}
	id, err := message.Insert(r.Context(), c.db, rec)
	if err != nil {
		c.log.Errorw("contact message insert failed", "host", ten.Host(), "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.log.Infow("contact message received", "host", ten.Host(), "message", id)
	respond(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

// apiChat relays one conversation turn to the assistant.
func (c *Component) apiChat(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		respondErr(w, http.StatusInternalServerError, "no tenant")
		return
	}

	var req chatRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}

	reply, err := c.chat.Chat(r.Context(), ten.SiteID(), ten.Site.Name, ten.Host(), req.Message, req.History)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		respondErr(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		c.log.Errorw("assistant chat failed", "host", ten.Host(), "err", err)
		respondErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, reply)
}

// apiAssistantConfig answers GET /api/assistant/config with the public
// assistant settings a frontend needs before the first turn.
func (c *Component) apiAssistantConfig(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		respondErr(w, http.StatusInternalServerError, "no tenant")
		return
	}

	name := ten.ConfigValue("assistant.name")
	if name == "" {
		name = "Assistant"
	}
	respond(w, http.StatusOK, map[string]any{
		"name":           name,
		"welcomeMessage": ten.ConfigValue("assistant.welcome"),
		"live":           c.chat.Live(),
	})
}

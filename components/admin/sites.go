// components/admin/sites.go
//
// Site management: list, provision, update, suspend/restore, soft delete,
// theme application, and the subscription view/renew pair.  Mutations that
// change how a host resolves evict the host from the tenant cache so the
// next request sees the new state.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/site"
)

type provisionRequest struct {
	Host       string `json:"host"        validate:"required,hostname_rfc1123"`
	Name       string `json:"name"        validate:"required,max=120"`
	URLSlug    string `json:"url_slug"    validate:"omitempty,max=120"`
	AdminEmail string `json:"admin_email" validate:"required,email"`
	Title      string `json:"title"       validate:"omitempty,max=200"`
	Locale     string `json:"locale"      validate:"omitempty,bcp47_language_tag"`
	ThemeID    *int64 `json:"theme_id"`
}

type updateSiteRequest struct {
	Name       string `json:"name"        validate:"required,max=120"`
	Title      string `json:"title"       validate:"omitempty,max=200"`
	AdminEmail string `json:"admin_email" validate:"required,email"`
	Locale     string `json:"locale"      validate:"omitempty,bcp47_language_tag"`
}

type applyThemeRequest struct {
	ThemeID int64 `json:"theme_id" validate:"required,gt=0"`
}

type renewRequest struct {
	Months int    `json:"months" validate:"omitempty,gte=1,lte=24"`
	Plan   string `json:"plan"   validate:"omitempty,oneof=free starter business"`
}

func (c *Component) listSites(w http.ResponseWriter, r *http.Request) {
	sites, err := site.All(r.Context(), c.db)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, sites)
}

func (c *Component) createSite(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	rec, err := c.sites.Provision(r.Context(), site.NewSite{
		Host:       req.Host,
		Name:       req.Name,
		URLSlug:    req.URLSlug,
		AdminEmail: req.AdminEmail,
		Title:      req.Title,
		Locale:     req.Locale,
		ThemeID:    req.ThemeID,
	})
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, rec)
}

func (c *Component) updateSite(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req updateSiteRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	rec, err := site.ByID(r.Context(), c.db, id)
	if err != nil {
		c.fail(w, err)
		return
	}
	rec.Name = req.Name
	rec.Title = req.Title
	rec.AdminEmail = req.AdminEmail
	if req.Locale != "" {
		rec.Locale = req.Locale
	}
	if err := site.Update(r.Context(), c.db, rec); err != nil {
		c.fail(w, err)
		return
	}

	c.tenants.Invalidate(rec.Host)
	respond(w, http.StatusOK, rec)
}

func (c *Component) suspendSite(w http.ResponseWriter, r *http.Request) {
	c.setSiteState(w, r, site.Suspend, "site suspended")
}

func (c *Component) restoreSite(w http.ResponseWriter, r *http.Request) {
	c.setSiteState(w, r, site.Unsuspend, "site restored")
}

func (c *Component) deleteSite(w http.ResponseWriter, r *http.Request) {
	c.setSiteState(w, r, site.SoftDelete, "site deleted")
}

// setSiteState runs one whole-site transition and evicts the host.  The
// site row is read first so eviction has a host even after delete.
func (c *Component) setSiteState(w http.ResponseWriter, r *http.Request, op func(context.Context, *sqlx.DB, int64) error, logMsg string) {
	id, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	rec, err := site.ByID(r.Context(), c.db, id)
	if err != nil {
		c.fail(w, err)
		return
	}
	if err := op(r.Context(), c.db, id); err != nil {
		c.fail(w, err)
		return
	}

	c.tenants.Invalidate(rec.Host)
	c.log.Infow(logMsg, "site", id, "host", rec.Host)
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

func (c *Component) applyTheme(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req applyThemeRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	if err := c.sites.ApplyTheme(r.Context(), id, req.ThemeID); err != nil {
		c.fail(w, err)
		return
	}

	if rec, err := site.ByID(r.Context(), c.db, id); err == nil {
		c.tenants.Invalidate(rec.Host)
	}
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

func (c *Component) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	sub, err := billing.BySite(r.Context(), c.db, id)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (c *Component) renewSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req renewRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}
	if req.Months == 0 {
		req.Months = 1
	}

	periodEnd := time.Now().AddDate(0, req.Months, 0)
	if err := billing.Reactivate(r.Context(), c.db, id, periodEnd); err != nil {
		c.fail(w, err)
		return
	}
	if req.Plan != "" {
		sub, err := billing.BySite(r.Context(), c.db, id)
		if err == nil {
			sub.Plan = req.Plan
			err = billing.UpdatePlan(r.Context(), c.db, sub.ID, req.Plan)
		}
		if err != nil {
			c.fail(w, err)
			return
		}
	}

	if rec, err := site.ByID(r.Context(), c.db, id); err == nil {
		c.tenants.Invalidate(rec.Host)
	}

	sub, err := billing.BySite(r.Context(), c.db, id)
	if err != nil {
		c.fail(w, err)
		return
	}
	c.log.Infow("subscription renewed", "site", id, "period_end", sub.CurrentPeriodEnd)
	respond(w, http.StatusOK, sub)
}

func (c *Component) listPlans(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, billing.Plans())
}

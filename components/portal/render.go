// components/portal/render.go
//
// Server-side page rendering: URL path → path cache → page row → master
// chain → theme layout.  The theme's layout.html receives the composed
// body and a head builder; everything the layout shows comes through the
// data map, never through template funcs.
package portal

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	gopath "path"
	"strings"

	"github.com/mosaic-cms/mosaic/internal/head"
	"github.com/mosaic-cms/mosaic/internal/page"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/tenant"
	"github.com/mosaic-cms/mosaic/internal/view"
)

// layoutName is the template every theme must define.
const layoutName = "layout.html"

// notFoundName is optional; themes without it get a plain 404 body.
const notFoundName = "404.html"

func (c *Component) page(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// Re-read the route version so edits made after this tenant loaded
	// invalidate its path cache on the very next request.
	version, err := site.RouteVersion(r.Context(), c.db, ten.SiteID())
	if err != nil {
		c.log.Errorw("route version query failed", "host", ten.Host(), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := ten.Paths().Ensure(r.Context(), version); err != nil {
		c.log.Errorw("path cache load failed", "host", ten.Host(), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	path := cleanPath(r.URL.Path)
	id, ok := ten.Paths().Lookup(path)
	if !ok {
		c.notFound(w, ten)
		return
	}

	rec, err := page.ByID(r.Context(), c.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		c.notFound(w, ten)
		return
	}
	if err != nil {
		c.log.Errorw("page fetch failed", "host", ten.Host(), "page", id, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if rec.SiteID != ten.SiteID() || !rec.Visible() {
		c.notFound(w, ten)
		return
	}

	chain, err := page.MasterChain(r.Context(), c.db, rec)
	if err != nil {
		c.log.Errorw("master chain failed", "host", ten.Host(), "page", rec.ID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	nav, err := page.Navigation(r.Context(), c.db, ten.SiteID())
	if err != nil {
		c.log.Warnw("navigation query failed", "host", ten.Host(), "err", err)
		nav = nil
	}

	h := head.New()
	h.SetTitle(pageTitle(rec, &ten.Site))
	h.Description(rec.MetaDescription)
	h.Canonical("https://" + ten.Host() + rec.Path)

	data := map[string]any{
		"Head":    h,
		"Site":    ten.Site,
		"Page":    rec,
		"Nav":     nav,
		"Content": view.ComposeBody(chain),
		"Tagline": ten.ConfigValue("site.tagline"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ten.Theme.Templates.ExecuteTemplate(w, layoutName, data); err != nil {
		// Execution may fail after bytes went out; log with enough to
		// find the template, do not try to rewrite the response.
		c.log.Errorw("layout render failed",
			"host", ten.Host(),
			"theme", ten.ThemeName(),
			"page", rec.ID,
			"err", err,
		)
	}
}

// notFound renders the theme's 404 template when it has one.
func (c *Component) notFound(w http.ResponseWriter, ten *tenant.Tenant) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)

	if t := ten.Theme.Templates.Lookup(notFoundName); t != nil {
		h := head.New()
		h.SetTitle("Not found | " + ten.Site.Name)
		if err := t.Execute(w, map[string]any{"Head": h, "Site": ten.Site}); err != nil {
			c.log.Warnw("404 render failed", "host", ten.Host(), "err", err)
		}
		return
	}
	_, _ = io.WriteString(w, "404 page not found\n")
}

// pageTitle joins page and site titles the way the head tag expects.
func pageTitle(rec *page.Record, s *site.Record) string {
	base := s.Title
	if base == "" {
		base = s.Name
	}
	if rec.Title == "" {
		return base
	}
	if base == "" {
		return rec.Title
	}
	return rec.Title + " | " + base
}

// cleanPath normalizes a request path for cache lookup: collapse dots and
// duplicate slashes, strip the trailing slash, keep "/" itself.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	p = gopath.Clean("/" + p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

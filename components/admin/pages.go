// components/admin/pages.go
//
// Page management.  Creation enforces the plan quota and validates the
// master-page chain before writing, so depth and cycle problems surface to
// the editor instead of breaking the public renderer later.  Every mutation
// bumps the site's route version through the repository.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/database"
	"github.com/mosaic-cms/mosaic/internal/page"
)

type pageRequest struct {
	Title            string `json:"title"      validate:"required,max=200"`
	Slug             string `json:"slug"       validate:"omitempty,max=100"`
	ParentPath       string `json:"parent_path"`
	BodyHTML         string `json:"body_html"`
	MetaDescription  string `json:"meta_description" validate:"omitempty,max=300"`
	MasterPageID     *int64 `json:"master_page_id"`
	ShowInNavigation bool   `json:"show_in_navigation"`
	IsPublished      bool   `json:"is_published"`
	SortOrder        int    `json:"sort_order"`
}

func (c *Component) listPages(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	pages, err := page.BySite(r.Context(), c.db, siteID)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, pages)
}

func (c *Component) createPage(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req pageRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	if err := billing.CheckPageQuota(r.Context(), c.db, siteID); err != nil {
		c.fail(w, err)
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = page.MakeSlug(req.Title)
	}
	rec := &page.Record{
		SiteID:           siteID,
		MasterPageID:     req.MasterPageID,
		Title:            req.Title,
		Slug:             slug,
		Path:             page.BuildPath(req.ParentPath, slug),
		BodyHTML:         req.BodyHTML,
		MetaDescription:  req.MetaDescription,
		ShowInNavigation: req.ShowInNavigation,
		IsPublished:      req.IsPublished,
		SortOrder:        req.SortOrder,
	}

	if !c.checkMasterChain(w, r, rec) {
		return
	}

	if err := page.Insert(r.Context(), c.db, rec); err != nil {
		if database.IsDuplicateEntry(err) {
			respondErr(w, http.StatusConflict, "a page with this path already exists")
			return
		}
		c.fail(w, err)
		return
	}

	c.log.Infow("page created", "site", siteID, "page", rec.ID, "path", rec.Path)
	respond(w, http.StatusCreated, rec)
}

func (c *Component) updatePage(w http.ResponseWriter, r *http.Request) {
	siteID, pageID, ok := c.sitePageIDs(w, r)
	if !ok {
		return
	}
	var req pageRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	rec, err := page.ByID(r.Context(), c.db, pageID)
	if err != nil || rec.SiteID != siteID {
		respondErr(w, http.StatusNotFound, "not found")
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = page.MakeSlug(req.Title)
	}
	rec.MasterPageID = req.MasterPageID
	rec.Title = req.Title
	rec.Slug = slug
	rec.Path = page.BuildPath(req.ParentPath, slug)
	rec.BodyHTML = req.BodyHTML
	rec.MetaDescription = req.MetaDescription
	rec.ShowInNavigation = req.ShowInNavigation
	rec.SortOrder = req.SortOrder

	if !c.checkMasterChain(w, r, rec) {
		return
	}

	if err := page.Update(r.Context(), c.db, rec); err != nil {
		if database.IsDuplicateEntry(err) {
			respondErr(w, http.StatusConflict, "a page with this path already exists")
			return
		}
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (c *Component) publishPage(w http.ResponseWriter, r *http.Request) {
	c.setPageState(w, r, page.Publish)
}

func (c *Component) unpublishPage(w http.ResponseWriter, r *http.Request) {
	c.setPageState(w, r, page.Unpublish)
}

func (c *Component) deletePage(w http.ResponseWriter, r *http.Request) {
	c.setPageState(w, r, page.SoftDelete)
}

func (c *Component) setPageState(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, db *sqlx.DB, siteID, id int64) error) {
	siteID, pageID, ok := c.sitePageIDs(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), c.db, siteID, pageID); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

func (c *Component) sitePageIDs(w http.ResponseWriter, r *http.Request) (siteID, pageID int64, ok bool) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return 0, 0, false
	}
	pageID, err = urlID(r, "pageID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad page id")
		return 0, 0, false
	}
	return siteID, pageID, true
}

// checkMasterChain refuses master assignments that loop or exceed the depth
// cap.  Returns false when the response has been written.
func (c *Component) checkMasterChain(w http.ResponseWriter, r *http.Request, rec *page.Record) bool {
	if rec.MasterPageID == nil {
		return true
	}
	if _, err := page.MasterChain(r.Context(), c.db, rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondErr(w, http.StatusUnprocessableEntity, "master page does not exist")
			return false
		}
		msg := err.Error()
		if i := strings.Index(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
		respondErr(w, http.StatusUnprocessableEntity, msg)
		return false
	}
	return true
}

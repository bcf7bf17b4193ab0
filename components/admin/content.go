// components/admin/content.go
//
// Theme catalog listing and content-item management.  Content creation
// goes through the content service, which validates the site, enforces
// the plan quota, and mints the asset key.
package admin

import (
	"net/http"

	"github.com/mosaic-cms/mosaic/internal/content"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

type contentRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	MimeType    string `json:"mime_type"   validate:"omitempty,max=100"`
	SizeBytes   int64  `json:"size_bytes"  validate:"gte=0"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

func (c *Component) listThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := theme.All(r.Context(), c.db)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, themes)
}

func (c *Component) listContent(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	items, err := content.BySite(r.Context(), c.db, siteID)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (c *Component) createContent(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req contentRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	rec, err := c.contents.Create(r.Context(), content.NewContent{
		SiteID:      siteID,
		Title:       req.Title,
		MimeType:    req.MimeType,
		SizeBytes:   req.SizeBytes,
		Description: req.Description,
	})
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, rec)
}

func (c *Component) updateContent(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	contentID, err := urlID(r, "contentID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad content id")
		return
	}
	var req contentRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	rec, err := content.ByID(r.Context(), c.db, contentID)
	if err != nil || rec.SiteID != siteID {
		respondErr(w, http.StatusNotFound, "not found")
		return
	}
	rec.Title = req.Title
	rec.Description = req.Description
	if err := content.Update(r.Context(), c.db, rec); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (c *Component) deleteContent(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	contentID, err := urlID(r, "contentID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad content id")
		return
	}
	if err := content.SoftDelete(r.Context(), c.db, siteID, contentID); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

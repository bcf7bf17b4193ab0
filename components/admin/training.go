// components/admin/training.go
//
// Assistant training-data management.  Rows feed the per-tenant knowledge
// block the assistant builds on every chat call, so edits take effect on
// the next question without a restart.
package admin

import (
	"net/http"

	"github.com/mosaic-cms/mosaic/internal/assistant"
)

type trainingRequest struct {
	Category string `json:"category" validate:"required,max=60"`
	Content  string `json:"content"  validate:"required,max=4000"`
	Source   string `json:"source"   validate:"omitempty,max=200"`
	Priority int    `json:"priority" validate:"gte=0,lte=100"`
	IsActive bool   `json:"is_active"`
}

func (c *Component) listTraining(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	rows, err := assistant.TrainingBySite(r.Context(), c.db, siteID)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, rows)
}

func (c *Component) createTraining(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	var req trainingRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	row := &assistant.TrainingRow{
		SiteID:   siteID,
		Category: req.Category,
		Content:  req.Content,
		Source:   req.Source,
		Priority: req.Priority,
		IsActive: req.IsActive,
	}
	if err := assistant.InsertTraining(r.Context(), c.db, row); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, row)
}

func (c *Component) updateTraining(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	rowID, err := urlID(r, "rowID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad row id")
		return
	}
	var req trainingRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed json")
		return
	}
	if !c.checkStruct(w, &req) {
		return
	}

	row := &assistant.TrainingRow{
		SiteID:   siteID,
		Category: req.Category,
		Content:  req.Content,
		Source:   req.Source,
		Priority: req.Priority,
		IsActive: req.IsActive,
	}
	row.ID = rowID
	if err := assistant.UpdateTraining(r.Context(), c.db, row); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, row)
}

func (c *Component) deleteTraining(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	rowID, err := urlID(r, "rowID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad row id")
		return
	}
	if err := assistant.DeleteTraining(r.Context(), c.db, siteID, rowID); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

// components/admin/messages.go
//
// Contact-message inbox: list newest first, delete after handling.
package admin

import (
	"net/http"
	"strconv"

	"github.com/mosaic-cms/mosaic/internal/message"
)

func (c *Component) listMessages(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := message.BySite(r.Context(), c.db, siteID, limit)
	if err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, msgs)
}

func (c *Component) deleteMessage(w http.ResponseWriter, r *http.Request) {
	siteID, err := urlID(r, "siteID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad site id")
		return
	}
	msgID, err := urlID(r, "messageID")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad message id")
		return
	}
	if err := message.Delete(r.Context(), c.db, siteID, msgID); err != nil {
		c.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ok": true})
}

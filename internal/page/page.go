// internal/page/page.go
//
// Page rows belong to exactly one site.  A page may inherit its layout from a
// master page; MasterChain resolves that inheritance and refuses chains that
// loop or grow past MaxMasterDepth, so one bad row cannot wedge the renderer.
package page

import (
	"github.com/mosaic-cms/mosaic/internal/entity"
)

// MaxMasterDepth bounds a master-page walk, the page itself included.
const MaxMasterDepth = 4

// Record is one row of `pages`.
type Record struct {
	entity.Base
	entity.SoftDelete

	SiteID           int64  `db:"site_id"`
	MasterPageID     *int64 `db:"master_page_id"`
	Title            string `db:"title"`
	Slug             string `db:"slug"`
	Path             string `db:"path"`
	BodyHTML         string `db:"body_html"`
	MetaDescription  string `db:"meta_description"`
	ShowInNavigation bool   `db:"show_in_navigation"`
	IsPublished      bool   `db:"is_published"`
	SortOrder        int    `db:"sort_order"`
}

// Visible reports whether the page may be served to portal visitors.
func (r *Record) Visible() bool {
	return r.IsPublished && !r.Deleted()
}

// internal/view/compose.go
//
// Master-layout composition for stored page bodies.
//
// A page may name a master page, which may name its own master, up to the
// chain depth the page package enforces.  Masters wrap their child: the
// child's body replaces the content marker inside the master's body, and
// the outermost master produces the final HTML handed to the theme
// layout.  A master without the marker gets the child body appended, so a
// forgotten marker degrades to visible content instead of swallowing it.
package view

import (
	"html/template"
	"strings"

	"github.com/mosaic-cms/mosaic/internal/page"
)

// ContentMarker is the placeholder a master page's body uses to position
// its child's content.
const ContentMarker = "<!-- content -->"

// ComposeBody folds a master chain into final page HTML.  chain comes
// from page.MasterChain: the page itself first, then masters outward.
// Bodies are admin-authored HTML and are emitted unescaped.
func ComposeBody(chain []*page.Record) template.HTML {
	if len(chain) == 0 {
		return ""
	}
	body := chain[0].BodyHTML
	for _, master := range chain[1:] {
		if strings.Contains(master.BodyHTML, ContentMarker) {
			body = strings.Replace(master.BodyHTML, ContentMarker, body, 1)
		} else {
			body = master.BodyHTML + body
		}
	}
	return template.HTML(body)
}

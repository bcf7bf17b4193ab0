// internal/head/builder.go
//
// Collects everything that belongs inside a page's <head> element.  A
// Builder is scoped to a single request: handlers push tags in, the theme
// layout decides where each slice is emitted.
//
// Features
// --------
//   - SetTitle              – single <title> tag (last call wins).
//   - Description/Canonical – common tags built from plain values.
//   - Meta, Link, Script    – arbitrary pre-built tags with deduplication.
//   - JSONLD                – raw JSON-LD wrapped in a script tag.
//   - Emit helpers          – concat methods returning template.HTML.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder accumulates head tags for one request.  Typical use is one
// goroutine per request, but widget-style concurrent pushes are safe.
type Builder struct {
	mu sync.Mutex

	title string

	metas   []string
	links   []string
	scripts []string
	jsonLD  []string

	// seen keys off tag text so repeated pushes collapse to one.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

//
// Single-value helpers
//

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	t := b.title
	b.mu.Unlock()
	if t == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(t) + "</title>")
}

//
// Common tags from plain values
//

// Description adds a meta-description tag.  Empty text is a no-op, so
// callers can pass a page field without checking it first.
func (b *Builder) Description(text string) {
	if text == "" {
		return
	}
	b.Meta(`<meta name="description" content="` + template.HTMLEscapeString(text) + `">`)
}

// Canonical adds a canonical link tag.
func (b *Builder) Canonical(href string) {
	if href == "" {
		return
	}
	b.Link(`<link rel="canonical" href="` + template.HTMLEscapeString(href) + `">`)
}

//
// Slice helpers with deduplication
//

func (b *Builder) Meta(tag string)   { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string)   { b.add("link:"+tag, &b.links, tag) }
func (b *Builder) Script(tag string) { b.add("script:"+tag, &b.scripts, tag) }
func (b *Builder) JSONLD(js string)  { b.add("jsonld:"+hash(js), &b.jsonLD, js) }

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// hash creates a short, stable key for JSON-LD strings.
func hash(s string) string {
	if len(s) > 32 {
		return s[:32]
	}
	return s
}

//
// Emit helpers called from theme layouts
//

func (b *Builder) Metas() template.HTML   { return b.concat(&b.metas) }
func (b *Builder) Links() template.HTML   { return b.concat(&b.links) }
func (b *Builder) Scripts() template.HTML { return b.concat(&b.scripts) }

// JSON returns all JSON-LD blocks wrapped in <script> tags.
func (b *Builder) JSON() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.jsonLD) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

// concat joins pre-escaped tags without a separator.
func (b *Builder) concat(sl *[]string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(*sl, ""))
}

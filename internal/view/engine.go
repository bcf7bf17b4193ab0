// internal/view/engine.go
//
// Component template engine: lookup with theme override, func-map
// injection, and an LRU of parsed *template.Template sets.
//
// Lookup precedence (first hit wins):
//   1. themes/<theme>/components/<comp>/templates/<tpl>.html
//   2. components/<comp>/templates/<tpl>.html
//
// All templates in the winning directory are parsed as one set so
// sub-templates ({{ template "row" . }}) work out of the box.  Parsed
// sets are cached per host and theme; request-scoped values never ride
// in the func map, they come in through data.
//
// execName() chooses the template to execute:
//   - If the set contains "<name>.html", run that (file has no define).
//   - Else fall back to "<name>" (root template defined via {{ define }}).
//
// Callers pass the logical name ("login"); the engine finds the concrete
// template.
package view

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/cache"
	"github.com/mosaic-cms/mosaic/internal/tenant"
)

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // cache parsed sets
	CacheSkip                       // reparse every call (dev, error pages)
)

// Engine parses and executes component templates for tenants.
type Engine struct {
	root string // directory holding components/ and themes/
	log  *zap.SugaredLogger
	lru  *cache.LRU
}

// NewEngine returns an Engine rooted at root.
func NewEngine(root string, log *zap.SugaredLogger) *Engine {
	return &Engine{root: root, log: log, lru: cache.New(256)}
}

// Render executes the template set and streams it to w.
func (e *Engine) Render(w http.ResponseWriter, ten *tenant.Tenant, comp, name string, data any, policy CachePolicy) error {
	t, err := e.load(ten, comp, name, policy)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, execName(t, name), data)
}

// RenderToString executes and returns HTML, for fragments and mail
// bodies.  It mirrors Render but writes to a buffer.
func (e *Engine) RenderToString(ten *tenant.Tenant, comp, name string, data any) (template.HTML, error) {
	t, err := e.load(ten, comp, name, CacheDefault)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Invalidate drops every cached set, for theme hot-reload.
func (e *Engine) Invalidate() { e.lru.Purge() }

// load finds and, if necessary, parses the template set for the tenant's
// theme, the component, and the base name.
func (e *Engine) load(ten *tenant.Tenant, comp, name string, policy CachePolicy) (*template.Template, error) {
	themeName := ten.ThemeName()
	key := strings.Join([]string{ten.Host(), themeName, comp, name}, "::")

	if policy != CacheSkip {
		if v, ok := e.lru.Get(key); ok {
			return v.(*template.Template), nil
		}
	}

	paths := []string{
		filepath.Join(e.root, "themes", themeName, "components", comp, "templates", name+".html"),
		filepath.Join(e.root, "components", comp, "templates", name+".html"),
	}

	var base string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			base = p
			break
		}
	}
	if base == "" {
		return nil, os.ErrNotExist
	}

	// Parse all *.html next to the hit so sub-templates resolve.
	pattern := filepath.Join(filepath.Dir(base), "*.html")

	t, err := template.New(name).Funcs(e.funcsFor(themeName)).ParseGlob(pattern)
	if err != nil {
		return nil, err
	}

	if policy != CacheSkip {
		e.lru.Add(key, t)
	}
	return t, nil
}

// funcsFor merges BaseFuncs with the per-theme asset helper.  Everything
// here depends only on the theme, never on a request, so cached sets stay
// correct across requests.
func (e *Engine) funcsFor(themeName string) template.FuncMap {
	fm := template.FuncMap{}
	for k, v := range BaseFuncs() {
		fm[k] = v
	}
	prefix := "/themes/" + themeName + "/assets/"
	fm["asset"] = func(p string) string {
		return prefix + strings.TrimPrefix(p, "/")
	}
	return fm
}

// execName picks the template name to execute.
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

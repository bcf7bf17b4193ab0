// internal/theme/manager.go
//
// Template loading.
//
// Context
// -------
// A theme is a directory under the themes root: `<root>/<name>/templates/`
// holds the *.html files, `<root>/<name>/assets/` the static files.  The
// Manager parses each theme once into a Set and hands the cached Set to every
// tenant using that theme.  Sets drop on Invalidate, which the Watcher calls
// when template files change on disk.
//
// Notes
// -----
// • A theme directory that is missing or empty fails with the offending path
//   in the error, since "works locally, blank page in prod" almost always
//   turns out to be a theme deployed to the wrong place.
// • Oxford commas, two spaces after periods.
package theme

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Set is one parsed theme ready for rendering.
type Set struct {
	Name      string
	Root      string
	Templates *template.Template
	LoadedAt  time.Time
}

// Manager parses and caches theme template sets.
type Manager struct {
	baseDir string
	funcs   template.FuncMap
	log     *zap.SugaredLogger

	mu   sync.Mutex
	sets map[string]*Set
}

// NewManager returns a Manager rooted at baseDir.  funcs is merged into every
// parsed set; the per-theme `asset` helper is added on top.
func NewManager(baseDir string, funcs template.FuncMap, log *zap.SugaredLogger) *Manager {
	return &Manager{
		baseDir: baseDir,
		funcs:   funcs,
		log:     log,
		sets:    map[string]*Set{},
	}
}

// Get returns the cached Set for name, parsing it on first use.
func (m *Manager) Get(name string) (*Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sets[name]; ok {
		return s, nil
	}
	s, err := m.load(name)
	if err != nil {
		return nil, err
	}
	m.sets[name] = s
	return s, nil
}

// Invalidate drops a cached set so the next Get reparses from disk.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, name)
}

// InvalidateAll drops every cached set.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = map[string]*Set{}
}

// Loaded reports the names of currently cached sets, for diagnostics.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sets))
	for n := range m.sets {
		names = append(names, n)
	}
	return names
}

// BaseDir reports the themes root the Manager watches and parses.
func (m *Manager) BaseDir() string { return m.baseDir }

func (m *Manager) load(name string) (*Set, error) {
	root := filepath.Join(m.baseDir, name)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("theme %q not found at %s", name, root)
	}

	tplDir := filepath.Join(root, "templates")
	files, err := htmlFiles(tplDir)
	if err != nil {
		return nil, fmt.Errorf("theme %q: scan %s: %w", name, tplDir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("theme %q has no templates under %s", name, tplDir)
	}

	funcs := template.FuncMap{}
	for k, v := range m.funcs {
		funcs[k] = v
	}
	assetPrefix := "/themes/" + name + "/assets/"
	funcs["asset"] = func(p string) string {
		return assetPrefix + strings.TrimPrefix(p, "/")
	}

	tpl, err := template.New(name).Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("theme %q: parse: %w", name, err)
	}

	if m.log != nil {
		m.log.Infow("theme loaded",
			"theme", name,
			"templates", len(files))
	}
	return &Set{Name: name, Root: root, Templates: tpl, LoadedAt: time.Now()}, nil
}

// htmlFiles walks dir recursively and returns every *.html path in slash form.
func htmlFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// internal/theme/watcher.go
//
// Filesystem watcher that drops parsed sets when template files change, so
// theme edits show on the next request without a restart.  Watches are added
// per directory because inotify does not recurse; new directories join the
// watch as their create events arrive.
package theme

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates Manager sets on template writes.
type Watcher struct {
	mgr *Manager
	fw  *fsnotify.Watcher
	log *zap.SugaredLogger
}

// NewWatcher builds a Watcher over mgr's themes root.  Call Run to start it.
func NewWatcher(mgr *Manager, log *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{mgr: mgr, fw: fw, log: log}
	if err := w.watchTree(mgr.BaseDir()); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fw.Add(path)
		}
		return nil
	})
}

// Run blocks until ctx ends, invalidating cached sets as files change.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("theme watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fw.Add(ev.Name)
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if !strings.HasSuffix(strings.ToLower(ev.Name), ".html") {
		return
	}
	name, ok := themeForPath(w.mgr.BaseDir(), ev.Name)
	if !ok {
		return
	}
	w.mgr.Invalidate(name)
	w.log.Infow("theme templates changed",
		"theme", name,
		"file", filepath.Base(ev.Name))
}

// themeForPath maps an event path to the theme directory it belongs to.
func themeForPath(baseDir, path string) (string, bool) {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	name, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return name, name != ""
}

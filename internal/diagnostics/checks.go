// internal/diagnostics/checks.go
//
// The standard check set.  Each constructor closes over its dependency
// so Checks stays assembly-only; `serve` and `doctor` build the same
// slice from the same wiring.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/migrate"
	"github.com/mosaic-cms/mosaic/internal/requestinfo"
	"github.com/mosaic-cms/mosaic/internal/session"
	"github.com/mosaic-cms/mosaic/internal/theme"
)

const probeTimeout = 3 * time.Second

// Checks assembles the standard set against live dependencies.
func Checks(cfg *config.Config, db *sqlx.DB, runner *migrate.Runner, store session.Store, themes *theme.Manager) []Check {
	return []Check{
		ConfigCheck(cfg),
		DatabaseCheck(db),
		MigrationCheck(runner),
		LogDirCheck(cfg.Paths.Root),
		ThemeCheck(themes),
		AssistantCheck(cfg.Assistant),
		SessionCheck(store),
		GeoCheck(cfg.Geo),
	}
}

// ConfigCheck replays the boot audit.
func ConfigCheck(cfg *config.Config) Check {
	return Check{Name: "config", Run: func(context.Context) (Status, string) {
		findings := config.Audit(cfg)
		if len(findings) == 0 {
			return StatusOK, "no findings"
		}
		if config.HasFatal(findings) {
			return StatusFail, findings[0].String()
		}
		return StatusWarn, fmt.Sprintf("%d warning(s), first: %s", len(findings), findings[0])
	}}
}

// DatabaseCheck pings the control database.
func DatabaseCheck(db *sqlx.DB) Check {
	return Check{Name: "database", Run: func(ctx context.Context) (Status, string) {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return StatusFail, err.Error()
		}
		stats := db.Stats()
		return StatusOK, fmt.Sprintf("connected, %d open conn(s)", stats.OpenConnections)
	}}
}

// MigrationCheck reports pending and drifted migrations.
func MigrationCheck(runner *migrate.Runner) Check {
	return Check{Name: "migrations", Run: func(ctx context.Context) (Status, string) {
		rows, err := runner.Status(ctx)
		if err != nil {
			return StatusFail, err.Error()
		}
		var pending, drifted, unknown int
		for _, r := range rows {
			switch r.State {
			case migrate.StatePending:
				pending++
			case migrate.StateDrifted:
				drifted++
			case migrate.StateUnknown:
				unknown++
			}
		}
		switch {
		case drifted > 0:
			return StatusFail, fmt.Sprintf("%d drifted (run `mosaic migrate repair`)", drifted)
		case pending > 0:
			return StatusWarn, fmt.Sprintf("%d pending", pending)
		case unknown > 0:
			return StatusWarn, fmt.Sprintf("%d history row(s) unknown to this binary", unknown)
		}
		return StatusOK, fmt.Sprintf("%d applied", len(rows))
	}}
}

// LogDirCheck proves the log directory accepts writes.
func LogDirCheck(root string) Check {
	return Check{Name: "log directory", Run: func(context.Context) (Status, string) {
		dir := filepath.Join(root, "logs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return StatusFail, err.Error()
		}
		f, err := os.CreateTemp(dir, ".diag-*")
		if err != nil {
			return StatusFail, err.Error()
		}
		name := f.Name()
		f.Close()
		os.Remove(name)
		return StatusOK, dir + " is writable"
	}}
}

// ThemeCheck confirms the themes root holds at least one theme with
// templates.
func ThemeCheck(themes *theme.Manager) Check {
	return Check{Name: "themes", Run: func(context.Context) (Status, string) {
		entries, err := os.ReadDir(themes.BaseDir())
		if err != nil {
			return StatusFail, err.Error()
		}
		var found int
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			tpl := filepath.Join(themes.BaseDir(), e.Name(), "templates")
			if info, err := os.Stat(tpl); err == nil && info.IsDir() {
				found++
			}
		}
		if found == 0 {
			return StatusFail, "no theme with a templates directory under " + themes.BaseDir()
		}
		return StatusOK, fmt.Sprintf("%d on disk, %d parsed", found, len(themes.Loaded()))
	}}
}

// AssistantCheck reports whether chat runs live or mocked.
func AssistantCheck(cfg config.Assistant) Check {
	return Check{Name: "assistant", Run: func(context.Context) (Status, string) {
		if cfg.APIKey == "" || config.IsPlaceholder(cfg.APIKey) {
			return StatusWarn, "mock mode (no usable API key)"
		}
		return StatusOK, "genai configured, model " + cfg.Model
	}}
}

// SessionCheck round-trips a probe session through the store.
func SessionCheck(store session.Store) Check {
	return Check{Name: "sessions", Run: func(ctx context.Context) (Status, string) {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		probe := &session.Session{
			ID:        "diag-" + uuid.NewString(),
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Minute),
		}
		if err := store.Put(ctx, probe); err != nil {
			return StatusFail, "put: " + err.Error()
		}
		if _, err := store.Get(ctx, probe.ID); err != nil {
			return StatusFail, "get: " + err.Error()
		}
		if err := store.Delete(ctx, probe.ID); err != nil {
			return StatusFail, "delete: " + err.Error()
		}
		return StatusOK, "round-trip ok"
	}}
}

// GeoCheck reports GeoIP wiring.  Absent data is never a failure, the
// platform runs without geo fields.
func GeoCheck(cfg config.Geo) Check {
	return Check{Name: "geoip", Run: func(context.Context) (Status, string) {
		switch {
		case cfg.DBPath == "":
			return StatusOK, "not configured"
		case !requestinfo.GeoEnabled():
			return StatusWarn, "configured but not open: " + cfg.DBPath
		}
		return StatusOK, "open: " + cfg.DBPath
	}}
}

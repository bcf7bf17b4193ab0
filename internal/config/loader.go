// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load(ctx)` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `MOSAIC_`, where `__` maps to “.”
     (e.g., `MOSAIC_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, string leaves with a `vault:` prefix are resolved through the
Vault client, the tree is unmarshalled into strongly-typed structs, defaults
are filled, the result is validated, enriched with the runtime root path,
and cached in an `atomic.Pointer` for lock-free reads.  `Reload()` simply
calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay, vault resolution.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`; this
    lets `go run ./cmd/mosaic` work from any sub-directory.
  • Secrets never echo in the highlights line.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/vault"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves MOSAIC_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("MOSAIC_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves vault references,
// validates, and caches Config.
func Load(ctx context.Context) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: MOSAIC_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("MOSAIC_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, "MOSAIC_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveVaultRefs(ctx, k); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"env", cfg.Env,
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"session_store", cfg.Session.Store,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────── vault reference resolution ───────────────────────*/

// resolveVaultRefs replaces every string leaf of the form
// `vault:<mount>/<path>#<key>` with the secret it names.  The Vault client
// is only constructed when at least one reference exists, so deployments
// without Vault never need VAULT_ADDR.
func resolveVaultRefs(ctx context.Context, k *koanf.Koanf) error {
	var cli *vault.Client
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vault.RefPrefix) {
			continue
		}
		if cli == nil {
			var err error
			cli, err = vault.New(ctx, zap.S().Infof)
			if err != nil {
				return fmt.Errorf("vault client: %w", err)
			}
		}
		secret, err := cli.ResolveRef(ctx, s)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return err
		}
		zap.S().Debugw("config vault ref resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── defaults ────────────────────────────────────*/

// applyDefaults fills the knobs a deployment may omit.  Required values
// (listen address, DSN) stay required; validation still enforces those.
func applyDefaults(c *Config) {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Auth.JWTTTL == 0 {
		c.Auth.JWTTTL = 15 * time.Minute
	}
	if c.Auth.MaxFailures == 0 {
		c.Auth.MaxFailures = 5
	}
	if c.Auth.LockoutWindow == 0 {
		c.Auth.LockoutWindow = 15 * time.Minute
	}
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "mosaic_session"
	}
	if c.Session.Lifetime == 0 {
		c.Session.Lifetime = 14 * 24 * time.Hour
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = 2 * time.Hour
	}
	if c.Tenant.IdleTTL == 0 {
		c.Tenant.IdleTTL = 30 * time.Minute
	}
	if c.Tenant.MaxEntries == 0 {
		c.Tenant.MaxEntries = 100
	}
	if c.Tenant.SweepInterval == 0 {
		c.Tenant.SweepInterval = 5 * time.Minute
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gemini-2.0-flash"
	}
	if c.Assistant.SystemPrompt == "" {
		c.Assistant.SystemPrompt = "You are the site assistant.  Answer briefly," +
			" helpfully, and only from the provided site information."
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = 0.7
	}
	if c.Assistant.TopP == 0 {
		c.Assistant.TopP = 0.9
	}
	if c.Assistant.MaxOutputTokens == 0 {
		c.Assistant.MaxOutputTokens = 1024
	}
	if c.Billing.SweepInterval == 0 {
		c.Billing.SweepInterval = time.Hour
	}
	if c.Billing.GraceDays == 0 {
		c.Billing.GraceDays = 3
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

func Reload(ctx context.Context) error { _, err := Load(ctx); return err }

// Set stores a hand-built Config.  Used by tests and by doctor, which needs
// audit output even when validation would reject the tree.
func Set(c *Config) { current.Store(c) }

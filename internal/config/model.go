// internal/config/model.go
//
// Typed configuration model for Mosaic.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                     – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `MOSAIC_`-prefixed environment overrides – highest precedence.
//
// Any string value beginning with the prefix `vault:` is resolved through
// the Vault client after the layers merge, so the model never stores Vault
// URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.  The separate Audit pass (audit.go) then
// looks for values that are present but useless, such as placeholder
// passwords copied from a template.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Duration fields accept Go syntax ("15m", "336h") in YAML and env.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables for the main (tenant-facing) listener.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Log section
//

// Log controls the zap logger.  Level accepts zap's lowercase names.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Database section
//

// Database holds the control-database DSN and migration switches.  One
// MySQL database serves every site; rows are scoped by site_id.
type Database struct {
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
	Seed         bool   `koanf:"seed"`
}

//
// Auth section
//

// Auth carries the secrets and policy knobs for sign-in.  Empty keys are
// replaced with random per-boot values, which keeps development friction
// low but invalidates sessions and tokens on restart; the audit flags that
// in production.
type Auth struct {
	SessionKey    string        `koanf:"session_key"`
	CSRFKey       string        `koanf:"csrf_key"`
	JWTSecret     string        `koanf:"jwt_secret"`
	JWTTTL        time.Duration `koanf:"jwt_ttl"`
	MaxFailures   int           `koanf:"max_failures"`
	LockoutWindow time.Duration `koanf:"lockout_window"`
}

//
// Session section
//

// Session selects and tunes the admin session store.
type Session struct {
	Store       string        `koanf:"store" validate:"omitempty,oneof=memory redis"`
	RedisURL    string        `koanf:"redis_url"`
	CookieName  string        `koanf:"cookie_name"`
	Lifetime    time.Duration `koanf:"lifetime"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	Secure      bool          `koanf:"secure"`
}

//
// Tenant section
//

// Tenant tunes the in-memory tenant cache.  LocalhostAlias lets a dev
// instance masquerade as a real site row when the Host header is
// "localhost" or a loopback address.
type Tenant struct {
	IdleTTL        time.Duration `koanf:"idle_ttl"`
	MaxEntries     int           `koanf:"max_entries"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	LocalhostAlias string        `koanf:"localhost_alias"`
}

//
// Assistant section
//

// Assistant configures the conversational endpoint.  A missing or
// placeholder APIKey switches the service to mock mode instead of failing.
type Assistant struct {
	APIKey          string  `koanf:"api_key"`
	Model           string  `koanf:"model"`
	SystemPrompt    string  `koanf:"system_prompt"`
	Temperature     float64 `koanf:"temperature"`
	TopP            float64 `koanf:"top_p"`
	MaxOutputTokens int     `koanf:"max_output_tokens"`
}

//
// Billing section
//

// Billing tunes the subscription sweep worker.
type Billing struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
	GraceDays     int           `koanf:"grace_days"`
}

//
// Diagnostics section
//

// Diagnostics configures the second, minimal HTTP listener.  An empty
// ListenAddr disables it.  An empty Token leaves the dashboard open, which
// the audit calls out.
type Diagnostics struct {
	ListenAddr string `koanf:"listen_addr"`
	Token      string `koanf:"token"`
}

//
// Geo section
//

// Geo points at an optional MaxMind City database.  Absent file means
// request intelligence runs without geo fields; it is never fatal.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or MOSAIC_ROOT override) so later code can
// build absolute file paths for logs, themes, and GeoIP data.
type Paths struct {
	Root string // MOSAIC_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Env         string      `koanf:"env" validate:"omitempty,oneof=development production"`
	HTTP        HTTP        `koanf:"http"`
	Log         Log         `koanf:"log"`
	Database    Database    `koanf:"database"`
	Auth        Auth        `koanf:"auth"`
	Session     Session     `koanf:"session"`
	Tenant      Tenant      `koanf:"tenant"`
	Assistant   Assistant   `koanf:"assistant"`
	Billing     Billing     `koanf:"billing"`
	Diagnostics Diagnostics `koanf:"diagnostics"`
	Geo         Geo         `koanf:"geo"`
	Paths       Paths       `koanf:"-"` // not loaded from config files
}

// Production reports whether the deployment declared itself production.
// The audit escalates several warnings to fatal under it.
func (c *Config) Production() bool { return c.Env == "production" }

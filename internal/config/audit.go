// internal/config/audit.go
//
// Semantic configuration audit.
//
// Context
// -------
// Validation catches missing fields; it cannot catch fields that are present
// but copied straight from a template.  A DSN containing YOUR-PASSWORD-HERE
// passes `required` and then takes the whole boot down with an opaque driver
// error, and a placeholder assistant key silently degrades chat.  Audit()
// walks the loaded Config for exactly these cases and returns findings with
// a severity, so `serve` can refuse to start on fatal ones and `doctor` can
// print the full list.
//
// The placeholder vocabulary comes from the template files this project
// ships; extend it when a new template value appears in the wild.
package config

import (
	"fmt"
	"strings"
)

// Severity ranks a finding.  Fatal findings abort serve; warnings print and
// continue.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "warn"
}

// Finding names one audit hit.  Key is the dotted config path so operators
// can map it straight back to YAML or an env override.
type Finding struct {
	Severity Severity
	Key      string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Key, f.Message)
}

// placeholders are template values that must never reach a running system.
// Matched case-insensitively against whole values and DSN passwords.
var placeholders = []string{
	"your-api-key",
	"your_api_key_here",
	"your-password-here",
	"changeme",
	"change-me",
	"placeholder",
	"xxx",
}

// IsPlaceholder reports whether v is empty or a known template value.  The
// assistant uses it to decide between live and mock mode.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	return false
}

// Audit inspects cfg for values that would make the deployment misbehave.
// It never mutates cfg and is safe on partially-filled trees, so doctor can
// run it even when validation already failed.
func Audit(cfg *Config) []Finding {
	var out []Finding
	add := func(sev Severity, key, msg string) {
		out = append(out, Finding{Severity: sev, Key: key, Message: msg})
	}

	// Database.
	switch {
	case strings.TrimSpace(cfg.Database.DSN) == "":
		add(SeverityFatal, "database.dsn", "empty; set the control-database DSN")
	case dsnHasPlaceholderPassword(cfg.Database.DSN):
		add(SeverityFatal, "database.dsn", "password looks like a template placeholder; replace it before boot")
	}

	// Auth secrets.  Random per-boot fallbacks are fine in development and
	// an outage generator in production (every deploy logs everyone out).
	authSev := SeverityWarn
	if cfg.Production() {
		authSev = SeverityFatal
	}
	if IsPlaceholder(cfg.Auth.SessionKey) {
		add(authSev, "auth.session_key", "unset; sessions will not survive a restart")
	}
	if IsPlaceholder(cfg.Auth.JWTSecret) {
		add(authSev, "auth.jwt_secret", "unset; issued portal tokens die with the process")
	}
	if IsPlaceholder(cfg.Auth.CSRFKey) {
		add(SeverityWarn, "auth.csrf_key", "unset; form tokens will not survive a restart")
	}

	// Session store.
	if cfg.Session.Store == "redis" && strings.TrimSpace(cfg.Session.RedisURL) == "" {
		add(SeverityFatal, "session.redis_url", "store is redis but no URL is configured")
	}

	// Assistant.  Not fatal: mock mode exists for exactly this case.
	if IsPlaceholder(cfg.Assistant.APIKey) {
		add(SeverityWarn, "assistant.api_key", "unset or placeholder; assistant runs in mock mode")
	}

	// Diagnostics listener.
	if cfg.Diagnostics.ListenAddr != "" && strings.TrimSpace(cfg.Diagnostics.Token) == "" {
		add(SeverityWarn, "diagnostics.token", "dashboard is enabled without a token; anyone who can reach the port can read logs")
	}

	// Transport.
	if cfg.Production() && !cfg.HTTP.ForceHTTPS {
		add(SeverityWarn, "http.force_https", "disabled in production")
	}

	return out
}

// HasFatal reports whether any finding is fatal.  Serve refuses to start
// when it does.
func HasFatal(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// dsnHasPlaceholderPassword picks the password out of a
// user:password@proto(host)/db DSN and checks it against the placeholder
// vocabulary.  Unparsable DSNs return false; the driver will complain with
// a better message than we could.
func dsnHasPlaceholderPassword(dsn string) bool {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return false
	}
	cred := dsn[:at]
	_, pass, ok := strings.Cut(cred, ":")
	if !ok {
		return false
	}
	return pass != "" && IsPlaceholder(pass)
}

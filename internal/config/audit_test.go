package config

import (
	"strings"
	"testing"
)

func findingFor(fs []Finding, key string) (Finding, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f, true
		}
	}
	return Finding{}, false
}

func TestAuditEmptyDSNIsFatal(t *testing.T) {
	cfg := &Config{}
	fs := Audit(cfg)
	f, ok := findingFor(fs, "database.dsn")
	if !ok {
		t.Fatal("expected a database.dsn finding")
	}
	if f.Severity != SeverityFatal {
		t.Fatalf("severity = %v, want fatal", f.Severity)
	}
	if !HasFatal(fs) {
		t.Fatal("HasFatal = false, want true")
	}
}

func TestAuditPlaceholderDSNPassword(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "mosaic:YOUR-PASSWORD-HERE@tcp(db:3306)/mosaic?parseTime=true"
	fs := Audit(cfg)
	f, ok := findingFor(fs, "database.dsn")
	if !ok || f.Severity != SeverityFatal {
		t.Fatalf("placeholder DSN password not flagged fatal: %v", fs)
	}

	// A real password with an @ in it must not trip the check.
	cfg.Database.DSN = "mosaic:s3cr3t@pass@tcp(db:3306)/mosaic"
	if f, ok := findingFor(Audit(cfg), "database.dsn"); ok {
		t.Fatalf("real password flagged: %v", f)
	}
}

func TestAuditSecretSeverityFollowsEnv(t *testing.T) {
	base := func(env string) *Config {
		c := &Config{Env: env}
		c.Database.DSN = "mosaic:ok@tcp(db:3306)/mosaic"
		return c
	}

	dev := Audit(base("development"))
	if f, ok := findingFor(dev, "auth.session_key"); !ok || f.Severity != SeverityWarn {
		t.Fatalf("dev session_key finding = %v, want warn", dev)
	}
	if HasFatal(dev) {
		t.Fatalf("development audit has fatals: %v", dev)
	}

	prod := Audit(base("production"))
	if f, ok := findingFor(prod, "auth.session_key"); !ok || f.Severity != SeverityFatal {
		t.Fatalf("prod session_key finding = %v, want fatal", prod)
	}
	if f, ok := findingFor(prod, "http.force_https"); !ok || f.Severity != SeverityWarn {
		t.Fatalf("prod force_https finding = %v, want warn", prod)
	}
}

func TestAuditRedisStoreNeedsURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "mosaic:ok@tcp(db:3306)/mosaic"
	cfg.Session.Store = "redis"
	fs := Audit(cfg)
	if f, ok := findingFor(fs, "session.redis_url"); !ok || f.Severity != SeverityFatal {
		t.Fatalf("redis store without URL = %v, want fatal finding", fs)
	}
}

func TestAuditAssistantPlaceholderWarns(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "mosaic:ok@tcp(db:3306)/mosaic"
	cfg.Assistant.APIKey = "your-api-key"
	fs := Audit(cfg)
	f, ok := findingFor(fs, "assistant.api_key")
	if !ok || f.Severity != SeverityWarn {
		t.Fatalf("assistant placeholder = %v, want warn", fs)
	}
	if !strings.Contains(f.Message, "mock mode") {
		t.Fatalf("message %q should mention mock mode", f.Message)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "your-api-key", "CHANGEME", "Placeholder"} {
		if !IsPlaceholder(v) {
			t.Errorf("IsPlaceholder(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"AIzaSyReal", "correct horse battery staple"} {
		if IsPlaceholder(v) {
			t.Errorf("IsPlaceholder(%q) = true, want false", v)
		}
	}
}

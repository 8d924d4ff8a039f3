package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/eems")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{
		"PORT", "SESSION_TTL", "ALLOW_ORIGINS", "PASSWORD_RESET_TTL", "PASSWORD_RESET_MIN_LENGTH",
		"PASSWORD_RESET_MAIL_TIMEOUT", "PASSWORD_RESET_CONCEAL_UNKNOWN_EMAIL", "RESET_RATE_LIMIT",
		"RESET_RATE_WINDOW", "REDIS_ADDR", "SMTP_USE_TLS", "TRUSTED_PROXIES",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.PasswordResetTTL != 15*time.Minute {
		t.Fatalf("expected 15m reset ttl, got %s", cfg.PasswordResetTTL)
	}
	if cfg.PasswordResetMinLength != 6 {
		t.Fatalf("expected min length 6, got %d", cfg.PasswordResetMinLength)
	}
	if cfg.PasswordResetMailTimeout != 10*time.Second {
		t.Fatalf("expected 10s mail timeout, got %s", cfg.PasswordResetMailTimeout)
	}
	if cfg.PasswordResetConcealUnknown {
		t.Fatal("expected unknown emails to be reported by default")
	}
	if cfg.ResetRateLimit != 5 || cfg.ResetRateWindow != 15*time.Minute {
		t.Fatalf("unexpected rate limit defaults %d/%s", cfg.ResetRateLimit, cfg.ResetRateWindow)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "*" {
		t.Fatalf("expected wildcard origins, got %v", cfg.AllowOrigins)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PASSWORD_RESET_TTL", "5m")
	t.Setenv("PASSWORD_RESET_MIN_LENGTH", "10")
	t.Setenv("PASSWORD_RESET_CONCEAL_UNKNOWN_EMAIL", "true")
	t.Setenv("ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SMTP_USE_TLS", "1")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	cfg := Load()

	if cfg.PasswordResetTTL != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", cfg.PasswordResetTTL)
	}
	if cfg.PasswordResetMinLength != 10 {
		t.Fatalf("expected 10, got %d", cfg.PasswordResetMinLength)
	}
	if !cfg.PasswordResetConcealUnknown || !cfg.SMTPUseTLS {
		t.Fatal("expected boolean overrides to apply")
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowOrigins)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.0.0/16" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("PASSWORD_RESET_TTL", "soon")
	t.Setenv("RESET_RATE_LIMIT", "-3")
	t.Setenv("SMTP_USE_TLS", "maybe")

	cfg := Load()

	if cfg.PasswordResetTTL != 15*time.Minute {
		t.Fatalf("expected fallback ttl, got %s", cfg.PasswordResetTTL)
	}
	if cfg.ResetRateLimit != 5 {
		t.Fatalf("expected fallback limit, got %d", cfg.ResetRateLimit)
	}
	if cfg.SMTPUseTLS {
		t.Fatal("expected fallback tls=false")
	}
}

func TestLoadPanicsWithoutRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing DATABASE_URL")
		}
	}()
	Load()
}

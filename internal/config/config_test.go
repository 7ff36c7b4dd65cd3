package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.GameStore != "sqlite" {
		t.Fatalf("expected default store sqlite, got %q", cfg.GameStore)
	}
	if cfg.MaxGuesses != 64 {
		t.Fatalf("expected default max guesses 64, got %d", cfg.MaxGuesses)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("expected default timeout 10s, got %s", cfg.RequestTimeout)
	}
	if cfg.JWTExpiresDays != 14 {
		t.Fatalf("expected default jwt expiry 14, got %d", cfg.JWTExpiresDays)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GAME_STORE", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REQUEST_TIMEOUT", "250ms")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Addr() != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.Addr())
	}
	if cfg.GameStore != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.GameStore)
	}
	if !cfg.Production() {
		t.Fatal("expected production")
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.RequestTimeout)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		key, value, contains string
	}{
		{"MAX_GUESSES", "lots", "parse env:"},
		{"GAME_STORE", "redis", "GAME_STORE"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"JWT_EXPIRES_DAYS", "0", "JWT_EXPIRES_DAYS"},
		{"MAX_GUESSES", "-1", "MAX_GUESSES"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"RATE_LIMIT", "-1", "RATE_LIMIT"},
	}
	for _, test := range tests {
		t.Run(test.key+"="+test.value, func(t *testing.T) {
			t.Setenv(test.key, test.value)
			_, err := Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), test.contains) {
				t.Fatalf("expected %q in error, got %v", test.contains, err)
			}
		})
	}
}

func TestParseRateLimitOff(t *testing.T) {
	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("RATE_BURST", "0")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.RateLimit != 0 {
		t.Fatalf("expected rate limit off, got %g", cfg.RateLimit)
	}
}

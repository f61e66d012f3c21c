package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, key := range []string{"SERVER_PORT", "PORT", "EVENT_EXCHANGE", "LOGIN_RATE_LIMIT_PER_MINUTE", "KYC_DOCUMENT_MAX_BYTES", "RECEIPT_IMAGE_MAX_BYTES"} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.EventExchange != "ambassador.events" {
		t.Fatalf("expected default exchange, got %q", cfg.EventExchange)
	}
	if cfg.LoginRateLimitPerMinute != 5 {
		t.Fatalf("expected default login rate limit 5, got %d", cfg.LoginRateLimitPerMinute)
	}
	if cfg.KYCDocumentMaxBytes != 5<<20 {
		t.Fatalf("expected 5MB kyc limit, got %d", cfg.KYCDocumentMaxBytes)
	}
	if cfg.ReceiptImageMaxBytes != 10<<20 {
		t.Fatalf("expected 10MB receipt limit, got %d", cfg.ReceiptImageMaxBytes)
	}
}

func TestLoadConfig_PlatformPortWins(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "PORT", "3000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "3000" {
		t.Fatalf("expected platform PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_NegativeLoginRateLimitDisablesLimiter(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "LOGIN_RATE_LIMIT_PER_MINUTE", "-3")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LoginRateLimitPerMinute != 0 {
		t.Fatalf("expected negative limit coerced to 0, got %d", cfg.LoginRateLimitPerMinute)
	}
}

func TestConfigOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: " https://console.example.com , https://admin.example.com ,"}
	got := cfg.Origins()
	want := []string{"https://console.example.com", "https://admin.example.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("origin %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if origins := (Config{}).Origins(); origins != nil {
		t.Fatalf("expected nil origins for empty config, got %v", origins)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
		}
	})
}

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "WAGE_RATE", "OVERTIME_MULTIPLIER", "DEFAULT_OWNER_ID", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.StoreBackend != "badger" {
		t.Fatalf("expected badger backend, got %q", cfg.StoreBackend)
	}
	if cfg.WageRate != 15 {
		t.Fatalf("expected wage rate 15, got %v", cfg.WageRate)
	}
	if cfg.OvertimeMultiplier != 1.5 {
		t.Fatalf("expected multiplier 1.5, got %v", cfg.OvertimeMultiplier)
	}
	if cfg.DefaultOwnerID != "local" {
		t.Fatalf("expected default owner local, got %q", cfg.DefaultOwnerID)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WAGE_RATE", "22.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	if cfg.WageRate != 22.5 {
		t.Fatalf("expected wage rate 22.5, got %v", cfg.WageRate)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("expected 3s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if !cfg.TrustProxy {
		t.Fatal("expected TRUST_PROXY to enable forwarded addresses")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected invalid int to fall back to 120, got %d", cfg.RateLimitPerMinute)
	}
}

func validConfig() Config {
	return Config{
		StoreBackend:           "memory",
		Environment:            "test",
		DefaultOwnerID:         "local",
		WageRate:               15,
		OvertimeThresholdHours: 8,
		OvertimeMultiplier:     1.5,
		WithholdingPercent:     14,
		Timezone:               "UTC",
		MaxBodyBytes:           65536,
		RateLimitPerMinute:     60,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "etcd" }, wantErr: "STORE_BACKEND"},
		{name: "postgres without url", mutate: func(c *Config) { c.StoreBackend = "postgres" }, wantErr: "DATABASE_URL"},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "JWT_SECRET"},
		{name: "negative wage", mutate: func(c *Config) { c.WageRate = -1 }, wantErr: "WAGE_RATE"},
		{name: "multiplier below one", mutate: func(c *Config) { c.OvertimeMultiplier = 0.5 }, wantErr: "OVERTIME_MULTIPLIER"},
		{name: "withholding above 100", mutate: func(c *Config) { c.WithholdingPercent = 120 }, wantErr: "WITHHOLDING_PERCENT"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
		{name: "empty owner", mutate: func(c *Config) { c.DefaultOwnerID = " " }, wantErr: "DEFAULT_OWNER_ID"},
		{name: "negative maintenance interval", mutate: func(c *Config) { c.MaintenanceInterval = -time.Second }, wantErr: "MAINTENANCE_INTERVAL"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Config{LogLevel: "DEBUG"}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
	cfg.LogLevel = "bogus"
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", cfg.SlogLevel())
	}
}

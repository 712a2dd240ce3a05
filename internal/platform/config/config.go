package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                   string
	Environment            string
	StoreBackend           string
	DataDir                string
	SQLitePath             string
	DatabaseURL            string
	DataEncryptionKey      string
	JWTSecret              string
	DefaultOwnerID         string
	WageRate               float64
	OvertimeThresholdHours float64
	OvertimeMultiplier     float64
	WithholdingPercent     float64
	Timezone               string
	MaxBodyBytes           int64
	RateLimitPerMinute     int
	LogLevel               string
	MetricsEnabled         bool
	AllowedOrigins         []string
	TrustProxy             bool
	ShutdownTimeout        time.Duration
	MaintenanceInterval    time.Duration
}

func Load() Config {
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		Environment:            getEnv("APP_ENV", "development"),
		StoreBackend:           getEnv("STORE_BACKEND", "badger"),
		DataDir:                getEnv("DATA_DIR", "data"),
		SQLitePath:             getEnv("SQLITE_PATH", ""),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DataEncryptionKey:      getEnv("DATA_ENCRYPTION_KEY", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		DefaultOwnerID:         getEnv("DEFAULT_OWNER_ID", "local"),
		WageRate:               getEnvFloat("WAGE_RATE", 15.0),
		OvertimeThresholdHours: getEnvFloat("OVERTIME_THRESHOLD_HOURS", 8),
		OvertimeMultiplier:     getEnvFloat("OVERTIME_MULTIPLIER", 1.5),
		WithholdingPercent:     getEnvFloat("WITHHOLDING_PERCENT", 14),
		Timezone:               getEnv("TIMEZONE", "Local"),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 65536)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
		AllowedOrigins:         getEnvList("ALLOWED_ORIGINS", nil),
		TrustProxy:             getEnvBool("TRUST_PROXY", false),
		ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaintenanceInterval:    getEnvDuration("MAINTENANCE_INTERVAL", 10*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Location resolves TIMEZONE. "Local" and an empty value mean the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "badger", "sqlite", "memory":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of badger, sqlite, postgres, memory")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.WageRate < 0 {
		return fmt.Errorf("WAGE_RATE must not be negative")
	}
	if c.OvertimeThresholdHours < 0 {
		return fmt.Errorf("OVERTIME_THRESHOLD_HOURS must not be negative")
	}
	if c.OvertimeMultiplier < 1 {
		return fmt.Errorf("OVERTIME_MULTIPLIER must be at least 1")
	}
	if c.WithholdingPercent < 0 || c.WithholdingPercent > 100 {
		return fmt.Errorf("WITHHOLDING_PERCENT must be between 0 and 100")
	}
	if strings.TrimSpace(c.DefaultOwnerID) == "" {
		return fmt.Errorf("DEFAULT_OWNER_ID must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MaintenanceInterval < 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL must not be negative")
	}
	return nil
}

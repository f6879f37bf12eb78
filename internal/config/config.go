package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all ledger configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Storage
	DataDir string

	// Logging
	LogLevel string

	// Dormancy: Active accounts idle longer than this flip to Inactive
	// on their next authentication check.
	DormancyWindow time.Duration

	// Statistics: recent-transaction window for the admin snapshot.
	StatsWindow time.Duration

	// History cache
	HistoryCacheTTL time.Duration

	// Persistence retries
	MaxRetries     int
	InitialBackoff time.Duration

	// Account number allocation
	AccountNumberMin int
	AccountNumberMax int
	MaxNumberRetries int

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		DataDir: getEnv("LEDGER_DATA_DIR", "userinfo"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DormancyWindow: getEnvDuration("DORMANCY_WINDOW", 90*24*time.Hour),
		StatsWindow:    getEnvDuration("STATS_WINDOW", 7*24*time.Hour),

		HistoryCacheTTL: getEnvDuration("HISTORY_CACHE_TTL", 5*time.Minute),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 50*time.Millisecond),

		AccountNumberMin: getEnvInt("ACCOUNT_NUMBER_MIN", 20210000),
		AccountNumberMax: getEnvInt("ACCOUNT_NUMBER_MAX", 20230000),
		MaxNumberRetries: getEnvInt("MAX_NUMBER_RETRIES", 1000),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

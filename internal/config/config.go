package config

import (
	"os"
	"strconv"
	"time"
)

// Storage backends.
const (
	BackendJSON = "json"
	BackendBolt = "bolt"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	StoreBackend string // "json" (two documents) or "bolt" (single transactional file)
	DataDir      string
	LedgerFile   string // relative to DataDir unless absolute
	MembersFile  string
	BoltFile     string

	// Seeding
	SeedFile          string // optional YAML seed overriding the canonical defaults
	DefaultMonthlyFee int64

	// Engine
	LockTimeout  time.Duration
	AllowReplace bool // gates the replaceLedger bulk-import action

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", BackendJSON),
		DataDir:      getEnv("DATA_DIR", "data"),
		LedgerFile:   getEnv("LEDGER_FILE", "data.json"),
		MembersFile:  getEnv("MEMBERS_FILE", "members.json"),
		BoltFile:     getEnv("BOLT_FILE", "dueskeeper.db"),

		SeedFile:          getEnv("SEED_FILE", ""),
		DefaultMonthlyFee: getEnvInt64("DEFAULT_MONTHLY_FEE", 1500),

		LockTimeout:  getEnvDuration("LOCK_TIMEOUT", 5*time.Second),
		AllowReplace: getEnv("ALLOW_REPLACE", "false") == "true",

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

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

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
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

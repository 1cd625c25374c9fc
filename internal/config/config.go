// Package config loads the scanner's configuration from the environment,
// following the loading order and helper style of the teacher's
// internal/config/config.go: a .env file first (via godotenv), then plain
// environment variables with defaults, resolved into one explicit Config
// value injected into the orchestrator rather than read from a process-wide
// singleton (spec.md §9's "global settings singleton" redesign note).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the scan pipeline needs. It is loaded once at
// startup and passed by value/pointer into the components that need it —
// no component reaches back into the environment itself.
type Config struct {
	DataDir string // base directory for export files and the screening cache

	// Provider credentials (spec.md §6). Any subset may be empty; the
	// router degrades accordingly rather than failing configuration
	// validation, since research/offline runs with a partial provider set
	// are a legitimate configuration.
	MarketDataAPIToken string
	EODHDAPIToken      string
	ClaudeAPIKey       string
	ClaudeModel        string
	ClaudeDailyCostLimitUSD float64
	ClaudeMinCompleteness   float64

	// Scan tunables
	MaxStocksToScreen int
	MaxOpportunities  int
	MinTotalScore     float64
	WorkerPoolSize    int
	AIPoolSize        int
	AdapterTimeout    time.Duration

	// Router / circuit breaker tunables
	CircuitBreakerThreshold       int
	CircuitBreakerCooldown        time.Duration
	MaxRetries                    int
	RetryBackoffBase              time.Duration
	AdapterConcurrency            int

	// Options analyzer tunables (all have spec-given defaults; configurable
	// and versioned with the scan per spec.md §4.4).
	LEAPSMinDTE          int
	LEAPSMaxDTE          int
	LEAPSMinDelta        float64
	LEAPSMaxDelta        float64
	LEAPSMaxSpreadPct    float64
	LEAPSMinOpenInterest int64
	ShortMinDTE          int
	ShortMaxDTE          int
	ShortMinDelta        float64
	ShortMaxDelta        float64
	ShortMaxSpreadPct    float64
	ShortMinOpenInterest int64
	MinRiskReward        float64
	MaxPairsPerSide      int // bounded cross-product cap (spec.md §4.4 step 3)

	ScreeningCacheTTL time.Duration

	// Status HTTP API
	Port int

	// Optional archival (§4.8 / C10). Empty ArchiveBucket disables upload
	// entirely; local export files are always written regardless.
	ArchiveBucket          string
	ArchiveRegion          string
	ArchiveEndpoint        string // R2/S3-compatible endpoint URL; empty uses AWS's default resolver
	ArchiveAccessKeyID     string
	ArchiveSecretAccessKey string

	LogLevel string
	DevMode  bool
}

// Load reads configuration from .env + environment variables, applying the
// same defaults spec.md names explicitly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("PMCC_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir: absDataDir,

		MarketDataAPIToken:      getEnv("MARKETDATA_API_TOKEN", ""),
		EODHDAPIToken:           getEnv("EODHD_API_TOKEN", ""),
		ClaudeAPIKey:            getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:             getEnv("CLAUDE_MODEL", "claude-3-5-sonnet-latest"),
		ClaudeDailyCostLimitUSD: getEnvAsFloat("CLAUDE_DAILY_COST_LIMIT", 10.0),
		ClaudeMinCompleteness:   getEnvAsFloat("CLAUDE_MIN_COMPLETENESS", 60.0),

		MaxStocksToScreen: getEnvAsInt("PMCC_MAX_STOCKS_TO_SCREEN", 500),
		MaxOpportunities:  getEnvAsInt("PMCC_MAX_OPPORTUNITIES", 25),
		MinTotalScore:     getEnvAsFloat("PMCC_MIN_TOTAL_SCORE", 0),
		WorkerPoolSize:    getEnvAsInt("PMCC_WORKER_POOL_SIZE", 10),
		AIPoolSize:        getEnvAsInt("PMCC_AI_POOL_SIZE", 5),
		AdapterTimeout:    time.Duration(getEnvAsInt("PMCC_ADAPTER_TIMEOUT_SECONDS", 30)) * time.Second,

		CircuitBreakerThreshold: getEnvAsInt("PMCC_CIRCUIT_BREAKER_THRESHOLD", 5),
		CircuitBreakerCooldown:  time.Duration(getEnvAsInt("PMCC_CIRCUIT_BREAKER_COOLDOWN_MINUTES", 10)) * time.Minute,
		MaxRetries:              getEnvAsInt("PMCC_MAX_RETRIES", 3),
		RetryBackoffBase:        time.Duration(getEnvAsInt("PMCC_RETRY_BACKOFF_SECONDS", 1)) * time.Second,
		AdapterConcurrency:      getEnvAsInt("PMCC_ADAPTER_CONCURRENCY", 10),

		LEAPSMinDTE:          getEnvAsInt("PMCC_LEAPS_MIN_DTE", 270),
		LEAPSMaxDTE:          getEnvAsInt("PMCC_LEAPS_MAX_DTE", 730),
		LEAPSMinDelta:        getEnvAsFloat("PMCC_LEAPS_MIN_DELTA", 0.75),
		LEAPSMaxDelta:        getEnvAsFloat("PMCC_LEAPS_MAX_DELTA", 0.90),
		LEAPSMaxSpreadPct:    getEnvAsFloat("PMCC_LEAPS_MAX_SPREAD_PCT", 0.05),
		LEAPSMinOpenInterest: int64(getEnvAsInt("PMCC_LEAPS_MIN_OI", 10)),
		ShortMinDTE:          getEnvAsInt("PMCC_SHORT_MIN_DTE", 21),
		ShortMaxDTE:          getEnvAsInt("PMCC_SHORT_MAX_DTE", 45),
		ShortMinDelta:        getEnvAsFloat("PMCC_SHORT_MIN_DELTA", 0.20),
		ShortMaxDelta:        getEnvAsFloat("PMCC_SHORT_MAX_DELTA", 0.35),
		ShortMaxSpreadPct:    getEnvAsFloat("PMCC_SHORT_MAX_SPREAD_PCT", 0.10),
		ShortMinOpenInterest: int64(getEnvAsInt("PMCC_SHORT_MIN_OI", 5)),
		MinRiskReward:        getEnvAsFloat("PMCC_MIN_RISK_REWARD", 0.10),
		MaxPairsPerSide:      getEnvAsInt("PMCC_MAX_PAIRS_PER_SIDE", 20),

		ScreeningCacheTTL: time.Duration(getEnvAsInt("PMCC_SCREEN_CACHE_TTL_HOURS", 24)) * time.Hour,

		Port: getEnvAsInt("GO_PORT", 8001),

		ArchiveBucket:          getEnv("PMCC_ARCHIVE_BUCKET", ""),
		ArchiveRegion:          getEnv("PMCC_ARCHIVE_REGION", "auto"),
		ArchiveEndpoint:        getEnv("PMCC_ARCHIVE_ENDPOINT", ""),
		ArchiveAccessKeyID:     getEnv("PMCC_ARCHIVE_ACCESS_KEY_ID", ""),
		ArchiveSecretAccessKey: getEnv("PMCC_ARCHIVE_SECRET_ACCESS_KEY", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural configuration validity. Missing provider
// credentials are not a validation failure — a run with no usable provider
// simply degrades every operation to NotSupported (spec.md §6); it is only
// a fatal configuration error if *no* provider can serve *any* operation,
// which the router discovers at invoke time, not here.
func (c *Config) Validate() error {
	if c.MaxStocksToScreen < 0 {
		return fmt.Errorf("PMCC_MAX_STOCKS_TO_SCREEN must be >= 0")
	}
	if c.MaxOpportunities < 0 {
		return fmt.Errorf("PMCC_MAX_OPPORTUNITIES must be >= 0")
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("PMCC_WORKER_POOL_SIZE must be > 0")
	}
	if c.AIPoolSize <= 0 {
		return fmt.Errorf("PMCC_AI_POOL_SIZE must be > 0")
	}
	if c.LEAPSMinDTE >= c.LEAPSMaxDTE {
		return fmt.Errorf("PMCC_LEAPS_MIN_DTE must be less than PMCC_LEAPS_MAX_DTE")
	}
	if c.ShortMinDTE >= c.ShortMaxDTE {
		return fmt.Errorf("PMCC_SHORT_MIN_DTE must be less than PMCC_SHORT_MAX_DTE")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

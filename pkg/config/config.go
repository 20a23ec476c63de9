// Package config loads the core's own runtime knobs from the environment.
// It deliberately stays on the standard library: this is a handful of
// typed env lookups with defaults, not a layered file/flag/env merge, so
// pulling in envdecode or viper would be decoration rather than need.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig controls the core's structured logger.
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// DatabaseConfig controls persistence. An empty DSN means "use in-memory
// storage", which every binary in this repo treats as a valid default.
type DatabaseConfig struct {
	DSN string
}

// AccessControlConfig controls the accesscontrol kernel's password
// policy knobs and its optional Redis session cache.
type AccessControlConfig struct {
	SessionTTL        time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	RedisAddr         string
}

// FraudConfig controls the fraud scorer collaborator.
type FraudConfig struct {
	EngineURL string
	APIKey    string
	Timeout   time.Duration
}

// BusConfig controls the external event bus. Empty KafkaBrokers means
// the bus runs in log-only mode (no broker wired).
type BusConfig struct {
	KafkaBrokers       []string
	KafkaConsumerGroup string
}

// SchedulerConfig controls the cron-driven interest accrual and audit
// chain-verification sweeps.
type SchedulerConfig struct {
	InterestAccrualCron string
	ChainVerifyCron     string
}

// Config is the root configuration for a nexum core process.
type Config struct {
	Logging       LoggingConfig
	Database      DatabaseConfig
	AccessControl AccessControlConfig
	Fraud         FraudConfig
	Bus           BusConfig
	Scheduler     SchedulerConfig
}

// Load reads configuration entirely from the environment, applying
// defaults for anything unset.
func Load() (*Config, error) {
	return &Config{
		Logging: LoggingConfig{
			Level:      envOr("LOG_LEVEL", "info"),
			Format:     envOr("LOG_FORMAT", "text"),
			Output:     envOr("LOG_OUTPUT", "stdout"),
			FilePrefix: envOr("LOG_FILE_PREFIX", "nexum"),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("DATABASE_DSN"),
		},
		AccessControl: AccessControlConfig{
			SessionTTL:        envDuration("SESSION_TTL", 8*time.Hour),
			MaxFailedAttempts: envInt("MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:   envDuration("LOCKOUT_DURATION", 30*time.Minute),
			RedisAddr:         os.Getenv("REDIS_ADDR"),
		},
		Fraud: FraudConfig{
			EngineURL: os.Getenv("FRAUD_ENGINE_URL"),
			APIKey:    os.Getenv("FRAUD_ENGINE_API_KEY"),
			Timeout:   envDuration("FRAUD_ENGINE_TIMEOUT", 2*time.Second),
		},
		Bus: BusConfig{
			KafkaBrokers:       splitCSV(os.Getenv("KAFKA_BROKERS")),
			KafkaConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "nexum-core"),
		},
		Scheduler: SchedulerConfig{
			InterestAccrualCron: envOr("INTEREST_ACCRUAL_CRON", "0 0 * * *"),
			ChainVerifyCron:     envOr("CHAIN_VERIFY_CRON", "0 * * * *"),
		},
	}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

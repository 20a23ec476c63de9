package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "", cfg.Database.DSN)
	require.Equal(t, 8*time.Hour, cfg.AccessControl.SessionTTL)
	require.Equal(t, "nexum-core", cfg.Bus.KafkaConsumerGroup)
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_FAILED_ATTEMPTS", "3")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 3, cfg.AccessControl.MaxFailedAttempts)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Bus.KafkaBrokers)
}

func TestLoadIgnoresUnparsableOverrides(t *testing.T) {
	t.Setenv("MAX_FAILED_ATTEMPTS", "not-a-number")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.AccessControl.MaxFailedAttempts)
	require.Equal(t, 8*time.Hour, cfg.AccessControl.SessionTTL)
}

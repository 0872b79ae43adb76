package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "booking")
	t.Setenv("DB_NAME", "event_booking")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, BusRabbitMQ, cfg.Bus.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Bus.KafkaBrokers)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 60*time.Second, cfg.Cache.AvailabilityTTL)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Store)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.Cache)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BUS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CACHE_AVAILABILITY_TTL", "30s")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BusKafka, cfg.Bus.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Bus.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.Cache.AvailabilityTTL)
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
}

func TestLoadRejectsUnknownBus(t *testing.T) {
	setRequired(t)
	t.Setenv("BUS_DRIVER", "nats")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUS_DRIVER")
}

func TestLoadRequiresDatabase(t *testing.T) {
	// t.Setenv restores the original values after the test.
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	require.NoError(t, os.Unsetenv("DB_USER"))
	require.NoError(t, os.Unsetenv("DB_NAME"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveTimeouts(t *testing.T) {
	for _, name := range []string{"STORE_TIMEOUT", "CACHE_TIMEOUT", "BUS_PUBLISH_TIMEOUT"} {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(name, "0s")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

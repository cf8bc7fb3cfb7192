package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("STRICT_TRANSITIONS", "")

	cfg := Load()

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.Equal(t, 30*time.Second, cfg.FeedResyncInterval)
	assert.False(t, cfg.StrictTransitions)
	assert.Empty(t, cfg.RedisHost)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STRICT_TRANSITIONS", "true")
	t.Setenv("FEED_RESYNC_INTERVAL", "5s")
	t.Setenv("POSTGRES_USER", "svc")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DB", "market")

	cfg := Load()

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 9090, cfg.AppPort)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 5*time.Second, cfg.FeedResyncInterval)
	assert.Equal(t, "postgres://svc:pw@db:6543/market?sslmode=disable", cfg.PostgresURL())
}

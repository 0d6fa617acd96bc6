package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SHIPPING_CURRENCY", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("IDEMPOTENCY_LOCK_SECONDS", "")
	t.Setenv("TRACE_SAMPLE_RATIO", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "ARS", cfg.Shipping.Currency)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Business.IdempotencyLockTTL)
	assert.Equal(t, time.Minute, cfg.Business.ReputationCacheTTL)
	assert.Equal(t, 1.0, cfg.Observ.TraceSampleRatio)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REPUTATION_CACHE_SECONDS", "30")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")

	cfg := Load()
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Business.ReputationCacheTTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 0.25, cfg.Observ.TraceSampleRatio)
}

func TestLoadCarriersDefault(t *testing.T) {
	carriers, err := LoadCarriers("")
	require.NoError(t, err)
	require.Len(t, carriers, 4)

	assert.Equal(t, "envio_pack", carriers[0].Code)
	assert.Equal(t, "EnvioPack", carriers[0].Name)
	assert.True(t, carriers[0].Active)
	assert.False(t, carriers[3].Active)
}

func TestLoadCarriersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carriers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("carriers:\n  - codigo: x\n    nombre: X\n    activo: true\n"), 0o600))

	carriers, err := LoadCarriers(path)
	require.NoError(t, err)
	require.Len(t, carriers, 1)
	assert.Equal(t, "X", carriers[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("carriers:\n  - nombre: X\n"), 0o600))
	_, err = LoadCarriers(path)
	assert.Error(t, err)
}

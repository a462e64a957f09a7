package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Concierge.TopK)
	assert.Equal(t, 3, cfg.Concierge.CSATEscalationThreshold)
	assert.Equal(t, 48*time.Hour, cfg.Concierge.CapsuleHoldTTL)
	assert.Equal(t, 24*time.Hour, cfg.Concierge.IdempotencyTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Concierge.SessionTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Concierge.DispatchTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONCIERGE_TOP_K", "3")
	t.Setenv("CONCIERGE_CAPSULE_HOLD_TTL", "12h")
	t.Setenv("DB_NAME", "concierge_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Concierge.TopK)
	assert.Equal(t, 12*time.Hour, cfg.Concierge.CapsuleHoldTTL)
	assert.Contains(t, cfg.Database.DatabaseDSN(), "dbname=concierge_test")
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("CONCIERGE_CATALOG_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Concierge.CatalogCacheTTL)
}

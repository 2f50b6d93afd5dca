package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rapid.db", cfg.DatabaseURL)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr)
	assert.Equal(t, 25, cfg.MaxDBConnections)
	assert.Equal(t, 1024, cfg.TokenCacheSize)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/rapid")
	t.Setenv("SERVER_ADDR", "0.0.0.0:9000")
	t.Setenv("MAX_DB_CONNECTIONS", "10")
	t.Setenv("TOKEN_CACHE_SIZE", "64")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/rapid", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr)
	assert.Equal(t, 10, cfg.MaxDBConnections)
	assert.Equal(t, 64, cfg.TokenCacheSize)
	assert.True(t, cfg.Debug)
}

func TestLoadRejectsBadCacheSize(t *testing.T) {
	t.Setenv("TOKEN_CACHE_SIZE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_DB_CONNECTIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MaxDBConnections)
}

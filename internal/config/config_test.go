package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")

	cfg := Load()
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.BiometricSkip)
	assert.Equal(t, "attendance:notifications", cfg.NotifyQueueKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("http_port: \"9000\"\ndb_driver: sqlite\naccess_ttl: 30m\nrate_limit_per_min: 10\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_PER_MIN", "42")

	cfg := Load()
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 42, cfg.RateLimitPerMin)
}

func TestLoad_BadFileKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, Defaults().DatabaseURL, cfg.DatabaseURL)
}

func TestEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "many")

	assert.Equal(t, time.Second, durationEnv("X_DUR", time.Second))
	assert.True(t, boolEnv("X_BOOL", true))
	assert.Equal(t, 7, intEnv("X_INT", 7))
}

func TestProduction(t *testing.T) {
	assert.True(t, App{Env: "prod"}.Production())
	assert.True(t, App{Env: "production"}.Production())
	assert.False(t, App{Env: "dev"}.Production())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Continuity.TickInterval)
	assert.Equal(t, 20, cfg.Continuity.MinQueue)
	assert.Equal(t, 15*time.Second, cfg.Continuity.GracePeriod)
	assert.Equal(t, 3*time.Hour, cfg.Continuity.ExclusionLookback)
	assert.Equal(t, 10, cfg.Continuity.SlotMaxCount)
	assert.Equal(t, 300, cfg.Continuity.SlotMaxDurationSeconds)
	assert.True(t, cfg.Continuity.AutoPlayWhenIdle)
	assert.Nil(t, cfg.Continuity.OpeningJingle())
	assert.False(t, cfg.Cache.UsesRedis())
}

func TestLoadProductionConfig_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATION_TIMEZONE", "Asia/Tehran")
	t.Setenv("CONTINUITY_TICK_INTERVAL_SECONDS", "5")
	t.Setenv("CONTINUITY_MIN_QUEUE", "8")
	t.Setenv("COMMERCIAL_OPENING_JINGLE_ID", "42")
	t.Setenv("COMMERCIAL_OPENING_JINGLE_ENABLED", "true")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	loc, err := cfg.Station.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tehran", loc.String())
	assert.Equal(t, 5*time.Second, cfg.Continuity.TickInterval)
	assert.Equal(t, 8, cfg.Continuity.MinQueue)
	require.NotNil(t, cfg.Continuity.OpeningJingle())
	assert.Equal(t, uint(42), *cfg.Continuity.OpeningJingle())
	assert.Nil(t, cfg.Continuity.ClosingJingle())
	assert.True(t, cfg.Cache.UsesRedis())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadProductionConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STATION_NAME=\"Night FM\"\nCONTINUITY_MIN_QUEUE=12\n"), 0o600))
	t.Chdir(dir)
	// the real environment wins over .env
	t.Setenv("CONTINUITY_MIN_QUEUE", "30")
	t.Cleanup(func() { _ = os.Unsetenv("STATION_NAME") })

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)
	assert.Equal(t, "Night FM", cfg.Station.Name)
	assert.Equal(t, 30, cfg.Continuity.MinQueue)
}

func TestValidateProductionConfig_CollectsViolations(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATION_TIMEZONE", "Mars/Olympus")
	t.Setenv("COMMERCIAL_CLOSING_JINGLE_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("CACHE_ENABLED", "true")

	_, err := LoadProductionConfig()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "STATION_TIMEZONE")
	assert.Contains(t, msg, "COMMERCIAL_CLOSING_JINGLE_ID")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "CACHE_REDIS_URL")
}

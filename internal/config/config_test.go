package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAdminSecret(t *testing.T) {
	t.Setenv("ADMIN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000", cfg.APIBaseURL)
	assert.Equal(t, "s3cret", cfg.AdminSecret)
	assert.Equal(t, 10*time.Second, cfg.TickInterval)
	assert.Equal(t, 3, cfg.MaxPerTick)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 0, cfg.HealthPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ReactionsEnabled)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("TICK_SECONDS", "0")
	t.Setenv("MAX_PER_TICK", "-5")
	t.Setenv("REQUEST_TIMEOUT_MS", "10")
	t.Setenv("HEALTH_PORT", "99999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 1, cfg.MaxPerTick)
	assert.Equal(t, time.Second, cfg.RequestTimeout)
	assert.Equal(t, 65535, cfg.HealthPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("API_BASE_URL", "http://cp.internal:4000")
	t.Setenv("TICK_SECONDS", "30")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("REACTIONS_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SECONDME_API_BASE", "http://sm.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://cp.internal:4000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.True(t, cfg.RunOnce)
	assert.False(t, cfg.ReactionsEnabled)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http://sm.internal", cfg.SecondMeAPIBase)
}

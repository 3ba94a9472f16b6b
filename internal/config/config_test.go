package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "protrader/internal/errors"
)

func TestDefaultMatchesSimulationParameters(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Second, cfg.Simulation.TickInterval)
	assert.Equal(t, 0.01, cfg.Simulation.Volatility)
	assert.Equal(t, 60, cfg.Simulation.HistoryLength)
	assert.Zero(t, cfg.Simulation.Seed)
	assert.Equal(t, 200, cfg.Notifications.HistoryCap)
	assert.Equal(t, 50, cfg.Notifications.ActivityCap)
	assert.Equal(t, 5, cfg.Subscriptions.MaxPerUser)
	assert.True(t, cfg.Alerts.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Simulation, cfg.Simulation)

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[simulation]
tick_interval = "250ms"
volatility = 0.02
history_length = 30

[subscriptions]
max_per_user = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, 0.02, cfg.Simulation.Volatility)
	assert.Equal(t, 30, cfg.Simulation.HistoryLength)
	assert.Equal(t, 3, cfg.Subscriptions.MaxPerUser)

	// Unset sections keep defaults.
	assert.Equal(t, 200, cfg.Notifications.HistoryCap)
	assert.True(t, cfg.Alerts.Enabled)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROTRADER_DB_PATH", "/tmp/override.db")
	t.Setenv("PROTRADER_TICK_INTERVAL", "5s")
	t.Setenv("PROTRADER_SEED", "42")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Simulation.TickInterval)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[simulation]
volatility = 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volatility")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick interval", func(c *Config) { c.Simulation.TickInterval = 0 }},
		{"negative volatility", func(c *Config) { c.Simulation.Volatility = -0.01 }},
		{"volatility of one", func(c *Config) { c.Simulation.Volatility = 1 }},
		{"zero history length", func(c *Config) { c.Simulation.HistoryLength = 0 }},
		{"zero history cap", func(c *Config) { c.Notifications.HistoryCap = 0 }},
		{"zero activity cap", func(c *Config) { c.Notifications.ActivityCap = 0 }},
		{"chatter chance above one", func(c *Config) { c.Notifications.ChatterChance = 1.1 }},
		{"zero subscription cap", func(c *Config) { c.Subscriptions.MaxPerUser = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
		})
	}
}

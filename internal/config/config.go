// Package config provides configuration management for the dashboard service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "protrader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Simulation    SimulationConfig    `mapstructure:"simulation"`
	Alerts        AlertConfig         `mapstructure:"alerts"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Subscriptions SubscriptionConfig  `mapstructure:"subscriptions"`
	Store         StoreConfig         `mapstructure:"store"`
	UI            UIConfig            `mapstructure:"ui"`
}

// SimulationConfig holds price simulation configuration.
type SimulationConfig struct {
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	Volatility    float64       `mapstructure:"volatility"`
	HistoryLength int           `mapstructure:"history_length"`
	Seed          int64         `mapstructure:"seed"` // 0 = time-seeded
}

// AlertConfig holds alert engine configuration.
type AlertConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotificationConfig holds notification and activity feed configuration.
type NotificationConfig struct {
	HistoryCap       int           `mapstructure:"history_cap"`
	ActivityCap      int           `mapstructure:"activity_cap"`
	ChatterInterval  time.Duration `mapstructure:"chatter_interval"`
	ChatterChance    float64       `mapstructure:"chatter_chance"`
	ChatterDedupeTTL time.Duration `mapstructure:"chatter_dedupe_ttl"`
}

// SubscriptionConfig holds subscription manager configuration.
type SubscriptionConfig struct {
	MaxPerUser int `mapstructure:"max_per_user"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds output-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Default returns the built-in defaults, matching the reference universe's
// simulation parameters.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickInterval:  time.Second,
			Volatility:    0.01,
			HistoryLength: 60,
			Seed:          0,
		},
		Alerts: AlertConfig{Enabled: true},
		Notifications: NotificationConfig{
			HistoryCap:       200,
			ActivityCap:      50,
			ChatterInterval:  2 * time.Second,
			ChatterChance:    0.05,
			ChatterDedupeTTL: 5 * time.Second,
		},
		Subscriptions: SubscriptionConfig{MaxPerUser: 5},
		Store: StoreConfig{
			Path: filepath.Join(DefaultConfigDir(), "protrader.db"),
		},
		UI: UIConfig{
			ColorEnabled: true,
			TimeFormat:   "15:04:05",
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/protrader"
	}
	return filepath.Join(home, ".config", "protrader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("simulation.tick_interval", cfg.Simulation.TickInterval)
	v.SetDefault("simulation.volatility", cfg.Simulation.Volatility)
	v.SetDefault("simulation.history_length", cfg.Simulation.HistoryLength)
	v.SetDefault("simulation.seed", cfg.Simulation.Seed)
	v.SetDefault("alerts.enabled", cfg.Alerts.Enabled)
	v.SetDefault("notifications.history_cap", cfg.Notifications.HistoryCap)
	v.SetDefault("notifications.activity_cap", cfg.Notifications.ActivityCap)
	v.SetDefault("notifications.chatter_interval", cfg.Notifications.ChatterInterval)
	v.SetDefault("notifications.chatter_chance", cfg.Notifications.ChatterChance)
	v.SetDefault("notifications.chatter_dedupe_ttl", cfg.Notifications.ChatterDedupeTTL)
	v.SetDefault("subscriptions.max_per_user", cfg.Subscriptions.MaxPerUser)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.time_format", cfg.UI.TimeFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROTRADER_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PROTRADER_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Simulation.TickInterval = d
		}
	}
	if v := os.Getenv("PROTRADER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Simulation.TickInterval <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "simulation.tick_interval must be positive")
	}
	if c.Simulation.Volatility <= 0 || c.Simulation.Volatility >= 1 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "simulation.volatility must be in (0, 1)")
	}
	if c.Simulation.HistoryLength <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "simulation.history_length must be positive")
	}
	if c.Notifications.HistoryCap <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "notifications.history_cap must be positive")
	}
	if c.Notifications.ActivityCap <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "notifications.activity_cap must be positive")
	}
	if c.Notifications.ChatterChance < 0 || c.Notifications.ChatterChance > 1 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "notifications.chatter_chance must be between 0 and 1")
	}
	if c.Subscriptions.MaxPerUser <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "subscriptions.max_per_user must be positive")
	}
	return nil
}

const configTemplate = `# ProTrader Configuration

[simulation]
# Interval between simulation ticks
tick_interval = "1s"
# Per-tick bounded random-walk volatility (1% = 0.01)
volatility = 0.01
# Rolling price history length per ticker
history_length = 60
# RNG seed; 0 seeds from the current time
seed = 0

[alerts]
enabled = true

[notifications]
# Persistent notification history cap
history_cap = 200
# Market activity feed cap
activity_cap = 50
# Synthetic market chatter interval and per-tick probability
chatter_interval = "2s"
chatter_chance = 0.05
# Identical chatter messages inside this window are suppressed
chatter_dedupe_ttl = "5s"

[subscriptions]
# Maximum subscriptions per user
max_per_user = 5

[store]
# SQLite database path; empty uses the default config directory
# path = ""

[ui]
color_enabled = true
time_format = "15:04:05"
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

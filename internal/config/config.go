// Package config provides configuration management for the trading
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"tradedesk/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds the discipline engine thresholds and schedule.
type EngineConfig struct {
	MaxTradesPerDay   int        `mapstructure:"max_trades_per_day"`
	CooldownMinutes   int        `mapstructure:"cooldown_minutes"`
	ConsecutiveLosses int        `mapstructure:"consecutive_losses"`
	DailyLossLimit    float64    `mapstructure:"daily_loss_limit"`
	GoalAmount        float64    `mapstructure:"goal_amount"`
	Timezone          string     `mapstructure:"timezone"`
	KillZones         []KillZone `mapstructure:"kill_zones"`
}

// KillZone is one named trading window in local civil time.
type KillZone struct {
	Name        string `mapstructure:"name"`
	StartHour   int    `mapstructure:"start_hour"`
	StartMinute int    `mapstructure:"start_minute"`
	EndHour     int    `mapstructure:"end_hour"`
	EndMinute   int    `mapstructure:"end_minute"`
	Priority    string `mapstructure:"priority"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// ConfigDir returns the application configuration directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tradedesk")
}

// DefaultKillZones returns the built-in kill zone schedule. The Asia
// session deliberately crosses midnight.
func DefaultKillZones() []KillZone {
	return []KillZone{
		{Name: "London Open", StartHour: 2, StartMinute: 0, EndHour: 5, EndMinute: 0, Priority: "PRIMARY"},
		{Name: "New York AM", StartHour: 7, StartMinute: 0, EndHour: 10, EndMinute: 0, Priority: "PRIMARY"},
		{Name: "New York PM", StartHour: 13, StartMinute: 30, EndHour: 16, EndMinute: 0, Priority: "SECONDARY"},
		{Name: "Asia", StartHour: 18, StartMinute: 0, EndHour: 0, EndMinute: 0, Priority: "AVOID"},
	}
}

// Load reads configuration from the default location, applying defaults for
// anything unset. A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFrom(ConfigDir())
}

// LoadFrom reads configuration from the given directory.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("engine.max_trades_per_day", 3)
	v.SetDefault("engine.cooldown_minutes", 30)
	v.SetDefault("engine.consecutive_losses", 2)
	v.SetDefault("engine.daily_loss_limit", 300.0)
	v.SetDefault("engine.goal_amount", 170000.0)
	v.SetDefault("engine.timezone", "America/Chicago")
	v.SetDefault("store.path", filepath.Join(dir, "tradedesk.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(dir, "logs", "tradedesk.log"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Engine.KillZones) == 0 {
		cfg.Engine.KillZones = DefaultKillZones()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	e := c.Engine
	if e.MaxTradesPerDay <= 0 {
		return errors.NewConfigurationError("engine.max_trades_per_day", "must be positive")
	}
	if e.CooldownMinutes < 0 {
		return errors.NewConfigurationError("engine.cooldown_minutes", "must not be negative")
	}
	if e.ConsecutiveLosses < 1 {
		return errors.NewConfigurationError("engine.consecutive_losses", "must be at least 1")
	}
	if e.DailyLossLimit <= 0 {
		return errors.NewConfigurationError("engine.daily_loss_limit", "must be positive")
	}
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		return errors.NewConfigurationError("engine.timezone", fmt.Sprintf("unknown timezone %q", e.Timezone))
	}
	for i, z := range e.KillZones {
		field := fmt.Sprintf("engine.kill_zones[%d]", i)
		if z.Name == "" {
			return errors.NewConfigurationError(field+".name", "name is required")
		}
		if z.StartHour < 0 || z.StartHour > 23 || z.EndHour < 0 || z.EndHour > 23 {
			return errors.NewConfigurationError(field, "hours must be in 0..23")
		}
		if z.StartMinute < 0 || z.StartMinute > 59 || z.EndMinute < 0 || z.EndMinute > 59 {
			return errors.NewConfigurationError(field, "minutes must be in 0..59")
		}
		switch z.Priority {
		case "PRIMARY", "SECONDARY", "AVOID":
		default:
			return errors.NewConfigurationError(field+".priority", "must be PRIMARY, SECONDARY or AVOID")
		}
	}
	return nil
}

// CooldownDuration returns the cooldown as a duration.
func (e EngineConfig) CooldownDuration() time.Duration {
	return time.Duration(e.CooldownMinutes) * time.Minute
}

package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LedgerConfig holds intake tracking preferences.
type LedgerConfig struct {
	// DefaultGoalML is the daily goal used until one is saved in the store.
	DefaultGoalML int `mapstructure:"default_goal_ml" yaml:"default_goal_ml"`

	// QuickAmounts are the one-key amounts offered on the tracker view.
	QuickAmounts []int `mapstructure:"quick_amounts" yaml:"quick_amounts"`
}

// RemindersConfig controls reminder generation and delivery.
type RemindersConfig struct {
	// HorizonDays is how many days ahead concrete reminders are queued.
	HorizonDays int `mapstructure:"horizon_days" yaml:"horizon_days"`

	// DispatchIntervalSec is how often the queue is checked for due reminders.
	DispatchIntervalSec int `mapstructure:"dispatch_interval_sec" yaml:"dispatch_interval_sec"`

	// RefreshSchedule is a cron expression for re-applying the saved plan
	// so the horizon keeps rolling forward.
	RefreshSchedule string `mapstructure:"refresh_schedule" yaml:"refresh_schedule"`
}

// NotificationsConfig is the local notification permission switch.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// PushConfig configures the optional HTTP push sender. The token is read
// from the keyring, never from this file.
type PushConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Units string `mapstructure:"units" yaml:"units"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Ledger        LedgerConfig        `mapstructure:"ledger" yaml:"ledger"`
	Reminders     RemindersConfig     `mapstructure:"reminders" yaml:"reminders"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Push          PushConfig          `mapstructure:"push" yaml:"push"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// DefaultQuickAmounts are the quick-add amounts in milliliters.
var DefaultQuickAmounts = []int{100, 150, 200, 250, 300, 500}

// configDir returns ~/.config/watertracker, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "watertracker")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/watertracker/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Database: DatabaseConfig{Path: filepath.Join(dir, "water-tracker.db")},
		Ledger: LedgerConfig{
			DefaultGoalML: DefaultDailyGoal,
			QuickAmounts:  append([]int(nil), DefaultQuickAmounts...),
		},
		Reminders: RemindersConfig{
			HorizonDays:         7,
			DispatchIntervalSec: 30,
			RefreshSchedule:     "5 0 * * *",
		},
		Notifications: NotificationsConfig{Enabled: true},
		Display:       DisplayConfig{Units: string(UnitsMetric)},
		Log: LogConfig{
			Path:  filepath.Join(dir, "watertracker.log"),
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("ledger.default_goal_ml", def.Ledger.DefaultGoalML)
	v.SetDefault("ledger.quick_amounts", def.Ledger.QuickAmounts)
	v.SetDefault("reminders.horizon_days", def.Reminders.HorizonDays)
	v.SetDefault("reminders.dispatch_interval_sec", def.Reminders.DispatchIntervalSec)
	v.SetDefault("reminders.refresh_schedule", def.Reminders.RefreshSchedule)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("push.enabled", false)
	v.SetDefault("display.units", def.Display.Units)
	v.SetDefault("log.path", def.Log.Path)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Clamp values the rest of the app divides or loops by.
	if cfg.Ledger.DefaultGoalML <= 0 {
		cfg.Ledger.DefaultGoalML = DefaultDailyGoal
	}
	if len(cfg.Ledger.QuickAmounts) == 0 {
		cfg.Ledger.QuickAmounts = append([]int(nil), DefaultQuickAmounts...)
	}
	if cfg.Reminders.HorizonDays <= 0 {
		cfg.Reminders.HorizonDays = def.Reminders.HorizonDays
	}
	if cfg.Reminders.DispatchIntervalSec <= 0 {
		cfg.Reminders.DispatchIntervalSec = def.Reminders.DispatchIntervalSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("ledger", cfg.Ledger)
	v.Set("reminders", cfg.Reminders)
	v.Set("notifications", cfg.Notifications)
	v.Set("push", cfg.Push)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

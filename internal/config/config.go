package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Player  PlayerConfig  `mapstructure:"player"`
	Gesture GestureConfig `mapstructure:"gesture"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PlayerConfig configures the engine and the clock sampler.
type PlayerConfig struct {
	// SampleInterval is the clock sampling cadence.
	SampleInterval time.Duration `mapstructure:"sample_interval"`

	Volume     int  `mapstructure:"volume"`
	Fullscreen bool `mapstructure:"fullscreen"`

	// LoadUserConfig lets mpv read the user's own mpv.conf.
	LoadUserConfig bool `mapstructure:"load_user_config"`

	// MPVArgs are extra arguments passed through to mpv.
	MPVArgs []string `mapstructure:"mpv_args"`
}

// GestureConfig selects and tunes the gesture recognizer.
type GestureConfig struct {
	// Style is "hold" (confirm-by-hold) or "tap" (immediate
	// press/release).
	Style string `mapstructure:"style"`

	// HoldThreshold is the minimum hold duration before the hold style
	// confirms a press.
	HoldThreshold time.Duration `mapstructure:"hold_threshold"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "text" or "json"
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Color      bool   `mapstructure:"color"`
}

// SetDefaults registers all configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("player.sample_interval", "500ms")
	v.SetDefault("player.volume", 0)
	v.SetDefault("player.fullscreen", false)
	v.SetDefault("player.load_user_config", false)
	v.SetDefault("player.mpv_args", []string{})

	v.SetDefault("gesture.style", "hold")
	v.SetDefault("gesture.hold_threshold", "2s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.color", true)
}

// Load reads the configuration from path, or from the default search
// locations when path is empty. A missing config file is not an error;
// defaults and PRESSPLAY_* environment variables still apply.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pressplay"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PRESSPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Watch re-reads the configuration whenever the underlying file changes
// and hands the fresh value to fn. Invalid edits are dropped; the
// previous configuration stays in effect.
func Watch(v *viper.Viper, fn func(*Config)) {
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			return
		}
		fn(cfg)
	})
	v.WatchConfig()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the core cannot work with.
func (c *Config) Validate() error {
	switch c.Gesture.Style {
	case "hold", "tap":
	default:
		return fmt.Errorf("gesture.style must be \"hold\" or \"tap\", got %q", c.Gesture.Style)
	}
	if c.Gesture.HoldThreshold <= 0 {
		return fmt.Errorf("gesture.hold_threshold must be positive, got %v", c.Gesture.HoldThreshold)
	}
	if c.Player.SampleInterval <= 0 {
		return fmt.Errorf("player.sample_interval must be positive, got %v", c.Player.SampleInterval)
	}
	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		return fmt.Errorf("player.volume must be in [0,100], got %d", c.Player.Volume)
	}
	return nil
}

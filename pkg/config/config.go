// Package config loads the player configuration: struct defaults, then an
// optional YAML file, then VJ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when VJ_CONFIG is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vj-frame/config.yaml",
}

const (
	ConfigPathEnvVar = "VJ_CONFIG"
	envPrefix        = "VJ_"
)

type Config struct {
	Window       WindowConfig   `koanf:"window"`
	Media        MediaConfig    `koanf:"media"`
	S3           S3Config       `koanf:"s3"`
	Playback     PlaybackConfig `koanf:"playback"`
	SettingsPath string         `koanf:"settings_path"`
	Log          LogConfig      `koanf:"log"`
	Metrics      MetricsConfig  `koanf:"metrics"`
}

type WindowConfig struct {
	Title     string `koanf:"title"`
	TargetFPS int    `koanf:"target_fps"`
	// Width and Height are used only when the display size cannot be read.
	Width  int32 `koanf:"width"`
	Height int32 `koanf:"height"`
	// LowMemory applies the tight GC settings used on the Pi.
	LowMemory bool `koanf:"low_memory"`
	// Font is a TTF file tried before the system fonts.
	Font string `koanf:"font"`
}

type MediaConfig struct {
	Dir            string        `koanf:"dir"`
	Watch          bool          `koanf:"watch"`
	RescanInterval time.Duration `koanf:"rescan_interval"`
}

type S3Config struct {
	Enabled      bool          `koanf:"enabled"`
	Bucket       string        `koanf:"bucket"`
	Prefix       string        `koanf:"prefix"`
	Region       string        `koanf:"region"`
	SyncInterval time.Duration `koanf:"sync_interval"`
}

type PlaybackConfig struct {
	HistorySize        int           `koanf:"history_size"`
	MinTransitionDelay time.Duration `koanf:"min_transition_delay"`
	DurationMaxLimit   time.Duration `koanf:"duration_max_limit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "VJ Frame",
			TargetFPS: 60,
			Width:     1920,
			Height:    1080,
			LowMemory: true,
		},
		Media: MediaConfig{
			Dir:            "media",
			Watch:          true,
			RescanInterval: 30 * time.Second,
		},
		S3: S3Config{
			Enabled:      false,
			Region:       os.Getenv("AWS_DEFAULT_REGION"),
			SyncInterval: 10 * time.Minute,
		},
		Playback: PlaybackConfig{
			HistorySize:        3,
			MinTransitionDelay: 100 * time.Millisecond,
			DurationMaxLimit:   30 * time.Second,
		},
		SettingsPath: "settings.json",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9100",
		},
	}
}

// LoadDotEnv reads .env files into the process environment. A missing file
// is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// VJ_MEDIA_DIR -> media.dir, VJ_SETTINGS_PATH -> settings_path
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sections = []string{"window", "media", "s3", "playback", "log", "metrics"}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config" {
		// The config path itself is not a setting.
		return ""
	}
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok {
			return s + "." + rest
		}
	}
	return key
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.TargetFPS <= 0 {
		errs = append(errs, fmt.Errorf("window.target_fps must be positive, got %d", c.Window.TargetFPS))
	}
	if c.Media.Dir == "" {
		errs = append(errs, errors.New("media.dir is required"))
	}
	if c.Media.RescanInterval < time.Second {
		errs = append(errs, fmt.Errorf("media.rescan_interval must be at least 1s, got %s", c.Media.RescanInterval))
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("s3.bucket is required when s3 is enabled"))
		}
		if c.S3.Region == "" {
			errs = append(errs, errors.New("s3.region is required when s3 is enabled"))
		}
		if c.S3.SyncInterval < time.Minute {
			errs = append(errs, fmt.Errorf("s3.sync_interval must be at least 1m, got %s", c.S3.SyncInterval))
		}
	}
	if c.Playback.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("playback.history_size must be at least 1, got %d", c.Playback.HistorySize))
	}
	if c.Playback.MinTransitionDelay <= 0 {
		errs = append(errs, errors.New("playback.min_transition_delay must be positive"))
	}
	if c.Playback.DurationMaxLimit < time.Second {
		errs = append(errs, fmt.Errorf("playback.duration_max_limit must be at least 1s, got %s", c.Playback.DurationMaxLimit))
	}
	if c.SettingsPath == "" {
		errs = append(errs, errors.New("settings_path is required"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr is required when metrics are enabled"))
	}
	return errors.Join(errs...)
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all daemon configuration. Values come from defaults, then
// the YAML file, then BLEPROV_* environment variables (highest precedence).
type Config struct {
	DeviceName string `yaml:"device_name" env:"BLEPROV_DEVICE_NAME"`
	AutoStart  bool   `yaml:"auto_start" env:"BLEPROV_AUTO_START"`
	TickMillis int    `yaml:"tick_ms" env:"BLEPROV_TICK_MS"`
	LogLevel   string `yaml:"log_level" env:"BLEPROV_LOG_LEVEL"`
}

// maxDeviceNameLen keeps the advertised local name within a single
// advertising payload alongside the service UUID.
const maxDeviceNameLen = 26

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bleprov")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DeviceName: "bleprov",
		AutoStart:  true,
		TickMillis: 100,
		LogLevel:   "info",
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment-variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}

	return cfg, nil
}

// FromEnv returns the defaults with environment-variable overrides applied,
// for hosts running without a config file.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name must not be empty")
	}

	if len(c.DeviceName) > maxDeviceNameLen {
		return fmt.Errorf("device_name must be at most %d bytes, got %d", maxDeviceNameLen, len(c.DeviceName))
	}

	if c.TickMillis <= 0 {
		return fmt.Errorf("tick_ms must be > 0, got %d", c.TickMillis)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Tick returns the cooperative tick interval for the session loop.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// ParseLogLevel maps a config log level string to a slog.Level.
// Unknown values default to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

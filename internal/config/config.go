// Package config provides configuration parsing and well-known paths for
// WSLMole.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the WSLMole configuration.
type Config struct {
	// LogFile is an optional path that receives a copy of the log.
	LogFile string `yaml:"log_file"`

	// Shutdown controls the convergence wait after `wsl --shutdown`.
	Shutdown ShutdownConfig `yaml:"shutdown"`

	// Modern holds settings for the `wsl --manage --set-sparse` strategy.
	Modern ModernConfig `yaml:"modern"`

	// Locator controls VHDX discovery.
	Locator LocatorConfig `yaml:"locator"`

	// Timeouts bound external commands.
	Timeouts TimeoutsConfig `yaml:"timeouts"`
}

// ShutdownConfig defines the bounded wait for WSL to stop.
type ShutdownConfig struct {
	// SettleSeconds is the fixed wait before the first status check.
	SettleSeconds int `yaml:"settle_seconds"`
	// PollAttempts is how many status checks are made.
	PollAttempts int `yaml:"poll_attempts"`
	// PollIntervalSeconds spaces the status checks.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

// ModernConfig holds Modern strategy settings.
type ModernConfig struct {
	// MinWSLVersion is the oldest WSL package that understands --set-sparse.
	MinWSLVersion string `yaml:"min_wsl_version"`
}

// LocatorConfig holds VHDX discovery settings.
type LocatorConfig struct {
	// ExtraPaths are additional glob patterns (may contain %VAR%).
	ExtraPaths []string `yaml:"extra_paths"`
	// Scan enables the recursive %LOCALAPPDATA% fallback scan.
	Scan bool `yaml:"scan"`
}

// TimeoutsConfig bounds external commands.
type TimeoutsConfig struct {
	CommandSeconds  int `yaml:"command_seconds"`
	DiskpartSeconds int `yaml:"diskpart_seconds"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Shutdown: ShutdownConfig{
			SettleSeconds:       10,
			PollAttempts:        1,
			PollIntervalSeconds: 5,
		},
		Modern: ModernConfig{
			MinWSLVersion: "2.0.0",
		},
		Locator: LocatorConfig{
			ExtraPaths: []string{},
			Scan:       true,
		},
		Timeouts: TimeoutsConfig{
			CommandSeconds:  120,
			DiskpartSeconds: 1800,
		},
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if c.Shutdown.PollAttempts < 1 {
		return fmt.Errorf("shutdown.poll_attempts must be at least 1, got %d", c.Shutdown.PollAttempts)
	}
	if c.Shutdown.SettleSeconds < 0 || c.Shutdown.PollIntervalSeconds < 0 {
		return fmt.Errorf("shutdown wait values must not be negative")
	}
	if c.Timeouts.CommandSeconds <= 0 || c.Timeouts.DiskpartSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// SettleDuration returns the settle wait as a time.Duration.
func (c *Config) SettleDuration() time.Duration {
	return time.Duration(c.Shutdown.SettleSeconds) * time.Second
}

// PollInterval returns the status check spacing.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Shutdown.PollIntervalSeconds) * time.Second
}

// CommandTimeout returns the default external command timeout.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Timeouts.CommandSeconds) * time.Second
}

// DiskpartTimeout returns the diskpart timeout.
func (c *Config) DiskpartTimeout() time.Duration {
	return time.Duration(c.Timeouts.DiskpartSeconds) * time.Second
}

// LoadConfig loads configuration from a YAML file, merging with defaults.
// A missing file yields the defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

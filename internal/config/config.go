// Package config loads the YAML configuration for cmd/blizzardd, in the
// load-then-default-then-validate shape of
// danmuck-edgectl/internal/config/config.go.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for `blizzardd serve`.
type Config struct {
	Addr            string        `yaml:"addr"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxStreamBytes  int           `yaml:"max_stream_bytes"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	RateLimit       RateLimit     `yaml:"rate_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimit configures the optional per-session outbound throttle.
type RateLimit struct {
	Enabled     bool  `yaml:"enabled"`
	BytesPerSec int64 `yaml:"bytes_per_sec"`
	Burst       int64 `yaml:"burst"`
}

// Load reads and validates a Config from path, applying defaults for
// anything left unset.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:7331"
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.MaxStreamBytes <= 0 {
		c.MaxStreamBytes = 16 * 1024 * 1024
	}
	if c.RateLimit.Enabled && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = c.RateLimit.BytesPerSec
	}
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.RateLimit.Enabled && c.RateLimit.BytesPerSec <= 0 {
		return fmt.Errorf("rate_limit.bytes_per_sec must be positive when rate_limit.enabled is true")
	}
	return nil
}

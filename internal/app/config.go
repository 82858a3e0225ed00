package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/patchbay/internal/config"
)

// Config holds what an entrypoint hands the App. Zero values leave the
// configuration file's settings in place.
type Config struct {
	ConfigPaths []string // hcl files or directories

	Listen        string
	LogFormat     string
	LogLevel      string
	InvokeTimeout time.Duration
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.InvokeTimeout < 0 {
		return nil, fmt.Errorf("invalid invoke-timeout %s: must not be negative", cfg.InvokeTimeout)
	}
	return &cfg, nil
}

// apply overlays the entrypoint's overrides onto the loaded file config.
func (c *Config) apply(cfg *config.Config) {
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.InvokeTimeout > 0 {
		cfg.InvokeTimeout = c.InvokeTimeout
	}
}

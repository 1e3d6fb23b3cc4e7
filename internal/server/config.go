// Package server provides configuration helpers that define runtime
// defaults, environment overrides, and rate-limiting parameters for the
// Parley service.
package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. All fields can be overridden
// through PARLEY_-prefixed environment variables.
type Config struct {
	Port            string        `envconfig:"PORT" default:":8080"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	MaxMessageSize  int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitRefill time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads the configuration from the environment, falling back to
// defaults, and sanitizes out-of-range values.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("parley", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

// DefaultConfig returns the built-in defaults without consulting the
// environment. Tests use it as a starting point.
func DefaultConfig() Config {
	return sanitizeConfig(Config{
		Port:            ":8080",
		AllowedOrigins:  []string{"http://localhost:8080"},
		MaxMessageSize:  4096,
		RateLimitBurst:  10,
		RateLimitRefill: time.Second,
		LogLevel:        "info",
	})
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if !strings.HasPrefix(cfg.Port, ":") && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	if cfg.RateLimitRefill <= 0 {
		cfg.RateLimitRefill = time.Second
	}
	return cfg
}

// SlogLevel maps the configured log level string onto a slog.Level,
// defaulting to info for anything unrecognized.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

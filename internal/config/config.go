package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration loaded from the environment
type Config struct {
	Host        string        `env:"HOST" envDefault:""`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	GameIdleTTL time.Duration `env:"GAME_IDLE_TTL" envDefault:"5m"`
	PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level string to a slog level.
// Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
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

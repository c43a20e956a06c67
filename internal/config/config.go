package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	// Server
	Port string `envconfig:"PORT" default:"8080"`

	// Security
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080,http://localhost:3000"`
	// AUTH_SECRET signs the HS256 session tokens issued by the auth service.
	// Empty means every upgrade is rejected.
	AuthSecret string `envconfig:"AUTH_SECRET"`

	// Storage
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// Rate limiting (requests per second)
	RateLimitAPI int `envconfig:"RATE_LIMIT_API" default:"10"`
	RateLimitWS  int `envconfig:"RATE_LIMIT_WS" default:"5"`

	// Logging. Options: debug, info, warn, error
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// WebSocket
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`

	// HistoryLimit caps how many messages a single history request returns
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"100"`

	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"30"`
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OriginAllowed checks the origin against the allow-list. An empty origin is
// allowed (same-origin and non-browser clients).
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
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

// Package config загружает конфигурацию сервера из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server settings, populated from TUTOR_* env vars
type Config struct {
	// Addr is the listen address, host:port
	Addr string `envconfig:"ADDR" default:":8080"`

	// DatabasePath is the SQLite database file, ":memory:" for tests
	DatabasePath string `envconfig:"DATABASE_PATH" default:"tutor-server.db"`

	// JWTSecret signs access tokens; required, no default on purpose
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// AccessTokenTTL is the lifetime of issued access tokens
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`

	// VerificationCodeTTL is the lifetime of emailed verification codes
	VerificationCodeTTL time.Duration `envconfig:"VERIFICATION_CODE_TTL" default:"10m"`

	// RateLimit caps requests per client IP within RateWindow
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"100"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"1m"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ShutdownTimeout bounds graceful shutdown on SIGTERM
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// CleanupInterval is how often expired tokens and codes are purged
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
}

// Load читает конфигурацию с префиксом TUTOR
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("tutor", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TUTOR_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "tutor-server.db", cfg.DatabasePath)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.VerificationCodeTTL)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TUTOR_JWT_SECRET", "test-secret")
	t.Setenv("TUTOR_ADDR", ":9090")
	t.Setenv("TUTOR_ACCESS_TOKEN_TTL", "30m")
	t.Setenv("TUTOR_RATE_LIMIT", "10")
	t.Setenv("TUTOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	// t.Setenv ради восстановления значения после теста,
	// сам тест проверяет полностью отсутствующую переменную
	t.Setenv("TUTOR_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("TUTOR_JWT_SECRET"))

	_, err := Load()
	assert.Error(t, err)
}

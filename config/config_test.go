package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("CONNECTION_TTL_MINUTES", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://forms.example.com,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.ConnectionTTL, "invalid value falls back to default")
	assert.Equal(t, 120, cfg.RateLimitPerMinute, "non-positive value falls back to default")
	assert.Equal(t, []string{"http://localhost:3000", "https://forms.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

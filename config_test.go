package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "ENV", "SESSION_TTL", "COOKIE_MAX_AGE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LIMITER_SOFT_CAP", "LIMITER_HARD_CAP"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2*time.Hour, cfg.CookieMaxAge)
	assert.Equal(t, 5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 10000, cfg.LimiterSoftCap)
	assert.Equal(t, 50000, cfg.LimiterHardCap)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("RATE_LIMIT_RPS", "2")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2, cfg.RateLimitRPS)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	_, err := loadConfig()
	require.Error(t, err)

	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("RATE_LIMIT_RPS", "0")
	_, err = loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
}

func TestValidate(t *testing.T) {
	cfg := Config{Port: "1", RateLimitRPS: 1, RateLimitBurst: 1, CookieMaxAge: 1, RateLimiterTTL: 1, LimiterSweepInterval: 1, SessionTTL: 1, SessionSweepInterval: 1, LimiterSoftCap: 1, LimiterHardCap: 1}
	require.NoError(t, cfg.Validate())

	cfg.LimiterHardCap = 0
	assert.ErrorContains(t, cfg.Validate(), "LIMITER_SOFT_CAP")
	cfg.LimiterHardCap = 1

	cfg.SessionSweepInterval = 0
	cfg.Port = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SWEEP_INTERVAL")
	assert.Contains(t, err.Error(), "PORT")
}

package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
    t.Setenv("APP_ENV", "")
    t.Setenv("JWT_SECRET", "")

    cfg, err := Load()
    require.NoError(t, err)

    assert.Equal(t, "development", cfg.Env)
    assert.False(t, cfg.IsProduction())
    assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
    assert.Equal(t, 5*time.Minute, cfg.SignatureWindow)
    assert.Equal(t, 5, cfg.LockoutMaxAttempts)
    assert.Equal(t, 15*time.Minute, cfg.LockoutWindow)
    assert.Equal(t, time.Hour, cfg.CSRFTTL)
    assert.Equal(t, devJWTSecret, cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
    t.Setenv("APP_PORT", "9090")
    t.Setenv("TOKEN_TTL", "2h")
    t.Setenv("LOCKOUT_MAX_ATTEMPTS", "3")
    t.Setenv("AUDIT_ENABLED", "yes")
    t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "9090", cfg.Port)
    assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
    assert.Equal(t, 3, cfg.LockoutMaxAttempts)
    assert.True(t, cfg.AuditEnabled)
    assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
}

func TestLoad_ProductionRejectsDevSecrets(t *testing.T) {
    t.Setenv("APP_ENV", "production")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("SIGNING_API_KEY", "")
    t.Setenv("SIGNING_SECRET", "")

    _, err := Load()
    require.ErrorIs(t, err, ErrInsecureConfig)
    assert.Contains(t, err.Error(), "JWT_SECRET")
    assert.Contains(t, err.Error(), "SIGNING_API_KEY")
    assert.Contains(t, err.Error(), "SIGNING_SECRET")
}

func TestLoad_ProductionShortSecret(t *testing.T) {
    t.Setenv("APP_ENV", "production")
    t.Setenv("JWT_SECRET", "short")
    t.Setenv("SIGNING_API_KEY", "prod-key")
    t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")

    _, err := Load()
    require.ErrorIs(t, err, ErrInsecureConfig)
    assert.Contains(t, err.Error(), "JWT_SECRET")
    assert.NotContains(t, err.Error(), "SIGNING_SECRET")
}

func TestLoad_ProductionOK(t *testing.T) {
    t.Setenv("APP_ENV", "production")
    t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef-jwt")
    t.Setenv("SIGNING_API_KEY", "prod-key")
    t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef-sig")

    cfg, err := Load()
    require.NoError(t, err)
    assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidValues(t *testing.T) {
    tests := []struct {
        key, value string
    }{
        {"TOKEN_TTL", "-1h"},
        {"LOCKOUT_MAX_ATTEMPTS", "0"},
        {"BCRYPT_COST", "2"},
        {"APP_PORT", "http"},
    }
    for _, tc := range tests {
        t.Run(tc.key, func(t *testing.T) {
            t.Setenv(tc.key, tc.value)
            _, err := Load()
            assert.Error(t, err)
        })
    }
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("LOGIN_RATE_LIMIT_CAPACITY", "0")
    t.Setenv("LOGIN_RATE_LIMIT_REFILL_INTERVAL", "10s")
    t.Setenv("LOGIN_RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 10*time.Second, cfg.RefillInterval)
    assert.Equal(t, 50*time.Second, cfg.TTL)
}

func TestNewRedisClient_Disabled(t *testing.T) {
    t.Setenv("REDIS_DISABLED", "true")
    assert.Nil(t, NewRedisClient())
}

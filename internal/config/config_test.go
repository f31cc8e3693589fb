package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/mobcommerce")
	t.Setenv("MOBCOMMERCE_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("STORE", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("RESET_TOKEN_TTL", "")
	t.Setenv("AUTH_RATE_LIMIT", "")
	t.Setenv("AUTH_RATE_WINDOW", "")
	t.Setenv("EXPOSE_RESET_TOKEN", "")
	t.Setenv("ADMIN_EMAILS", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.True(t, cfg.ExposeResetToken)
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoad_Overrides(t *testing.T) {
	setBase(t)
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_EXPIRES_IN", "12h")
	t.Setenv("ADMIN_EMAILS", " Boss@Shop.io, ,ops@shop.io")
	t.Setenv("EXPOSE_RESET_TOKEN", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"boss@shop.io", "ops@shop.io"}, cfg.AdminEmails)
	assert.False(t, cfg.ExposeResetToken)
}

func TestLoad_Errors(t *testing.T) {
	setBase(t)
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	setBase(t)
	t.Setenv("JWT_EXPIRES_IN", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_EXPIRES_IN")

	setBase(t)
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	setBase(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE", "memory")
	_, err = Load()
	assert.NoError(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("3d")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	d, err = ParseDuration("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}

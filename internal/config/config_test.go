package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("x", MinJWTSecretBytes-1))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_BCRYPT_COST", "")
	t.Setenv("AUTH_REVOCATION_ENABLED", "")
	t.Setenv("AUTH_ISSUER", "")
	t.Setenv("AUTH_AUDIENCE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "discord-monitor-report", cfg.Auth.Issuer)
	assert.Equal(t, "discord-monitor-report-api", cfg.Auth.Audience)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.RevocationEnabled)
}

func TestLoad_ClampsBcryptCost(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1", bcrypt.MinCost},
		{"12", 12},
		{"99", bcrypt.MaxCost},
		{"", bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", testSecret)
			t.Setenv("AUTH_BCRYPT_COST", tt.raw)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Auth.BcryptCost)
		})
	}
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_BCRYPT_COST", "ten")
	t.Setenv("AUTH_REVOCATION_ENABLED", "maybe")

	cfg, err := Load()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_BCRYPT_COST")
	assert.Contains(t, err.Error(), "AUTH_REVOCATION_ENABLED")
}

func TestAppConfig_RequestTimeout(t *testing.T) {
	assert.Zero(t, AppConfig{}.RequestTimeout())
	assert.Equal(t, "30s", AppConfig{RequestTimeoutSeconds: 30}.RequestTimeout().String())
	assert.Equal(t, "127.0.0.1:9000", AppConfig{Host: "127.0.0.1", Port: "9000"}.Addr())
}

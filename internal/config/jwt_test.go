package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DefaultValues(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret-key")
	t.Setenv("AUTH_TOKEN_HOURS", "")
	t.Setenv("AUTH_JWT_AUDIENCE", "")
	t.Setenv("AUTH_JWT_ISSUER", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, "authenticated", cfg.Audience)
	assert.Empty(t, cfg.Issuer)
	assert.Equal(t, 24, cfg.ExpirationHours, "should use default expiration of 24 hours")
}

func TestNewJWTConfig_CustomValues(t *testing.T) {
	tests := []struct {
		name          string
		expiration    string
		expectedHours int
		wantErr       bool
	}{
		{name: "one hour", expiration: "1", expectedHours: 1},
		{name: "one week", expiration: "168", expectedHours: 168},
		{name: "zero rejected", expiration: "0", wantErr: true},
		{name: "negative rejected", expiration: "-5", wantErr: true},
		{name: "not a number", expiration: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "test-secret-key")
			t.Setenv("AUTH_TOKEN_HOURS", tt.expiration)
			t.Setenv("AUTH_JWT_AUDIENCE", "cojournalist")
			t.Setenv("AUTH_JWT_ISSUER", "https://project.example.co/auth/v1")

			cfg, err := NewJWTConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHours, cfg.ExpirationHours)
			assert.Equal(t, "cojournalist", cfg.Audience)
			assert.Equal(t, "https://project.example.co/auth/v1", cfg.Issuer)
		})
	}
}

func TestNewJWTConfig_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := NewJWTConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestNewJWTConfig_IssuerTrailingSlash(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret-key")
	t.Setenv("AUTH_TOKEN_HOURS", "")
	t.Setenv("AUTH_JWT_ISSUER", "https://project.example.co/auth/v1/")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://project.example.co/auth/v1", cfg.Issuer)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// JWTConfig describes the access tokens issued by the identity provider.
// The same secret signs tokens minted by the token command for local use.
type JWTConfig struct {
	// Secret is the provider's HS256 signing secret.
	Secret string
	// Audience must match the aud claim when set. The provider issues
	// "authenticated" to signed-in users.
	Audience string
	// Issuer must match the iss claim when set, usually IDENTITY_URL + "/auth/v1".
	Issuer string
	// ExpirationHours bounds locally minted tokens only.
	ExpirationHours int
}

// NewJWTConfig reads AUTH_JWT_SECRET (required), AUTH_JWT_AUDIENCE (default
// "authenticated"), AUTH_JWT_ISSUER and AUTH_TOKEN_HOURS (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	hours := 24
	if v := os.Getenv("AUTH_TOKEN_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_TOKEN_HOURS: %v", err)
		}
		hours = n
	}

	cfg := &JWTConfig{
		Secret:          os.Getenv("AUTH_JWT_SECRET"),
		Audience:        getEnvString("AUTH_JWT_AUDIENCE", "authenticated"),
		Issuer:          strings.TrimRight(os.Getenv("AUTH_JWT_ISSUER"), "/"),
		ExpirationHours: hours,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required but not set")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("AUTH_TOKEN_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

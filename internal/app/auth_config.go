package app

import (
	"strings"

	"github.com/hireloop/hireloop/internal/auth"
)

// JWTServiceConfig maps the auth section onto the token service's settings.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         strings.TrimSpace(c.JWT.Secret),
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
}

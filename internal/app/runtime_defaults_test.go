package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsGeneratesSecrets(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.jwt.secret"])
	require.True(t, generated["auth.internal.token"])
	require.NotEmpty(t, cfg.Auth.JWT.Secret)
	require.NotEmpty(t, cfg.Auth.Internal.Token)
	require.NotEqual(t, cfg.Auth.JWT.Secret, cfg.Auth.Internal.Token)
}

func TestApplyRuntimeDefaultsPreservesConfiguredValues(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = "configured"
	cfg.Auth.Internal.Token = "token"

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, generated)
	require.Equal(t, "configured", cfg.Auth.JWT.Secret)
	require.Equal(t, "token", cfg.Auth.Internal.Token)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.Error(t, err)
}

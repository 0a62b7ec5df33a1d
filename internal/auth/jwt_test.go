package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, clock func() time.Time) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		Issuer:         "hireloop",
		AccessTokenTTL: 15 * time.Minute,
		Clock:          clock,
	})
	require.NoError(t, err)
	return svc
}

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := newTestService(t, nil)

	token, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-1", Role: "recruiter"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "recruiter", claims.Role)
	require.Equal(t, "hireloop", claims.Issuer)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	issuer := newTestService(t, func() time.Time { return issuedAt })

	token, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "user-1"})
	require.NoError(t, err)

	verifier := newTestService(t, nil)
	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsWrongIssuer(t *testing.T) {
	other, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "elsewhere"})
	require.NoError(t, err)

	token, err := other.GenerateAccessToken(AccessTokenInput{UserID: "user-1"})
	require.NoError(t, err)

	svc := newTestService(t, nil)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRequiresSecretAndUser(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)

	svc := newTestService(t, nil)
	_, err = svc.GenerateAccessToken(AccessTokenInput{})
	require.Error(t, err)
}

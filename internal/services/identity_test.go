package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/rockquest/rockquest-backend/internal/apierror"
)

func mintToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyReturnsSubject(t *testing.T) {
	v := NewIdentityVerifier("test-secret")
	token := mintToken(t, "test-secret", "user-42", time.Now().Add(time.Hour))

	subject, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", subject)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewIdentityVerifier("test-secret")

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": mintToken(t, "other-secret", "user-42", time.Now().Add(time.Hour)),
		"expired":      mintToken(t, "test-secret", "user-42", time.Now().Add(-time.Hour)),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.Error(t, err)
			require.Equal(t, apierror.KindUnauthorized, apierror.From(err).Kind)
		})
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	v := NewIdentityVerifier("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, verifyErr := v.Verify(signed)
	require.Error(t, verifyErr)
}

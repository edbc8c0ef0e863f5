package services

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/rockquest/rockquest-backend/internal/apierror"
)

// IdentityVerifier validates bearer tokens minted by the external identity
// provider and extracts the subject id. Role and account state come from the
// user row, not the token.
type IdentityVerifier struct {
	secret []byte
}

func NewIdentityVerifier(secret string) *IdentityVerifier {
	return &IdentityVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning the subject id.
func (v *IdentityVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", apierror.New(apierror.KindUnauthorized, "missing authentication token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", apierror.New(apierror.KindUnauthorized, "invalid or expired token")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", apierror.New(apierror.KindUnauthorized, "token has no subject")
	}
	return subject, nil
}

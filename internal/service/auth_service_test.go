package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func parentClaims(expires time.Time) models.JWTClaims {
	return models.JWTClaims{
		Email: "parent@example.com",
		Role:  "parent",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "parent-1",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"planner"},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: testSecret, Issuer: "https://auth.example.com", Audience: "planner"}, nil)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), parentClaims(time.Now().Add(time.Hour)))

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "parent-1", claims.UserID())
	assert.Equal(t, "parent@example.com", claims.Email)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: testSecret, Issuer: "https://auth.example.com", Audience: "planner"}, nil)

	noSubject := parentClaims(time.Now().Add(time.Hour))
	noSubject.Subject = ""
	wrongIssuer := parentClaims(time.Now().Add(time.Hour))
	wrongIssuer.Issuer = "https://evil.example.com"
	wrongAudience := parentClaims(time.Now().Add(time.Hour))
	wrongAudience.Audience = jwt.ClaimStrings{"billing"}

	cases := map[string]string{
		"expired":        signToken(t, jwt.SigningMethodHS256, []byte(testSecret), parentClaims(time.Now().Add(-time.Hour))),
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, []byte("other"), parentClaims(time.Now().Add(time.Hour))),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), parentClaims(time.Now().Add(time.Hour))),
		"no subject":     signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject),
		"wrong issuer":   signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer),
		"wrong audience": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongAudience),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestAuthServiceOptionalIssuerAndAudience(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: testSecret}, nil)
	claims := parentClaims(time.Now().Add(time.Hour))
	claims.Issuer = "anyone"
	claims.Audience = nil

	_, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims))

	assert.NoError(t, err)
}

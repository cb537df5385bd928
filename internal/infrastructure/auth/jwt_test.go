package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.AuthConfig{
		Mode:            config.AuthModeJWT,
		JWTSecret:       "test-secret-key-at-least-32-chars",
		TokenExpiration: time.Hour,
		Issuer:          "mes-test",
	})
}

func TestNewTokenService_DefaultExpiration(t *testing.T) {
	svc := NewTokenService(config.AuthConfig{JWTSecret: "x"})
	assert.Equal(t, defaultTokenExpiration, svc.Expiration())
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService()
	userID := uuid.New()

	issued, err := svc.Issue(TokenInput{UserID: userID, UserCode: "op01", RoleCode: "OPERATOR", Company: "HANES", Plant: "P01"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotEmpty(t, issued.JTI)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, "op01", claims.UserCode)
	assert.Equal(t, "HANES", claims.Company)
	assert.Equal(t, "P01", claims.Plant)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.Equal(t, "mes-test", claims.Issuer)
}

func TestTokenService_Validate(t *testing.T) {
	svc := newTestTokenService()

	t.Run("expired", func(t *testing.T) {
		issued, err := svc.Issue(TokenInput{UserID: uuid.New()})
		require.NoError(t, err)

		later := *svc
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.Validate(issued.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		issued, err := svc.Issue(TokenInput{UserID: uuid.New()})
		require.NoError(t, err)

		other := NewTokenService(config.AuthConfig{JWTSecret: "another-secret-key-at-least-32-chars"})
		_, err = other.Validate(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject is not a user id", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.Validate(signed)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenService_RemainingTTL(t *testing.T) {
	svc := newTestTokenService()
	issued, err := svc.Issue(TokenInput{UserID: uuid.New()})
	require.NoError(t, err)
	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)

	ttl := svc.RemainingTTL(claims)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Equal(t, time.Duration(0), svc.RemainingTTL(claims))
}

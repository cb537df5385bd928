// Package auth issues and validates bearer tokens for the MES API.
//
// Two modes exist. In user_id mode the bearer token is the user's row id and
// no signing happens. In jwt mode login issues an HS256 token whose subject is
// the user id; revoked tokens are tracked in a RevocationStore.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mes/backend/internal/infrastructure/config"
)

// Token validation errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing subject in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

const defaultTokenExpiration = 12 * time.Hour

// Claims are the MES token claims. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserCode string `json:"userCode"`
	RoleCode string `json:"roleCode,omitempty"`
	Company  string `json:"company,omitempty"`
	Plant    string `json:"plant,omitempty"`
}

// UserID returns the subject parsed as a user id
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrMissingUserID
	}
	return id, nil
}

// TokenInput describes the user a token is issued for
type TokenInput struct {
	UserID   uuid.UUID
	UserCode string
	RoleCode string
	Company  string
	Plant    string
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	JTI       string    `json:"-"`
}

// TokenService signs and validates HS256 tokens
type TokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenService creates a TokenService from the auth configuration
func NewTokenService(cfg config.AuthConfig) *TokenService {
	exp := cfg.TokenExpiration
	if exp <= 0 {
		exp = defaultTokenExpiration
	}
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		expiration: exp,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// Issue signs a token for the user
func (s *TokenService) Issue(in TokenInput) (*IssuedToken, error) {
	now := s.now()
	jti := uuid.New().String()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   in.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserCode: in.UserCode,
		RoleCode: in.RoleCode,
		Company:  in.Company,
		Plant:    in.Plant,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: now.Add(s.expiration), JTI: jti}, nil
}

// Validate parses and verifies a token
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// RemainingTTL is how long the token stays valid; used as the revocation TTL
func (s *TokenService) RemainingTTL(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return s.expiration
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Expiration returns the configured token lifetime
func (s *TokenService) Expiration() time.Duration {
	return s.expiration
}

package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	identityapp "github.com/mes/backend/internal/application/identity"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys
const (
	PrincipalKey  = "principal"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a bearer token to a signed-in user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identityapp.Principal, error)
}

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	Authenticator Authenticator
	// SkipPaths are full paths served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// Auth requires a valid bearer token on every request not in SkipPaths
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			AbortWithError(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		principal, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				AbortWithError(c, domainErr.Code, domainErr.Message)
				return
			}
			log.Error("Token authentication failed", zap.Error(err))
			classified := dto.ClassifyError(err)
			AbortWithError(c, classified.Code, classified.Message)
			return
		}

		userID := principal.User.ID.String()
		c.Set(PrincipalKey, principal)
		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// GetPrincipal returns the signed-in user, or nil on unauthenticated routes
func GetPrincipal(c *gin.Context) *identityapp.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identityapp.Principal); ok {
			return p
		}
	}
	return nil
}

// GetUserID returns the signed-in user's id
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

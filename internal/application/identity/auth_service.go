package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/auth"
	"github.com/mes/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("UNAUTHORIZED", "Invalid user code or password")
	ErrInvalidToken       = shared.NewDomainError("UNAUTHORIZED", "Invalid or expired token")
	ErrInactiveUser       = shared.NewDomainError("UNAUTHORIZED", "User is inactive")
)

// AuthService signs users in and resolves bearer tokens
type AuthService struct {
	users       identity.UserRepository
	roles       identity.RoleRepository
	mode        string
	tokens      *auth.TokenService
	revocations auth.RevocationStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. tokens and revocations are only used
// in jwt mode and may be nil otherwise.
func NewAuthService(
	users identity.UserRepository,
	roles identity.RoleRepository,
	mode string,
	tokens *auth.TokenService,
	revocations auth.RevocationStore,
	logger *zap.Logger,
) *AuthService {
	if mode == "" {
		mode = config.AuthModeUserID
	}
	return &AuthService{
		users:       users,
		roles:       roles,
		mode:        mode,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

// Mode returns the configured token mode
func (s *AuthService) Mode() string {
	return s.mode
}

// Login checks the password and returns a token with the user's menus.
// scope carries the tenant headers of the login request, if any.
func (s *AuthService) Login(ctx context.Context, scope shared.Actor, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.FindOne(ctx, scope, shared.Conds{"user_code": strings.TrimSpace(req.UserCode)})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user", zap.String("user_code", req.UserCode))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_code", req.UserCode))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.logger.Warn("Login attempt for inactive user", zap.String("user_code", req.UserCode))
		return nil, ErrInactiveUser
	}

	result := &LoginResult{User: user, Token: user.ID.String()}
	if s.mode == config.AuthModeJWT {
		issued, err := s.tokens.Issue(auth.TokenInput{
			UserID:   user.ID,
			UserCode: user.UserCode,
			RoleCode: user.RoleCode,
			Company:  user.Company,
			Plant:    user.Plant,
		})
		if err != nil {
			s.logger.Error("Failed to sign token", zap.Error(err))
			return nil, err
		}
		result.Token = issued.Token
		result.ExpiresAt = &issued.ExpiresAt
	}

	menus, err := s.AllowedMenus(ctx, user.Actor(), user.RoleCode)
	if err != nil {
		return nil, err
	}
	result.AllowedMenus = menus

	user.RecordLogin(s.now())
	if err := s.users.Save(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to record login time", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_code", user.UserCode),
		zap.String("user_id", user.ID.String()))
	return result, nil
}

// Authenticate resolves a bearer token to an active user.
// In user_id mode the token is the user's id; in jwt mode it is a signed token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	principal := &Principal{}
	var userID uuid.UUID
	if s.mode == config.AuthModeJWT {
		claims, err := s.tokens.Validate(token)
		if err != nil {
			return nil, ErrInvalidToken
		}
		if err := s.checkRevoked(ctx, claims); err != nil {
			return nil, err
		}
		userID, _ = claims.UserID()
		principal.TokenID = claims.ID
		if claims.ExpiresAt != nil {
			principal.ExpiresAt = claims.ExpiresAt.Time
		}
	} else {
		id, err := uuid.Parse(token)
		if err != nil {
			return nil, ErrInvalidToken
		}
		userID = id
	}

	user, err := s.users.FindByID(ctx, shared.Actor{}, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInactiveUser
	}
	principal.User = user
	return principal, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil {
		return nil
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked && claims.IssuedAt != nil {
		revoked, err = s.revocations.IsUserRevoked(ctx, claims.Subject, claims.IssuedAt.Time)
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrInvalidToken
	}
	return nil
}

// Logout revokes the caller's token. It is a no-op in user_id mode.
func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	if s.mode != config.AuthModeJWT || s.revocations == nil || p.TokenID == "" {
		return nil
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, p.TokenID, ttl); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", p.User.ID.String()))
	return nil
}

// RevokeUser invalidates every token issued to the user so far
func (s *AuthService) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	if s.mode != config.AuthModeJWT || s.revocations == nil {
		return nil
	}
	return s.revocations.RevokeUser(ctx, userID.String(), s.tokens.Expiration())
}

// Me returns the caller and the menus they may open
func (s *AuthService) Me(ctx context.Context, user *identity.User) (*CurrentUser, error) {
	menus, err := s.AllowedMenus(ctx, user.Actor(), user.RoleCode)
	if err != nil {
		return nil, err
	}
	return &CurrentUser{User: user, AllowedMenus: menus}, nil
}

// AllowedMenus returns the menu codes granted to roleCode. ADMIN gets an empty
// list, meaning every menu; an unknown role also gets an empty list.
func (s *AuthService) AllowedMenus(ctx context.Context, scope shared.Actor, roleCode string) ([]string, error) {
	if strings.EqualFold(roleCode, identity.RoleAdmin) || roleCode == "" {
		return []string{}, nil
	}
	role, err := s.roles.FindByCode(ctx, scope, roleCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return role.MenuCodes(), nil
}

package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	users  identity.UserRepository
	roles  identity.RoleRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users identity.UserRepository, roles identity.RoleRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, roles: roles, logger: logger}
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) ([]identity.User, int64, error) {
	return s.users.List(ctx, actor, filter)
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*identity.User, error) {
	return s.users.FindByID(ctx, actor, id)
}

// Create creates a user; userCode and email are unique
func (s *UserService) Create(ctx context.Context, actor shared.Actor, req CreateUserRequest) (*identity.User, error) {
	if err := shared.EnsureUnique(ctx, s.users, actor, shared.Conds{"user_code": req.UserCode}, nil, "userCode", req.UserCode); err != nil {
		return nil, err
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if err := shared.EnsureUnique(ctx, s.users, actor, shared.Conds{"email": email}, nil, "email", email); err != nil {
			return nil, err
		}
	}

	user, err := identity.NewUser(actor, req.UserCode, req.UserName, req.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if req.RoleCode != "" {
		if err := s.ensureRole(ctx, actor, req.RoleCode); err != nil {
			return nil, err
		}
		user.RoleCode = strings.ToUpper(req.RoleCode)
	}
	user.Department = req.Department
	user.LineCode = req.LineCode
	user.UseYn = shared.YNOrDefault(req.UseYn, shared.Yes)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("user_code", user.UserCode), zap.String("role_code", user.RoleCode))
	return user, nil
}

// Update changes a user
func (s *UserService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateUserRequest) (*identity.User, error) {
	user, err := s.users.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if err := shared.EnsureUnique(ctx, s.users, actor, shared.Conds{"email": email}, &id, "email", email); err != nil {
				return nil, err
			}
		}
		if err := user.SetEmail(email); err != nil {
			return nil, err
		}
	}
	if req.UserName != nil {
		if strings.TrimSpace(*req.UserName) == "" {
			return nil, shared.InvalidInput("userName is required")
		}
		user.UserName = *req.UserName
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if req.RoleCode != nil {
		if err := s.ensureRole(ctx, actor, *req.RoleCode); err != nil {
			return nil, err
		}
		user.RoleCode = strings.ToUpper(*req.RoleCode)
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.LineCode != nil {
		user.LineCode = *req.LineCode
	}
	if req.UseYn != nil {
		user.UseYn = shared.YNOrDefault(*req.UseYn, user.UseYn)
	}
	user.Touch(actor.UserID)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete soft deletes a user
func (s *UserService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if id.String() == actor.UserID {
		return shared.InvalidState("users cannot delete themselves")
	}
	if _, err := s.users.FindByID(ctx, actor, id); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, actor, id)
}

// ADMIN is always accepted; other codes must name an existing role
func (s *UserService) ensureRole(ctx context.Context, actor shared.Actor, code string) error {
	if strings.EqualFold(code, identity.RoleAdmin) {
		return nil
	}
	exists, err := s.roles.Exists(ctx, actor, shared.Conds{"code": strings.ToUpper(code)}, nil)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NotFound("role", code)
	}
	return nil
}

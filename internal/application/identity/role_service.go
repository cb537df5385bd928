package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	Roles() identity.RoleRepository
	Users() identity.UserRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// RoleService manages roles and their menu grants
type RoleService struct {
	roles  identity.RoleRepository
	users  identity.UserRepository
	tx     TransactionScope
	logger *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(roles identity.RoleRepository, users identity.UserRepository, tx TransactionScope, logger *zap.Logger) *RoleService {
	return &RoleService{roles: roles, users: users, tx: tx, logger: logger}
}

// List returns a page of roles
func (s *RoleService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) ([]identity.Role, int64, error) {
	return s.roles.List(ctx, actor, filter)
}

// GetByCode returns a role with its permissions
func (s *RoleService) GetByCode(ctx context.Context, actor shared.Actor, code string) (*identity.Role, error) {
	role, err := s.roles.FindByCode(ctx, actor, code)
	if err != nil {
		return nil, translateNotFound(err, code)
	}
	return role, nil
}

// Create creates a role and its menu grants in one transaction
func (s *RoleService) Create(ctx context.Context, actor shared.Actor, req CreateRoleRequest) (*identity.Role, error) {
	role, err := identity.NewRole(actor, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.roles, actor, shared.Conds{"code": role.Code}, nil, "code", role.Code); err != nil {
		return nil, err
	}
	role.Description = req.Description
	role.SortOrder = req.SortOrder

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if err := repos.Roles().Create(ctx, role); err != nil {
			return err
		}
		if role.IsAdmin() || len(req.MenuCodes) == 0 {
			return nil
		}
		perms, err := role.BuildPermissions(req.MenuCodes)
		if err != nil {
			return err
		}
		return repos.Roles().ReplacePermissions(ctx, role.ID, perms)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Role created", zap.String("code", role.Code), zap.Int("menus", len(role.Permissions)))
	return role, nil
}

// Update changes the role's name and ordering
func (s *RoleService) Update(ctx context.Context, actor shared.Actor, code string, req UpdateRoleRequest) (*identity.Role, error) {
	role, err := s.GetByCode(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, shared.InvalidInput("role name is required")
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.SortOrder != nil {
		role.SortOrder = *req.SortOrder
	}
	role.Touch(actor.UserID)
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// SetPermissions replaces the menu grants of a role wholesale
func (s *RoleService) SetPermissions(ctx context.Context, actor shared.Actor, code string, menuCodes []string) (*identity.Role, error) {
	var role *identity.Role
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		role, err = repos.Roles().FindByCode(ctx, actor, code)
		if err != nil {
			return translateNotFound(err, code)
		}
		perms, err := role.BuildPermissions(menuCodes)
		if err != nil {
			return err
		}
		if err := repos.Roles().ReplacePermissions(ctx, role.ID, perms); err != nil {
			return err
		}
		role.Touch(actor.UserID)
		return repos.Roles().Save(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Role permissions replaced", zap.String("code", role.Code), zap.Int("menus", len(role.Permissions)))
	return role, nil
}

// Delete soft deletes a role. System roles and roles still assigned to users are kept.
func (s *RoleService) Delete(ctx context.Context, actor shared.Actor, code string) error {
	role, err := s.GetByCode(ctx, actor, code)
	if err != nil {
		return err
	}
	if err := role.CanDelete(); err != nil {
		return err
	}
	inUse, err := s.users.Exists(ctx, actor, shared.Conds{"role_code": role.Code}, nil)
	if err != nil {
		return err
	}
	if inUse {
		return shared.InvalidState("role %s is assigned to users", role.Code)
	}
	return s.tx.Execute(ctx, func(repos Repositories) error {
		if err := repos.Roles().ReplacePermissions(ctx, role.ID, nil); err != nil {
			return err
		}
		return repos.Roles().SoftDelete(ctx, actor, role.ID)
	})
}

func translateNotFound(err error, code string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("role", code)
	}
	return err
}

package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// UserRepository persists users
type UserRepository interface {
	shared.Repository[User]
}

// RoleRepository persists roles and their menu grants
type RoleRepository interface {
	shared.Repository[Role]
	// FindByCode loads a role with its permissions
	FindByCode(ctx context.Context, scope shared.Actor, code string) (*Role, error)
	// ReplacePermissions deletes every grant of roleID and inserts perms
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, perms []RoleMenuPermission) error
}

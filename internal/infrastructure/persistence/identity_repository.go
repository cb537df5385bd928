package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	*GormCrudRepository[identity.User]
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{NewGormCrudRepository[identity.User](db, CrudOptions{
		SearchColumns: []string{"user_code", "user_name", "email"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("user_code", "user_name", "role_code", "last_login_at"),
		DefaultOrder:  "user_code ASC",
	})}
}

// GormRoleRepository implements RoleRepository using GORM
type GormRoleRepository struct {
	*GormCrudRepository[identity.Role]
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{NewGormCrudRepository[identity.Role](db, CrudOptions{
		SearchColumns: []string{"code", "name"},
		SortFields:    sortFields("code", "name", "sort_order"),
		DefaultOrder:  "sort_order ASC, code ASC",
		Preloads:      []string{"Permissions"},
	})}
}

// FindByCode loads a role with its permissions
func (r *GormRoleRepository) FindByCode(ctx context.Context, scope shared.Actor, code string) (*identity.Role, error) {
	return r.FindOne(ctx, scope, shared.Conds{"code": strings.ToUpper(strings.TrimSpace(code))})
}

// ReplacePermissions deletes every grant of roleID and inserts perms
func (r *GormRoleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, perms []identity.RoleMenuPermission) error {
	db := r.Conn(ctx)
	if err := db.Where("role_id = ?", roleID).Delete(&identity.RoleMenuPermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	return db.Create(&perms).Error
}

var (
	_ identity.UserRepository = (*GormUserRepository)(nil)
	_ identity.RoleRepository = (*GormRoleRepository)(nil)
)

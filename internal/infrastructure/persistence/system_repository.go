package persistence

import (
	"context"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/system"
	"github.com/mes/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormSysConfigRepository implements SysConfigRepository using GORM
type GormSysConfigRepository struct {
	*GormCrudRepository[system.SysConfig]
}

// NewGormSysConfigRepository creates a new GormSysConfigRepository
func NewGormSysConfigRepository(db *gorm.DB) *GormSysConfigRepository {
	return &GormSysConfigRepository{NewGormCrudRepository[system.SysConfig](db, CrudOptions{
		SearchColumns: []string{"label", "config_key", "description"},
		StatusColumn:  "is_active",
		SortFields:    sortFields("config_group", "config_key", "sort_order"),
		DefaultOrder:  "config_group ASC, sort_order ASC",
	})}
}

const configOrder = "config_group ASC, sort_order ASC, config_key ASC"

// FindAll returns settings ordered by group then sortOrder, optionally for one group
func (r *GormSysConfigRepository) FindAll(ctx context.Context, scope shared.Actor, group string) ([]system.SysConfig, error) {
	conds := shared.Conds{}
	if group != "" {
		conds["config_group"] = group
	}
	return r.GormCrudRepository.FindAll(ctx, scope, conds, configOrder)
}

// FindActive returns settings with isActive Y
func (r *GormSysConfigRepository) FindActive(ctx context.Context, scope shared.Actor) ([]system.SysConfig, error) {
	return r.GormCrudRepository.FindAll(ctx, scope, shared.Conds{"is_active": shared.Yes}, configOrder)
}

// FindByKey finds a setting by configKey
func (r *GormSysConfigRepository) FindByKey(ctx context.Context, scope shared.Actor, key string) (*system.SysConfig, error) {
	return r.FindOne(ctx, scope, shared.Conds{"config_key": key})
}

// Delete removes a setting permanently
func (r *GormSysConfigRepository) Delete(ctx context.Context, scope shared.Actor, key string) error {
	res := r.Conn(ctx).Unscoped().Scopes(tenant.Scope(scope)).
		Where("config_key = ?", key).
		Delete(&system.SysConfig{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NotFound("sys_config", key)
	}
	return nil
}

var _ system.SysConfigRepository = (*GormSysConfigRepository)(nil)

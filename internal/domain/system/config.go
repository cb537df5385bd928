package system

import (
	"context"
	"strings"

	"github.com/mes/backend/internal/domain/shared"
)

// SysConfig is a tenant-level runtime setting
type SysConfig struct {
	shared.TenantEntity
	ConfigGroup string `gorm:"type:varchar(50);not null;index" json:"configGroup"`
	ConfigKey   string `gorm:"type:varchar(100);not null;index" json:"configKey"`
	ConfigValue string `gorm:"type:varchar(1000)" json:"configValue"`
	ConfigType  string `gorm:"type:varchar(20);not null;default:'STRING'" json:"configType"`
	Label       string `gorm:"type:varchar(200)" json:"label"`
	Description string `gorm:"type:varchar(500)" json:"description,omitempty"`
	Options     string `gorm:"type:varchar(1000)" json:"options,omitempty"`
	SortOrder   int    `gorm:"not null;default:0" json:"sortOrder"`
	IsActive    string `gorm:"type:varchar(1);not null;default:'Y'" json:"isActive"`
}

// TableName returns the table name for GORM
func (SysConfig) TableName() string {
	return "sys_configs"
}

// NewSysConfig creates an active setting
func NewSysConfig(actor shared.Actor, group, key, value string) (*SysConfig, error) {
	group = strings.TrimSpace(group)
	key = strings.TrimSpace(key)
	if group == "" || key == "" {
		return nil, shared.InvalidInput("configGroup and configKey are required")
	}
	return &SysConfig{
		TenantEntity: shared.NewTenantEntity(actor),
		ConfigGroup:  group,
		ConfigKey:    key,
		ConfigValue:  value,
		ConfigType:   "STRING",
		Label:        key,
		IsActive:     shared.Yes,
	}, nil
}

// Matches reports whether the search text appears in the label, key or description
func (c *SysConfig) Matches(search string) bool {
	s := strings.ToLower(strings.TrimSpace(search))
	if s == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Label), s) ||
		strings.Contains(strings.ToLower(c.ConfigKey), s) ||
		strings.Contains(strings.ToLower(c.Description), s)
}

// Grouped maps configGroup to its settings, keeping input order
func Grouped(configs []SysConfig) map[string][]SysConfig {
	out := make(map[string][]SysConfig)
	for _, c := range configs {
		out[c.ConfigGroup] = append(out[c.ConfigGroup], c)
	}
	return out
}

// ValueMap maps configKey to configValue
func ValueMap(configs []SysConfig) map[string]string {
	out := make(map[string]string, len(configs))
	for _, c := range configs {
		out[c.ConfigKey] = c.ConfigValue
	}
	return out
}

// SysConfigRepository persists settings
type SysConfigRepository interface {
	shared.Repository[SysConfig]
	// FindAll returns settings ordered by group then sortOrder, optionally for one group
	FindAll(ctx context.Context, scope shared.Actor, group string) ([]SysConfig, error)
	FindActive(ctx context.Context, scope shared.Actor) ([]SysConfig, error)
	FindByKey(ctx context.Context, scope shared.Actor, key string) (*SysConfig, error)
	// Delete removes a setting permanently
	Delete(ctx context.Context, scope shared.Actor, key string) error
}

package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// Built-in role codes
const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
)

// Role groups users and the menus they may open
type Role struct {
	shared.TenantEntity
	Code        string               `gorm:"type:varchar(50);not null;index" json:"code"`
	Name        string               `gorm:"type:varchar(100);not null" json:"name"`
	Description string               `gorm:"type:varchar(500)" json:"description,omitempty"`
	SortOrder   int                  `gorm:"not null;default:0" json:"sortOrder"`
	IsSystem    bool                 `gorm:"not null;default:false" json:"isSystem"`
	Permissions []RoleMenuPermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
}

// TableName returns the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// RoleMenuPermission grants a role access to one menu
type RoleMenuPermission struct {
	shared.BaseEntity
	RoleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"roleId"`
	RoleCode  string    `gorm:"type:varchar(50);not null;index" json:"roleCode"`
	MenuCode  string    `gorm:"type:varchar(50);not null" json:"menuCode"`
	CanAccess bool      `gorm:"not null;default:true" json:"canAccess"`
}

// TableName returns the table name for GORM
func (RoleMenuPermission) TableName() string {
	return "role_menu_permissions"
}

// NewRole creates a role
func NewRole(actor shared.Actor, code, name string) (*Role, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.InvalidInput("role code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("role name is required")
	}
	return &Role{
		TenantEntity: shared.NewTenantEntity(actor),
		Code:         code,
		Name:         name,
	}, nil
}

// IsAdmin reports whether the role has unrestricted access
func (r *Role) IsAdmin() bool {
	return r.Code == RoleAdmin
}

// CanDelete checks that the role is not built in
func (r *Role) CanDelete() error {
	if r.IsSystem {
		return shared.InvalidState("system role %s cannot be deleted", r.Code)
	}
	return nil
}

// BuildPermissions replaces the menu grants of the role. Duplicate and blank
// menu codes are dropped; ADMIN grants are fixed.
func (r *Role) BuildPermissions(menuCodes []string) ([]RoleMenuPermission, error) {
	if r.IsAdmin() {
		return nil, shared.InvalidState("permissions of the ADMIN role cannot be edited")
	}
	seen := make(map[string]bool, len(menuCodes))
	perms := make([]RoleMenuPermission, 0, len(menuCodes))
	for _, code := range menuCodes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		perms = append(perms, RoleMenuPermission{
			BaseEntity: shared.NewBaseEntity(),
			RoleID:     r.ID,
			RoleCode:   r.Code,
			MenuCode:   code,
			CanAccess:  true,
		})
	}
	r.Permissions = perms
	return perms, nil
}

// MenuCodes returns the menus the role may open
func (r *Role) MenuCodes() []string {
	codes := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if p.CanAccess {
			codes = append(codes, p.MenuCode)
		}
	}
	return codes
}

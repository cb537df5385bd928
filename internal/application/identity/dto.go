package identity

import (
	"time"

	"github.com/mes/backend/internal/domain/identity"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	UserCode string `json:"userCode" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is returned after a successful login.
// AllowedMenus is empty for ADMIN, meaning every menu.
type LoginResult struct {
	Token        string         `json:"token"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
	User         *identity.User `json:"user"`
	AllowedMenus []string       `json:"allowedMenus"`
}

// CurrentUser is the response of GET /auth/me
type CurrentUser struct {
	User         *identity.User `json:"user"`
	AllowedMenus []string       `json:"allowedMenus"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	User *identity.User
	// TokenID and ExpiresAt are set in jwt mode only
	TokenID   string
	ExpiresAt time.Time
}

// CreateUserRequest creates a user
type CreateUserRequest struct {
	UserCode   string `json:"userCode" binding:"required,max=50"`
	UserName   string `json:"userName" binding:"required,max=100"`
	Password   string `json:"password" binding:"required,min=4,max=72"`
	Email      string `json:"email" binding:"omitempty,email,max=200"`
	RoleCode   string `json:"roleCode" binding:"max=50"`
	Department string `json:"department" binding:"max=100"`
	LineCode   string `json:"lineCode" binding:"max=50"`
	UseYn      string `json:"useYn" binding:"omitempty,yn"`
}

// UpdateUserRequest changes a user; nil fields are left alone
type UpdateUserRequest struct {
	UserName   *string `json:"userName" binding:"omitempty,max=100"`
	Password   *string `json:"password" binding:"omitempty,min=4,max=72"`
	Email      *string `json:"email" binding:"omitempty,max=200"`
	RoleCode   *string `json:"roleCode" binding:"omitempty,max=50"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	LineCode   *string `json:"lineCode" binding:"omitempty,max=50"`
	UseYn      *string `json:"useYn" binding:"omitempty,yn"`
}

// CreateRoleRequest creates a role with its menu grants
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,max=50"`
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	SortOrder   int      `json:"sortOrder"`
	MenuCodes   []string `json:"menuCodes"`
}

// UpdateRoleRequest changes a role; nil fields are left alone
type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sortOrder"`
}

// SetPermissionsRequest replaces the menu grants of a role
type SetPermissionsRequest struct {
	MenuCodes []string `json:"menuCodes" binding:"required"`
}

package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/mes/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = bcrypt.DefaultCost

const minPasswordLength = 4

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is an operator or administrator who signs in to the MES
type User struct {
	shared.TenantEntity
	UserCode     string     `gorm:"type:varchar(50);not null;index" json:"userCode"`
	UserName     string     `gorm:"type:varchar(100);not null" json:"userName"`
	Email        string     `gorm:"type:varchar(200);index" json:"email,omitempty"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	RoleCode     string     `gorm:"type:varchar(50);not null;default:'OPERATOR'" json:"roleCode"`
	Department   string     `gorm:"type:varchar(100)" json:"department,omitempty"`
	LineCode     string     `gorm:"type:varchar(50)" json:"lineCode,omitempty"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	UseYn        string     `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user with a hashed password
func NewUser(actor shared.Actor, userCode, userName, password string) (*User, error) {
	userCode = strings.TrimSpace(userCode)
	if userCode == "" {
		return nil, shared.InvalidInput("userCode is required")
	}
	if strings.TrimSpace(userName) == "" {
		return nil, shared.InvalidInput("userName is required")
	}
	u := &User{
		TenantEntity: shared.NewTenantEntity(actor),
		UserCode:     userCode,
		UserName:     userName,
		RoleCode:     RoleOperator,
		UseYn:        shared.Yes,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash
func (u *User) SetPassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.InvalidInput("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetEmail validates and stores the email; empty clears it
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !emailRegex.MatchString(email) {
		return shared.InvalidInput("invalid email format")
	}
	u.Email = email
	return nil
}

// IsActive reports whether the user may sign in
func (u *User) IsActive() bool {
	return u.UseYn == shared.Yes && !u.IsDeleted()
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
}

// Actor returns the user as the actor of their own tenant
func (u *User) Actor() shared.Actor {
	return shared.Actor{UserID: u.ID.String(), Company: u.Company, Plant: u.Plant}
}

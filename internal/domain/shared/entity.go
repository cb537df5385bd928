package shared

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BeforeCreate assigns an ID to rows created without one
func (e *BaseEntity) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TenantEntity is the base for every plant-scoped business record.
// Rows are soft deleted; gorm hides rows with a deleted_at value from all queries.
type TenantEntity struct {
	BaseEntity
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy string         `gorm:"type:varchar(50)" json:"createdBy,omitempty"`
	UpdatedBy string         `gorm:"type:varchar(50)" json:"updatedBy,omitempty"`
	Company   string         `gorm:"type:varchar(20);index" json:"company,omitempty"`
	Plant     string         `gorm:"type:varchar(20);index" json:"plant,omitempty"`
}

// NewTenantEntity creates a tenant entity stamped with the actor's tenant and user
func NewTenantEntity(actor Actor) TenantEntity {
	return TenantEntity{
		BaseEntity: NewBaseEntity(),
		CreatedBy:  actor.UserID,
		UpdatedBy:  actor.UserID,
		Company:    actor.Company,
		Plant:      actor.Plant,
	}
}

// Touch records a modification by the given user
func (e *TenantEntity) Touch(userID string) {
	e.UpdatedAt = time.Now()
	if userID != "" {
		e.UpdatedBy = userID
	}
}

// IsDeleted reports whether the entity has been soft deleted
func (e *TenantEntity) IsDeleted() bool {
	return e.DeletedAt.Valid
}

// Yes/No flag values used by useYn style columns
const (
	Yes = "Y"
	No  = "N"
)

// YNOrDefault returns v when it is a valid flag, otherwise def
func YNOrDefault(v, def string) string {
	if v == Yes || v == No {
		return v
	}
	return def
}

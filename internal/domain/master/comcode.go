package master

import (
	"strings"

	"github.com/mes/backend/internal/domain/shared"
)

// ComCode is one entry of the common code registry. Codes are grouped by
// GroupCode and rendered by the UI as labels and colors for statuses and types.
type ComCode struct {
	shared.TenantEntity
	GroupCode  string `gorm:"type:varchar(50);not null;index" json:"groupCode"`
	DetailCode string `gorm:"type:varchar(50);not null" json:"detailCode"`
	CodeName   string `gorm:"type:varchar(100);not null" json:"codeName"`
	CodeDesc   string `gorm:"type:varchar(500)" json:"codeDesc,omitempty"`
	ParentCode string `gorm:"type:varchar(50)" json:"parentCode,omitempty"`
	SortOrder  int    `gorm:"not null;default:0" json:"sortOrder"`
	UseYn      string `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Attr1      string `gorm:"type:varchar(100)" json:"attr1,omitempty"`
	Attr2      string `gorm:"type:varchar(100)" json:"attr2,omitempty"`
	Attr3      string `gorm:"type:varchar(100)" json:"attr3,omitempty"`
}

// TableName returns the table name for GORM
func (ComCode) TableName() string {
	return "com_codes"
}

// NewComCode creates a code entry
func NewComCode(actor shared.Actor, groupCode, detailCode, codeName string) (*ComCode, error) {
	groupCode = strings.ToUpper(strings.TrimSpace(groupCode))
	detailCode = strings.TrimSpace(detailCode)
	if groupCode == "" || detailCode == "" {
		return nil, shared.InvalidInput("groupCode and detailCode are required")
	}
	if strings.TrimSpace(codeName) == "" {
		return nil, shared.InvalidInput("codeName is required")
	}
	return &ComCode{
		TenantEntity: shared.NewTenantEntity(actor),
		GroupCode:    groupCode,
		DetailCode:   detailCode,
		CodeName:     codeName,
		UseYn:        shared.Yes,
	}, nil
}

// ComCodeGroup summarizes one code group
type ComCodeGroup struct {
	GroupCode string `json:"groupCode"`
	Count     int64  `json:"count"`
}

// EventComCodeChanged is published after a code is created, updated or deleted
const EventComCodeChanged = "master.comcode.changed"

// ComCodeChanged tells subscribers that one code group of a tenant changed
type ComCodeChanged struct {
	shared.BaseDomainEvent
	GroupCode string `json:"groupCode"`
}

// NewComCodeChanged creates the change event for c's group
func NewComCodeChanged(c *ComCode) *ComCodeChanged {
	return &ComCodeChanged{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventComCodeChanged, "ComCode", c.TenantEntity),
		GroupCode:       c.GroupCode,
	}
}

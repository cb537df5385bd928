package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// IssueType is the purpose material leaves the store for
type IssueType string

const (
	IssueProd   IssueType = "PROD"
	IssueSubcon IssueType = "SUBCON"
	IssueSample IssueType = "SAMPLE"
	IssueAdj    IssueType = "ADJ"
)

// IsValid checks if the issue type is known
func (t IssueType) IsValid() bool {
	switch t {
	case IssueProd, IssueSubcon, IssueSample, IssueAdj:
		return true
	}
	return false
}

// IssueStatus is DONE or CANCELED
type IssueStatus string

const (
	IssueDone     IssueStatus = "DONE"
	IssueCanceled IssueStatus = "CANCELED"
)

// MatIssue records material issued from a lot
type MatIssue struct {
	shared.TenantEntity
	IssueNo     string      `gorm:"type:varchar(50);index" json:"issueNo"`
	JobOrderID  *uuid.UUID  `gorm:"type:uuid;index" json:"jobOrderId,omitempty"`
	LotID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"lotId"`
	WarehouseID *uuid.UUID  `gorm:"type:uuid" json:"warehouseId,omitempty"`
	IssueQty    int         `gorm:"not null" json:"issueQty"`
	IssueType   IssueType   `gorm:"type:varchar(10);not null;default:'PROD'" json:"issueType"`
	IssueDate   time.Time   `gorm:"not null;index" json:"issueDate"`
	Status      IssueStatus `gorm:"type:varchar(10);not null;default:'DONE'" json:"status"`
	WorkerID    string      `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	Remark      string      `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Lot         *MatLot     `gorm:"foreignKey:LotID" json:"lot,omitempty"`
}

// TableName returns the table name for GORM
func (MatIssue) TableName() string {
	return "mat_issues"
}

// NewMatIssue creates a completed issue record
func NewMatIssue(actor shared.Actor, lotID uuid.UUID, qty int, issueType IssueType, now time.Time) (*MatIssue, error) {
	if issueType == "" {
		issueType = IssueProd
	}
	if !issueType.IsValid() {
		return nil, shared.InvalidInput("invalid issueType: %s", issueType)
	}
	if qty <= 0 {
		return nil, shared.InvalidInput("issueQty must be positive")
	}
	return &MatIssue{
		TenantEntity: shared.NewTenantEntity(actor),
		LotID:        lotID,
		IssueQty:     qty,
		IssueType:    issueType,
		IssueDate:    now,
		Status:       IssueDone,
		WorkerID:     actor.UserID,
	}, nil
}

// Cancel voids a DONE issue
func (i *MatIssue) Cancel(reason, userID string) error {
	if i.Status != IssueDone {
		return shared.InvalidState("issue is already canceled")
	}
	i.Status = IssueCanceled
	if reason != "" {
		i.Remark = reason
	}
	i.Touch(userID)
	return nil
}

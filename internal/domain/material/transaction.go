package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// TransType is the kind of stock movement
type TransType string

const (
	TransMatIn       TransType = "MAT_IN"
	TransMatInCancel TransType = "MAT_IN_CANCEL"
	TransReceive     TransType = "RECEIVE"
	TransIssue       TransType = "MAT_OUT"
	TransIssueCancel TransType = "MAT_OUT_CANCEL"
)

// TransStatus tells whether a movement stands or was reversed
type TransStatus string

const (
	TransDone     TransStatus = "DONE"
	TransCanceled TransStatus = "CANCELED"
)

// Reference types of a stock movement
const (
	RefPO      = "PO"
	RefManual  = "MANUAL"
	RefCancel  = "CANCEL"
	RefReceive = "RECEIVE"
	RefIssue   = "ISSUE"
)

// MatTransaction is an append-only stock movement record
type MatTransaction struct {
	shared.TenantEntity
	TransNo         string            `gorm:"type:varchar(60);not null;index" json:"transNo"`
	TransType       TransType         `gorm:"type:varchar(20);not null;index" json:"transType"`
	TransDate       time.Time         `gorm:"not null;index" json:"transDate"`
	FromWarehouseID *uuid.UUID        `gorm:"type:uuid" json:"fromWarehouseId,omitempty"`
	ToWarehouseID   *uuid.UUID        `gorm:"type:uuid" json:"toWarehouseId,omitempty"`
	PartID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"partId"`
	LotID           *uuid.UUID        `gorm:"type:uuid;index" json:"lotId,omitempty"`
	Qty             int               `gorm:"not null" json:"qty"`
	Status          TransStatus       `gorm:"type:varchar(10);not null;default:'DONE'" json:"status"`
	RefType         string            `gorm:"type:varchar(20)" json:"refType,omitempty"`
	RefID           *uuid.UUID        `gorm:"type:uuid" json:"refId,omitempty"`
	CancelRefID     *uuid.UUID        `gorm:"type:uuid" json:"cancelRefId,omitempty"`
	WorkerID        string            `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	Remark          string            `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part            *master.Part      `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Lot             *MatLot           `gorm:"foreignKey:LotID" json:"lot,omitempty"`
	ToWarehouse     *master.Warehouse `gorm:"foreignKey:ToWarehouseID" json:"toWarehouse,omitempty"`
}

// TableName returns the table name for GORM
func (MatTransaction) TableName() string {
	return "mat_transactions"
}

// NewMatTransaction records a completed movement
func NewMatTransaction(actor shared.Actor, transNo string, transType TransType, partID uuid.UUID, lotID *uuid.UUID, qty int, now time.Time) *MatTransaction {
	return &MatTransaction{
		TenantEntity: shared.NewTenantEntity(actor),
		TransNo:      transNo,
		TransType:    transType,
		TransDate:    now,
		PartID:       partID,
		LotID:        lotID,
		Qty:          qty,
		Status:       TransDone,
		WorkerID:     actor.UserID,
	}
}

// CancelArrival marks an arrival canceled and returns the reversing movement.
// Only standing MAT_IN movements can be reversed.
func (t *MatTransaction) CancelArrival(actor shared.Actor, reason string, now time.Time) (*MatTransaction, error) {
	if t.Status == TransCanceled {
		return nil, shared.InvalidState("transaction %s is already canceled", t.TransNo)
	}
	if t.TransType != TransMatIn {
		return nil, shared.InvalidState("only MAT_IN transactions can be canceled (got %s)", t.TransType)
	}
	t.Status = TransCanceled
	t.Touch(actor.UserID)

	reverse := NewMatTransaction(actor, t.TransNo+"-C", TransMatInCancel, t.PartID, t.LotID, -t.Qty, now)
	reverse.FromWarehouseID = t.ToWarehouseID
	reverse.RefType = RefCancel
	id := t.ID
	reverse.CancelRefID = &id
	reverse.Remark = reason
	return reverse, nil
}

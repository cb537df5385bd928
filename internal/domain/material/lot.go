package material

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// LotStatus is the usability state of a lot
type LotStatus string

const (
	LotStatusNormal   LotStatus = "NORMAL"
	LotStatusHold     LotStatus = "HOLD"
	LotStatusDepleted LotStatus = "DEPLETED"
)

// IqcStatus is the incoming inspection verdict of a lot
type IqcStatus string

const (
	IqcPending IqcStatus = "PENDING"
	IqcPass    IqcStatus = "PASS"
	IqcFail    IqcStatus = "FAIL"
	IqcHold    IqcStatus = "HOLD"
)

// IsValid checks if the IQC status is known
func (s IqcStatus) IsValid() bool {
	switch s {
	case IqcPending, IqcPass, IqcFail, IqcHold:
		return true
	}
	return false
}

// MatLot is a traceable quantity of one material received together
type MatLot struct {
	shared.TenantEntity
	LotNo       string       `gorm:"type:varchar(50);not null;index" json:"lotNo"`
	PartID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"partId"`
	PartType    string       `gorm:"type:varchar(10);not null;default:'RAW'" json:"partType"`
	InitQty     int          `gorm:"not null" json:"initQty"`
	CurrentQty  int          `gorm:"not null" json:"currentQty"`
	RecvDate    time.Time    `gorm:"not null" json:"recvDate"`
	PoNo        string       `gorm:"type:varchar(50)" json:"poNo,omitempty"`
	Vendor      string       `gorm:"type:varchar(200)" json:"vendor,omitempty"`
	ParentLotNo string       `gorm:"type:varchar(50)" json:"parentLotNo,omitempty"`
	SupUID      string       `gorm:"column:sup_uid;type:varchar(100)" json:"supUid,omitempty"`
	Status      LotStatus    `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"status"`
	IqcStatus   IqcStatus    `gorm:"type:varchar(10);not null;default:'PENDING'" json:"iqcStatus"`
	Part        *master.Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (MatLot) TableName() string {
	return "mat_lots"
}

// NewMatLot creates a lot awaiting incoming inspection
func NewMatLot(actor shared.Actor, lotNo string, partID uuid.UUID, qty int, now time.Time) (*MatLot, error) {
	lotNo = strings.TrimSpace(lotNo)
	if lotNo == "" {
		return nil, shared.InvalidInput("lotNo is required")
	}
	if qty <= 0 {
		return nil, shared.InvalidInput("lot quantity must be positive")
	}
	return &MatLot{
		TenantEntity: shared.NewTenantEntity(actor),
		LotNo:        lotNo,
		PartID:       partID,
		PartType:     string(master.PartTypeRaw),
		InitQty:      qty,
		CurrentQty:   qty,
		RecvDate:     now,
		Status:       LotStatusNormal,
		IqcStatus:    IqcPending,
	}, nil
}

// Consume takes qty out of the lot for issue. The lot must have passed IQC.
func (l *MatLot) Consume(qty int) error {
	if qty <= 0 {
		return shared.InvalidInput("issue quantity must be positive")
	}
	if l.IqcStatus != IqcPass {
		return shared.InvalidState("lot %s has not passed IQC", l.LotNo)
	}
	if l.CurrentQty < qty {
		return shared.InsufficientStock("lot %s has %d, requested %d", l.LotNo, l.CurrentQty, qty)
	}
	l.CurrentQty -= qty
	if l.CurrentQty == 0 {
		l.Status = LotStatusDepleted
	}
	return nil
}

// Reduce lowers the quantity, clamping at zero, as when an arrival is reversed
func (l *MatLot) Reduce(qty int) {
	l.CurrentQty -= qty
	if l.CurrentQty <= 0 {
		l.CurrentQty = 0
		l.Status = LotStatusDepleted
	}
}

// Restore puts qty back after a canceled issue and makes the lot usable again
func (l *MatLot) Restore(qty int) {
	l.CurrentQty += qty
	l.Status = LotStatusNormal
}

// UpdateIqc records the incoming inspection verdict
func (l *MatLot) UpdateIqc(status IqcStatus, userID string) error {
	if !status.IsValid() {
		return shared.InvalidInput("invalid iqcStatus: %s", status)
	}
	l.IqcStatus = status
	l.Touch(userID)
	return nil
}

// Hold blocks the lot from use
func (l *MatLot) Hold(userID string) error {
	if l.Status == LotStatusHold {
		return shared.InvalidState("lot %s is already on hold", l.LotNo)
	}
	if l.Status == LotStatusDepleted {
		return shared.InvalidState("lot %s is depleted", l.LotNo)
	}
	l.Status = LotStatusHold
	l.Touch(userID)
	return nil
}

// Release lifts a hold
func (l *MatLot) Release(userID string) error {
	if l.Status != LotStatusHold {
		return shared.InvalidState("lot %s is not on hold", l.LotNo)
	}
	l.Status = LotStatusNormal
	l.Touch(userID)
	return nil
}

package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// ReturnStatus is the state of a customer return
type ReturnStatus string

const (
	ReturnDraft     ReturnStatus = "DRAFT"
	ReturnConfirmed ReturnStatus = "CONFIRMED"
	ReturnCompleted ReturnStatus = "COMPLETED"
)

// Disposal decides what happens to returned goods
const (
	DisposalRestock = "RESTOCK"
	DisposalScrap   = "SCRAP"
	DisposalRepair  = "REPAIR"
)

// ReturnPrefix prefixes return numbers: RT-YYYYMMDD-NNN
const ReturnPrefix = "RT"

// ShipReturn is goods sent back by a customer, optionally against a shipment
type ShipReturn struct {
	shared.TenantEntity
	ReturnNo     string           `gorm:"type:varchar(50);not null;index" json:"returnNo"`
	ShipmentID   *uuid.UUID       `gorm:"type:uuid;index" json:"shipmentId,omitempty"`
	ReturnDate   time.Time        `gorm:"not null;index" json:"returnDate"`
	ReturnReason string           `gorm:"type:varchar(500)" json:"returnReason,omitempty"`
	Status       ReturnStatus     `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`
	ItemCount    int              `gorm:"not null;default:0" json:"itemCount"`
	TotalQty     int              `gorm:"not null;default:0" json:"totalQty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	Remark       string           `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Items        []ShipReturnItem `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
	Shipment     *Shipment        `gorm:"foreignKey:ShipmentID" json:"shipment,omitempty"`
}

// TableName returns the table name for GORM
func (ShipReturn) TableName() string {
	return "ship_returns"
}

// ShipReturnItem is one returned part line
type ShipReturnItem struct {
	shared.BaseEntity
	ReturnID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"returnId"`
	PartID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"partId"`
	ReturnQty    int          `gorm:"not null" json:"returnQty"`
	DisposalType string       `gorm:"type:varchar(10);not null;default:'RESTOCK'" json:"disposalType"`
	Remark       string       `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part         *master.Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (ShipReturnItem) TableName() string {
	return "ship_return_items"
}

// NewShipReturn creates a DRAFT return dated returnDate (today when zero)
func NewShipReturn(actor shared.Actor, returnNo string, returnDate time.Time) (*ShipReturn, error) {
	returnNo = strings.TrimSpace(returnNo)
	if returnNo == "" {
		return nil, shared.InvalidInput("returnNo is required")
	}
	if returnDate.IsZero() {
		returnDate = time.Now()
	}
	return &ShipReturn{
		TenantEntity: shared.NewTenantEntity(actor),
		ReturnNo:     returnNo,
		ReturnDate:   returnDate,
		Status:       ReturnDraft,
	}, nil
}

// NewReturnItem builds a validated item line; disposal defaults to RESTOCK
func NewReturnItem(partID uuid.UUID, qty int, disposal string) (ShipReturnItem, error) {
	if partID == uuid.Nil {
		return ShipReturnItem{}, shared.InvalidInput("partId is required")
	}
	if qty <= 0 {
		return ShipReturnItem{}, shared.InvalidInput("returnQty must be positive")
	}
	disposal = strings.ToUpper(strings.TrimSpace(disposal))
	if disposal == "" {
		disposal = DisposalRestock
	}
	switch disposal {
	case DisposalRestock, DisposalScrap, DisposalRepair:
	default:
		return ShipReturnItem{}, shared.InvalidInput("invalid disposalType: %s", disposal)
	}
	return ShipReturnItem{
		BaseEntity:   shared.NewBaseEntity(),
		PartID:       partID,
		ReturnQty:    qty,
		DisposalType: disposal,
	}, nil
}

// CanEdit checks that the return is still a draft
func (r *ShipReturn) CanEdit() error {
	if r.Status != ReturnDraft {
		return shared.InvalidState("return %s is %s, only DRAFT returns can be changed", r.ReturnNo, r.Status)
	}
	return nil
}

// SetItems replaces the item lines and recounts the totals
func (r *ShipReturn) SetItems(items []ShipReturnItem) {
	r.ItemCount = len(items)
	r.TotalQty = 0
	for i := range items {
		items[i].ReturnID = r.ID
		r.TotalQty += items[i].ReturnQty
	}
	r.Items = items
}

// Confirm moves DRAFT to CONFIRMED; a return needs at least one item
func (r *ShipReturn) Confirm(userID string) error {
	if err := r.CanEdit(); err != nil {
		return err
	}
	if r.ItemCount == 0 {
		return shared.InvalidState("return %s has no items", r.ReturnNo)
	}
	r.Status = ReturnConfirmed
	r.Touch(userID)
	return nil
}

// Complete moves CONFIRMED to COMPLETED once the goods are disposed of
func (r *ShipReturn) Complete(userID string, at time.Time) error {
	if r.Status != ReturnConfirmed {
		return shared.InvalidState("cannot complete return in status %s, must be CONFIRMED", r.Status)
	}
	r.Status = ReturnCompleted
	r.CompletedAt = &at
	r.Touch(userID)
	return nil
}

// QtyByDisposal totals the returned qty per disposal type
func (r *ShipReturn) QtyByDisposal() map[string]int {
	out := make(map[string]int, 3)
	for _, item := range r.Items {
		out[item.DisposalType] += item.ReturnQty
	}
	return out
}

// ReturnStatusCount is the number of returns in one status
type ReturnStatusCount struct {
	Status   ReturnStatus `json:"status"`
	Count    int64        `json:"count"`
	TotalQty int64        `json:"totalQty"`
}

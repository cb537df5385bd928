package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// PalletStatus is the state of a pallet
type PalletStatus string

const (
	PalletOpen    PalletStatus = "OPEN"
	PalletClosed  PalletStatus = "CLOSED"
	PalletLoaded  PalletStatus = "LOADED"
	PalletShipped PalletStatus = "SHIPPED"
)

// Pallet groups closed boxes for loading
type Pallet struct {
	shared.TenantEntity
	PalletNo   string       `gorm:"type:varchar(50);not null;index" json:"palletNo"`
	BoxCount   int          `gorm:"not null;default:0" json:"boxCount"`
	TotalQty   int          `gorm:"not null;default:0" json:"totalQty"`
	Status     PalletStatus `gorm:"type:varchar(10);not null;default:'OPEN';index" json:"status"`
	ShipmentID *uuid.UUID   `gorm:"type:uuid;index" json:"shipmentId,omitempty"`
	CloseAt    *time.Time   `json:"closeAt,omitempty"`
	Remark     string       `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Boxes      []Box        `gorm:"foreignKey:PalletID" json:"boxes,omitempty"`
}

// TableName returns the table name for GORM
func (Pallet) TableName() string {
	return "pallets"
}

// NewPallet opens an empty pallet
func NewPallet(actor shared.Actor, palletNo string) (*Pallet, error) {
	palletNo = strings.TrimSpace(palletNo)
	if palletNo == "" {
		return nil, shared.InvalidInput("palletNo is required")
	}
	return &Pallet{
		TenantEntity: shared.NewTenantEntity(actor),
		PalletNo:     palletNo,
		Status:       PalletOpen,
	}, nil
}

// AddBoxes assigns CLOSED unassigned boxes to an OPEN pallet
func (p *Pallet) AddBoxes(boxes []*Box) error {
	if p.Status != PalletOpen {
		return shared.InvalidState("cannot add boxes to pallet in status %s, must be OPEN", p.Status)
	}
	for _, b := range boxes {
		if b.Status != BoxClosed {
			return shared.InvalidState("box %s is %s, must be CLOSED", b.BoxNo, b.Status)
		}
		if b.PalletID != nil && *b.PalletID != p.ID {
			return shared.InvalidState("box %s is already on another pallet", b.BoxNo)
		}
	}
	id := p.ID
	for _, b := range boxes {
		b.PalletID = &id
	}
	return nil
}

// RemoveBoxes detaches boxes from an OPEN pallet
func (p *Pallet) RemoveBoxes(boxes []*Box) error {
	if p.Status != PalletOpen {
		return shared.InvalidState("cannot remove boxes from pallet in status %s, must be OPEN", p.Status)
	}
	for _, b := range boxes {
		if b.PalletID == nil || *b.PalletID != p.ID {
			return shared.InvalidState("box %s is not on pallet %s", b.BoxNo, p.PalletNo)
		}
	}
	for _, b := range boxes {
		b.PalletID = nil
	}
	return nil
}

// Recount sets boxCount and totalQty from the boxes on the pallet
func (p *Pallet) Recount(boxes []Box) {
	p.BoxCount = len(boxes)
	p.TotalQty = 0
	for _, b := range boxes {
		p.TotalQty += b.Qty
	}
}

// Close seals an OPEN pallet that holds boxes
func (p *Pallet) Close(now time.Time, userID string) error {
	if p.Status != PalletOpen {
		return shared.InvalidState("cannot close pallet in status %s, must be OPEN", p.Status)
	}
	if p.BoxCount <= 0 {
		return shared.InvalidState("cannot close an empty pallet")
	}
	p.Status = PalletClosed
	p.CloseAt = &now
	p.Touch(userID)
	return nil
}

// Reopen opens a CLOSED pallet that is not on a shipment
func (p *Pallet) Reopen(userID string) error {
	if p.Status != PalletClosed {
		return shared.InvalidState("cannot reopen pallet in status %s, must be CLOSED", p.Status)
	}
	if p.ShipmentID != nil {
		return shared.InvalidState("pallet %s is assigned to a shipment", p.PalletNo)
	}
	p.Status = PalletOpen
	p.CloseAt = nil
	p.Touch(userID)
	return nil
}

// CanDelete checks that the pallet is empty and not shipped
func (p *Pallet) CanDelete() error {
	if p.Status == PalletShipped || p.ShipmentID != nil {
		return shared.InvalidState("pallet %s is assigned to a shipment", p.PalletNo)
	}
	if p.BoxCount > 0 {
		return shared.InvalidState("pallet %s still holds boxes", p.PalletNo)
	}
	return nil
}

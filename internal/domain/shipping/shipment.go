package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// ShipmentStatus is the state of an outbound shipment
type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "PREPARING"
	ShipmentLoaded    ShipmentStatus = "LOADED"
	ShipmentShipped   ShipmentStatus = "SHIPPED"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
	ShipmentCanceled  ShipmentStatus = "CANCELED"
)

// Shipment is a truck load of pallets bound for a customer
type Shipment struct {
	shared.TenantEntity
	ShipNo       string         `gorm:"type:varchar(50);not null;index" json:"shipNo"`
	ShipDate     *time.Time     `gorm:"index" json:"shipDate,omitempty"`
	CustomerID   *uuid.UUID     `gorm:"type:uuid" json:"customerId,omitempty"`
	CustomerName string         `gorm:"type:varchar(200)" json:"customerName,omitempty"`
	Destination  string         `gorm:"type:varchar(500)" json:"destination,omitempty"`
	VehicleNo    string         `gorm:"type:varchar(50)" json:"vehicleNo,omitempty"`
	DriverName   string         `gorm:"type:varchar(100)" json:"driverName,omitempty"`
	PalletCount  int            `gorm:"not null;default:0" json:"palletCount"`
	BoxCount     int            `gorm:"not null;default:0" json:"boxCount"`
	TotalQty     int            `gorm:"not null;default:0" json:"totalQty"`
	Status       ShipmentStatus `gorm:"type:varchar(10);not null;default:'PREPARING';index" json:"status"`
	ShipAt       *time.Time     `json:"shipAt,omitempty"`
	DeliveredAt  *time.Time     `json:"deliveredAt,omitempty"`
	ErpSyncYn    string         `gorm:"type:varchar(1);not null;default:'N'" json:"erpSyncYn"`
	Remark       string         `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Pallets      []Pallet       `gorm:"foreignKey:ShipmentID" json:"pallets,omitempty"`
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a shipment in PREPARING state
func NewShipment(actor shared.Actor, shipNo string) (*Shipment, error) {
	shipNo = strings.TrimSpace(shipNo)
	if shipNo == "" {
		return nil, shared.InvalidInput("shipNo is required")
	}
	return &Shipment{
		TenantEntity: shared.NewTenantEntity(actor),
		ShipNo:       shipNo,
		Status:       ShipmentPreparing,
		ErpSyncYn:    shared.No,
	}, nil
}

// IsFinal reports whether the shipment left the plant
func (s *Shipment) IsFinal() bool {
	return s.Status == ShipmentShipped || s.Status == ShipmentDelivered
}

// CanModify checks that the shipment has not left
func (s *Shipment) CanModify() error {
	if s.IsFinal() {
		return shared.InvalidState("shipment %s is %s and cannot be modified", s.ShipNo, s.Status)
	}
	return nil
}

// CanDelete checks that the shipment has not left and carries no pallets
func (s *Shipment) CanDelete() error {
	if err := s.CanModify(); err != nil {
		return err
	}
	if s.PalletCount > 0 {
		return shared.InvalidState("shipment %s still has pallets, unload them first", s.ShipNo)
	}
	return nil
}

// LoadPallets assigns CLOSED unassigned pallets; each becomes LOADED
func (s *Shipment) LoadPallets(pallets []*Pallet) error {
	if s.Status != ShipmentPreparing {
		return shared.InvalidState("cannot load pallets in status %s, must be PREPARING", s.Status)
	}
	for _, p := range pallets {
		if p.Status != PalletClosed {
			return shared.InvalidState("pallet %s is %s, must be CLOSED", p.PalletNo, p.Status)
		}
		if p.ShipmentID != nil && *p.ShipmentID != s.ID {
			return shared.InvalidState("pallet %s is already on another shipment", p.PalletNo)
		}
	}
	id := s.ID
	for _, p := range pallets {
		p.ShipmentID = &id
		p.Status = PalletLoaded
	}
	return nil
}

// UnloadPallets returns pallets to CLOSED and detaches them
func (s *Shipment) UnloadPallets(pallets []*Pallet) error {
	if s.Status != ShipmentPreparing {
		return shared.InvalidState("cannot unload pallets in status %s, must be PREPARING", s.Status)
	}
	for _, p := range pallets {
		if p.ShipmentID == nil || *p.ShipmentID != s.ID {
			return shared.NotFound("pallet on shipment", p.PalletNo)
		}
	}
	for _, p := range pallets {
		p.ShipmentID = nil
		p.Status = PalletClosed
	}
	return nil
}

// Recount totals the pallets on the shipment
func (s *Shipment) Recount(pallets []Pallet) {
	s.PalletCount = len(pallets)
	s.BoxCount = 0
	s.TotalQty = 0
	for _, p := range pallets {
		s.BoxCount += p.BoxCount
		s.TotalQty += p.TotalQty
	}
}

// MarkLoaded closes loading of a PREPARING shipment that has pallets
func (s *Shipment) MarkLoaded(userID string) error {
	if s.Status != ShipmentPreparing {
		return shared.InvalidState("cannot mark loaded in status %s, must be PREPARING", s.Status)
	}
	if s.PalletCount <= 0 {
		return shared.InvalidState("shipment %s has no pallets", s.ShipNo)
	}
	s.Status = ShipmentLoaded
	s.Touch(userID)
	return nil
}

// Ship dispatches a LOADED shipment. Boxes whose OQC failed or is pending block it.
func (s *Shipment) Ship(boxes []Box, now time.Time, userID string) error {
	if s.Status != ShipmentLoaded {
		return shared.InvalidState("cannot ship in status %s, must be LOADED", s.Status)
	}
	var blocked []string
	for _, b := range boxes {
		if b.OqcBlocksShipping() {
			blocked = append(blocked, b.BoxNo+"("+*b.OqcStatus+")")
		}
	}
	if len(blocked) > 0 {
		return shared.InvalidState("boxes without OQC pass: %s", strings.Join(blocked, ", "))
	}
	s.Status = ShipmentShipped
	s.ShipAt = &now
	if s.ShipDate == nil {
		s.ShipDate = &now
	}
	s.Touch(userID)
	return nil
}

// MarkDelivered confirms arrival at the customer
func (s *Shipment) MarkDelivered(now time.Time, userID string) error {
	if s.Status != ShipmentShipped {
		return shared.InvalidState("cannot mark delivered in status %s, must be SHIPPED", s.Status)
	}
	s.Status = ShipmentDelivered
	s.DeliveredAt = &now
	s.Touch(userID)
	return nil
}

// Cancel voids a PREPARING or LOADED shipment; pallets return to CLOSED
func (s *Shipment) Cancel(pallets []*Pallet, remark, userID string) error {
	if s.Status != ShipmentPreparing && s.Status != ShipmentLoaded {
		return shared.InvalidState("cannot cancel shipment in status %s, must be PREPARING or LOADED", s.Status)
	}
	for _, p := range pallets {
		p.ShipmentID = nil
		p.Status = PalletClosed
	}
	s.Status = ShipmentCanceled
	s.PalletCount = 0
	s.BoxCount = 0
	s.TotalQty = 0
	if remark != "" {
		s.Remark = remark
	}
	s.Touch(userID)
	return nil
}

// ForceStatus sets any known status; used by administrators to repair data
func (s *Shipment) ForceStatus(status ShipmentStatus, userID string) error {
	switch status {
	case ShipmentPreparing, ShipmentLoaded, ShipmentShipped, ShipmentDelivered, ShipmentCanceled:
	default:
		return shared.InvalidInput("invalid shipment status: %s", status)
	}
	s.Status = status
	s.Touch(userID)
	return nil
}

// MarkSynced flags the shipment as sent to the ERP
func (s *Shipment) MarkSynced(userID string) {
	s.ErpSyncYn = shared.Yes
	s.Touch(userID)
}

// ShipmentStats totals shipped and delivered shipments in a period
type ShipmentStats struct {
	ShipmentCount int64 `json:"shipmentCount"`
	PalletCount   int64 `json:"palletCount"`
	BoxCount      int64 `json:"boxCount"`
	TotalQty      int64 `json:"totalQty"`
}

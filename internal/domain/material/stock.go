package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// MatStock is the on-hand quantity of one (warehouse, part, lot) key
type MatStock struct {
	shared.TenantEntity
	WarehouseID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"warehouseId"`
	PartID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"partId"`
	LotID        *uuid.UUID        `gorm:"type:uuid;index" json:"lotId,omitempty"`
	Qty          int               `gorm:"not null;default:0" json:"qty"`
	ReservedQty  int               `gorm:"not null;default:0" json:"reservedQty"`
	AvailableQty int               `gorm:"not null;default:0" json:"availableQty"`
	LastTransAt  *time.Time        `json:"lastTransAt,omitempty"`
	Warehouse    *master.Warehouse `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Part         *master.Part      `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Lot          *MatLot           `gorm:"foreignKey:LotID" json:"lot,omitempty"`
}

// TableName returns the table name for GORM
func (MatStock) TableName() string {
	return "mat_stocks"
}

// NewMatStock opens a stock row with an initial positive quantity
func NewMatStock(actor shared.Actor, warehouseID, partID uuid.UUID, lotID *uuid.UUID, qty int, now time.Time) *MatStock {
	return &MatStock{
		TenantEntity: shared.NewTenantEntity(actor),
		WarehouseID:  warehouseID,
		PartID:       partID,
		LotID:        lotID,
		Qty:          qty,
		AvailableQty: qty,
		LastTransAt:  &now,
	}
}

// ApplyDelta adds delta to the quantity. Neither qty nor availableQty go below zero.
func (s *MatStock) ApplyDelta(delta int, now time.Time) {
	s.Qty = max(0, s.Qty+delta)
	s.AvailableQty = max(0, s.Qty-s.ReservedQty)
	s.LastTransAt = &now
}

// StockSummary totals stock of one part across warehouses and lots
type StockSummary struct {
	PartID       uuid.UUID `json:"partId"`
	PartCode     string    `json:"partCode"`
	PartName     string    `json:"partName"`
	Unit         string    `json:"unit"`
	SafetyStock  int       `json:"safetyStock"`
	TotalQty     int64     `json:"totalQty"`
	AvailableQty int64     `json:"availableQty"`
	ReservedQty  int64     `json:"reservedQty"`
	LotCount     int64     `json:"lotCount"`
}

// BelowSafety reports whether the part is short of its safety stock
func (s StockSummary) BelowSafety() bool {
	return s.SafetyStock > 0 && s.AvailableQty < int64(s.SafetyStock)
}

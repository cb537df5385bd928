package master

import (
	"strings"

	"github.com/mes/backend/internal/domain/shared"
)

// PartnerType tells whether a partner supplies, buys or both
type PartnerType string

const (
	PartnerVendor   PartnerType = "VENDOR"
	PartnerCustomer PartnerType = "CUSTOMER"
	PartnerBoth     PartnerType = "BOTH"
)

// IsValid checks if the partner type is known
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerVendor, PartnerCustomer, PartnerBoth:
		return true
	}
	return false
}

// Partner is a vendor or customer
type Partner struct {
	shared.TenantEntity
	PartnerCode   string      `gorm:"type:varchar(50);not null;index" json:"partnerCode"`
	PartnerName   string      `gorm:"type:varchar(200);not null" json:"partnerName"`
	PartnerType   PartnerType `gorm:"type:varchar(10);not null" json:"partnerType"`
	BizNo         string      `gorm:"type:varchar(50)" json:"bizNo,omitempty"`
	CeoName       string      `gorm:"type:varchar(100)" json:"ceoName,omitempty"`
	Address       string      `gorm:"type:varchar(500)" json:"address,omitempty"`
	Tel           string      `gorm:"type:varchar(50)" json:"tel,omitempty"`
	Email         string      `gorm:"type:varchar(200)" json:"email,omitempty"`
	ContactPerson string      `gorm:"type:varchar(100)" json:"contactPerson,omitempty"`
	UseYn         string      `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark        string      `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewPartner creates a partner
func NewPartner(actor shared.Actor, code, name string, partnerType PartnerType) (*Partner, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.InvalidInput("partnerCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("partnerName is required")
	}
	if !partnerType.IsValid() {
		return nil, shared.InvalidInput("invalid partnerType: %s", partnerType)
	}
	return &Partner{
		TenantEntity: shared.NewTenantEntity(actor),
		PartnerCode:  code,
		PartnerName:  name,
		PartnerType:  partnerType,
		UseYn:        shared.Yes,
	}, nil
}

// WarehouseType is the role a warehouse plays on the floor
type WarehouseType string

const (
	WarehouseRaw    WarehouseType = "RAW"
	WarehouseWIP    WarehouseType = "WIP"
	WarehouseFG     WarehouseType = "FG"
	WarehouseFloor  WarehouseType = "FLOOR"
	WarehouseDefect WarehouseType = "DEFECT"
	WarehouseScrap  WarehouseType = "SCRAP"
	WarehouseSubcon WarehouseType = "SUBCON"
)

// IsValid checks if the warehouse type is known
func (t WarehouseType) IsValid() bool {
	switch t {
	case WarehouseRaw, WarehouseWIP, WarehouseFG, WarehouseFloor, WarehouseDefect, WarehouseScrap, WarehouseSubcon:
		return true
	}
	return false
}

// Warehouse is a storage location
type Warehouse struct {
	shared.TenantEntity
	WarehouseCode string        `gorm:"type:varchar(50);not null;index" json:"warehouseCode"`
	WarehouseName string        `gorm:"type:varchar(100);not null" json:"warehouseName"`
	WarehouseType WarehouseType `gorm:"type:varchar(10);not null" json:"warehouseType"`
	LineCode      string        `gorm:"type:varchar(50)" json:"lineCode,omitempty"`
	IsDefault     string        `gorm:"type:varchar(1);not null;default:'N'" json:"isDefault"`
	UseYn         string        `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark        string        `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a warehouse
func NewWarehouse(actor shared.Actor, code, name string, warehouseType WarehouseType) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.InvalidInput("warehouseCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("warehouseName is required")
	}
	if !warehouseType.IsValid() {
		return nil, shared.InvalidInput("invalid warehouseType: %s", warehouseType)
	}
	return &Warehouse{
		TenantEntity:  shared.NewTenantEntity(actor),
		WarehouseCode: code,
		WarehouseName: name,
		WarehouseType: warehouseType,
		IsDefault:     shared.No,
		UseYn:         shared.Yes,
	}, nil
}

package master

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PartType classifies a part
type PartType string

const (
	PartTypeRaw PartType = "RAW"
	PartTypeWIP PartType = "WIP"
	PartTypeFG  PartType = "FG"
)

// IsValid checks if the part type is known
func (t PartType) IsValid() bool {
	switch t {
	case PartTypeRaw, PartTypeWIP, PartTypeFG:
		return true
	}
	return false
}

// Part is an item master row: raw material, semi-finished or finished harness
type Part struct {
	shared.TenantEntity
	PartCode    string   `gorm:"type:varchar(50);not null;index" json:"partCode"`
	PartName    string   `gorm:"type:varchar(200);not null" json:"partName"`
	PartType    PartType `gorm:"type:varchar(10);not null" json:"partType"`
	Unit        string   `gorm:"type:varchar(10);not null;default:'EA'" json:"unit"`
	Spec        string   `gorm:"type:varchar(500)" json:"spec,omitempty"`
	SafetyStock int      `gorm:"not null;default:0" json:"safetyStock"`
	UseYn       string   `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark      string   `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Part) TableName() string {
	return "parts"
}

// NewPart creates a part
func NewPart(actor shared.Actor, code, name string, partType PartType) (*Part, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.InvalidInput("partCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("partName is required")
	}
	if !partType.IsValid() {
		return nil, shared.InvalidInput("invalid partType: %s", partType)
	}
	return &Part{
		TenantEntity: shared.NewTenantEntity(actor),
		PartCode:     code,
		PartName:     name,
		PartType:     partType,
		Unit:         "EA",
		UseYn:        shared.Yes,
	}, nil
}

// DefaultRevision is used when a BOM line is created without a revision
const DefaultRevision = "A"

// Bom is one parent/child line of a bill of materials
type Bom struct {
	shared.TenantEntity
	ParentPartID uuid.UUID       `gorm:"type:uuid;not null;index" json:"parentPartId"`
	ChildPartID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"childPartId"`
	QtyPer       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"qtyPer"`
	Revision     string          `gorm:"type:varchar(10);not null;default:'A'" json:"revision"`
	EcoNo        string          `gorm:"type:varchar(50)" json:"ecoNo,omitempty"`
	ValidFrom    *time.Time      `json:"validFrom,omitempty"`
	ValidTo      *time.Time      `json:"validTo,omitempty"`
	UseYn        string          `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark       string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	ParentPart   *Part           `gorm:"foreignKey:ParentPartID" json:"parentPart,omitempty"`
	ChildPart    *Part           `gorm:"foreignKey:ChildPartID" json:"childPart,omitempty"`
}

// TableName returns the table name for GORM
func (Bom) TableName() string {
	return "boms"
}

// NewBom creates a BOM line. A part cannot be its own component.
func NewBom(actor shared.Actor, parentID, childID uuid.UUID, qtyPer decimal.Decimal, revision string) (*Bom, error) {
	if parentID == childID {
		return nil, shared.NewDomainError(shared.ErrConflict.Code, "parent part and child part cannot be the same")
	}
	if !qtyPer.IsPositive() {
		return nil, shared.InvalidInput("qtyPer must be positive")
	}
	if revision == "" {
		revision = DefaultRevision
	}
	return &Bom{
		TenantEntity: shared.NewTenantEntity(actor),
		ParentPartID: parentID,
		ChildPartID:  childID,
		QtyPer:       qtyPer,
		Revision:     revision,
		UseYn:        shared.Yes,
	}, nil
}

// BomNode is a BOM line with its own children, used for hierarchy views
type BomNode struct {
	Bom
	Children []BomNode `json:"children"`
}

// DefaultBomDepth is the hierarchy depth used when none is requested
const DefaultBomDepth = 3

// ProcessType is the kind of work a routing step performs
type ProcessType string

const (
	ProcessCutting    ProcessType = "CUTTING"
	ProcessCrimping   ProcessType = "CRIMPING"
	ProcessAssembly   ProcessType = "ASSEMBLY"
	ProcessInspection ProcessType = "INSPECTION"
	ProcessPacking    ProcessType = "PACKING"
)

// IsValid checks if the process type is known
func (t ProcessType) IsValid() bool {
	switch t {
	case ProcessCutting, ProcessCrimping, ProcessAssembly, ProcessInspection, ProcessPacking:
		return true
	}
	return false
}

// Routing is one ordered process step of a part
type Routing struct {
	shared.TenantEntity
	PartID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"partId"`
	Seq         int             `gorm:"not null" json:"seq"`
	ProcessCode string          `gorm:"type:varchar(50);not null" json:"processCode"`
	ProcessName string          `gorm:"type:varchar(100)" json:"processName"`
	ProcessType ProcessType     `gorm:"type:varchar(20);not null" json:"processType"`
	EquipType   string          `gorm:"type:varchar(50)" json:"equipType,omitempty"`
	StdTime     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"stdTime"`
	UseYn       string          `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark      string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part        *Part           `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (Routing) TableName() string {
	return "routings"
}

// NewRouting creates a routing step
func NewRouting(actor shared.Actor, partID uuid.UUID, seq int, processCode string, processType ProcessType) (*Routing, error) {
	if seq <= 0 {
		return nil, shared.InvalidInput("seq must be positive")
	}
	if strings.TrimSpace(processCode) == "" {
		return nil, shared.InvalidInput("processCode is required")
	}
	if !processType.IsValid() {
		return nil, shared.InvalidInput("invalid processType: %s", processType)
	}
	return &Routing{
		TenantEntity: shared.NewTenantEntity(actor),
		PartID:       partID,
		Seq:          seq,
		ProcessCode:  processCode,
		ProcessType:  processType,
		UseYn:        shared.Yes,
	}, nil
}

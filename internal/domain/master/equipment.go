package master

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// EquipStatus is the operating state of a machine
type EquipStatus string

const (
	EquipStatusNormal EquipStatus = "NORMAL"
	EquipStatusMaint  EquipStatus = "MAINT"
	EquipStatusStop   EquipStatus = "STOP"
)

// IsValid checks if the equipment status is known
func (s EquipStatus) IsValid() bool {
	switch s {
	case EquipStatusNormal, EquipStatusMaint, EquipStatusStop:
		return true
	}
	return false
}

// Equipment is a production machine (cutter, crimper, tester, ...)
type Equipment struct {
	shared.TenantEntity
	EquipCode    string      `gorm:"type:varchar(50);not null;index" json:"equipCode"`
	EquipName    string      `gorm:"type:varchar(100);not null" json:"equipName"`
	EquipType    string      `gorm:"type:varchar(50);index" json:"equipType,omitempty"`
	ModelName    string      `gorm:"type:varchar(100)" json:"modelName,omitempty"`
	Maker        string      `gorm:"type:varchar(100)" json:"maker,omitempty"`
	LineCode     string      `gorm:"type:varchar(50);index" json:"lineCode,omitempty"`
	ProcessCode  string      `gorm:"type:varchar(50)" json:"processCode,omitempty"`
	IPAddress    string      `gorm:"column:ip_address;type:varchar(50)" json:"ipAddress,omitempty"`
	InstallDate  *time.Time  `json:"installDate,omitempty"`
	Status       EquipStatus `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"status"`
	StatusReason string      `gorm:"type:varchar(500)" json:"statusReason,omitempty"`
	UseYn        string      `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark       string      `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Equipment) TableName() string {
	return "equipments"
}

// NewEquipment creates a machine in NORMAL state
func NewEquipment(actor shared.Actor, code, name string) (*Equipment, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.InvalidInput("equipCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("equipName is required")
	}
	return &Equipment{
		TenantEntity: shared.NewTenantEntity(actor),
		EquipCode:    code,
		EquipName:    name,
		Status:       EquipStatusNormal,
		UseYn:        shared.Yes,
	}, nil
}

// ChangeStatus moves the machine to status and records the reason.
// It returns the previous status.
func (e *Equipment) ChangeStatus(status EquipStatus, reason, userID string) (EquipStatus, error) {
	if !status.IsValid() {
		return "", shared.InvalidInput("invalid equipment status: %s", status)
	}
	prev := e.Status
	e.Status = status
	e.StatusReason = reason
	e.Touch(userID)
	return prev, nil
}

// InMaintenance reports whether the machine is unavailable for production
func (e *Equipment) InMaintenance() bool {
	return e.Status == EquipStatusMaint || e.Status == EquipStatusStop
}

// StatusCount is a count of rows grouped by one column
type StatusCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// EquipmentStats counts equipment by status and by type
type EquipmentStats struct {
	Total    int64         `json:"total"`
	ByStatus []StatusCount `json:"byStatus"`
	ByType   []StatusCount `json:"byType"`
}

// EquipAttachment is a manual, drawing or photo stored in object storage
type EquipAttachment struct {
	shared.TenantEntity
	EquipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"equipmentId"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectKey   string    `gorm:"type:varchar(500);not null" json:"objectKey"`
	ContentType string    `gorm:"type:varchar(100)" json:"contentType,omitempty"`
	FileSize    int64     `gorm:"not null;default:0" json:"fileSize"`
	Category    string    `gorm:"type:varchar(20);not null;default:'MANUAL'" json:"category"`
	URL         string    `gorm:"-" json:"url,omitempty"`
}

// TableName returns the table name for GORM
func (EquipAttachment) TableName() string {
	return "equip_attachments"
}

// NewEquipAttachment creates an attachment record for an uploaded object
func NewEquipAttachment(actor shared.Actor, equipmentID uuid.UUID, fileName, contentType string, size int64, category string) (*EquipAttachment, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.InvalidInput("fileName is required")
	}
	if category == "" {
		category = "MANUAL"
	}
	a := &EquipAttachment{
		TenantEntity: shared.NewTenantEntity(actor),
		EquipmentID:  equipmentID,
		FileName:     fileName,
		ContentType:  contentType,
		FileSize:     size,
		Category:     strings.ToUpper(category),
	}
	a.ObjectKey = AttachmentKey(actor, equipmentID, a.ID, fileName)
	return a, nil
}

// AttachmentKey builds the object key company/plant/equipment/<equipmentID>/<attachmentID>-<fileName>
func AttachmentKey(actor shared.Actor, equipmentID, attachmentID uuid.UUID, fileName string) string {
	company := actor.Company
	if company == "" {
		company = "_"
	}
	plant := actor.Plant
	if plant == "" {
		plant = "_"
	}
	name := strings.ReplaceAll(strings.TrimSpace(fileName), "/", "_")
	return strings.Join([]string{company, plant, "equipment", equipmentID.String(), attachmentID.String() + "-" + name}, "/")
}

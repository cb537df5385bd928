package maintenance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ConsumableStatus tracks wear of molds, jigs and tools
type ConsumableStatus string

const (
	ConsumableNormal  ConsumableStatus = "NORMAL"
	ConsumableWarning ConsumableStatus = "WARNING"
	ConsumableReplace ConsumableStatus = "REPLACE"
)

// ConsumableLogType is a movement of a consumable
type ConsumableLogType string

const (
	LogIn        ConsumableLogType = "IN"
	LogInReturn  ConsumableLogType = "IN_RETURN"
	LogOut       ConsumableLogType = "OUT"
	LogOutReturn ConsumableLogType = "OUT_RETURN"
	LogScrap     ConsumableLogType = "SCRAP"
)

// IsValid checks if the log type is known
func (t ConsumableLogType) IsValid() bool {
	switch t {
	case LogIn, LogInReturn, LogOut, LogOutReturn, LogScrap:
		return true
	}
	return false
}

// Consumable is a mold, jig or tool with a shot-count life
type Consumable struct {
	shared.TenantEntity
	ConsumableCode string              `gorm:"type:varchar(50);not null;index" json:"consumableCode"`
	ConsumableName string              `gorm:"type:varchar(200);not null" json:"consumableName"`
	Category       string              `gorm:"type:varchar(20);index" json:"category,omitempty"`
	EquipCode      string              `gorm:"type:varchar(50)" json:"equipCode,omitempty"`
	Location       string              `gorm:"type:varchar(100)" json:"location,omitempty"`
	ExpectedLife   int                 `gorm:"not null;default:0" json:"expectedLife"`
	WarningCount   int                 `gorm:"not null;default:0" json:"warningCount"`
	CurrentCount   int                 `gorm:"not null;default:0" json:"currentCount"`
	UnitPrice      decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"unitPrice"`
	Vendor         string              `gorm:"type:varchar(200)" json:"vendor,omitempty"`
	LastReplaceAt  *time.Time          `json:"lastReplaceAt,omitempty"`
	NextReplaceAt  *time.Time          `gorm:"index" json:"nextReplaceAt,omitempty"`
	Status         ConsumableStatus    `gorm:"type:varchar(10);not null;default:'NORMAL';index" json:"status"`
	UseYn          string              `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark         string              `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Consumable) TableName() string {
	return "consumables"
}

// NewConsumable creates a consumable and derives its status from the counts
func NewConsumable(actor shared.Actor, code, name string, expectedLife, warningCount, currentCount int) (*Consumable, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.InvalidInput("consumableCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("consumableName is required")
	}
	c := &Consumable{
		TenantEntity:   shared.NewTenantEntity(actor),
		ConsumableCode: code,
		ConsumableName: name,
		ExpectedLife:   expectedLife,
		WarningCount:   warningCount,
		CurrentCount:   currentCount,
		UseYn:          shared.Yes,
	}
	c.RecomputeStatus()
	return c, nil
}

// RecomputeStatus derives the status from currentCount. Zero thresholds are unset.
// It returns true when the status changed.
func (c *Consumable) RecomputeStatus() bool {
	next := ConsumableNormal
	switch {
	case c.ExpectedLife > 0 && c.CurrentCount >= c.ExpectedLife:
		next = ConsumableReplace
	case c.WarningCount > 0 && c.CurrentCount >= c.WarningCount:
		next = ConsumableWarning
	}
	changed := c.Status != next
	c.Status = next
	return changed
}

// IncreaseCount adds shots and recomputes the status
func (c *Consumable) IncreaseCount(n int, userID string) error {
	if n <= 0 {
		return shared.InvalidInput("count must be positive")
	}
	c.CurrentCount += n
	c.RecomputeStatus()
	c.Touch(userID)
	return nil
}

// RegisterReplacement resets wear after the item was replaced and returns the IN log
func (c *Consumable) RegisterReplacement(actor shared.Actor, next *time.Time, remark string, now time.Time) *ConsumableLog {
	c.CurrentCount = 0
	c.LastReplaceAt = &now
	c.NextReplaceAt = next
	c.Status = ConsumableNormal
	c.Touch(actor.UserID)
	if remark == "" {
		remark = "replacement"
	}
	log := NewConsumableLog(actor, c.ID, LogIn, 1)
	log.Remark = remark
	return log
}

// ApplyLog reflects a movement on the consumable; SCRAP retires it
func (c *Consumable) ApplyLog(logType ConsumableLogType, userID string) {
	if logType == LogScrap {
		c.UseYn = shared.No
		c.Touch(userID)
	}
}

// ConsumableLog is one movement of a consumable
type ConsumableLog struct {
	shared.TenantEntity
	ConsumableID uuid.UUID         `gorm:"type:uuid;not null;index" json:"consumableId"`
	LogType      ConsumableLogType `gorm:"type:varchar(15);not null;index" json:"logType"`
	Qty          int               `gorm:"not null;default:1" json:"qty"`
	WorkerID     string            `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	Remark       string            `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Consumable   *Consumable       `gorm:"foreignKey:ConsumableID" json:"consumable,omitempty"`
}

// TableName returns the table name for GORM
func (ConsumableLog) TableName() string {
	return "consumable_logs"
}

// NewConsumableLog creates a log; qty defaults to 1
func NewConsumableLog(actor shared.Actor, consumableID uuid.UUID, logType ConsumableLogType, qty int) *ConsumableLog {
	if qty <= 0 {
		qty = 1
	}
	return &ConsumableLog{
		TenantEntity: shared.NewTenantEntity(actor),
		ConsumableID: consumableID,
		LogType:      logType,
		Qty:          qty,
		WorkerID:     actor.UserID,
	}
}

// ConsumableStats counts active consumables
type ConsumableStats struct {
	Total      int64                `json:"total"`
	ByStatus   []master.StatusCount `json:"byStatus"`
	ByCategory []master.StatusCount `json:"byCategory"`
}

package maintenance

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/shopspring/decimal"
)

// PlanItemRequest is one step of a PM plan
type PlanItemRequest struct {
	Seq              int    `json:"seq" binding:"min=0"`
	ItemName         string `json:"itemName" binding:"required,max=200"`
	ItemType         string `json:"itemType" binding:"omitempty,max=20"`
	Description      string `json:"description" binding:"max=1000"`
	Criteria         string `json:"criteria" binding:"max=500"`
	SparePartCode    string `json:"sparePartCode" binding:"max=50"`
	SparePartQty     int    `json:"sparePartQty" binding:"min=0"`
	EstimatedMinutes *int   `json:"estimatedMinutes"`
}

// CreatePlanRequest registers a PM plan for one machine
type CreatePlanRequest struct {
	EquipID       uuid.UUID         `json:"equipId" binding:"required"`
	PlanCode      string            `json:"planCode" binding:"required,max=50"`
	PlanName      string            `json:"planName" binding:"required,max=200"`
	PmType        string            `json:"pmType" binding:"omitempty,max=20"`
	CycleType     string            `json:"cycleType" binding:"omitempty,oneof=MONTHLY QUARTERLY SEMI_ANNUAL ANNUAL CUSTOM"`
	CycleValue    int               `json:"cycleValue" binding:"min=0"`
	CycleUnit     string            `json:"cycleUnit" binding:"omitempty,oneof=DAY WEEK MONTH YEAR"`
	SeasonMonth   *int              `json:"seasonMonth" binding:"omitempty,min=1,max=12"`
	EstimatedTime *int              `json:"estimatedTime"`
	Description   string            `json:"description" binding:"max=1000"`
	Items         []PlanItemRequest `json:"items" binding:"dive"`
}

func (r CreatePlanRequest) cycle() maintenance.PlanCycle {
	return maintenance.PlanCycle{
		Type:  maintenance.CycleType(r.CycleType),
		Value: r.CycleValue,
		Unit:  maintenance.CycleUnit(r.CycleUnit),
	}
}

// UpdatePlanRequest changes a plan; items, when present, replace the existing ones
type UpdatePlanRequest struct {
	EquipID       *uuid.UUID         `json:"equipId"`
	PlanCode      *string            `json:"planCode" binding:"omitempty,max=50"`
	PlanName      *string            `json:"planName" binding:"omitempty,max=200"`
	PmType        *string            `json:"pmType" binding:"omitempty,max=20"`
	CycleType     string             `json:"cycleType" binding:"omitempty,oneof=MONTHLY QUARTERLY SEMI_ANNUAL ANNUAL CUSTOM"`
	CycleValue    int                `json:"cycleValue" binding:"min=0"`
	CycleUnit     string             `json:"cycleUnit" binding:"omitempty,oneof=DAY WEEK MONTH YEAR"`
	SeasonMonth   *int               `json:"seasonMonth" binding:"omitempty,min=1,max=12"`
	EstimatedTime *int               `json:"estimatedTime"`
	Description   *string            `json:"description" binding:"omitempty,max=1000"`
	UseYn         *string            `json:"useYn" binding:"omitempty,yn"`
	Items         *[]PlanItemRequest `json:"items"`
}

// GenerateRequest selects the month whose due plans get work orders
type GenerateRequest struct {
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// CreateWorkOrderRequest registers a manual (usually corrective) work order
type CreateWorkOrderRequest struct {
	EquipID          uuid.UUID  `json:"equipId" binding:"required"`
	PmPlanID         *uuid.UUID `json:"pmPlanId"`
	WoType           string     `json:"woType" binding:"omitempty,oneof=PLANNED CORRECTIVE"`
	ScheduledDate    time.Time  `json:"scheduledDate" binding:"required"`
	DueDate          *time.Time `json:"dueDate"`
	Priority         string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedWorkerID string     `json:"assignedWorkerId" binding:"max=50"`
	Remark           string     `json:"remark" binding:"max=1000"`
}

// ExecuteItemRequest is the recorded outcome of one check
type ExecuteItemRequest struct {
	ItemID   *uuid.UUID `json:"itemId"`
	Seq      int        `json:"seq"`
	ItemName string     `json:"itemName" binding:"required,max=200"`
	ItemType string     `json:"itemType" binding:"omitempty,max=20"`
	Criteria string     `json:"criteria" binding:"max=500"`
	Result   string     `json:"result" binding:"omitempty,oneof=PASS FAIL"`
	Remark   string     `json:"remark" binding:"max=500"`
}

// ExecuteWorkOrderRequest completes a work order
type ExecuteWorkOrderRequest struct {
	OverallResult    string               `json:"overallResult" binding:"required,oneof=PASS FAIL"`
	Remark           string               `json:"remark" binding:"max=1000"`
	AssignedWorkerID string               `json:"assignedWorkerId" binding:"max=50"`
	Items            []ExecuteItemRequest `json:"items" binding:"dive"`
}

func (r ExecuteWorkOrderRequest) results() []maintenance.PmWoResult {
	out := make([]maintenance.PmWoResult, len(r.Items))
	for i, item := range r.Items {
		out[i] = maintenance.PmWoResult{
			PmPlanItemID: item.ItemID,
			Seq:          item.Seq,
			ItemName:     item.ItemName,
			ItemType:     item.ItemType,
			Criteria:     item.Criteria,
			Result:       item.Result,
			Remark:       item.Remark,
		}
	}
	return out
}

// CalendarRequest selects a month of the PM calendar
type CalendarRequest struct {
	Year      int    `form:"year" binding:"required,min=2000,max=2100"`
	Month     int    `form:"month" binding:"required,min=1,max=12"`
	LineCode  string `form:"lineCode"`
	EquipType string `form:"equipType"`
}

// DayScheduleRequest selects one day of the PM calendar
type DayScheduleRequest struct {
	Date      time.Time `form:"date" binding:"required" time_format:"2006-01-02"`
	LineCode  string    `form:"lineCode"`
	EquipType string    `form:"equipType"`
}

// ScheduledWorkOrder is a work order of the day schedule with its plan's checklist
type ScheduledWorkOrder struct {
	maintenance.PmWorkOrder
	PlanName  string                   `json:"planName,omitempty"`
	PlanItems []maintenance.PmPlanItem `json:"planItems"`
}

// CreateConsumableRequest registers a mold, jig or tool
type CreateConsumableRequest struct {
	ConsumableCode string           `json:"consumableCode" binding:"required,max=50"`
	ConsumableName string           `json:"consumableName" binding:"required,max=200"`
	Category       string           `json:"category" binding:"omitempty,oneof=MOLD JIG TOOL"`
	EquipCode      string           `json:"equipCode" binding:"max=50"`
	Location       string           `json:"location" binding:"max=100"`
	ExpectedLife   int              `json:"expectedLife" binding:"min=0"`
	WarningCount   int              `json:"warningCount" binding:"min=0"`
	CurrentCount   int              `json:"currentCount" binding:"min=0"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	Vendor         string           `json:"vendor" binding:"max=200"`
	NextReplaceAt  *time.Time       `json:"nextReplaceAt"`
	Remark         string           `json:"remark" binding:"max=500"`
}

// UpdateConsumableRequest changes a consumable; count changes recompute the status
type UpdateConsumableRequest struct {
	ConsumableName *string          `json:"consumableName" binding:"omitempty,max=200"`
	Category       *string          `json:"category" binding:"omitempty,oneof=MOLD JIG TOOL"`
	EquipCode      *string          `json:"equipCode" binding:"omitempty,max=50"`
	Location       *string          `json:"location" binding:"omitempty,max=100"`
	ExpectedLife   *int             `json:"expectedLife" binding:"omitempty,min=0"`
	WarningCount   *int             `json:"warningCount" binding:"omitempty,min=0"`
	CurrentCount   *int             `json:"currentCount" binding:"omitempty,min=0"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	Vendor         *string          `json:"vendor" binding:"omitempty,max=200"`
	NextReplaceAt  *time.Time       `json:"nextReplaceAt"`
	UseYn          *string          `json:"useYn" binding:"omitempty,yn"`
	Remark         *string          `json:"remark" binding:"omitempty,max=500"`
}

// IncreaseCountRequest adds shots to a consumable
type IncreaseCountRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// ReplacementRequest records that a consumable was replaced
type ReplacementRequest struct {
	NextReplaceAt *time.Time `json:"nextReplaceAt"`
	Remark        string     `json:"remark" binding:"max=500"`
}

// CreateLogRequest records a movement of a consumable
type CreateLogRequest struct {
	ConsumableID uuid.UUID `json:"consumableId" binding:"required"`
	LogType      string    `json:"logType" binding:"required,oneof=IN IN_RETURN OUT OUT_RETURN SCRAP"`
	Qty          int       `json:"qty" binding:"min=0"`
	Remark       string    `json:"remark" binding:"max=500"`
}

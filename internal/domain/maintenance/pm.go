package maintenance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// PM plan defaults
const (
	PmTypeTimeBased   = "TIME_BASED"
	DefaultItemType   = "CHECK"
	WorkOrderPrefix   = "PM"
	DefaultPriority   = "MEDIUM"
	defaultCycleValue = 1
)

// PmPlan is a recurring preventive maintenance plan for one machine
type PmPlan struct {
	shared.TenantEntity
	EquipmentID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"equipId"`
	PlanCode       string            `gorm:"type:varchar(50);not null;index" json:"planCode"`
	PlanName       string            `gorm:"type:varchar(200);not null" json:"planName"`
	PmType         string            `gorm:"type:varchar(20);not null;default:'TIME_BASED'" json:"pmType"`
	CycleType      CycleType         `gorm:"type:varchar(20);not null;default:'MONTHLY'" json:"cycleType"`
	CycleValue     int               `gorm:"not null;default:1" json:"cycleValue"`
	CycleUnit      CycleUnit         `gorm:"type:varchar(10);not null;default:'MONTH'" json:"cycleUnit"`
	SeasonMonth    *int              `json:"seasonMonth,omitempty"`
	EstimatedTime  *int              `json:"estimatedTime,omitempty"`
	Description    string            `gorm:"type:varchar(1000)" json:"description,omitempty"`
	LastExecutedAt *time.Time        `json:"lastExecutedAt,omitempty"`
	NextDueAt      *time.Time        `gorm:"index" json:"nextDueAt,omitempty"`
	UseYn          string            `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Items          []PmPlanItem      `gorm:"foreignKey:PmPlanID" json:"items,omitempty"`
	Equipment      *master.Equipment `gorm:"foreignKey:EquipmentID" json:"equip,omitempty"`
}

// TableName returns the table name for GORM
func (PmPlan) TableName() string {
	return "pm_plans"
}

// PmPlanItem is one check or replacement step of a plan
type PmPlanItem struct {
	shared.BaseEntity
	PmPlanID         uuid.UUID `gorm:"type:uuid;not null;index" json:"pmPlanId"`
	Seq              int       `gorm:"not null" json:"seq"`
	ItemName         string    `gorm:"type:varchar(200);not null" json:"itemName"`
	ItemType         string    `gorm:"type:varchar(20);not null;default:'CHECK'" json:"itemType"`
	Description      string    `gorm:"type:varchar(1000)" json:"description,omitempty"`
	Criteria         string    `gorm:"type:varchar(500)" json:"criteria,omitempty"`
	SparePartCode    string    `gorm:"type:varchar(50)" json:"sparePartCode,omitempty"`
	SparePartQty     int       `gorm:"not null;default:0" json:"sparePartQty"`
	EstimatedMinutes *int      `json:"estimatedMinutes,omitempty"`
	UseYn            string    `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
}

// TableName returns the table name for GORM
func (PmPlanItem) TableName() string {
	return "pm_plan_items"
}

// PlanCycle is the recurrence of a plan; zero fields take defaults
type PlanCycle struct {
	Type  CycleType
	Value int
	Unit  CycleUnit
}

func (c PlanCycle) withDefaults() PlanCycle {
	if c.Type == "" {
		c.Type = CycleMonthly
	}
	if c.Value <= 0 {
		c.Value = defaultCycleValue
	}
	if c.Unit == "" {
		c.Unit = UnitMonth
	}
	return c
}

// NewPmPlan creates a plan due one cycle from now
func NewPmPlan(actor shared.Actor, equipID uuid.UUID, planCode, planName, pmType string, cycle PlanCycle, now time.Time) (*PmPlan, error) {
	planCode = strings.TrimSpace(planCode)
	if planCode == "" {
		return nil, shared.InvalidInput("planCode is required")
	}
	if strings.TrimSpace(planName) == "" {
		return nil, shared.InvalidInput("planName is required")
	}
	if pmType == "" {
		pmType = PmTypeTimeBased
	}
	cycle = cycle.withDefaults()
	due := CalculateNextDueAt(now, cycle.Type, cycle.Value, cycle.Unit)
	return &PmPlan{
		TenantEntity: shared.NewTenantEntity(actor),
		EquipmentID:  equipID,
		PlanCode:     planCode,
		PlanName:     planName,
		PmType:       pmType,
		CycleType:    cycle.Type,
		CycleValue:   cycle.Value,
		CycleUnit:    cycle.Unit,
		NextDueAt:    &due,
		UseYn:        shared.Yes,
	}, nil
}

// ChangeCycle applies the non-zero cycle fields and, when any changed, recomputes
// nextDueAt from lastExecutedAt or now
func (p *PmPlan) ChangeCycle(cycle PlanCycle, now time.Time) {
	if cycle.Type == "" && cycle.Value == 0 && cycle.Unit == "" {
		return
	}
	if cycle.Type != "" {
		p.CycleType = cycle.Type
	}
	if cycle.Value > 0 {
		p.CycleValue = cycle.Value
	}
	if cycle.Unit != "" {
		p.CycleUnit = cycle.Unit
	}
	base := now
	if p.LastExecutedAt != nil {
		base = *p.LastExecutedAt
	}
	due := CalculateNextDueAt(base, p.CycleType, p.CycleValue, p.CycleUnit)
	p.NextDueAt = &due
}

// MarkExecuted records an execution and schedules the next one
func (p *PmPlan) MarkExecuted(now time.Time, userID string) {
	p.LastExecutedAt = &now
	due := CalculateNextDueAt(now, p.CycleType, p.CycleValue, p.CycleUnit)
	p.NextDueAt = &due
	p.Touch(userID)
}

// NewPlanItem builds a plan item with the default item type
func NewPlanItem(planID uuid.UUID, seq int, name, itemType string) PmPlanItem {
	if itemType == "" {
		itemType = DefaultItemType
	}
	return PmPlanItem{
		BaseEntity: shared.NewBaseEntity(),
		PmPlanID:   planID,
		Seq:        seq,
		ItemName:   name,
		ItemType:   itemType,
		UseYn:      shared.Yes,
	}
}

// WorkOrderStatus is the state of a PM work order
type WorkOrderStatus string

const (
	WoPlanned    WorkOrderStatus = "PLANNED"
	WoInProgress WorkOrderStatus = "IN_PROGRESS"
	WoCompleted  WorkOrderStatus = "COMPLETED"
	WoCancelled  WorkOrderStatus = "CANCELLED"
)

// Work order types
const (
	WoTypePlanned    = "PLANNED"
	WoTypeCorrective = "CORRECTIVE"
)

// Inspection outcomes of a work order or a single result
const (
	ResultPass = "PASS"
	ResultFail = "FAIL"
)

// PmWorkOrder is one scheduled execution of maintenance on a machine
type PmWorkOrder struct {
	shared.TenantEntity
	WorkOrderNo      string            `gorm:"type:varchar(50);not null;index" json:"workOrderNo"`
	PmPlanID         *uuid.UUID        `gorm:"type:uuid;index" json:"pmPlanId,omitempty"`
	EquipmentID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"equipId"`
	WoType           string            `gorm:"type:varchar(20);not null;default:'PLANNED'" json:"woType"`
	ScheduledDate    time.Time         `gorm:"not null;index" json:"scheduledDate"`
	DueDate          *time.Time        `json:"dueDate,omitempty"`
	Status           WorkOrderStatus   `gorm:"type:varchar(15);not null;default:'PLANNED';index" json:"status"`
	Priority         string            `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	AssignedWorkerID string            `gorm:"type:varchar(50)" json:"assignedWorkerId,omitempty"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	OverallResult    string            `gorm:"type:varchar(10)" json:"overallResult,omitempty"`
	Remark           string            `gorm:"type:varchar(1000)" json:"remark,omitempty"`
	Results          []PmWoResult      `gorm:"foreignKey:WorkOrderID" json:"results,omitempty"`
	Equipment        *master.Equipment `gorm:"foreignKey:EquipmentID" json:"equip,omitempty"`
	Plan             *PmPlan           `gorm:"foreignKey:PmPlanID" json:"plan,omitempty"`
}

// TableName returns the table name for GORM
func (PmWorkOrder) TableName() string {
	return "pm_work_orders"
}

// PmWoResult is the recorded outcome of one plan item
type PmWoResult struct {
	shared.BaseEntity
	WorkOrderID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"workOrderId"`
	PmPlanItemID *uuid.UUID `gorm:"type:uuid" json:"pmPlanItemId,omitempty"`
	Seq          int        `gorm:"not null" json:"seq"`
	ItemName     string     `gorm:"type:varchar(200);not null" json:"itemName"`
	ItemType     string     `gorm:"type:varchar(20);not null;default:'CHECK'" json:"itemType"`
	Criteria     string     `gorm:"type:varchar(500)" json:"criteria,omitempty"`
	Result       string     `gorm:"type:varchar(10)" json:"result"`
	Remark       string     `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (PmWoResult) TableName() string {
	return "pm_wo_results"
}

// NewWorkOrder creates a PLANNED work order due on its scheduled date
func NewWorkOrder(company, plant, userID, workOrderNo string, equipID uuid.UUID, planID *uuid.UUID, woType, priority string, scheduled time.Time) *PmWorkOrder {
	if woType == "" {
		woType = WoTypePlanned
	}
	if priority == "" {
		priority = DefaultPriority
	}
	due := scheduled
	return &PmWorkOrder{
		TenantEntity:  shared.NewTenantEntity(shared.Actor{UserID: userID, Company: company, Plant: plant}),
		WorkOrderNo:   workOrderNo,
		PmPlanID:      planID,
		EquipmentID:   equipID,
		WoType:        woType,
		ScheduledDate: scheduled,
		DueDate:       &due,
		Status:        WoPlanned,
		Priority:      priority,
	}
}

// PlannedWorkOrder creates the work order a plan generates for its next due date.
// The tenant is copied from the plan.
func (p *PmPlan) PlannedWorkOrder(workOrderNo, userID string) *PmWorkOrder {
	id := p.ID
	return NewWorkOrder(p.Company, p.Plant, userID, workOrderNo, p.EquipmentID, &id, WoTypePlanned, DefaultPriority, p.ScheduledDate())
}

// ScheduledDate is the date a generated work order is scheduled on
func (p *PmPlan) ScheduledDate() time.Time {
	if p.NextDueAt == nil {
		return time.Time{}
	}
	return *p.NextDueAt
}

// Execute completes the work order with the given overall result
func (w *PmWorkOrder) Execute(overall, remark, workerID string, results []PmWoResult, now time.Time, userID string) error {
	if w.Status == WoCompleted || w.Status == WoCancelled {
		return shared.InvalidState("work order %s is already %s", w.WorkOrderNo, w.Status)
	}
	if overall == "" {
		return shared.InvalidInput("overallResult is required")
	}
	w.Status = WoCompleted
	w.CompletedAt = &now
	w.OverallResult = overall
	w.Remark = remark
	if workerID != "" {
		w.AssignedWorkerID = workerID
	}
	if w.StartedAt == nil {
		w.StartedAt = &now
	}
	for i := range results {
		results[i].WorkOrderID = w.ID
		if results[i].ItemType == "" {
			results[i].ItemType = DefaultItemType
		}
	}
	w.Results = results
	w.Touch(userID)
	return nil
}

// Cancel voids a work order that is not completed
func (w *PmWorkOrder) Cancel(userID string) error {
	if w.Status == WoCompleted {
		return shared.InvalidState("completed work order %s cannot be cancelled", w.WorkOrderNo)
	}
	w.Status = WoCancelled
	w.Touch(userID)
	return nil
}

// GenerateResult summarizes a month generation run
type GenerateResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Add accumulates another run
func (g *GenerateResult) Add(o GenerateResult) {
	g.Created += o.Created
	g.Skipped += o.Skipped
	g.Total += o.Total
}

package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/production"
)

// CreateJobOrderRequest creates a job order; orderNo is drawn from the JOB_ORDER rule when empty.
// With a planId the qty is released against that confirmed plan.
type CreateJobOrderRequest struct {
	OrderNo  string     `json:"orderNo" binding:"max=50"`
	PartID   uuid.UUID  `json:"partId" binding:"required"`
	PlanID   *uuid.UUID `json:"planId"`
	LineCode string     `json:"lineCode" binding:"max=50"`
	PlanQty  int        `json:"planQty" binding:"required,min=1"`
	PlanDate *time.Time `json:"planDate"`
	Priority int        `json:"priority" binding:"min=0,max=99"`
	Remark   string     `json:"remark" binding:"max=500"`
}

// UpdateJobOrderRequest changes an open job order
type UpdateJobOrderRequest struct {
	LineCode *string    `json:"lineCode" binding:"omitempty,max=50"`
	PlanQty  *int       `json:"planQty" binding:"omitempty,min=1"`
	PlanDate *time.Time `json:"planDate"`
	Priority *int       `json:"priority" binding:"omitempty,min=1,max=99"`
	Remark   *string    `json:"remark" binding:"omitempty,max=500"`
}

// CancelRequest carries an optional reason
type CancelRequest struct {
	Remark string `json:"remark" binding:"max=500"`
}

// ChangeJobStatusRequest forces a job order status
type ChangeJobStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=WAITING RUNNING PAUSED DONE CANCELED"`
}

// SyncRequest lists the job orders sent to the ERP
type SyncRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// CreateResultRequest starts a production result
type CreateResultRequest struct {
	JobOrderID  uuid.UUID  `json:"jobOrderId" binding:"required"`
	EquipID     *uuid.UUID `json:"equipId"`
	WorkerID    *uuid.UUID `json:"workerId"`
	LotNo       string     `json:"lotNo" binding:"max=50"`
	ProcessCode string     `json:"processCode" binding:"max=50"`
	GoodQty     int        `json:"goodQty" binding:"min=0"`
	DefectQty   int        `json:"defectQty" binding:"min=0"`
	StartAt     *time.Time `json:"startAt"`
	CycleTime   *float64   `json:"cycleTime" binding:"omitempty,min=0"`
	Remark      string     `json:"remark" binding:"max=500"`
}

// UpdateResultRequest changes a result; core fields are frozen once DONE
type UpdateResultRequest struct {
	JobOrderID  *uuid.UUID `json:"jobOrderId"`
	EquipID     *uuid.UUID `json:"equipId"`
	WorkerID    *uuid.UUID `json:"workerId"`
	LotNo       *string    `json:"lotNo" binding:"omitempty,max=50"`
	ProcessCode *string    `json:"processCode" binding:"omitempty,max=50"`
	GoodQty     *int       `json:"goodQty" binding:"omitempty,min=0"`
	DefectQty   *int       `json:"defectQty" binding:"omitempty,min=0"`
	StartAt     *time.Time `json:"startAt"`
	CycleTime   *float64   `json:"cycleTime" binding:"omitempty,min=0"`
	Remark      *string    `json:"remark" binding:"omitempty,max=500"`
}

// CompleteResultRequest closes a running result
type CompleteResultRequest struct {
	GoodQty   *int     `json:"goodQty" binding:"omitempty,min=0"`
	DefectQty *int     `json:"defectQty" binding:"omitempty,min=0"`
	CycleTime *float64 `json:"cycleTime" binding:"omitempty,min=0"`
	Remark    string   `json:"remark" binding:"max=500"`
}

// GroupSummary is the result totals of one equipment or worker
type GroupSummary struct {
	ID             uuid.UUID `json:"id"`
	TotalGoodQty   int64     `json:"totalGoodQty"`
	TotalDefectQty int64     `json:"totalDefectQty"`
	TotalQty       int64     `json:"totalQty"`
	DefectRate     float64   `json:"defectRate"`
	AvgCycleTime   *float64  `json:"avgCycleTime"`
	ResultCount    int64     `json:"resultCount"`
}

func newGroupSummary(id uuid.UUID, t production.ResultTotals) *GroupSummary {
	return &GroupSummary{
		ID:             id,
		TotalGoodQty:   t.GoodQty,
		TotalDefectQty: t.DefectQty,
		TotalQty:       t.TotalQty(),
		DefectRate:     t.DefectRate(),
		AvgCycleTime:   t.AvgCycleTime,
		ResultCount:    t.ResultCount,
	}
}

// SummaryRange limits a summary to results started inside [From, To]
type SummaryRange struct {
	From *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To   *time.Time `form:"toDate" time_format:"2006-01-02"`
}

// CreatePlanRequest plans a monthly qty for one part
type CreatePlanRequest struct {
	PlanMonth string    `json:"planMonth" binding:"required,len=7"`
	PartID    uuid.UUID `json:"partId" binding:"required"`
	ItemType  string    `json:"itemType" binding:"required,oneof=FG WIP"`
	PlanQty   int       `json:"planQty" binding:"required,min=1"`
	Customer  string    `json:"customer" binding:"max=50"`
	LineCode  string    `json:"lineCode" binding:"max=255"`
	Priority  int       `json:"priority" binding:"min=0,max=10"`
	Remark    string    `json:"remark" binding:"max=500"`
}

// BulkPlanItem is one line of a bulk plan upload
type BulkPlanItem struct {
	PartID   uuid.UUID `json:"partId" binding:"required"`
	ItemType string    `json:"itemType" binding:"required,oneof=FG WIP"`
	PlanQty  int       `json:"planQty" binding:"required,min=1"`
	Customer string    `json:"customer" binding:"max=50"`
	LineCode string    `json:"lineCode" binding:"max=255"`
	Priority int       `json:"priority" binding:"min=0,max=10"`
	Remark   string    `json:"remark" binding:"max=500"`
}

// BulkCreatePlanRequest plans several parts of one month at once
type BulkCreatePlanRequest struct {
	PlanMonth string         `json:"planMonth" binding:"required,len=7"`
	Items     []BulkPlanItem `json:"items" binding:"required,min=1,dive"`
}

// UpdatePlanRequest changes a DRAFT plan
type UpdatePlanRequest struct {
	PartID   *uuid.UUID `json:"partId"`
	ItemType *string    `json:"itemType" binding:"omitempty,oneof=FG WIP"`
	PlanQty  *int       `json:"planQty" binding:"omitempty,min=1"`
	Customer *string    `json:"customer" binding:"omitempty,max=50"`
	LineCode *string    `json:"lineCode" binding:"omitempty,max=255"`
	Priority *int       `json:"priority" binding:"omitempty,min=1,max=10"`
	Remark   *string    `json:"remark" binding:"omitempty,max=500"`
}

// PlanIDsRequest lists plans for a bulk status change
type PlanIDsRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// BulkPlanResult lists the plans created by one bulk upload
type BulkPlanResult struct {
	Count int                   `json:"count"`
	Items []production.ProdPlan `json:"items"`
}

// CountResult reports how many rows an operation changed
type CountResult struct {
	Count int `json:"count"`
}

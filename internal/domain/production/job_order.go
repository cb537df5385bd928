package production

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// JobOrderStatus is the lifecycle state of a job order
type JobOrderStatus string

const (
	JobWaiting  JobOrderStatus = "WAITING"
	JobRunning  JobOrderStatus = "RUNNING"
	JobPaused   JobOrderStatus = "PAUSED"
	JobDone     JobOrderStatus = "DONE"
	JobCanceled JobOrderStatus = "CANCELED"
)

// IsValid checks if the status is known
func (s JobOrderStatus) IsValid() bool {
	switch s {
	case JobWaiting, JobRunning, JobPaused, JobDone, JobCanceled:
		return true
	}
	return false
}

// DefaultPriority is used when a job order is created without one
const DefaultPriority = 5

// JobOrder is a production instruction for one part on one line
type JobOrder struct {
	shared.TenantEntity
	OrderNo   string         `gorm:"type:varchar(50);not null;index" json:"orderNo"`
	PartID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"partId"`
	PlanID    *uuid.UUID     `gorm:"type:uuid;index" json:"planId,omitempty"`
	LineCode  string         `gorm:"type:varchar(50);index" json:"lineCode,omitempty"`
	PlanQty   int            `gorm:"not null" json:"planQty"`
	GoodQty   int            `gorm:"not null;default:0" json:"goodQty"`
	DefectQty int            `gorm:"not null;default:0" json:"defectQty"`
	PlanDate  *time.Time     `gorm:"index" json:"planDate,omitempty"`
	Priority  int            `gorm:"not null;default:5" json:"priority"`
	Status    JobOrderStatus `gorm:"type:varchar(10);not null;default:'WAITING';index" json:"status"`
	StartAt   *time.Time     `json:"startAt,omitempty"`
	EndAt     *time.Time     `json:"endAt,omitempty"`
	ErpSyncYn string         `gorm:"type:varchar(1);not null;default:'N'" json:"erpSyncYn"`
	Remark    string         `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part      *master.Part   `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (JobOrder) TableName() string {
	return "job_orders"
}

// NewJobOrder creates a waiting job order
func NewJobOrder(actor shared.Actor, orderNo string, partID uuid.UUID, planQty int, priority int) (*JobOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, shared.InvalidInput("orderNo is required")
	}
	if planQty <= 0 {
		return nil, shared.InvalidInput("planQty must be positive")
	}
	if priority <= 0 {
		priority = DefaultPriority
	}
	return &JobOrder{
		TenantEntity: shared.NewTenantEntity(actor),
		OrderNo:      orderNo,
		PartID:       partID,
		PlanQty:      planQty,
		Priority:     priority,
		Status:       JobWaiting,
		ErpSyncYn:    shared.No,
	}, nil
}

// IsClosed reports whether the order is DONE or CANCELED
func (j *JobOrder) IsClosed() bool {
	return j.Status == JobDone || j.Status == JobCanceled
}

// CanEdit checks that the order is still open
func (j *JobOrder) CanEdit() error {
	if j.IsClosed() {
		return shared.InvalidState("job order %s is %s and cannot be modified", j.OrderNo, j.Status)
	}
	return nil
}

// CanDelete checks that the order is not running
func (j *JobOrder) CanDelete() error {
	if j.Status == JobRunning {
		return shared.InvalidState("job order %s is running and cannot be deleted", j.OrderNo)
	}
	return nil
}

// Start moves WAITING or PAUSED to RUNNING; startAt is set on the first start only
func (j *JobOrder) Start(now time.Time, userID string) error {
	if j.Status != JobWaiting && j.Status != JobPaused {
		return shared.InvalidState("cannot start job order in status %s, must be WAITING or PAUSED", j.Status)
	}
	j.Status = JobRunning
	if j.StartAt == nil {
		j.StartAt = &now
	}
	j.Touch(userID)
	return nil
}

// Pause moves RUNNING to PAUSED
func (j *JobOrder) Pause(userID string) error {
	if j.Status != JobRunning {
		return shared.InvalidState("cannot pause job order in status %s, must be RUNNING", j.Status)
	}
	j.Status = JobPaused
	j.Touch(userID)
	return nil
}

// Complete moves RUNNING or PAUSED to DONE with the totals of its results
func (j *JobOrder) Complete(goodQty, defectQty int, now time.Time, userID string) error {
	if j.Status != JobRunning && j.Status != JobPaused {
		return shared.InvalidState("cannot complete job order in status %s, must be RUNNING or PAUSED", j.Status)
	}
	j.Status = JobDone
	j.GoodQty = goodQty
	j.DefectQty = defectQty
	j.EndAt = &now
	j.Touch(userID)
	return nil
}

// Cancel moves WAITING or PAUSED to CANCELED
func (j *JobOrder) Cancel(remark string, now time.Time, userID string) error {
	if j.Status != JobWaiting && j.Status != JobPaused {
		return shared.InvalidState("cannot cancel job order in status %s, must be WAITING or PAUSED", j.Status)
	}
	j.Status = JobCanceled
	j.EndAt = &now
	if remark != "" {
		j.Remark = remark
	}
	j.Touch(userID)
	return nil
}

// ForceStatus sets any known status; used by administrators to repair data
func (j *JobOrder) ForceStatus(status JobOrderStatus, userID string) error {
	if !status.IsValid() {
		return shared.InvalidInput("invalid job order status: %s", status)
	}
	j.Status = status
	j.Touch(userID)
	return nil
}

// MarkSynced flags the order as sent to the ERP
func (j *JobOrder) MarkSynced(userID string) {
	j.ErpSyncYn = shared.Yes
	j.Touch(userID)
}

// ResultTotals aggregates the production results of some grouping
type ResultTotals struct {
	GoodQty      int64    `json:"totalGoodQty"`
	DefectQty    int64    `json:"totalDefectQty"`
	AvgCycleTime *float64 `json:"avgCycleTime"`
	ResultCount  int64    `json:"resultCount"`
}

// TotalQty returns good plus defect quantity
func (t ResultTotals) TotalQty() int64 {
	return t.GoodQty + t.DefectQty
}

// DefectRate returns defect / (good + defect) * 100, 0 when nothing was produced
func (t ResultTotals) DefectRate() float64 {
	total := t.TotalQty()
	if total == 0 {
		return 0
	}
	return float64(t.DefectQty) / float64(total) * 100
}

// JobOrderSummary reports progress of a job order against its plan
type JobOrderSummary struct {
	JobOrderID      uuid.UUID `json:"jobOrderId"`
	OrderNo         string    `json:"orderNo"`
	PlanQty         int       `json:"planQty"`
	TotalGoodQty    int64     `json:"totalGoodQty"`
	TotalDefectQty  int64     `json:"totalDefectQty"`
	TotalQty        int64     `json:"totalQty"`
	AchievementRate float64   `json:"achievementRate"`
	DefectRate      float64   `json:"defectRate"`
	AvgCycleTime    *float64  `json:"avgCycleTime"`
	ResultCount     int64     `json:"resultCount"`
}

// Summarize combines the order plan with the totals of its results
func (j *JobOrder) Summarize(t ResultTotals) JobOrderSummary {
	achievement := 0.0
	if j.PlanQty > 0 {
		achievement = float64(t.GoodQty) / float64(j.PlanQty) * 100
	}
	return JobOrderSummary{
		JobOrderID:      j.ID,
		OrderNo:         j.OrderNo,
		PlanQty:         j.PlanQty,
		TotalGoodQty:    t.GoodQty,
		TotalDefectQty:  t.DefectQty,
		TotalQty:        t.TotalQty(),
		AchievementRate: achievement,
		DefectRate:      t.DefectRate(),
		AvgCycleTime:    t.AvgCycleTime,
		ResultCount:     t.ResultCount,
	}
}

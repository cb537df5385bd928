package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// ResultStatus is the state of a production result
type ResultStatus string

const (
	ResultRunning  ResultStatus = "RUNNING"
	ResultDone     ResultStatus = "DONE"
	ResultCanceled ResultStatus = "CANCELED"
)

// ProdResult is the output reported for one run of a job order
type ProdResult struct {
	shared.TenantEntity
	JobOrderID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"jobOrderId"`
	EquipID     *uuid.UUID        `gorm:"type:uuid;index" json:"equipId,omitempty"`
	WorkerID    *uuid.UUID        `gorm:"type:uuid;index" json:"workerId,omitempty"`
	LotNo       string            `gorm:"type:varchar(50)" json:"lotNo,omitempty"`
	ProcessCode string            `gorm:"type:varchar(50)" json:"processCode,omitempty"`
	GoodQty     int               `gorm:"not null;default:0" json:"goodQty"`
	DefectQty   int               `gorm:"not null;default:0" json:"defectQty"`
	StartAt     time.Time         `gorm:"not null;index" json:"startAt"`
	EndAt       *time.Time        `json:"endAt,omitempty"`
	CycleTime   *float64          `json:"cycleTime,omitempty"`
	Status      ResultStatus      `gorm:"type:varchar(10);not null;default:'RUNNING';index" json:"status"`
	Remark      string            `gorm:"type:varchar(500)" json:"remark,omitempty"`
	JobOrder    *JobOrder         `gorm:"foreignKey:JobOrderID" json:"jobOrder,omitempty"`
	Equipment   *master.Equipment `gorm:"foreignKey:EquipID" json:"equipment,omitempty"`
}

// TableName returns the table name for GORM
func (ProdResult) TableName() string {
	return "prod_results"
}

// NewProdResult starts a result for an open job order
func NewProdResult(actor shared.Actor, order *JobOrder, startAt time.Time) (*ProdResult, error) {
	if order.IsClosed() {
		return nil, shared.InvalidState("cannot register results on job order %s in status %s", order.OrderNo, order.Status)
	}
	if startAt.IsZero() {
		startAt = time.Now()
	}
	return &ProdResult{
		TenantEntity: shared.NewTenantEntity(actor),
		JobOrderID:   order.ID,
		StartAt:      startAt,
		Status:       ResultRunning,
	}, nil
}

// CheckCoreChange rejects changes of job order, equipment, worker or start time once DONE
func (r *ProdResult) CheckCoreChange(jobOrderID, equipID, workerID *uuid.UUID, startAt *time.Time) error {
	if r.Status != ResultDone {
		return nil
	}
	changed := (jobOrderID != nil && *jobOrderID != r.JobOrderID) ||
		(equipID != nil && !sameID(equipID, r.EquipID)) ||
		(workerID != nil && !sameID(workerID, r.WorkerID)) ||
		(startAt != nil && !startAt.Equal(r.StartAt))
	if changed {
		return shared.InvalidState("core fields of a completed result cannot be changed")
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Complete moves RUNNING to DONE
func (r *ProdResult) Complete(goodQty, defectQty *int, now time.Time, userID string) error {
	if r.Status != ResultRunning {
		return shared.InvalidState("cannot complete result in status %s, must be RUNNING", r.Status)
	}
	if goodQty != nil {
		r.GoodQty = *goodQty
	}
	if defectQty != nil {
		r.DefectQty = *defectQty
	}
	r.Status = ResultDone
	r.EndAt = &now
	r.Touch(userID)
	return nil
}

// Cancel voids the result
func (r *ProdResult) Cancel(remark, userID string) error {
	if r.Status == ResultCanceled {
		return shared.InvalidState("result is already canceled")
	}
	r.Status = ResultCanceled
	if remark != "" {
		r.Remark = remark
	}
	r.Touch(userID)
	return nil
}

// AdjustDefect changes the defect quantity by delta, never below zero
func (r *ProdResult) AdjustDefect(delta int) {
	r.DefectQty = max(0, r.DefectQty+delta)
}

// DailyTotals are result totals of one calendar day
type DailyTotals struct {
	Date string `json:"date"`
	ResultTotals
}

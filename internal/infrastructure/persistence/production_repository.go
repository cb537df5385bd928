package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormJobOrderRepository implements JobOrderRepository using GORM
type GormJobOrderRepository struct {
	*GormCrudRepository[production.JobOrder]
}

// NewGormJobOrderRepository creates a new GormJobOrderRepository
func NewGormJobOrderRepository(db *gorm.DB) *GormJobOrderRepository {
	return &GormJobOrderRepository{NewGormCrudRepository[production.JobOrder](db, CrudOptions{
		SearchColumns: []string{"order_no", "line_code", "remark"},
		DateColumn:    "plan_date",
		SortFields:    sortFields("order_no", "plan_date", "priority", "status", "line_code"),
		DefaultOrder:  "priority ASC, plan_date ASC, created_at DESC",
		Preloads:      []string{"Part"},
	})}
}

// FindUnsynced returns DONE orders not yet sent to the ERP
func (r *GormJobOrderRepository) FindUnsynced(ctx context.Context, scope shared.Actor) ([]production.JobOrder, error) {
	return r.FindAll(ctx, scope, shared.Conds{"status": production.JobDone, "erp_sync_yn": shared.No}, "end_at ASC")
}

// FindByIDs returns the orders with the given ids
func (r *GormJobOrderRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]production.JobOrder, error) {
	var orders []production.JobOrder
	if len(ids) == 0 {
		return orders, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Find(&orders).Error
	return orders, err
}

// GormProdResultRepository implements ProdResultRepository using GORM
type GormProdResultRepository struct {
	*GormCrudRepository[production.ProdResult]
}

// NewGormProdResultRepository creates a new GormProdResultRepository
func NewGormProdResultRepository(db *gorm.DB) *GormProdResultRepository {
	return &GormProdResultRepository{NewGormCrudRepository[production.ProdResult](db, CrudOptions{
		SearchColumns: []string{"lot_no", "process_code"},
		DateColumn:    "start_at",
		SortFields:    sortFields("start_at", "end_at", "status", "good_qty", "defect_qty"),
		DefaultOrder:  "start_at DESC",
		Preloads:      []string{"JobOrder", "Equipment"},
	})}
}

// FindByJobOrder returns the results of a job order, oldest first
func (r *GormProdResultRepository) FindByJobOrder(ctx context.Context, scope shared.Actor, jobOrderID uuid.UUID) ([]production.ProdResult, error) {
	return r.FindAll(ctx, scope, shared.Conds{"job_order_id": jobOrderID}, "start_at ASC")
}

const resultTotalsSelect = `COALESCE(SUM(good_qty), 0) AS good_qty,
	COALESCE(SUM(defect_qty), 0) AS defect_qty,
	AVG(cycle_time) AS avg_cycle_time,
	COUNT(*) AS result_count`

func (r *GormProdResultRepository) live(ctx context.Context, scope shared.Actor) *gorm.DB {
	return r.plain(ctx, scope).Where("status <> ?", production.ResultCanceled)
}

// Totals aggregates results that are not CANCELED
func (r *GormProdResultRepository) Totals(ctx context.Context, scope shared.Actor, q production.ResultQuery) (production.ResultTotals, error) {
	db := r.live(ctx, scope)
	if q.JobOrderID != nil {
		db = db.Where("job_order_id = ?", *q.JobOrderID)
	}
	if q.EquipID != nil {
		db = db.Where("equip_id = ?", *q.EquipID)
	}
	if q.WorkerID != nil {
		db = db.Where("worker_id = ?", *q.WorkerID)
	}
	if q.From != nil {
		db = db.Where("start_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("start_at <= ?", *q.To)
	}
	var totals production.ResultTotals
	err := db.Select(resultTotalsSelect).Scan(&totals).Error
	return totals, err
}

// DailyTotals aggregates results that are not CANCELED per start day
func (r *GormProdResultRepository) DailyTotals(ctx context.Context, scope shared.Actor, from, to time.Time) ([]production.DailyTotals, error) {
	db := r.live(ctx, scope)
	day := dayExpr(db, "start_at")
	var out []production.DailyTotals
	err := db.
		Select(day+" AS date, "+resultTotalsSelect).
		Where("start_at >= ? AND start_at <= ?", from, to).
		Group(day).
		Order(day + " ASC").
		Scan(&out).Error
	return out, err
}

// GormProdPlanRepository implements ProdPlanRepository using GORM
type GormProdPlanRepository struct {
	*GormCrudRepository[production.ProdPlan]
}

// NewGormProdPlanRepository creates a new GormProdPlanRepository
func NewGormProdPlanRepository(db *gorm.DB) *GormProdPlanRepository {
	return &GormProdPlanRepository{NewGormCrudRepository[production.ProdPlan](db, CrudOptions{
		SearchColumns: []string{"plan_no", "customer", "line_code"},
		DateColumn:    "created_at",
		SortFields:    sortFields("plan_no", "plan_month", "priority", "status", "plan_qty"),
		DefaultOrder:  "priority ASC, created_at DESC",
		Preloads:      []string{"Part"},
	})}
}

// FindByMonth returns every plan of a month
func (r *GormProdPlanRepository) FindByMonth(ctx context.Context, scope shared.Actor, month string) ([]production.ProdPlan, error) {
	return r.FindAll(ctx, scope, shared.Conds{"plan_month": month}, "plan_no ASC")
}

// FindByIDs returns the plans with the given ids
func (r *GormProdPlanRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]production.ProdPlan, error) {
	var plans []production.ProdPlan
	if len(ids) == 0 {
		return plans, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Find(&plans).Error
	return plans, err
}

// LastNumber returns the greatest planNo starting with prefix, or ""
func (r *GormProdPlanRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	return lastByPrefix(r.Conn(ctx), &production.ProdPlan{}, "plan_no", prefix)
}

var (
	_ production.JobOrderRepository   = (*GormJobOrderRepository)(nil)
	_ production.ProdResultRepository = (*GormProdResultRepository)(nil)
	_ production.ProdPlanRepository   = (*GormProdPlanRepository)(nil)
)

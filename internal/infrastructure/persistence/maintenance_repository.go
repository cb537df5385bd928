package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPmPlanRepository implements PmPlanRepository using GORM
type GormPmPlanRepository struct {
	*GormCrudRepository[maintenance.PmPlan]
}

// NewGormPmPlanRepository creates a new GormPmPlanRepository
func NewGormPmPlanRepository(db *gorm.DB) *GormPmPlanRepository {
	return &GormPmPlanRepository{NewGormCrudRepository[maintenance.PmPlan](db, CrudOptions{
		SearchColumns: []string{"plan_code", "plan_name"},
		StatusColumn:  "use_yn",
		DateColumn:    "next_due_at",
		SortFields:    sortFields("plan_code", "plan_name", "next_due_at", "cycle_type"),
		DefaultOrder:  "plan_code ASC",
		Preloads:      []string{"Equipment"},
	})}
}

// FindWithItems loads a plan with its check items in seq order
func (r *GormPmPlanRepository) FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*maintenance.PmPlan, error) {
	var plan maintenance.PmPlan
	err := r.Scoped(ctx, scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &plan, nil
}

// ReplaceItems deletes the items of a plan and inserts the given ones
func (r *GormPmPlanRepository) ReplaceItems(ctx context.Context, planID uuid.UUID, items []maintenance.PmPlanItem) error {
	db := r.Conn(ctx)
	if err := db.Where("pm_plan_id = ?", planID).Delete(&maintenance.PmPlanItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].PmPlanID = planID
	}
	return db.Create(&items).Error
}

// FindDue returns active plans with nextDueAt in [from, to]
func (r *GormPmPlanRepository) FindDue(ctx context.Context, scope shared.Actor, from, to time.Time) ([]maintenance.PmPlan, error) {
	var plans []maintenance.PmPlan
	err := r.plain(ctx, scope).
		Where("use_yn = ? AND next_due_at >= ? AND next_due_at <= ?", shared.Yes, from, to).
		Order("next_due_at ASC").
		Find(&plans).Error
	return plans, err
}

// FindByIDs returns the plans with the given ids
func (r *GormPmPlanRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]maintenance.PmPlan, error) {
	var plans []maintenance.PmPlan
	if len(ids) == 0 {
		return plans, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Find(&plans).Error
	return plans, err
}

// PlanTenants lists every company/plant pair owning an active plan
func (r *GormPmPlanRepository) PlanTenants(ctx context.Context) ([]shared.Actor, error) {
	var rows []struct {
		Company string
		Plant   string
	}
	err := r.Conn(ctx).Model(&maintenance.PmPlan{}).
		Distinct("company", "plant").
		Where("use_yn = ?", shared.Yes).
		Order("company ASC, plant ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]shared.Actor, len(rows))
	for i, row := range rows {
		out[i] = shared.SystemActor(row.Company, row.Plant)
	}
	return out, nil
}

// GormPmWorkOrderRepository implements PmWorkOrderRepository using GORM
type GormPmWorkOrderRepository struct {
	*GormCrudRepository[maintenance.PmWorkOrder]
}

// NewGormPmWorkOrderRepository creates a new GormPmWorkOrderRepository
func NewGormPmWorkOrderRepository(db *gorm.DB) *GormPmWorkOrderRepository {
	return &GormPmWorkOrderRepository{NewGormCrudRepository[maintenance.PmWorkOrder](db, CrudOptions{
		SearchColumns: []string{"work_order_no", "remark"},
		DateColumn:    "scheduled_date",
		SortFields:    sortFields("work_order_no", "scheduled_date", "status", "priority"),
		DefaultOrder:  "scheduled_date DESC, work_order_no DESC",
		Preloads:      []string{"Equipment", "Plan", "Results"},
	})}
}

// ExistsFor reports whether a live work order was already generated for plan on that date
func (r *GormPmWorkOrderRepository) ExistsFor(ctx context.Context, scope shared.Actor, planID uuid.UUID, scheduled time.Time) (bool, error) {
	return r.Exists(ctx, scope, shared.Conds{"pm_plan_id": planID, "scheduled_date": scheduled}, nil)
}

// LastNumber returns the greatest workOrderNo starting with prefix, or "".
// Numbers are unique across tenants, so no tenant scope applies.
func (r *GormPmWorkOrderRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	return lastByPrefix(r.Conn(ctx), &maintenance.PmWorkOrder{}, "work_order_no", prefix)
}

// CreateResults inserts check results of executed work orders
func (r *GormPmWorkOrderRepository) CreateResults(ctx context.Context, results []maintenance.PmWoResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.Conn(ctx).Create(&results).Error
}

// FindScheduled returns work orders scheduled inside the query window with equipment and results loaded
func (r *GormPmWorkOrderRepository) FindScheduled(ctx context.Context, scope shared.Actor, q maintenance.CalendarQuery) ([]maintenance.PmWorkOrder, error) {
	db := r.plain(ctx, scope).
		Preload("Equipment").
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("pm_work_orders.scheduled_date >= ? AND pm_work_orders.scheduled_date <= ?", q.From, q.To)
	if q.LineCode != "" || q.EquipType != "" {
		db = db.Joins("JOIN equipments ON equipments.id = pm_work_orders.equipment_id")
		if q.LineCode != "" {
			db = db.Where("equipments.line_code = ?", q.LineCode)
		}
		if q.EquipType != "" {
			db = db.Where("equipments.equip_type = ?", q.EquipType)
		}
	}
	var orders []maintenance.PmWorkOrder
	err := db.Order("pm_work_orders.scheduled_date ASC, pm_work_orders.work_order_no ASC").Find(&orders).Error
	return orders, err
}

// GormConsumableRepository implements ConsumableRepository using GORM
type GormConsumableRepository struct {
	*GormCrudRepository[maintenance.Consumable]
}

// NewGormConsumableRepository creates a new GormConsumableRepository
func NewGormConsumableRepository(db *gorm.DB) *GormConsumableRepository {
	return &GormConsumableRepository{NewGormCrudRepository[maintenance.Consumable](db, CrudOptions{
		SearchColumns: []string{"consumable_code", "consumable_name", "equip_code"},
		SortFields:    sortFields("consumable_code", "consumable_name", "status", "current_count", "next_replace_at"),
		DefaultOrder:  "consumable_code ASC",
	})}
}

var alertStatuses = []maintenance.ConsumableStatus{maintenance.ConsumableWarning, maintenance.ConsumableReplace}

// FindWarnings returns active WARNING and REPLACE consumables, REPLACE first
func (r *GormConsumableRepository) FindWarnings(ctx context.Context, scope shared.Actor) ([]maintenance.Consumable, error) {
	var out []maintenance.Consumable
	err := r.plain(ctx, scope).
		Where("use_yn = ? AND status IN ?", shared.Yes, alertStatuses).
		Order("status DESC, consumable_code ASC").
		Find(&out).Error
	return out, err
}

// FindReplacementDue returns active items in WARNING/REPLACE or due for replacement before the limit
func (r *GormConsumableRepository) FindReplacementDue(ctx context.Context, scope shared.Actor, before time.Time) ([]maintenance.Consumable, error) {
	var out []maintenance.Consumable
	err := r.plain(ctx, scope).
		Where("use_yn = ?", shared.Yes).
		Where("status IN ? OR (next_replace_at IS NOT NULL AND next_replace_at <= ?)", alertStatuses, before).
		Order("next_replace_at ASC, consumable_code ASC").
		Find(&out).Error
	return out, err
}

// Stats counts active consumables by status and category
func (r *GormConsumableRepository) Stats(ctx context.Context, scope shared.Actor) (maintenance.ConsumableStats, error) {
	var stats maintenance.ConsumableStats
	active := func() *gorm.DB { return r.plain(ctx, scope).Where("use_yn = ?", shared.Yes) }

	if err := active().Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := active().Select("status AS key, COUNT(*) AS count").Group("status").Order("status ASC").Scan(&stats.ByStatus).Error; err != nil {
		return stats, err
	}
	if err := active().Select("COALESCE(category, '') AS key, COUNT(*) AS count").Group("category").Order("category ASC").Scan(&stats.ByCategory).Error; err != nil {
		return stats, err
	}
	if stats.ByStatus == nil {
		stats.ByStatus = []master.StatusCount{}
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []master.StatusCount{}
	}
	return stats, nil
}

// GormConsumableLogRepository implements ConsumableLogRepository using GORM
type GormConsumableLogRepository struct {
	*GormCrudRepository[maintenance.ConsumableLog]
}

// NewGormConsumableLogRepository creates a new GormConsumableLogRepository
func NewGormConsumableLogRepository(db *gorm.DB) *GormConsumableLogRepository {
	return &GormConsumableLogRepository{NewGormCrudRepository[maintenance.ConsumableLog](db, CrudOptions{
		StatusColumn: "log_type",
		DateColumn:   "created_at",
		SortFields:   sortFields("log_type", "qty"),
		Preloads:     []string{"Consumable"},
	})}
}

var (
	_ maintenance.PmPlanRepository        = (*GormPmPlanRepository)(nil)
	_ maintenance.TenantLister            = (*GormPmPlanRepository)(nil)
	_ maintenance.PmWorkOrderRepository   = (*GormPmWorkOrderRepository)(nil)
	_ maintenance.ConsumableRepository    = (*GormConsumableRepository)(nil)
	_ maintenance.ConsumableLogRepository = (*GormConsumableLogRepository)(nil)
)

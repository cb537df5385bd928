package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// PmPlanRepository persists PM plans with their items
type PmPlanRepository interface {
	shared.Repository[PmPlan]
	FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*PmPlan, error)
	ReplaceItems(ctx context.Context, planID uuid.UUID, items []PmPlanItem) error
	// FindDue returns active plans with nextDueAt in [from, to]
	FindDue(ctx context.Context, scope shared.Actor, from, to time.Time) ([]PmPlan, error)
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]PmPlan, error)
}

// CalendarQuery narrows calendar lookups by the machine's line and type
type CalendarQuery struct {
	From      time.Time
	To        time.Time
	LineCode  string
	EquipType string
}

// PmWorkOrderRepository persists PM work orders with their results
type PmWorkOrderRepository interface {
	shared.Repository[PmWorkOrder]
	ExistsFor(ctx context.Context, scope shared.Actor, planID uuid.UUID, scheduled time.Time) (bool, error)
	// LastNumber returns the greatest workOrderNo starting with prefix, or ""
	LastNumber(ctx context.Context, prefix string) (string, error)
	CreateResults(ctx context.Context, results []PmWoResult) error
	// FindScheduled returns work orders scheduled inside the query window with equipment and results loaded
	FindScheduled(ctx context.Context, scope shared.Actor, q CalendarQuery) ([]PmWorkOrder, error)
}

// TenantLister lists the tenants that own active PM plans
type TenantLister interface {
	PlanTenants(ctx context.Context) ([]shared.Actor, error)
}

// ConsumableRepository persists consumables
type ConsumableRepository interface {
	shared.Repository[Consumable]
	// FindWarnings returns active WARNING and REPLACE consumables, REPLACE first
	FindWarnings(ctx context.Context, scope shared.Actor) ([]Consumable, error)
	// FindReplacementDue returns active items in WARNING/REPLACE or due for replacement before the limit
	FindReplacementDue(ctx context.Context, scope shared.Actor, before time.Time) ([]Consumable, error)
	Stats(ctx context.Context, scope shared.Actor) (ConsumableStats, error)
}

// ConsumableLogRepository persists consumable movements
type ConsumableLogRepository interface {
	shared.Repository[ConsumableLog]
}

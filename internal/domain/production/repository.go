package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// JobOrderRepository persists job orders
type JobOrderRepository interface {
	shared.Repository[JobOrder]
	// FindUnsynced returns DONE orders not yet sent to the ERP
	FindUnsynced(ctx context.Context, scope shared.Actor) ([]JobOrder, error)
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]JobOrder, error)
}

// ResultQuery narrows result aggregates
type ResultQuery struct {
	JobOrderID *uuid.UUID
	EquipID    *uuid.UUID
	WorkerID   *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// ProdResultRepository persists production results
type ProdResultRepository interface {
	shared.Repository[ProdResult]
	FindByJobOrder(ctx context.Context, scope shared.Actor, jobOrderID uuid.UUID) ([]ProdResult, error)
	// Totals aggregates results that are not CANCELED
	Totals(ctx context.Context, scope shared.Actor, q ResultQuery) (ResultTotals, error)
	// DailyTotals aggregates results that are not CANCELED per start day
	DailyTotals(ctx context.Context, scope shared.Actor, from, to time.Time) ([]DailyTotals, error)
}

// ProdPlanRepository persists monthly production plans
type ProdPlanRepository interface {
	shared.Repository[ProdPlan]
	FindByMonth(ctx context.Context, scope shared.Actor, month string) ([]ProdPlan, error)
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]ProdPlan, error)
	// LastNumber returns the greatest planNo starting with prefix, or ""
	LastNumber(ctx context.Context, prefix string) (string, error)
}

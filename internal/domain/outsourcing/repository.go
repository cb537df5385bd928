package outsourcing

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// VendorRepository persists subcontract vendors
type VendorRepository interface {
	shared.Repository[Vendor]
	CountActive(ctx context.Context, scope shared.Actor) (int64, error)
}

// OrderRepository persists subcontract orders
type OrderRepository interface {
	shared.Repository[Order]
	// LockByID reads the order with a row lock for quantity updates
	LockByID(ctx context.Context, scope shared.Actor, id uuid.UUID) (*Order, error)
	FindDetail(ctx context.Context, scope shared.Actor, id uuid.UUID) (*Order, error)
	FindByStatuses(ctx context.Context, scope shared.Actor, statuses []OrderStatus) ([]Order, error)
	CountByStatuses(ctx context.Context, scope shared.Actor, statuses []OrderStatus) (int64, error)
	// CountByPrefix counts orders whose number starts with prefix, deleted rows included
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

// DeliveryRepository persists deliveries
type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	FindByOrder(ctx context.Context, scope shared.Actor, orderID uuid.UUID) ([]Delivery, error)
}

// ReceiveRepository persists receives
type ReceiveRepository interface {
	Create(ctx context.Context, r *Receive) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	FindByOrder(ctx context.Context, scope shared.Actor, orderID uuid.UUID) ([]Receive, error)
}

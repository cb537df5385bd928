package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// BoxRepository persists boxes
type BoxRepository interface {
	shared.Repository[Box]
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]Box, error)
	FindByPallet(ctx context.Context, scope shared.Actor, palletID uuid.UUID) ([]Box, error)
	FindByPallets(ctx context.Context, scope shared.Actor, palletIDs []uuid.UUID) ([]Box, error)
	// FindAwaitingOqc returns CLOSED boxes with no OQC verdict, optionally for one part
	FindAwaitingOqc(ctx context.Context, scope shared.Actor, partID *uuid.UUID) ([]Box, error)
	FindUnassigned(ctx context.Context, scope shared.Actor) ([]Box, error)
}

// PalletRepository persists pallets
type PalletRepository interface {
	shared.Repository[Pallet]
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]Pallet, error)
	FindByShipment(ctx context.Context, scope shared.Actor, shipmentID uuid.UUID) ([]Pallet, error)
}

// ShipmentRepository persists shipments
type ShipmentRepository interface {
	shared.Repository[Shipment]
	// FindUnsynced returns SHIPPED and DELIVERED shipments not yet sent to the ERP
	FindUnsynced(ctx context.Context, scope shared.Actor) ([]Shipment, error)
	FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]Shipment, error)
	// Stats totals SHIPPED and DELIVERED shipments with ship dates in [from, to]
	Stats(ctx context.Context, scope shared.Actor, from, to time.Time) (ShipmentStats, error)
}

// ShipReturnRepository persists customer returns with their items
type ShipReturnRepository interface {
	shared.Repository[ShipReturn]
	FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*ShipReturn, error)
	ReplaceItems(ctx context.Context, returnID uuid.UUID, items []ShipReturnItem) error
	// LastNumber returns the greatest returnNo starting with prefix, or ""
	LastNumber(ctx context.Context, prefix string) (string, error)
	// CountByStatus counts returns dated in [from, to] per status
	CountByStatus(ctx context.Context, scope shared.Actor, from, to time.Time) ([]ReturnStatusCount, error)
}

package material

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// PurchaseOrderRepository persists purchase orders with their items
type PurchaseOrderRepository interface {
	shared.Repository[PurchaseOrder]
	// FindWithItems loads an order and its lines
	FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*PurchaseOrder, error)
	// FindByItem loads the order owning itemID with all its lines
	FindByItem(ctx context.Context, scope shared.Actor, itemID uuid.UUID) (*PurchaseOrder, error)
	// FindReceivable returns CONFIRMED and PARTIAL orders with their lines
	FindReceivable(ctx context.Context, scope shared.Actor) ([]PurchaseOrder, error)
	// ReplaceItems deletes the lines of po and inserts po.Items
	ReplaceItems(ctx context.Context, po *PurchaseOrder) error
	SaveItem(ctx context.Context, item *PurchaseOrderItem) error
}

// MatLotRepository persists lots
type MatLotRepository interface {
	shared.Repository[MatLot]
}

// MatStockRepository persists stock rows
type MatStockRepository interface {
	// FindByKey returns the stock row of (warehouse, part, lot); a nil lot matches rows without lot
	FindByKey(ctx context.Context, scope shared.Actor, warehouseID, partID uuid.UUID, lotID *uuid.UUID) (*MatStock, error)
	// FindByLot returns the rows holding the lot
	FindByLot(ctx context.Context, scope shared.Actor, lotID uuid.UUID) ([]MatStock, error)
	List(ctx context.Context, scope shared.Actor, filter shared.Filter) ([]MatStock, int64, error)
	Summary(ctx context.Context, scope shared.Actor, filter shared.Filter) ([]StockSummary, error)
	Create(ctx context.Context, stock *MatStock) error
	Save(ctx context.Context, stock *MatStock) error
}

// MatTransactionRepository persists stock movements
type MatTransactionRepository interface {
	shared.Repository[MatTransaction]
	// SumQty totals DONE movements of a type for a lot
	SumQty(ctx context.Context, scope shared.Actor, lotID uuid.UUID, transType TransType) (int, error)
	// Totals counts DONE movements of a type in [from, to) and sums their qty
	Totals(ctx context.Context, scope shared.Actor, transType TransType, from, to time.Time) (count, qty int64, err error)
}

// MatIssueRepository persists issues
type MatIssueRepository interface {
	shared.Repository[MatIssue]
}

// LabelPrintLogRepository persists label print batches
type LabelPrintLogRepository interface {
	Create(ctx context.Context, log *LabelPrintLog) error
	List(ctx context.Context, scope shared.Actor, filter shared.Filter) ([]LabelPrintLog, int64, error)
}

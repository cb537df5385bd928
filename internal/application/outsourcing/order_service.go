package outsourcing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/outsourcing"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OrderService manages subcontract orders and their deliveries and receives
type OrderService struct {
	orders     outsourcing.OrderRepository
	vendors    outsourcing.VendorRepository
	deliveries outsourcing.DeliveryRepository
	receives   outsourcing.ReceiveRepository
	tx         TransactionScope
	now        func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(orders outsourcing.OrderRepository, vendors outsourcing.VendorRepository, deliveries outsourcing.DeliveryRepository, receives outsourcing.ReceiveRepository, tx TransactionScope) *OrderService {
	return &OrderService{orders: orders, vendors: vendors, deliveries: deliveries, receives: receives, tx: tx, now: time.Now}
}

// List returns a page of orders, newest order date first
func (s *OrderService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[outsourcing.Order], error) {
	items, total, err := s.orders.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[outsourcing.Order]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns an order with its vendor, deliveries and receives
func (s *OrderService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*outsourcing.Order, error) {
	return s.orders.FindDetail(ctx, actor, id)
}

// Create registers an ORDERED order numbered SCOYYYYMMDDNNNN unless a SUBCON_ORDER rule is set up
func (s *OrderService) Create(ctx context.Context, actor shared.Actor, req CreateOrderRequest) (*outsourcing.Order, error) {
	if _, err := s.vendors.FindByID(ctx, actor, req.VendorID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("vendor", req.VendorID)
		}
		return nil, err
	}
	var order *outsourcing.Order
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		now := s.now()
		orderNo, err := appnum.NextNumberInTx(ctx, repos.Rules(), actor, numbering.RuleSubconOrder, now)
		if errors.Is(err, appnum.ErrRuleNotRegistered) {
			orderNo, err = nextCompact(ctx, repos.SubconOrders().CountByPrefix, outsourcing.OrderPrefix, now)
		}
		if err != nil {
			return err
		}
		orderDate := time.Time{}
		if req.OrderDate != nil {
			orderDate = *req.OrderDate
		}
		if order, err = outsourcing.NewOrder(actor, orderNo, req.VendorID, req.PartCode, req.OrderQty, req.UnitPrice, orderDate); err != nil {
			return err
		}
		order.PartName = req.PartName
		order.DueDate = req.DueDate
		order.Remark = req.Remark
		return repos.SubconOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Update changes an order. Part, quantity and price are fixed once material left the plant.
func (s *OrderService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateOrderRequest) (*outsourcing.Order, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.PartCode != nil || req.OrderQty != nil || req.UnitPrice != nil {
		if order.Status != outsourcing.OrderOrdered || order.DeliveredQty > 0 {
			return nil, shared.InvalidState("order %s already has deliveries", order.OrderNo)
		}
	}
	if req.PartCode != nil {
		order.PartCode = *req.PartCode
	}
	if req.PartName != nil {
		order.PartName = *req.PartName
	}
	if req.OrderQty != nil {
		order.OrderQty = *req.OrderQty
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, shared.InvalidInput("unitPrice cannot be negative")
		}
		order.UnitPrice = *req.UnitPrice
	}
	if req.OrderDate != nil {
		order.OrderDate = *req.OrderDate
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if req.Remark != nil {
		order.Remark = *req.Remark
	}
	order.Touch(actor.UserID)
	order.Vendor = nil
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel voids an ORDERED order
func (s *OrderService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID) (*outsourcing.Order, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(actor.UserID); err != nil {
		return nil, err
	}
	order.Vendor = nil
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Deliver records material sent to the vendor; qty may not exceed what is left to send
func (s *OrderService) Deliver(ctx context.Context, actor shared.Actor, req CreateDeliveryRequest) (*outsourcing.Delivery, error) {
	var delivery *outsourcing.Delivery
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		order, err := repos.SubconOrders().LockByID(ctx, actor, req.OrderID)
		if err != nil {
			return err
		}
		if err := order.Deliver(req.Qty, actor.UserID); err != nil {
			return err
		}
		deliveryNo, err := nextCompact(ctx, repos.SubconDeliveries().CountByPrefix, outsourcing.DeliveryPrefix, s.now())
		if err != nil {
			return err
		}
		delivery = outsourcing.NewDelivery(actor, order.ID, deliveryNo, req.Qty)
		delivery.LotNo = shared.NormalizeScan(req.LotNo)
		if req.WorkerID != "" {
			delivery.WorkerID = req.WorkerID
		}
		delivery.Remark = req.Remark
		if err := repos.SubconDeliveries().Create(ctx, delivery); err != nil {
			return err
		}
		return repos.SubconOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("subcontract material delivered",
		zap.String("delivery_no", delivery.DeliveryNo),
		zap.Int("qty", delivery.Qty))
	return delivery, nil
}

// Receive records processed goods returned by the vendor
func (s *OrderService) Receive(ctx context.Context, actor shared.Actor, req CreateReceiveRequest) (*outsourcing.Receive, error) {
	var receive *outsourcing.Receive
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		order, err := repos.SubconOrders().LockByID(ctx, actor, req.OrderID)
		if err != nil {
			return err
		}
		receiveNo, err := nextCompact(ctx, repos.SubconReceives().CountByPrefix, outsourcing.ReceivePrefix, s.now())
		if err != nil {
			return err
		}
		receive = outsourcing.NewReceive(actor, order.ID, receiveNo, req.Qty, req.GoodQty, req.DefectQty)
		if err := order.Receive(receive.Qty, receive.DefectQty, actor.UserID); err != nil {
			return err
		}
		receive.LotNo = shared.NormalizeScan(req.LotNo)
		receive.InspectResult = req.InspectResult
		if req.WorkerID != "" {
			receive.WorkerID = req.WorkerID
		}
		receive.Remark = req.Remark
		if err := repos.SubconReceives().Create(ctx, receive); err != nil {
			return err
		}
		return repos.SubconOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("subcontract goods received",
		zap.String("receive_no", receive.ReceiveNo),
		zap.Int("qty", receive.Qty),
		zap.Int("defect_qty", receive.DefectQty))
	return receive, nil
}

// Deliveries lists the deliveries of an order
func (s *OrderService) Deliveries(ctx context.Context, actor shared.Actor, orderID uuid.UUID) ([]outsourcing.Delivery, error) {
	items, err := s.deliveries.FindByOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []outsourcing.Delivery{}
	}
	return items, nil
}

// Receives lists the receives of an order
func (s *OrderService) Receives(ctx context.Context, actor shared.Actor, orderID uuid.UUID) ([]outsourcing.Receive, error) {
	items, err := s.receives.FindByOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []outsourcing.Receive{}
	}
	return items, nil
}

// Summary counts orders by progress and active vendors
func (s *OrderService) Summary(ctx context.Context, actor shared.Actor) (outsourcing.Summary, error) {
	var out outsourcing.Summary
	var err error
	if out.TotalOrders, err = s.orders.CountByStatuses(ctx, actor, nil); err != nil {
		return out, err
	}
	if out.ActiveOrders, err = s.orders.CountByStatuses(ctx, actor, outsourcing.ActiveStatuses); err != nil {
		return out, err
	}
	if out.PendingReceive, err = s.orders.CountByStatuses(ctx, actor, outsourcing.AtVendorStatuses); err != nil {
		return out, err
	}
	if out.TotalVendors, err = s.vendors.CountActive(ctx, actor); err != nil {
		return out, err
	}
	return out, nil
}

// VendorStock totals material currently held by each vendor
func (s *OrderService) VendorStock(ctx context.Context, actor shared.Actor) ([]outsourcing.VendorStock, error) {
	orders, err := s.orders.FindByStatuses(ctx, actor, outsourcing.AtVendorStatuses)
	if err != nil {
		return nil, err
	}
	stocks := outsourcing.StockByVendor(orders)
	if stocks == nil {
		stocks = []outsourcing.VendorStock{}
	}
	return stocks, nil
}

type prefixCounter func(ctx context.Context, prefix string) (int64, error)

// nextCompact renders <P>YYYYMMDD<seq4> after the numbers already issued today
func nextCompact(ctx context.Context, count prefixCounter, prefix string, now time.Time) (string, error) {
	n, err := count(ctx, prefix+now.Format("20060102"))
	if err != nil {
		return "", err
	}
	return numbering.CompactCounter(prefix, now, int(n)+1), nil
}

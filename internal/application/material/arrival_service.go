package material

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ArrivalService books incoming material into stock
type ArrivalService struct {
	orders       material.PurchaseOrderRepository
	transactions material.MatTransactionRepository
	tx           TransactionScope
	now          func() time.Time
}

// NewArrivalService creates a new ArrivalService
func NewArrivalService(orders material.PurchaseOrderRepository, transactions material.MatTransactionRepository, tx TransactionScope) *ArrivalService {
	return &ArrivalService{orders: orders, transactions: transactions, tx: tx, now: time.Now}
}

// List returns a page of arrival movements (MAT_IN and MAT_IN_CANCEL)
func (s *ArrivalService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatTransaction], error) {
	f := filter
	if _, ok := f.Filters["trans_type"]; !ok {
		f = f.With("trans_type", []string{string(material.TransMatIn), string(material.TransMatInCancel)})
	}
	items, total, err := s.transactions.List(ctx, actor, f)
	if err != nil {
		return shared.Page[material.MatTransaction]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// ReceivePO books PO lines into stock. Each line creates a lot awaiting IQC,
// a MAT_IN movement and a stock increase; the order status is recomputed.
func (s *ArrivalService) ReceivePO(ctx context.Context, actor shared.Actor, req POArrivalRequest) ([]material.MatTransaction, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("at least one item is required")
	}
	now := s.now()
	var out []material.MatTransaction
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		po, err := repos.PurchaseOrders().FindWithItems(ctx, actor, req.PoID)
		if err != nil {
			return err
		}
		if !po.CanReceive() {
			return shared.InvalidState("purchase order %s cannot receive in status %s", po.PoNo, po.Status)
		}
		// validate every line before booking any
		for _, in := range req.Items {
			item, ok := po.Item(in.PoItemID)
			if !ok {
				return shared.NotFound("purchase order item", in.PoItemID)
			}
			if in.Qty > item.RemainingQty() {
				return shared.InvalidInput("arrival qty %d exceeds remaining qty %d", in.Qty, item.RemainingQty())
			}
		}
		for _, in := range req.Items {
			item, _ := po.Item(in.PoItemID)
			remark := in.Remark
			if remark == "" {
				remark = req.Remark
			}
			t, err := s.book(ctx, repos, actor, arrival{
				partID:      item.PartID,
				warehouseID: in.WarehouseID,
				qty:         in.Qty,
				lotNo:       in.LotNo,
				poNo:        po.PoNo,
				vendor:      po.PartnerName,
				supUID:      in.SupUID,
				remark:      remark,
				refType:     material.RefPO,
				refID:       &item.ID,
			}, now)
			if err != nil {
				return err
			}
			item.ReceivedQty += in.Qty
			if err := repos.PurchaseOrders().SaveItem(ctx, item); err != nil {
				return err
			}
			out = append(out, *t)
		}
		po.RecomputeStatus()
		po.Touch(actor.UserID)
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("PO arrival booked",
		zap.String("po_id", req.PoID.String()),
		zap.Int("lines", len(out)))
	return out, nil
}

// ReceiveManual books material that arrived without a purchase order
func (s *ArrivalService) ReceiveManual(ctx context.Context, actor shared.Actor, req ManualArrivalRequest) (*material.MatTransaction, error) {
	now := s.now()
	var out *material.MatTransaction
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		if _, err := repos.Parts().FindByID(ctx, actor, req.PartID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("part", req.PartID)
			}
			return err
		}
		var err error
		out, err = s.book(ctx, repos, actor, arrival{
			partID:      req.PartID,
			warehouseID: req.WarehouseID,
			qty:         req.Qty,
			lotNo:       req.LotNo,
			vendor:      req.Vendor,
			supUID:      req.SupUID,
			remark:      req.Remark,
			refType:     material.RefManual,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type arrival struct {
	partID      uuid.UUID
	warehouseID uuid.UUID
	qty         int
	lotNo       string
	poNo        string
	vendor      string
	supUID      string
	remark      string
	refType     string
	refID       *uuid.UUID
}

func (s *ArrivalService) book(ctx context.Context, repos Repositories, actor shared.Actor, a arrival, now time.Time) (*material.MatTransaction, error) {
	if a.qty <= 0 {
		return nil, shared.InvalidInput("arrival qty must be positive")
	}
	if err := ensureWarehouse(ctx, repos.Warehouses(), actor, a.warehouseID); err != nil {
		return nil, err
	}
	lotNo := shared.NormalizeScan(a.lotNo)
	if lotNo == "" {
		var err error
		if lotNo, err = drawNumber(ctx, repos.Rules(), actor, numbering.RuleMatLot, "L", now); err != nil {
			return nil, err
		}
	}
	if err := shared.EnsureUnique(ctx, repos.MatLots(), actor, shared.Conds{"lot_no": lotNo}, nil, "lotNo", lotNo); err != nil {
		return nil, err
	}
	lot, err := material.NewMatLot(actor, lotNo, a.partID, a.qty, now)
	if err != nil {
		return nil, err
	}
	lot.PoNo = a.poNo
	lot.Vendor = a.vendor
	lot.SupUID = a.supUID
	if err := repos.MatLots().Create(ctx, lot); err != nil {
		return nil, err
	}

	t := material.NewMatTransaction(actor, transNo("ARR", now), material.TransMatIn, a.partID, &lot.ID, a.qty, now)
	t.ToWarehouseID = &a.warehouseID
	t.RefType = a.refType
	t.RefID = a.refID
	t.Remark = a.remark
	if err := repos.MatTransactions().Create(ctx, t); err != nil {
		return nil, err
	}
	if err := upsertStock(ctx, repos.MatStocks(), actor, a.warehouseID, a.partID, &lot.ID, a.qty, now); err != nil {
		return nil, err
	}
	t.Lot = lot
	return t, nil
}

// Cancel reverses an arrival: the original is marked CANCELED, a negative
// MAT_IN_CANCEL movement is written and stock, lot and PO line are reduced.
func (s *ArrivalService) Cancel(ctx context.Context, actor shared.Actor, req CancelArrivalRequest) (*material.MatTransaction, error) {
	now := s.now()
	var reverse *material.MatTransaction
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		original, err := repos.MatTransactions().FindByID(ctx, actor, req.TransactionID)
		if err != nil {
			return err
		}
		reverse, err = original.CancelArrival(actor, req.Reason, now)
		if err != nil {
			return err
		}
		original.Part, original.Lot, original.ToWarehouse = nil, nil, nil
		if err := repos.MatTransactions().Save(ctx, original); err != nil {
			return err
		}
		if err := repos.MatTransactions().Create(ctx, reverse); err != nil {
			return err
		}
		if original.ToWarehouseID != nil {
			if err := upsertStock(ctx, repos.MatStocks(), actor, *original.ToWarehouseID, original.PartID, original.LotID, -original.Qty, now); err != nil {
				return err
			}
		}
		if original.LotID != nil {
			lot, err := repos.MatLots().FindByID(ctx, actor, *original.LotID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if lot != nil {
				lot.Reduce(original.Qty)
				lot.Touch(actor.UserID)
				lot.Part = nil
				if err := repos.MatLots().Save(ctx, lot); err != nil {
					return err
				}
			}
		}
		if original.RefType == material.RefPO && original.RefID != nil {
			return s.reducePOLine(ctx, repos, actor, *original.RefID, original.Qty)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("arrival canceled",
		zap.String("trans_no", reverse.TransNo),
		zap.Int("qty", reverse.Qty))
	return reverse, nil
}

func (s *ArrivalService) reducePOLine(ctx context.Context, repos Repositories, actor shared.Actor, itemID uuid.UUID, qty int) error {
	po, err := repos.PurchaseOrders().FindByItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	item, ok := po.Item(itemID)
	if !ok {
		return shared.NotFound("purchase order item", itemID)
	}
	item.ReceivedQty = max(0, item.ReceivedQty-qty)
	if err := repos.PurchaseOrders().SaveItem(ctx, item); err != nil {
		return err
	}
	po.RecomputeStatus()
	po.Touch(actor.UserID)
	return repos.PurchaseOrders().Save(ctx, po)
}

// Stats summarizes today's arrivals and the orders still open for receipt
func (s *ArrivalService) Stats(ctx context.Context, actor shared.Actor) (*ArrivalStats, error) {
	from := startOfDay(s.now())
	count, qty, err := s.transactions.Totals(ctx, actor, material.TransMatIn, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	open, err := s.orders.FindReceivable(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &ArrivalStats{TodayCount: count, TodayQty: qty, OpenPurchaseOrder: int64(len(open))}, nil
}

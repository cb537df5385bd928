package material

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/shared"
)

// ReceivingService puts inspected lots away into warehouses
type ReceivingService struct {
	lots         material.MatLotRepository
	transactions material.MatTransactionRepository
	tx           TransactionScope
	now          func() time.Time
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(lots material.MatLotRepository, transactions material.MatTransactionRepository, tx TransactionScope) *ReceivingService {
	return &ReceivingService{lots: lots, transactions: transactions, tx: tx, now: time.Now}
}

// Receivable lists lots that passed IQC and still have quantity to put away
func (s *ReceivingService) Receivable(ctx context.Context, actor shared.Actor) ([]ReceivableLot, error) {
	f := shared.Filter{Limit: shared.MaxLimit}.With("iqc_status", string(material.IqcPass))
	lots, _, err := s.lots.List(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	out := []ReceivableLot{}
	for _, lot := range lots {
		if lot.Status == material.LotStatusDepleted || lot.CurrentQty <= 0 {
			continue
		}
		received, err := s.transactions.SumQty(ctx, actor, lot.ID, material.TransReceive)
		if err != nil {
			return nil, err
		}
		if remaining := lot.InitQty - received; remaining > 0 {
			out = append(out, ReceivableLot{
				LotID:        lot.ID,
				LotNo:        lot.LotNo,
				PartID:       lot.PartID,
				InitQty:      lot.InitQty,
				ReceivedQty:  received,
				RemainingQty: remaining,
			})
		}
	}
	return out, nil
}

// Receive books RECEIVE movements. Each lot must have passed IQC and the
// quantity may not exceed initQty minus what was already received.
func (s *ReceivingService) Receive(ctx context.Context, actor shared.Actor, req ReceiveRequest) ([]material.MatTransaction, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("at least one item is required")
	}
	now := s.now()
	var out []material.MatTransaction
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		for _, item := range req.Items {
			lot, err := repos.MatLots().FindByID(ctx, actor, item.LotID)
			if err != nil {
				return err
			}
			if lot.IqcStatus != material.IqcPass {
				return shared.InvalidState("lot %s has not passed IQC", lot.LotNo)
			}
			received, err := repos.MatTransactions().SumQty(ctx, actor, lot.ID, material.TransReceive)
			if err != nil {
				return err
			}
			if remaining := lot.InitQty - received; item.Qty > remaining {
				return shared.InvalidInput("receive qty %d exceeds remaining qty %d of lot %s", item.Qty, remaining, lot.LotNo)
			}
			if err := ensureWarehouse(ctx, repos.Warehouses(), actor, item.WarehouseID); err != nil {
				return err
			}
			from, err := takeFromStaging(ctx, repos, actor, lot, item.WarehouseID, item.Qty, now)
			if err != nil {
				return err
			}
			t := material.NewMatTransaction(actor, transNo("RCV", now), material.TransReceive, lot.PartID, &lot.ID, item.Qty, now)
			t.FromWarehouseID = from
			t.ToWarehouseID = &item.WarehouseID
			t.RefType = material.RefReceive
			t.Remark = item.Remark
			if err := repos.MatTransactions().Create(ctx, t); err != nil {
				return err
			}
			if err := upsertStock(ctx, repos.MatStocks(), actor, item.WarehouseID, lot.PartID, &lot.ID, item.Qty, now); err != nil {
				return err
			}
			out = append(out, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// takeFromStaging moves up to qty of the lot out of the warehouse it arrived in.
// Returns the source warehouse, or nil when the lot has no stock elsewhere.
func takeFromStaging(ctx context.Context, repos Repositories, actor shared.Actor, lot *material.MatLot, target uuid.UUID, qty int, now time.Time) (*uuid.UUID, error) {
	rows, err := repos.MatStocks().FindByLot(ctx, actor, lot.ID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		row := &rows[i]
		if row.WarehouseID == target || row.Qty <= 0 {
			continue
		}
		row.ApplyDelta(-min(qty, row.Qty), now)
		row.Touch(actor.UserID)
		if err := repos.MatStocks().Save(ctx, row); err != nil {
			return nil, err
		}
		return &row.WarehouseID, nil
	}
	return nil, nil
}

// List returns a page of RECEIVE movements
func (s *ReceivingService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatTransaction], error) {
	items, total, err := s.transactions.List(ctx, actor, filter.With("trans_type", string(material.TransReceive)))
	if err != nil {
		return shared.Page[material.MatTransaction]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ShipReturnService registers goods returned by customers and tracks their disposal
type ShipReturnService struct {
	returns   shipping.ShipReturnRepository
	shipments shipping.ShipmentRepository
	parts     master.PartRepository
	tx        TransactionScope
	events    shared.EventPublisher
	now       func() time.Time
}

// NewShipReturnService creates a new ShipReturnService
func NewShipReturnService(returns shipping.ShipReturnRepository, shipments shipping.ShipmentRepository, parts master.PartRepository, tx TransactionScope, events shared.EventPublisher) *ShipReturnService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &ShipReturnService{returns: returns, shipments: shipments, parts: parts, tx: tx, events: events, now: time.Now}
}

// List returns a page of returns, newest return date first
func (s *ShipReturnService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[shipping.ShipReturn], error) {
	items, total, err := s.returns.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[shipping.ShipReturn]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns a return with its shipment and items
func (s *ShipReturnService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.ShipReturn, error) {
	return s.returns.FindWithItems(ctx, actor, id)
}

// Create registers a DRAFT return together with its items
func (s *ShipReturnService) Create(ctx context.Context, actor shared.Actor, req CreateReturnRequest) (*shipping.ShipReturn, error) {
	if err := s.checkShipment(ctx, actor, req.ShipmentID); err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, actor, req.Items)
	if err != nil {
		return nil, err
	}
	returnDate := s.now()
	if req.ReturnDate != nil {
		returnDate = *req.ReturnDate
	}

	var ret *shipping.ShipReturn
	err = s.tx.Execute(ctx, func(repos Repositories) error {
		returnNo := shared.NormalizeScan(req.ReturnNo)
		if returnNo == "" {
			var err error
			if returnNo, err = appnum.NextDatedCounter(ctx, repos.ShipReturns().LastNumber, shipping.ReturnPrefix, returnDate); err != nil {
				return err
			}
		}
		if err := shared.EnsureUnique(ctx, repos.ShipReturns(), actor, shared.Conds{"return_no": returnNo}, nil, "returnNo", returnNo); err != nil {
			return err
		}
		var err error
		if ret, err = shipping.NewShipReturn(actor, returnNo, returnDate); err != nil {
			return err
		}
		ret.ShipmentID = req.ShipmentID
		ret.ReturnReason = req.ReturnReason
		ret.Remark = req.Remark
		ret.SetItems(items)
		if err := repos.ShipReturns().Create(ctx, ret); err != nil {
			return err
		}
		return repos.ShipReturns().ReplaceItems(ctx, ret.ID, items)
	})
	if err != nil {
		return nil, err
	}
	return s.returns.FindWithItems(ctx, actor, ret.ID)
}

// Update changes a DRAFT return
func (s *ShipReturnService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateReturnRequest) (*shipping.ShipReturn, error) {
	ret, err := s.returns.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ret.CanEdit(); err != nil {
		return nil, err
	}
	if req.ShipmentID != nil {
		if err := s.checkShipment(ctx, actor, req.ShipmentID); err != nil {
			return nil, err
		}
		ret.ShipmentID = req.ShipmentID
	}
	if req.ReturnDate != nil {
		ret.ReturnDate = *req.ReturnDate
	}
	if req.ReturnReason != nil {
		ret.ReturnReason = *req.ReturnReason
	}
	if req.Remark != nil {
		ret.Remark = *req.Remark
	}
	var items []shipping.ShipReturnItem
	if req.Items != nil {
		if items, err = s.buildItems(ctx, actor, *req.Items); err != nil {
			return nil, err
		}
		ret.SetItems(items)
	}
	ret.Touch(actor.UserID)
	ret.Shipment = nil

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if err := repos.ShipReturns().Save(ctx, ret); err != nil {
			return err
		}
		if req.Items == nil {
			return nil
		}
		return repos.ShipReturns().ReplaceItems(ctx, ret.ID, items)
	})
	if err != nil {
		return nil, err
	}
	return s.returns.FindWithItems(ctx, actor, ret.ID)
}

// Delete soft-deletes a DRAFT return
func (s *ShipReturnService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	ret, err := s.returns.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := ret.CanEdit(); err != nil {
		return err
	}
	return s.returns.SoftDelete(ctx, actor, id)
}

// Confirm moves a return with items from DRAFT to CONFIRMED
func (s *ShipReturnService) Confirm(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.ShipReturn, error) {
	return s.apply(ctx, actor, id, func(r *shipping.ShipReturn) error { return r.Confirm(actor.UserID) })
}

// Complete closes a CONFIRMED return once its goods are restocked, scrapped or repaired
func (s *ShipReturnService) Complete(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.ShipReturn, error) {
	ret, err := s.apply(ctx, actor, id, func(r *shipping.ShipReturn) error { return r.Complete(actor.UserID, s.now()) })
	if err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, shipping.NewReturnCompleted(ret)); err != nil {
		logger.L(ctx).Warn("publish return completed failed", zap.String("return_no", ret.ReturnNo), zap.Error(err))
	}
	return ret, nil
}

// Stats counts returns per status by return date, the current month by default
func (s *ShipReturnService) Stats(ctx context.Context, actor shared.Actor, r StatsRange) ([]shipping.ReturnStatusCount, error) {
	from, to, err := r.window(s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.returns.CountByStatus(ctx, actor, from, to)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []shipping.ReturnStatusCount{}
	}
	return out, nil
}

func (s *ShipReturnService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*shipping.ShipReturn) error) (*shipping.ShipReturn, error) {
	ret, err := s.returns.FindWithItems(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ret); err != nil {
		return nil, err
	}
	ret.Shipment = nil
	if err := s.returns.Save(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// checkShipment accepts no shipment or one that has left the plant
func (s *ShipReturnService) checkShipment(ctx context.Context, actor shared.Actor, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	shipment, err := s.shipments.FindByID(ctx, actor, *id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("shipment", *id)
		}
		return err
	}
	if !shipment.IsFinal() {
		return shared.InvalidState("shipment %s is %s, only shipped goods can be returned", shipment.ShipNo, shipment.Status)
	}
	return nil
}

func (s *ShipReturnService) buildItems(ctx context.Context, actor shared.Actor, reqs []ReturnItemRequest) ([]shipping.ShipReturnItem, error) {
	items := make([]shipping.ShipReturnItem, 0, len(reqs))
	seen := make(map[uuid.UUID]struct{}, len(reqs))
	for _, r := range reqs {
		if _, ok := seen[r.PartID]; !ok {
			if _, err := s.parts.FindByID(ctx, actor, r.PartID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.NotFound("part", r.PartID)
				}
				return nil, err
			}
			seen[r.PartID] = struct{}{}
		}
		item, err := shipping.NewReturnItem(r.PartID, r.ReturnQty, r.DisposalType)
		if err != nil {
			return nil, err
		}
		item.Remark = r.Remark
		items = append(items, item)
	}
	return items, nil
}

package material

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/shared"
)

// PurchaseOrderService manages purchase orders
type PurchaseOrderService struct {
	orders material.PurchaseOrderRepository
	tx     TransactionScope
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orders material.PurchaseOrderRepository, tx TransactionScope) *PurchaseOrderService {
	return &PurchaseOrderService{orders: orders, tx: tx}
}

// List returns a page of orders without their lines
func (s *PurchaseOrderService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.PurchaseOrder], error) {
	items, total, err := s.orders.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.PurchaseOrder]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns an order with its lines
func (s *PurchaseOrderService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.PurchaseOrder, error) {
	return s.orders.FindWithItems(ctx, actor, id)
}

// Receivable returns CONFIRMED and PARTIAL orders with their lines
func (s *PurchaseOrderService) Receivable(ctx context.Context, actor shared.Actor) ([]material.PurchaseOrder, error) {
	return s.orders.FindReceivable(ctx, actor)
}

// Create adds a draft order; poNo is unique
func (s *PurchaseOrderService) Create(ctx context.Context, actor shared.Actor, req CreatePORequest) (*material.PurchaseOrder, error) {
	po, err := material.NewPurchaseOrder(actor, req.PoNo, req.OrderDate)
	if err != nil {
		return nil, err
	}
	po.PartnerID = req.PartnerID
	po.PartnerName = req.PartnerName
	po.DueDate = req.DueDate
	po.Remark = req.Remark
	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := po.SetItems(items); err != nil {
		return nil, err
	}

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if err := shared.EnsureUnique(ctx, repos.PurchaseOrders(), actor, shared.Conds{"po_no": po.PoNo}, nil, "poNo", po.PoNo); err != nil {
			return err
		}
		if err := ensureParts(ctx, repos, actor, items); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Create(ctx, po); err != nil {
			return err
		}
		return repos.PurchaseOrders().ReplaceItems(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func buildItems(reqs []POItemRequest) ([]material.PurchaseOrderItem, error) {
	items := make([]material.PurchaseOrderItem, 0, len(reqs))
	for _, r := range reqs {
		item, err := material.NewPurchaseOrderItem(r.PartID, r.OrderQty, r.UnitPrice, r.Remark)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func ensureParts(ctx context.Context, repos Repositories, actor shared.Actor, items []material.PurchaseOrderItem) error {
	for _, item := range items {
		if _, err := repos.Parts().FindByID(ctx, actor, item.PartID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("part", item.PartID)
			}
			return err
		}
	}
	return nil
}

// Update changes header fields; lines are replaced while the order has no receipts
func (s *PurchaseOrderService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePORequest) (*material.PurchaseOrder, error) {
	var po *material.PurchaseOrder
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindWithItems(ctx, actor, id)
		if err != nil {
			return err
		}
		if req.PartnerID != nil {
			po.PartnerID = req.PartnerID
		}
		if req.PartnerName != nil {
			po.PartnerName = *req.PartnerName
		}
		if req.DueDate != nil {
			po.DueDate = req.DueDate
		}
		if req.Remark != nil {
			po.Remark = *req.Remark
		}
		if req.Items != nil {
			items, err := buildItems(*req.Items)
			if err != nil {
				return err
			}
			for _, old := range po.Items {
				if old.ReceivedQty > 0 {
					return shared.InvalidState("purchase order %s already has receipts", po.PoNo)
				}
			}
			if err := po.SetItems(items); err != nil {
				return err
			}
			if err := ensureParts(ctx, repos, actor, items); err != nil {
				return err
			}
			if err := repos.PurchaseOrders().ReplaceItems(ctx, po); err != nil {
				return err
			}
		}
		po.Touch(actor.UserID)
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Confirm releases a draft order
func (s *PurchaseOrderService) Confirm(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, (*material.PurchaseOrder).Confirm)
}

// Close ends an order that will receive nothing more
func (s *PurchaseOrderService) Close(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, (*material.PurchaseOrder).Close)
}

// Cancel voids an order without receipts
func (s *PurchaseOrderService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, (*material.PurchaseOrder).Cancel)
}

func (s *PurchaseOrderService) transition(ctx context.Context, actor shared.Actor, id uuid.UUID, apply func(*material.PurchaseOrder, string) error) (*material.PurchaseOrder, error) {
	po, err := s.orders.FindWithItems(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := apply(po, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// Delete soft-deletes a DRAFT or CANCELED order
func (s *PurchaseOrderService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	po, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if po.Status != material.POStatusDraft && po.Status != material.POStatusCanceled {
		return shared.InvalidState("purchase order in status %s cannot be deleted", po.Status)
	}
	return s.orders.SoftDelete(ctx, actor, id)
}

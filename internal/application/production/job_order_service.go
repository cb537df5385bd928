// Package production runs job orders and records their production results.
package production

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	JobOrders() production.JobOrderRepository
	ProdResults() production.ProdResultRepository
	ProdPlans() production.ProdPlanRepository
	Rules() numbering.RuleRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// JobOrderService manages job orders
type JobOrderService struct {
	orders  production.JobOrderRepository
	results production.ProdResultRepository
	parts   master.PartRepository
	tx      TransactionScope
	events  shared.EventPublisher
	now     func() time.Time
}

// NewJobOrderService creates a new JobOrderService
func NewJobOrderService(orders production.JobOrderRepository, results production.ProdResultRepository, parts master.PartRepository, tx TransactionScope, events shared.EventPublisher) *JobOrderService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &JobOrderService{orders: orders, results: results, parts: parts, tx: tx, events: events, now: time.Now}
}

// List returns a page of job orders, by priority then plan date
func (s *JobOrderService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[production.JobOrder], error) {
	items, total, err := s.orders.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[production.JobOrder]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one job order
func (s *JobOrderService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrder, error) {
	return s.orders.FindByID(ctx, actor, id)
}

// Create registers a WAITING job order
func (s *JobOrderService) Create(ctx context.Context, actor shared.Actor, req CreateJobOrderRequest) (*production.JobOrder, error) {
	if _, err := s.parts.FindByID(ctx, actor, req.PartID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("part", req.PartID)
		}
		return nil, err
	}
	var order *production.JobOrder
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		orderNo := req.OrderNo
		if orderNo == "" {
			var err error
			if orderNo, err = appnum.NextNumberInTx(ctx, repos.Rules(), actor, numbering.RuleJobOrder, s.now()); err != nil {
				if !errors.Is(err, appnum.ErrRuleNotRegistered) {
					return err
				}
				seq, err := s.countToday(ctx, repos, actor)
				if err != nil {
					return err
				}
				orderNo = numbering.JobOrderNumber(s.now(), seq)
			}
		}
		if err := shared.EnsureUnique(ctx, repos.JobOrders(), actor, shared.Conds{"order_no": orderNo}, nil, "orderNo", orderNo); err != nil {
			return err
		}
		var err error
		order, err = production.NewJobOrder(actor, orderNo, req.PartID, req.PlanQty, req.Priority)
		if err != nil {
			return err
		}
		order.LineCode = req.LineCode
		order.PlanDate = req.PlanDate
		order.Remark = req.Remark
		if req.PlanID != nil {
			if err := releasePlan(ctx, repos, actor, *req.PlanID, order); err != nil {
				return err
			}
		}
		return repos.JobOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// releasePlan books the order qty against a confirmed plan; the order inherits the plan's line
func releasePlan(ctx context.Context, repos Repositories, actor shared.Actor, planID uuid.UUID, order *production.JobOrder) error {
	plan, err := repos.ProdPlans().FindByID(ctx, actor, planID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("production plan", planID)
		}
		return err
	}
	if err := plan.Release(order.PartID, order.PlanQty, actor.UserID); err != nil {
		return err
	}
	plan.Part = nil
	if err := repos.ProdPlans().Save(ctx, plan); err != nil {
		return err
	}
	order.PlanID = &plan.ID
	if order.LineCode == "" {
		order.LineCode = plan.LineCode
	}
	return nil
}

// countToday returns the next fallback sequence among today's WO numbers
func (s *JobOrderService) countToday(ctx context.Context, repos Repositories, actor shared.Actor) (int, error) {
	prefix := "WO" + s.now().Format("20060102")
	_, total, err := repos.JobOrders().List(ctx, actor, shared.Filter{Limit: 1, Search: prefix})
	if err != nil {
		return 0, err
	}
	return int(total) + 1, nil
}

// Update changes an open job order
func (s *JobOrderService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateJobOrderRequest) (*production.JobOrder, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := order.CanEdit(); err != nil {
		return nil, err
	}
	if req.LineCode != nil {
		order.LineCode = *req.LineCode
	}
	if req.PlanQty != nil {
		order.PlanQty = *req.PlanQty
	}
	if req.PlanDate != nil {
		order.PlanDate = req.PlanDate
	}
	if req.Priority != nil {
		order.Priority = *req.Priority
	}
	if req.Remark != nil {
		order.Remark = *req.Remark
	}
	order.Touch(actor.UserID)
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Delete soft-deletes a job order that is not running
func (s *JobOrderService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := order.CanDelete(); err != nil {
		return err
	}
	return s.orders.SoftDelete(ctx, actor, id)
}

// Start moves the order to RUNNING
func (s *JobOrderService) Start(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrder, error) {
	return s.apply(ctx, actor, id, func(o *production.JobOrder) error {
		return o.Start(s.now(), actor.UserID)
	})
}

// Pause moves a running order to PAUSED
func (s *JobOrderService) Pause(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrder, error) {
	return s.apply(ctx, actor, id, func(o *production.JobOrder) error {
		return o.Pause(actor.UserID)
	})
}

// Cancel moves a waiting or paused order to CANCELED
func (s *JobOrderService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, req CancelRequest) (*production.JobOrder, error) {
	return s.apply(ctx, actor, id, func(o *production.JobOrder) error {
		return o.Cancel(req.Remark, s.now(), actor.UserID)
	})
}

// ChangeStatus forces a status; for administrators repairing data
func (s *JobOrderService) ChangeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeJobStatusRequest) (*production.JobOrder, error) {
	order, err := s.apply(ctx, actor, id, func(o *production.JobOrder) error {
		return o.ForceStatus(production.JobOrderStatus(req.Status), actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Warn("job order status forced",
		zap.String("order_no", order.OrderNo),
		zap.String("status", req.Status),
		zap.String("user_id", actor.UserID))
	return order, nil
}

// Complete closes the order with the totals of its live results
func (s *JobOrderService) Complete(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrder, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.results.Totals(ctx, actor, production.ResultQuery{JobOrderID: &order.ID})
	if err != nil {
		return nil, err
	}
	if err := order.Complete(int(totals.GoodQty), int(totals.DefectQty), s.now(), actor.UserID); err != nil {
		return nil, err
	}
	order.Part = nil
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, production.NewJobOrderCompleted(order)); err != nil {
		logger.L(ctx).Warn("publish job order completed failed", zap.Error(err))
	}
	return order, nil
}

func (s *JobOrderService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*production.JobOrder) error) (*production.JobOrder, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Unsynced returns DONE orders not yet sent to the ERP
func (s *JobOrderService) Unsynced(ctx context.Context, actor shared.Actor) ([]production.JobOrder, error) {
	orders, err := s.orders.FindUnsynced(ctx, actor)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []production.JobOrder{}
	}
	return orders, nil
}

// MarkSynced flags the given orders as sent to the ERP and returns how many were updated
func (s *JobOrderService) MarkSynced(ctx context.Context, actor shared.Actor, req SyncRequest) (int, error) {
	count := 0
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		orders, err := repos.JobOrders().FindByIDs(ctx, actor, req.IDs)
		if err != nil {
			return err
		}
		for i := range orders {
			orders[i].MarkSynced(actor.UserID)
			if err := repos.JobOrders().Save(ctx, &orders[i]); err != nil {
				return err
			}
		}
		count = len(orders)
		return nil
	})
	return count, err
}

// Summary reports progress of the order against its plan
func (s *JobOrderService) Summary(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrderSummary, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.results.Totals(ctx, actor, production.ResultQuery{JobOrderID: &order.ID})
	if err != nil {
		return nil, err
	}
	summary := order.Summarize(totals)
	return &summary, nil
}

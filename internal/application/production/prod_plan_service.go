package production

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProdPlanService manages monthly production plans
type ProdPlanService struct {
	plans production.ProdPlanRepository
	parts master.PartRepository
	tx    TransactionScope
}

// NewProdPlanService creates a new ProdPlanService
func NewProdPlanService(plans production.ProdPlanRepository, parts master.PartRepository, tx TransactionScope) *ProdPlanService {
	return &ProdPlanService{plans: plans, parts: parts, tx: tx}
}

// List returns a page of plans, by priority then newest
func (s *ProdPlanService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[production.ProdPlan], error) {
	items, total, err := s.plans.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[production.ProdPlan]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one plan with its part
func (s *ProdPlanService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.ProdPlan, error) {
	return s.plans.FindByID(ctx, actor, id)
}

// Create registers a DRAFT plan numbered PP-YYYYMM-NNN
func (s *ProdPlanService) Create(ctx context.Context, actor shared.Actor, req CreatePlanRequest) (*production.ProdPlan, error) {
	var plan *production.ProdPlan
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		plan, err = s.add(ctx, repos, actor, req.PlanMonth, BulkPlanItem{
			PartID: req.PartID, ItemType: req.ItemType, PlanQty: req.PlanQty, Customer: req.Customer,
			LineCode: req.LineCode, Priority: req.Priority, Remark: req.Remark,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// BulkCreate registers the plans of one month; one bad item rejects them all
func (s *ProdPlanService) BulkCreate(ctx context.Context, actor shared.Actor, req BulkCreatePlanRequest) (*BulkPlanResult, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("at least one plan item is required")
	}
	out := &BulkPlanResult{Items: make([]production.ProdPlan, 0, len(req.Items))}
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		for _, item := range req.Items {
			plan, err := s.add(ctx, repos, actor, req.PlanMonth, item)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, *plan)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Count = len(out.Items)
	logger.L(ctx).Info("production plans created", zap.String("month", req.PlanMonth), zap.Int("count", out.Count))
	return out, nil
}

func (s *ProdPlanService) add(ctx context.Context, repos Repositories, actor shared.Actor, month string, item BulkPlanItem) (*production.ProdPlan, error) {
	if !production.ValidPlanMonth(month) {
		return nil, shared.InvalidInput("planMonth must be YYYY-MM")
	}
	if err := s.requirePart(ctx, actor, item.PartID); err != nil {
		return nil, err
	}
	last, err := repos.ProdPlans().LastNumber(ctx, production.PlanNumberPrefix(month))
	if err != nil {
		return nil, err
	}
	plan, err := production.NewProdPlan(actor, production.PlanNumber(month, numbering.ExtractSequence(last)+1),
		month, item.PartID, item.ItemType, item.PlanQty, item.Priority)
	if err != nil {
		return nil, err
	}
	plan.Customer = item.Customer
	plan.LineCode = item.LineCode
	plan.Remark = item.Remark
	if err := repos.ProdPlans().Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *ProdPlanService) requirePart(ctx context.Context, actor shared.Actor, partID uuid.UUID) error {
	if _, err := s.parts.FindByID(ctx, actor, partID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("part", partID)
		}
		return err
	}
	return nil
}

// Update changes a DRAFT plan
func (s *ProdPlanService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePlanRequest) (*production.ProdPlan, error) {
	plan, err := s.plans.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.PartID != nil && *req.PartID != plan.PartID {
		if err := s.requirePart(ctx, actor, *req.PartID); err != nil {
			return nil, err
		}
	}
	if err := plan.ChangeItem(req.PartID, req.ItemType, req.PlanQty); err != nil {
		return nil, err
	}
	if req.Customer != nil {
		plan.Customer = *req.Customer
	}
	if req.LineCode != nil {
		plan.LineCode = *req.LineCode
	}
	if req.Priority != nil {
		plan.Priority = *req.Priority
	}
	if req.Remark != nil {
		plan.Remark = *req.Remark
	}
	plan.Touch(actor.UserID)
	return s.save(ctx, actor, plan)
}

// Delete soft-deletes a DRAFT plan
func (s *ProdPlanService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	plan, err := s.plans.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := plan.CanEdit(); err != nil {
		return err
	}
	return s.plans.SoftDelete(ctx, actor, id)
}

// Confirm moves a plan from DRAFT to CONFIRMED
func (s *ProdPlanService) Confirm(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.ProdPlan, error) {
	return s.apply(ctx, actor, id, (*production.ProdPlan).Confirm)
}

// Unconfirm moves a plan without released job orders back to DRAFT
func (s *ProdPlanService) Unconfirm(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.ProdPlan, error) {
	return s.apply(ctx, actor, id, (*production.ProdPlan).Unconfirm)
}

// Close moves a plan from CONFIRMED to CLOSED
func (s *ProdPlanService) Close(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.ProdPlan, error) {
	return s.apply(ctx, actor, id, (*production.ProdPlan).Close)
}

// BulkConfirm confirms the DRAFT plans among ids and skips the rest
func (s *ProdPlanService) BulkConfirm(ctx context.Context, actor shared.Actor, ids []uuid.UUID) (int, error) {
	confirmed := 0
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		plans, err := repos.ProdPlans().FindByIDs(ctx, actor, ids)
		if err != nil {
			return err
		}
		for i := range plans {
			if plans[i].Status != production.PlanDraft {
				continue
			}
			if err := plans[i].Confirm(actor.UserID); err != nil {
				return err
			}
			plans[i].Part = nil
			if err := repos.ProdPlans().Save(ctx, &plans[i]); err != nil {
				return err
			}
			confirmed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.L(ctx).Info("production plans confirmed", zap.Int("requested", len(ids)), zap.Int("confirmed", confirmed))
	return confirmed, nil
}

// Summary totals the plans of one month
func (s *ProdPlanService) Summary(ctx context.Context, actor shared.Actor, month string) (production.PlanSummary, error) {
	if !production.ValidPlanMonth(month) {
		return production.PlanSummary{}, shared.InvalidInput("month must be YYYY-MM")
	}
	plans, err := s.plans.FindByMonth(ctx, actor, month)
	if err != nil {
		return production.PlanSummary{}, err
	}
	return production.SummarizePlans(month, plans), nil
}

func (s *ProdPlanService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*production.ProdPlan, string) error) (*production.ProdPlan, error) {
	plan, err := s.plans.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(plan, actor.UserID); err != nil {
		return nil, err
	}
	return s.save(ctx, actor, plan)
}

func (s *ProdPlanService) save(ctx context.Context, actor shared.Actor, plan *production.ProdPlan) (*production.ProdPlan, error) {
	plan.Part = nil
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return s.plans.FindByID(ctx, actor, plan.ID)
}

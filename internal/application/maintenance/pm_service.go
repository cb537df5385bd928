// Package maintenance schedules preventive maintenance and tracks consumable wear.
package maintenance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	PmPlans() maintenance.PmPlanRepository
	PmWorkOrders() maintenance.PmWorkOrderRepository
	Consumables() maintenance.ConsumableRepository
	ConsumableLogs() maintenance.ConsumableLogRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// PmService manages PM plans and their work orders
type PmService struct {
	plans      maintenance.PmPlanRepository
	orders     maintenance.PmWorkOrderRepository
	equipments master.EquipmentRepository
	tx         TransactionScope
	now        func() time.Time
}

// NewPmService creates a new PmService
func NewPmService(plans maintenance.PmPlanRepository, orders maintenance.PmWorkOrderRepository, equipments master.EquipmentRepository, tx TransactionScope) *PmService {
	return &PmService{plans: plans, orders: orders, equipments: equipments, tx: tx, now: time.Now}
}

// ListPlans returns a page of plans by plan code
func (s *PmService) ListPlans(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[maintenance.PmPlan], error) {
	items, total, err := s.plans.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[maintenance.PmPlan]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetPlan returns a plan with its items
func (s *PmService) GetPlan(ctx context.Context, actor shared.Actor, id uuid.UUID) (*maintenance.PmPlan, error) {
	return s.plans.FindWithItems(ctx, actor, id)
}

// CreatePlan registers a plan due one cycle from now
func (s *PmService) CreatePlan(ctx context.Context, actor shared.Actor, req CreatePlanRequest) (*maintenance.PmPlan, error) {
	if err := s.checkEquipment(ctx, actor, req.EquipID); err != nil {
		return nil, err
	}
	plan, err := maintenance.NewPmPlan(actor, req.EquipID, req.PlanCode, req.PlanName, req.PmType, req.cycle(), s.now())
	if err != nil {
		return nil, err
	}
	plan.SeasonMonth = req.SeasonMonth
	plan.EstimatedTime = req.EstimatedTime
	plan.Description = req.Description

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if err := shared.EnsureUnique(ctx, repos.PmPlans(), actor, shared.Conds{"plan_code": plan.PlanCode}, nil, "planCode", plan.PlanCode); err != nil {
			return err
		}
		if err := repos.PmPlans().Create(ctx, plan); err != nil {
			return err
		}
		return repos.PmPlans().ReplaceItems(ctx, plan.ID, buildItems(plan.ID, req.Items))
	})
	if err != nil {
		return nil, err
	}
	return s.plans.FindWithItems(ctx, actor, plan.ID)
}

// UpdatePlan changes a plan. A cycle change moves nextDueAt.
func (s *PmService) UpdatePlan(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePlanRequest) (*maintenance.PmPlan, error) {
	plan, err := s.plans.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.EquipID != nil && *req.EquipID != plan.EquipmentID {
		if err := s.checkEquipment(ctx, actor, *req.EquipID); err != nil {
			return nil, err
		}
		plan.EquipmentID = *req.EquipID
	}
	codeChanged := false
	if req.PlanCode != nil {
		code := strings.TrimSpace(*req.PlanCode)
		if code == "" {
			return nil, shared.InvalidInput("planCode is required")
		}
		codeChanged = code != plan.PlanCode
		plan.PlanCode = code
	}
	if req.PlanName != nil {
		plan.PlanName = *req.PlanName
	}
	if req.PmType != nil {
		plan.PmType = *req.PmType
	}
	if req.SeasonMonth != nil {
		plan.SeasonMonth = req.SeasonMonth
	}
	if req.EstimatedTime != nil {
		plan.EstimatedTime = req.EstimatedTime
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.UseYn != nil {
		plan.UseYn = *req.UseYn
	}
	plan.ChangeCycle(maintenance.PlanCycle{
		Type:  maintenance.CycleType(req.CycleType),
		Value: req.CycleValue,
		Unit:  maintenance.CycleUnit(req.CycleUnit),
	}, s.now())
	plan.Touch(actor.UserID)
	plan.Equipment = nil

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if codeChanged {
			if err := shared.EnsureUnique(ctx, repos.PmPlans(), actor, shared.Conds{"plan_code": plan.PlanCode}, &plan.ID, "planCode", plan.PlanCode); err != nil {
				return err
			}
		}
		if err := repos.PmPlans().Save(ctx, plan); err != nil {
			return err
		}
		if req.Items == nil {
			return nil
		}
		return repos.PmPlans().ReplaceItems(ctx, plan.ID, buildItems(plan.ID, *req.Items))
	})
	if err != nil {
		return nil, err
	}
	return s.plans.FindWithItems(ctx, actor, plan.ID)
}

// DeletePlan soft-deletes a plan; its work orders stay
func (s *PmService) DeletePlan(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.plans.SoftDelete(ctx, actor, id)
}

// GenerateWorkOrders creates a PLANNED work order for every active plan due in the month.
// Plans that already have a work order on their due date are skipped.
func (s *PmService) GenerateWorkOrders(ctx context.Context, actor shared.Actor, year, month int) (result maintenance.GenerateResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pm", "generate_work_orders", "plant", actor.Plant, "year", year, "month", month)
	defer func() { telemetry.EndSpan(span, err) }()

	from, to := maintenance.MonthRange(year, month, s.now().Location())
	err = s.tx.Execute(ctx, func(repos Repositories) error {
		plans, err := repos.PmPlans().FindDue(ctx, actor, from, to)
		if err != nil {
			return err
		}
		result.Total = len(plans)
		for i := range plans {
			plan := &plans[i]
			exists, err := repos.PmWorkOrders().ExistsFor(ctx, actor, plan.ID, plan.ScheduledDate())
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}
			woNo, err := nextWorkOrderNo(ctx, repos, plan.ScheduledDate())
			if err != nil {
				return err
			}
			if err := repos.PmWorkOrders().Create(ctx, plan.PlannedWorkOrder(woNo, actor.UserID)); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return maintenance.GenerateResult{}, err
	}
	logger.L(ctx).Info("PM work orders generated",
		zap.String("company", actor.Company),
		zap.String("plant", actor.Plant),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ListWorkOrders returns a page of work orders, latest schedule first
func (s *PmService) ListWorkOrders(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[maintenance.PmWorkOrder], error) {
	items, total, err := s.orders.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[maintenance.PmWorkOrder]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetWorkOrder returns a work order with its equipment, plan and results
func (s *PmService) GetWorkOrder(ctx context.Context, actor shared.Actor, id uuid.UUID) (*maintenance.PmWorkOrder, error) {
	return s.orders.FindByID(ctx, actor, id)
}

// CreateWorkOrder registers a work order outside plan generation, numbered by its scheduled date
func (s *PmService) CreateWorkOrder(ctx context.Context, actor shared.Actor, req CreateWorkOrderRequest) (*maintenance.PmWorkOrder, error) {
	if err := s.checkEquipment(ctx, actor, req.EquipID); err != nil {
		return nil, err
	}
	if req.PmPlanID != nil {
		if _, err := s.plans.FindByID(ctx, actor, *req.PmPlanID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NotFound("pm plan", *req.PmPlanID)
			}
			return nil, err
		}
	}
	var wo *maintenance.PmWorkOrder
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		woNo, err := nextWorkOrderNo(ctx, repos, req.ScheduledDate)
		if err != nil {
			return err
		}
		wo = maintenance.NewWorkOrder(actor.Company, actor.Plant, actor.UserID, woNo, req.EquipID, req.PmPlanID, req.WoType, req.Priority, req.ScheduledDate)
		if req.DueDate != nil {
			wo.DueDate = req.DueDate
		}
		wo.AssignedWorkerID = req.AssignedWorkerID
		wo.Remark = req.Remark
		return repos.PmWorkOrders().Create(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

// ExecuteWorkOrder completes a work order, stores its results and reschedules the plan
func (s *PmService) ExecuteWorkOrder(ctx context.Context, actor shared.Actor, id uuid.UUID, req ExecuteWorkOrderRequest) (*maintenance.PmWorkOrder, error) {
	now := s.now()
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		wo, err := repos.PmWorkOrders().FindByID(ctx, actor, id)
		if err != nil {
			return err
		}
		wo.Equipment, wo.Plan, wo.Results = nil, nil, nil
		if err := wo.Execute(req.OverallResult, req.Remark, req.AssignedWorkerID, req.results(), now, actor.UserID); err != nil {
			return err
		}
		results := wo.Results
		wo.Results = nil
		if err := repos.PmWorkOrders().Save(ctx, wo); err != nil {
			return err
		}
		if err := repos.PmWorkOrders().CreateResults(ctx, results); err != nil {
			return err
		}
		if wo.PmPlanID == nil {
			return nil
		}
		plan, err := repos.PmPlans().FindByID(ctx, actor, *wo.PmPlanID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		plan.Equipment = nil
		plan.MarkExecuted(now, actor.UserID)
		return repos.PmPlans().Save(ctx, plan)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("PM work order executed",
		zap.String("work_order_id", id.String()),
		zap.String("result", req.OverallResult))
	return s.orders.FindByID(ctx, actor, id)
}

// CancelWorkOrder voids a work order that is not completed
func (s *PmService) CancelWorkOrder(ctx context.Context, actor shared.Actor, id uuid.UUID) (*maintenance.PmWorkOrder, error) {
	wo, err := s.orders.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := wo.Cancel(actor.UserID); err != nil {
		return nil, err
	}
	wo.Equipment, wo.Plan, wo.Results = nil, nil, nil
	if err := s.orders.Save(ctx, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

// Calendar summarizes the month's work orders per day
func (s *PmService) Calendar(ctx context.Context, actor shared.Actor, req CalendarRequest) ([]maintenance.CalendarDay, error) {
	now := s.now()
	from, to := maintenance.MonthRange(req.Year, req.Month, now.Location())
	orders, err := s.orders.FindScheduled(ctx, actor, maintenance.CalendarQuery{
		From:      from,
		To:        to,
		LineCode:  req.LineCode,
		EquipType: req.EquipType,
	})
	if err != nil {
		return nil, err
	}
	return maintenance.BuildCalendar(req.Year, req.Month, orders, now), nil
}

// DaySchedule lists one day's work orders with equipment, the plan checklist and results
func (s *PmService) DaySchedule(ctx context.Context, actor shared.Actor, req DayScheduleRequest) ([]ScheduledWorkOrder, error) {
	loc := s.now().Location()
	day := req.Date.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	orders, err := s.orders.FindScheduled(ctx, actor, maintenance.CalendarQuery{
		From:      start,
		To:        end,
		LineCode:  req.LineCode,
		EquipType: req.EquipType,
	})
	if err != nil {
		return nil, err
	}

	plans := make(map[uuid.UUID]*maintenance.PmPlan)
	out := make([]ScheduledWorkOrder, 0, len(orders))
	for _, wo := range orders {
		entry := ScheduledWorkOrder{PmWorkOrder: wo, PlanItems: []maintenance.PmPlanItem{}}
		if entry.Results == nil {
			entry.Results = []maintenance.PmWoResult{}
		}
		if wo.PmPlanID != nil {
			plan, ok := plans[*wo.PmPlanID]
			if !ok {
				plan, err = s.plans.FindWithItems(ctx, actor, *wo.PmPlanID)
				if err != nil && !errors.Is(err, shared.ErrNotFound) {
					return nil, err
				}
				plans[*wo.PmPlanID] = plan
			}
			if plan != nil {
				entry.PlanName = plan.PlanName
				for _, item := range plan.Items {
					if item.UseYn == shared.Yes {
						entry.PlanItems = append(entry.PlanItems, item)
					}
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *PmService) checkEquipment(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if _, err := s.equipments.FindByID(ctx, actor, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("equipment", id)
		}
		return err
	}
	return nil
}

// nextWorkOrderNo continues PM-YYYYMMDD-NNN of the scheduled day
func nextWorkOrderNo(ctx context.Context, repos Repositories, scheduled time.Time) (string, error) {
	return appnum.NextDatedCounter(ctx, repos.PmWorkOrders().LastNumber, maintenance.WorkOrderPrefix, scheduled)
}

func buildItems(planID uuid.UUID, reqs []PlanItemRequest) []maintenance.PmPlanItem {
	items := make([]maintenance.PmPlanItem, len(reqs))
	for i, r := range reqs {
		seq := r.Seq
		if seq == 0 {
			seq = i + 1
		}
		item := maintenance.NewPlanItem(planID, seq, r.ItemName, r.ItemType)
		item.Description = r.Description
		item.Criteria = r.Criteria
		item.SparePartCode = r.SparePartCode
		item.SparePartQty = r.SparePartQty
		item.EstimatedMinutes = r.EstimatedMinutes
		items[i] = item
	}
	return items
}

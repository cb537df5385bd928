package production

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProdResultService records production results against job orders
type ProdResultService struct {
	results    production.ProdResultRepository
	orders     production.JobOrderRepository
	equipments master.EquipmentRepository
	users      identity.UserRepository
	events     shared.EventPublisher
	now        func() time.Time
}

// NewProdResultService creates a new ProdResultService
func NewProdResultService(results production.ProdResultRepository, orders production.JobOrderRepository, equipments master.EquipmentRepository, users identity.UserRepository, events shared.EventPublisher) *ProdResultService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &ProdResultService{results: results, orders: orders, equipments: equipments, users: users, events: events, now: time.Now}
}

// List returns a page of results, newest start first
func (s *ProdResultService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[production.ProdResult], error) {
	items, total, err := s.results.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[production.ProdResult]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one result
func (s *ProdResultService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.ProdResult, error) {
	return s.results.FindByID(ctx, actor, id)
}

// ByJobOrder returns every result of a job order
func (s *ProdResultService) ByJobOrder(ctx context.Context, actor shared.Actor, jobOrderID uuid.UUID) ([]production.ProdResult, error) {
	items, err := s.results.FindByJobOrder(ctx, actor, jobOrderID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []production.ProdResult{}
	}
	return items, nil
}

// Create starts a RUNNING result on an open job order
func (s *ProdResultService) Create(ctx context.Context, actor shared.Actor, req CreateResultRequest) (*production.ProdResult, error) {
	order, err := s.jobOrder(ctx, actor, req.JobOrderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, actor, req.EquipID, req.WorkerID); err != nil {
		return nil, err
	}
	startAt := s.now()
	if req.StartAt != nil {
		startAt = *req.StartAt
	}
	result, err := production.NewProdResult(actor, order, startAt)
	if err != nil {
		return nil, err
	}
	result.EquipID = req.EquipID
	result.WorkerID = req.WorkerID
	result.LotNo = shared.NormalizeScan(req.LotNo)
	result.ProcessCode = req.ProcessCode
	result.GoodQty = req.GoodQty
	result.DefectQty = req.DefectQty
	result.CycleTime = req.CycleTime
	result.Remark = req.Remark
	if err := s.results.Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes a result; a DONE result keeps its job order, equipment, worker and start time
func (s *ProdResultService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateResultRequest) (*production.ProdResult, error) {
	result, err := s.results.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := result.CheckCoreChange(req.JobOrderID, req.EquipID, req.WorkerID, req.StartAt); err != nil {
		return nil, err
	}
	if req.JobOrderID != nil && *req.JobOrderID != result.JobOrderID {
		order, err := s.jobOrder(ctx, actor, *req.JobOrderID)
		if err != nil {
			return nil, err
		}
		if order.IsClosed() {
			return nil, shared.InvalidState("job order %s is %s", order.OrderNo, order.Status)
		}
		result.JobOrderID = order.ID
	}
	if err := s.checkRefs(ctx, actor, req.EquipID, req.WorkerID); err != nil {
		return nil, err
	}
	if req.EquipID != nil {
		result.EquipID = req.EquipID
	}
	if req.WorkerID != nil {
		result.WorkerID = req.WorkerID
	}
	if req.StartAt != nil {
		result.StartAt = *req.StartAt
	}
	if req.LotNo != nil {
		result.LotNo = shared.NormalizeScan(*req.LotNo)
	}
	if req.ProcessCode != nil {
		result.ProcessCode = *req.ProcessCode
	}
	if req.GoodQty != nil {
		result.GoodQty = *req.GoodQty
	}
	if req.DefectQty != nil {
		result.DefectQty = *req.DefectQty
	}
	if req.CycleTime != nil {
		result.CycleTime = req.CycleTime
	}
	if req.Remark != nil {
		result.Remark = *req.Remark
	}
	result.Touch(actor.UserID)
	return s.save(ctx, result)
}

// Delete soft-deletes a result
func (s *ProdResultService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if _, err := s.results.FindByID(ctx, actor, id); err != nil {
		return err
	}
	return s.results.SoftDelete(ctx, actor, id)
}

// Complete moves a RUNNING result to DONE
func (s *ProdResultService) Complete(ctx context.Context, actor shared.Actor, id uuid.UUID, req CompleteResultRequest) (*production.ProdResult, error) {
	result, err := s.results.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := result.Complete(req.GoodQty, req.DefectQty, s.now(), actor.UserID); err != nil {
		return nil, err
	}
	if req.CycleTime != nil {
		result.CycleTime = req.CycleTime
	}
	if req.Remark != "" {
		result.Remark = req.Remark
	}
	if _, err := s.save(ctx, result); err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, production.NewProdResultCompleted(result)); err != nil {
		logger.L(ctx).Warn("publish result completed failed", zap.Error(err))
	}
	return result, nil
}

// Cancel voids a result; its quantities drop out of every summary
func (s *ProdResultService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, req CancelRequest) (*production.ProdResult, error) {
	result, err := s.results.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := result.Cancel(req.Remark, actor.UserID); err != nil {
		return nil, err
	}
	return s.save(ctx, result)
}

func (s *ProdResultService) save(ctx context.Context, result *production.ProdResult) (*production.ProdResult, error) {
	result.JobOrder = nil
	result.Equipment = nil
	if err := s.results.Save(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// JobOrderSummary totals the live results of a job order
func (s *ProdResultService) JobOrderSummary(ctx context.Context, actor shared.Actor, jobOrderID uuid.UUID) (*production.JobOrderSummary, error) {
	order, err := s.orders.FindByID(ctx, actor, jobOrderID)
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

// EquipmentSummary totals the live results of one equipment
func (s *ProdResultService) EquipmentSummary(ctx context.Context, actor shared.Actor, equipID uuid.UUID, r SummaryRange) (*GroupSummary, error) {
	totals, err := s.results.Totals(ctx, actor, production.ResultQuery{EquipID: &equipID, From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	return newGroupSummary(equipID, totals), nil
}

// WorkerSummary totals the live results of one worker
func (s *ProdResultService) WorkerSummary(ctx context.Context, actor shared.Actor, workerID uuid.UUID, r SummaryRange) (*GroupSummary, error) {
	totals, err := s.results.Totals(ctx, actor, production.ResultQuery{WorkerID: &workerID, From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	return newGroupSummary(workerID, totals), nil
}

// DailySummary totals the live results per start day. The range defaults to the last 7 days.
func (s *ProdResultService) DailySummary(ctx context.Context, actor shared.Actor, r SummaryRange) ([]production.DailyTotals, error) {
	to := s.now()
	if r.To != nil {
		to = endOfDay(*r.To)
	}
	from := to.AddDate(0, 0, -7)
	if r.From != nil {
		from = *r.From
	}
	if from.After(to) {
		return nil, shared.InvalidInput("fromDate must not be after toDate")
	}
	days, err := s.results.DailyTotals(ctx, actor, from, to)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []production.DailyTotals{}
	}
	return days, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func (s *ProdResultService) jobOrder(ctx context.Context, actor shared.Actor, id uuid.UUID) (*production.JobOrder, error) {
	order, err := s.orders.FindByID(ctx, actor, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("job order", id)
	}
	return order, err
}

func (s *ProdResultService) checkRefs(ctx context.Context, actor shared.Actor, equipID, workerID *uuid.UUID) error {
	if equipID != nil {
		if _, err := s.equipments.FindByID(ctx, actor, *equipID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("equipment", *equipID)
			}
			return err
		}
	}
	if workerID != nil {
		if _, err := s.users.FindByID(ctx, actor, *workerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("worker", *workerID)
			}
			return err
		}
	}
	return nil
}

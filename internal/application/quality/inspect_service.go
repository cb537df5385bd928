package quality

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InspectResultService keeps the in-line inspection results reported against
// production results and derives pass rates from them
type InspectResultService struct {
	results quality.InspectResultRepository
	tx      TransactionScope
	events  shared.EventPublisher
	now     func() time.Time
}

// NewInspectResultService creates a new InspectResultService
func NewInspectResultService(results quality.InspectResultRepository, tx TransactionScope, events shared.EventPublisher) *InspectResultService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &InspectResultService{results: results, tx: tx, events: events, now: time.Now}
}

// List returns a page of inspections, newest first
func (s *InspectResultService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[quality.InspectResult], error) {
	items, total, err := s.results.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[quality.InspectResult]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one inspection with its production result
func (s *InspectResultService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*quality.InspectResult, error) {
	return s.results.FindByID(ctx, actor, id)
}

// BySerial returns the inspection history of one serial, newest first
func (s *InspectResultService) BySerial(ctx context.Context, actor shared.Actor, serialNo string) ([]quality.InspectResult, error) {
	serialNo = shared.NormalizeScan(serialNo)
	if serialNo == "" {
		return nil, shared.InvalidInput("serialNo is required")
	}
	return orEmpty(s.results.FindBySerial(ctx, actor, serialNo))
}

// ByProdResult returns the inspections of one production result, oldest first
func (s *InspectResultService) ByProdResult(ctx context.Context, actor shared.Actor, prodResultID uuid.UUID) ([]quality.InspectResult, error) {
	return orEmpty(s.results.FindByProdResult(ctx, actor, prodResultID))
}

// Create records one inspection of an existing production result
func (s *InspectResultService) Create(ctx context.Context, actor shared.Actor, req CreateInspectResultRequest) (*quality.InspectResult, error) {
	var result *quality.InspectResult
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		result, err = s.record(ctx, repos, actor, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, result)
	return result, nil
}

// CreateBatch records every inspection or none
func (s *InspectResultService) CreateBatch(ctx context.Context, actor shared.Actor, req BatchInspectResultRequest) (*InspectBatchResult, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("at least one inspection is required")
	}
	out := &InspectBatchResult{Items: make([]quality.InspectResult, 0, len(req.Items))}
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		for _, item := range req.Items {
			result, err := s.record(ctx, repos, actor, item)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, *result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Count = len(out.Items)
	for i := range out.Items {
		s.publish(ctx, &out.Items[i])
	}
	logger.L(ctx).Info("inspection batch recorded", zap.Int("count", out.Count))
	return out, nil
}

func (s *InspectResultService) record(ctx context.Context, repos Repositories, actor shared.Actor, req CreateInspectResultRequest) (*quality.InspectResult, error) {
	if _, err := repos.ProdResults().FindByID(ctx, actor, req.ProdResultID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("production result", req.ProdResultID)
		}
		return nil, err
	}
	inspectAt := s.now()
	if req.InspectAt != nil {
		inspectAt = *req.InspectAt
	}
	result, err := quality.NewInspectResult(actor, req.ProdResultID, req.PassYn, inspectAt)
	if err != nil {
		return nil, err
	}
	result.SerialNo = shared.NormalizeScan(req.SerialNo)
	result.InspectType = req.InspectType
	result.ErrorCode = req.ErrorCode
	result.ErrorDetail = req.ErrorDetail
	result.InspectData = req.InspectData
	if req.InspectorID != "" {
		result.InspectorID = req.InspectorID
	}
	if err := repos.InspectResults().Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *InspectResultService) publish(ctx context.Context, result *quality.InspectResult) {
	if err := s.events.Publish(ctx, quality.NewInspectRecorded(result)); err != nil {
		logger.L(ctx).Warn("publish inspection recorded failed", zap.Error(err))
	}
}

// Update changes an inspection; only the fields present in req are touched
func (s *InspectResultService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateInspectResultRequest) (*quality.InspectResult, error) {
	result, err := s.results.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.PassYn != nil {
		if err := result.SetPass(*req.PassYn); err != nil {
			return nil, err
		}
	}
	if req.SerialNo != nil {
		result.SerialNo = shared.NormalizeScan(*req.SerialNo)
	}
	if req.InspectType != nil {
		result.InspectType = *req.InspectType
	}
	if req.ErrorCode != nil {
		result.ErrorCode = *req.ErrorCode
	}
	if req.ErrorDetail != nil {
		result.ErrorDetail = *req.ErrorDetail
	}
	if req.InspectData != nil {
		result.InspectData = req.InspectData
	}
	if req.InspectAt != nil {
		result.InspectAt = *req.InspectAt
	}
	if req.InspectorID != nil {
		result.InspectorID = *req.InspectorID
	}
	result.Touch(actor.UserID)
	result.ProdResult = nil
	if err := s.results.Save(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete soft-deletes an inspection
func (s *InspectResultService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if _, err := s.results.FindByID(ctx, actor, id); err != nil {
		return err
	}
	return s.results.SoftDelete(ctx, actor, id)
}

// PassRate returns the pass/fail split over the query range
func (s *InspectResultService) PassRate(ctx context.Context, actor shared.Actor, q PassRateQuery) (quality.InspectPassRate, error) {
	total, pass, err := s.results.PassCounts(ctx, actor, quality.InspectQuery{InspectType: q.InspectType, From: q.From, To: endOfDayPtr(q.To)})
	if err != nil {
		return quality.InspectPassRate{}, err
	}
	return quality.NewInspectPassRate(total, pass), nil
}

// StatsByType returns the pass rate of every inspection type
func (s *InspectResultService) StatsByType(ctx context.Context, actor shared.Actor, r StatsRange) ([]quality.InspectTypeStat, error) {
	return orEmpty(s.results.StatsByType(ctx, actor, quality.InspectQuery{From: r.From, To: endOfDayPtr(r.To)}))
}

// DailyTrend returns the pass rate per day over the last days days (default 7)
func (s *InspectResultService) DailyTrend(ctx context.Context, actor shared.Actor, days int) ([]quality.InspectTrend, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	return orEmpty(s.results.DailyTrend(ctx, actor, from))
}

func endOfDayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
	return &end
}

func orEmpty[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

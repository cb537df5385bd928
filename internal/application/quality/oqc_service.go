package quality

import (
	"context"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OqcService runs outgoing inspections over closed boxes
type OqcService struct {
	requests quality.OqcRequestRepository
	boxes    shipping.BoxRepository
	tx       TransactionScope
	events   shared.EventPublisher
	now      func() time.Time
}

// NewOqcService creates a new OqcService
func NewOqcService(requests quality.OqcRequestRepository, boxes shipping.BoxRepository, tx TransactionScope, events shared.EventPublisher) *OqcService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &OqcService{requests: requests, boxes: boxes, tx: tx, events: events, now: time.Now}
}

// List returns a page of requests, newest request date first
func (s *OqcService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[quality.OqcRequest], error) {
	items, total, err := s.requests.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[quality.OqcRequest]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns a request with its boxes
func (s *OqcService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*quality.OqcRequest, error) {
	return s.requests.FindByID(ctx, actor, id)
}

// AvailableBoxes lists CLOSED boxes that were never put into a request
func (s *OqcService) AvailableBoxes(ctx context.Context, actor shared.Actor, partID *uuid.UUID) ([]shipping.Box, error) {
	boxes, err := s.boxes.FindAwaitingOqc(ctx, actor, partID)
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []shipping.Box{}
	}
	return boxes, nil
}

// Create opens a PENDING request numbered OQC-YYYYMMDD-NNN and stamps each box PENDING
func (s *OqcService) Create(ctx context.Context, actor shared.Actor, req CreateOqcRequest) (*quality.OqcRequest, error) {
	var request *quality.OqcRequest
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		found, err := repos.Boxes().FindByIDs(ctx, actor, req.BoxIDs)
		if err != nil {
			return err
		}
		if len(found) != len(uniqueIDs(req.BoxIDs)) {
			return shared.NotFound("box", "one or more of the requested boxes")
		}
		boxes := make([]*shipping.Box, len(found))
		for i := range found {
			if found[i].PartID != req.PartID {
				return shared.InvalidInput("box %s does not hold the requested part", found[i].BoxNo)
			}
			boxes[i] = &found[i]
		}

		now := s.now()
		requestNo, err := appnum.NextDatedCounter(ctx, func(ctx context.Context, prefix string) (string, error) {
			return repos.OqcRequests().LastNumber(ctx, actor, prefix)
		}, quality.OqcRequestPrefix, now)
		if err != nil {
			return err
		}
		requestDate := now
		if req.RequestDate != nil {
			requestDate = *req.RequestDate
		}
		if request, err = quality.NewOqcRequest(actor, requestNo, req.PartID, boxes, requestDate, req.SampleSize); err != nil {
			return err
		}
		request.Customer = req.Customer
		request.Remark = req.Remark
		if err := repos.OqcRequests().CreateWithBoxes(ctx, request); err != nil {
			return err
		}
		return saveBoxes(ctx, repos.Boxes(), actor, boxes)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("OQC requested",
		zap.String("request_no", request.RequestNo),
		zap.Int("boxes", request.TotalBoxCount),
		zap.Int("qty", request.TotalQty))
	return request, nil
}

// Execute records PASS or FAIL, flags the sampled boxes and stamps the verdict on every box
func (s *OqcService) Execute(ctx context.Context, actor shared.Actor, id uuid.UUID, req ExecuteOqcRequest) (*quality.OqcRequest, error) {
	var request *quality.OqcRequest
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if request, err = repos.OqcRequests().FindByID(ctx, actor, id); err != nil {
			return err
		}
		inspector := req.InspectorName
		if inspector == "" {
			inspector = actor.UserID
		}
		if err := request.Execute(quality.OqcStatus(req.Result), req.SampleBoxNos, req.Details, inspector, s.now(), actor.UserID); err != nil {
			return err
		}
		if err := repos.OqcRequests().Save(ctx, request); err != nil {
			return err
		}
		if err := repos.OqcRequests().SaveBoxes(ctx, request.Boxes); err != nil {
			return err
		}
		return stampBoxes(ctx, repos.Boxes(), actor, request.BoxIDs(), req.Result)
	})
	if err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, quality.NewOqcInspected(request)); err != nil {
		logger.L(ctx).Warn("publish OQC inspected failed", zap.Error(err))
	}
	return request, nil
}

// UpdateResult corrects the verdict of an inspected request and restamps its boxes
func (s *OqcService) UpdateResult(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateOqcResultRequest) (*quality.OqcRequest, error) {
	var request *quality.OqcRequest
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if request, err = repos.OqcRequests().FindByID(ctx, actor, id); err != nil {
			return err
		}
		if err := request.CorrectResult(quality.OqcStatus(req.Result), actor.UserID); err != nil {
			return err
		}
		if err := repos.OqcRequests().Save(ctx, request); err != nil {
			return err
		}
		return stampBoxes(ctx, repos.Boxes(), actor, request.BoxIDs(), req.Result)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Stats counts requests by outcome
func (s *OqcService) Stats(ctx context.Context, actor shared.Actor) (quality.OqcStats, error) {
	return s.requests.Stats(ctx, actor)
}

func stampBoxes(ctx context.Context, repo shipping.BoxRepository, actor shared.Actor, ids []uuid.UUID, verdict string) error {
	found, err := repo.FindByIDs(ctx, actor, ids)
	if err != nil {
		return err
	}
	boxes := make([]*shipping.Box, len(found))
	for i := range found {
		found[i].SetOqcStatus(verdict)
		boxes[i] = &found[i]
	}
	return saveBoxes(ctx, repo, actor, boxes)
}

func saveBoxes(ctx context.Context, repo shipping.BoxRepository, actor shared.Actor, boxes []*shipping.Box) error {
	for _, b := range boxes {
		b.Touch(actor.UserID)
		b.Part = nil
		if err := repo.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

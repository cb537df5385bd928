// Package quality records defects and their repairs, keeps in-line inspection
// results, and runs outgoing quality inspection (OQC) over packed boxes.
package quality

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	DefectLogs() quality.DefectLogRepository
	RepairLogs() quality.RepairLogRepository
	OqcRequests() quality.OqcRequestRepository
	InspectResults() quality.InspectResultRepository
	ProdResults() production.ProdResultRepository
	Boxes() shipping.BoxRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// DefectService manages defect logs. Every qty change is mirrored on the
// defectQty of the owning production result in the same transaction.
type DefectService struct {
	defects quality.DefectLogRepository
	repairs quality.RepairLogRepository
	tx      TransactionScope
	events  shared.EventPublisher
	now     func() time.Time
}

// NewDefectService creates a new DefectService
func NewDefectService(defects quality.DefectLogRepository, repairs quality.RepairLogRepository, tx TransactionScope, events shared.EventPublisher) *DefectService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &DefectService{defects: defects, repairs: repairs, tx: tx, events: events, now: time.Now}
}

// List returns a page of defects, newest first
func (s *DefectService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[quality.DefectLog], error) {
	items, total, err := s.defects.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[quality.DefectLog]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one defect with its repair history
func (s *DefectService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*quality.DefectLog, error) {
	defect, err := s.defects.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if defect.RepairLogs, err = s.repairs.FindByDefect(ctx, actor, id); err != nil {
		return nil, err
	}
	return defect, nil
}

// Create logs a WAIT defect and adds its qty to the production result
func (s *DefectService) Create(ctx context.Context, actor shared.Actor, req CreateDefectRequest) (*quality.DefectLog, error) {
	var occurAt time.Time
	if req.OccurAt != nil {
		occurAt = *req.OccurAt
	}
	defect, err := quality.NewDefectLog(actor, req.ProdResultID, req.DefectCode, req.Qty, occurAt)
	if err != nil {
		return nil, err
	}
	defect.DefectName = req.DefectName
	defect.Cause = req.Cause
	defect.ImageURL = req.ImageURL
	defect.Remark = req.Remark

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		if err := adjustResult(ctx, repos, actor, req.ProdResultID, defect.Qty); err != nil {
			return err
		}
		return repos.DefectLogs().Create(ctx, defect)
	})
	if err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, quality.NewDefectRegistered(defect)); err != nil {
		logger.L(ctx).Warn("publish defect registered failed", zap.Error(err))
	}
	return defect, nil
}

// Update changes a defect; the production result follows the qty difference
func (s *DefectService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateDefectRequest) (*quality.DefectLog, error) {
	var defect *quality.DefectLog
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if defect, err = repos.DefectLogs().FindByID(ctx, actor, id); err != nil {
			return err
		}
		if req.Qty != nil {
			diff, err := defect.ChangeQty(*req.Qty, actor.UserID)
			if err != nil {
				return err
			}
			if diff != 0 {
				if err := adjustResult(ctx, repos, actor, defect.ProdResultID, diff); err != nil {
					return err
				}
			}
		}
		if req.DefectCode != nil {
			defect.DefectCode = *req.DefectCode
		}
		if req.DefectName != nil {
			defect.DefectName = *req.DefectName
		}
		if req.Cause != nil {
			defect.Cause = *req.Cause
		}
		if req.ImageURL != nil {
			defect.ImageURL = *req.ImageURL
		}
		if req.Remark != nil {
			defect.Remark = *req.Remark
		}
		defect.Touch(actor.UserID)
		defect.ProdResult = nil
		return repos.DefectLogs().Save(ctx, defect)
	})
	if err != nil {
		return nil, err
	}
	return defect, nil
}

// Delete removes a defect and takes its qty back from the production result
func (s *DefectService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos Repositories) error {
		defect, err := repos.DefectLogs().FindByID(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := adjustResult(ctx, repos, actor, defect.ProdResultID, -defect.Qty); err != nil {
			return err
		}
		return repos.DefectLogs().SoftDelete(ctx, actor, id)
	})
}

// ChangeStatus moves a defect along WAIT → REPAIR|REWORK|SCRAP → DONE|SCRAP|WAIT
func (s *DefectService) ChangeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeDefectStatusRequest) (*quality.DefectLog, error) {
	defect, err := s.defects.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := defect.Status
	if err := defect.ChangeStatus(quality.DefectStatus(req.Status), actor.UserID); err != nil {
		return nil, err
	}
	if req.Remark != "" {
		defect.Remark = req.Remark
	}
	defect.ProdResult = nil
	if err := s.defects.Save(ctx, defect); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("defect status changed",
		zap.String("defect_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", req.Status))
	return defect, nil
}

// AddRepair records a repair attempt; PASS closes the defect, SCRAP scraps it
func (s *DefectService) AddRepair(ctx context.Context, actor shared.Actor, id uuid.UUID, req CreateRepairRequest) (*quality.RepairLog, error) {
	var repair *quality.RepairLog
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		defect, err := repos.DefectLogs().FindByID(ctx, actor, id)
		if err != nil {
			return err
		}
		result := quality.RepairResult(req.Result)
		if repair, err = quality.NewRepairLog(actor, defect.ID, result); err != nil {
			return err
		}
		repair.RepairAction = req.RepairAction
		repair.MaterialUsed = req.MaterialUsed
		repair.RepairTime = req.RepairTime
		repair.Remark = req.Remark
		if err := repos.RepairLogs().Create(ctx, repair); err != nil {
			return err
		}
		before := defect.Status
		defect.ApplyRepair(result, actor.UserID)
		if defect.Status == before {
			return nil
		}
		defect.ProdResult = nil
		return repos.DefectLogs().Save(ctx, defect)
	})
	if err != nil {
		return nil, err
	}
	return repair, nil
}

// Repairs returns the repair history of a defect
func (s *DefectService) Repairs(ctx context.Context, actor shared.Actor, id uuid.UUID) ([]quality.RepairLog, error) {
	if _, err := s.defects.FindByID(ctx, actor, id); err != nil {
		return nil, err
	}
	logs, err := s.repairs.FindByDefect(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []quality.RepairLog{}
	}
	return logs, nil
}

// Pending lists defects still waiting for a disposition, oldest first
func (s *DefectService) Pending(ctx context.Context, actor shared.Actor, limit int) ([]quality.DefectLog, error) {
	items, err := s.defects.FindPending(ctx, actor, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []quality.DefectLog{}
	}
	return items, nil
}

// StatsByType groups defects by code with each code's share in percent
func (s *DefectService) StatsByType(ctx context.Context, actor shared.Actor, r StatsRange) ([]quality.DefectTypeStat, error) {
	stats, err := s.defects.StatsByType(ctx, actor, r.From, r.To)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []quality.DefectTypeStat{}
	}
	return stats, nil
}

// StatsByStatus counts defects per status
func (s *DefectService) StatsByStatus(ctx context.Context, actor shared.Actor) ([]quality.DefectStatusStat, error) {
	stats, err := s.defects.StatsByStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []quality.DefectStatusStat{}
	}
	return stats, nil
}

// DailyTrend counts defects per day over the last days days (default 7)
func (s *DefectService) DailyTrend(ctx context.Context, actor shared.Actor, days int) ([]quality.DefectTrend, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	trend, err := s.defects.DailyTrend(ctx, actor, from)
	if err != nil {
		return nil, err
	}
	if trend == nil {
		trend = []quality.DefectTrend{}
	}
	return trend, nil
}

// adjustResult adds delta to the defectQty of a production result
func adjustResult(ctx context.Context, repos Repositories, actor shared.Actor, resultID uuid.UUID, delta int) error {
	result, err := repos.ProdResults().FindByID(ctx, actor, resultID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("production result", resultID)
		}
		return err
	}
	result.AdjustDefect(delta)
	result.JobOrder = nil
	result.Equipment = nil
	return repos.ProdResults().Save(ctx, result)
}

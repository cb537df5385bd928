package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDueWindowDays is how far ahead ReplacementDue looks when no window is given
const DefaultDueWindowDays = 7

// ConsumableService manages molds, jigs and tools and their movements
type ConsumableService struct {
	consumables maintenance.ConsumableRepository
	logs        maintenance.ConsumableLogRepository
	tx          TransactionScope
	now         func() time.Time
}

// NewConsumableService creates a new ConsumableService
func NewConsumableService(consumables maintenance.ConsumableRepository, logs maintenance.ConsumableLogRepository, tx TransactionScope) *ConsumableService {
	return &ConsumableService{consumables: consumables, logs: logs, tx: tx, now: time.Now}
}

// List returns a page of consumables
func (s *ConsumableService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[maintenance.Consumable], error) {
	items, total, err := s.consumables.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[maintenance.Consumable]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one consumable
func (s *ConsumableService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*maintenance.Consumable, error) {
	return s.consumables.FindByID(ctx, actor, id)
}

// Create registers a consumable with a unique code
func (s *ConsumableService) Create(ctx context.Context, actor shared.Actor, req CreateConsumableRequest) (*maintenance.Consumable, error) {
	c, err := maintenance.NewConsumable(actor, req.ConsumableCode, req.ConsumableName, req.ExpectedLife, req.WarningCount, req.CurrentCount)
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.consumables, actor, shared.Conds{"consumable_code": c.ConsumableCode}, nil, "consumableCode", c.ConsumableCode); err != nil {
		return nil, err
	}
	c.Category = req.Category
	c.EquipCode = req.EquipCode
	c.Location = req.Location
	c.Vendor = req.Vendor
	c.NextReplaceAt = req.NextReplaceAt
	c.Remark = req.Remark
	if req.UnitPrice != nil {
		c.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	}
	if err := s.consumables.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes a consumable and recomputes its status
func (s *ConsumableService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateConsumableRequest) (*maintenance.Consumable, error) {
	c, err := s.consumables.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.ConsumableName != nil {
		c.ConsumableName = *req.ConsumableName
	}
	if req.Category != nil {
		c.Category = *req.Category
	}
	if req.EquipCode != nil {
		c.EquipCode = *req.EquipCode
	}
	if req.Location != nil {
		c.Location = *req.Location
	}
	if req.ExpectedLife != nil {
		c.ExpectedLife = *req.ExpectedLife
	}
	if req.WarningCount != nil {
		c.WarningCount = *req.WarningCount
	}
	if req.CurrentCount != nil {
		c.CurrentCount = *req.CurrentCount
	}
	if req.UnitPrice != nil {
		c.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	}
	if req.Vendor != nil {
		c.Vendor = *req.Vendor
	}
	if req.NextReplaceAt != nil {
		c.NextReplaceAt = req.NextReplaceAt
	}
	if req.UseYn != nil {
		c.UseYn = *req.UseYn
	}
	if req.Remark != nil {
		c.Remark = *req.Remark
	}
	c.RecomputeStatus()
	c.Touch(actor.UserID)
	if err := s.consumables.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes a consumable
func (s *ConsumableService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.consumables.SoftDelete(ctx, actor, id)
}

// IncreaseCount adds shots after production and returns the updated consumable
func (s *ConsumableService) IncreaseCount(ctx context.Context, actor shared.Actor, id uuid.UUID, req IncreaseCountRequest) (*maintenance.Consumable, error) {
	c, err := s.consumables.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	before := c.Status
	if err := c.IncreaseCount(req.Count, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.consumables.Save(ctx, c); err != nil {
		return nil, err
	}
	if c.Status != before {
		logger.L(ctx).Warn("consumable wear status changed",
			zap.String("consumable_code", c.ConsumableCode),
			zap.String("from", string(before)),
			zap.String("to", string(c.Status)),
			zap.Int("count", c.CurrentCount))
	}
	return c, nil
}

// RegisterReplacement resets the wear count and writes an IN log
func (s *ConsumableService) RegisterReplacement(ctx context.Context, actor shared.Actor, id uuid.UUID, req ReplacementRequest) (*maintenance.Consumable, error) {
	var c *maintenance.Consumable
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if c, err = repos.Consumables().FindByID(ctx, actor, id); err != nil {
			return err
		}
		log := c.RegisterReplacement(actor, req.NextReplaceAt, req.Remark, s.now())
		if err := repos.Consumables().Save(ctx, c); err != nil {
			return err
		}
		return repos.ConsumableLogs().Create(ctx, log)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Warnings lists active consumables in WARNING or REPLACE
func (s *ConsumableService) Warnings(ctx context.Context, actor shared.Actor) ([]maintenance.Consumable, error) {
	items, err := s.consumables.FindWarnings(ctx, actor)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []maintenance.Consumable{}
	}
	return items, nil
}

// ReplacementDue lists active consumables worn out or scheduled for replacement within days
func (s *ConsumableService) ReplacementDue(ctx context.Context, actor shared.Actor, days int) ([]maintenance.Consumable, error) {
	if days <= 0 {
		days = DefaultDueWindowDays
	}
	items, err := s.consumables.FindReplacementDue(ctx, actor, s.now().AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []maintenance.Consumable{}
	}
	return items, nil
}

// Stats counts active consumables by status and category
func (s *ConsumableService) Stats(ctx context.Context, actor shared.Actor) (maintenance.ConsumableStats, error) {
	return s.consumables.Stats(ctx, actor)
}

// ListLogs returns a page of movements, newest first
func (s *ConsumableService) ListLogs(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[maintenance.ConsumableLog], error) {
	items, total, err := s.logs.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[maintenance.ConsumableLog]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// CreateLog records a movement; SCRAP retires the consumable
func (s *ConsumableService) CreateLog(ctx context.Context, actor shared.Actor, req CreateLogRequest) (*maintenance.ConsumableLog, error) {
	logType := maintenance.ConsumableLogType(req.LogType)
	if !logType.IsValid() {
		return nil, shared.InvalidInput("invalid logType: %s", req.LogType)
	}
	var log *maintenance.ConsumableLog
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		c, err := repos.Consumables().FindByID(ctx, actor, req.ConsumableID)
		if err != nil {
			return err
		}
		log = maintenance.NewConsumableLog(actor, c.ID, logType, req.Qty)
		log.Remark = req.Remark
		if err := repos.ConsumableLogs().Create(ctx, log); err != nil {
			return err
		}
		if logType != maintenance.LogScrap {
			return nil
		}
		c.ApplyLog(logType, actor.UserID)
		return repos.Consumables().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

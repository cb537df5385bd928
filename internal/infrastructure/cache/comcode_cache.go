package cache

import (
	"context"
	"time"

	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	comCodePrefix     = "comcode:"
	defaultComCodeTTL = 10 * time.Minute
)

// ComCodeCache keeps the active codes of each group per tenant
type ComCodeCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewComCodeCache creates a ComCodeCache; ttl 0 uses ten minutes
func NewComCodeCache(store Store, ttl time.Duration, logger *zap.Logger) *ComCodeCache {
	if ttl <= 0 {
		ttl = defaultComCodeTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComCodeCache{store: store, ttl: ttl, logger: logger}
}

func tenantPrefix(company, plant string) string {
	return comCodePrefix + company + ":" + plant + ":"
}

func groupKey(company, plant, group string) string {
	return tenantPrefix(company, plant) + group
}

// Group returns the cached codes of group. Store errors count as a miss.
func (c *ComCodeCache) Group(ctx context.Context, scope shared.Actor, group string) ([]master.ComCode, bool) {
	codes, found, err := GetJSON[[]master.ComCode](ctx, c.store, groupKey(scope.Company, scope.Plant, group))
	if err != nil {
		c.logger.Warn("ComCode cache read failed", zap.String("group", group), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	return *codes, true
}

// SetGroup stores the codes of group
func (c *ComCodeCache) SetGroup(ctx context.Context, scope shared.Actor, group string, codes []master.ComCode) {
	if codes == nil {
		codes = []master.ComCode{}
	}
	if err := SetJSON(ctx, c.store, groupKey(scope.Company, scope.Plant, group), codes, c.ttl); err != nil {
		c.logger.Warn("ComCode cache write failed", zap.String("group", group), zap.Error(err))
	}
}

// InvalidateGroup drops one group of one tenant
func (c *ComCodeCache) InvalidateGroup(ctx context.Context, company, plant, group string) error {
	return c.store.Delete(ctx, groupKey(company, plant, group))
}

// InvalidateTenant drops every group of one tenant
func (c *ComCodeCache) InvalidateTenant(ctx context.Context, company, plant string) error {
	return c.store.DeletePrefix(ctx, tenantPrefix(company, plant))
}

// Handle implements shared.EventHandler for master.ComCodeChanged
func (c *ComCodeCache) Handle(ctx context.Context, ev shared.DomainEvent) error {
	changed, ok := ev.(*master.ComCodeChanged)
	if !ok {
		return c.InvalidateTenant(ctx, ev.Company(), ev.Plant())
	}
	c.logger.Debug("ComCode group invalidated",
		zap.String("company", changed.Company()),
		zap.String("plant", changed.Plant()),
		zap.String("group", changed.GroupCode))
	return c.InvalidateGroup(ctx, changed.Company(), changed.Plant(), changed.GroupCode)
}

// EventTypes implements shared.EventHandler
func (c *ComCodeCache) EventTypes() []string {
	return []string{master.EventComCodeChanged}
}

var _ shared.EventHandler = (*ComCodeCache)(nil)

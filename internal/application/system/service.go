package system

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/system"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	SysConfigs() system.SysConfigRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// ConfigService manages runtime settings
type ConfigService struct {
	configs system.SysConfigRepository
	tx      TransactionScope
}

// NewConfigService creates a new ConfigService
func NewConfigService(configs system.SysConfigRepository, tx TransactionScope) *ConfigService {
	return &ConfigService{configs: configs, tx: tx}
}

// List returns every setting of the group (all groups when empty) matching search
func (s *ConfigService) List(ctx context.Context, actor shared.Actor, group, search string) ([]system.SysConfig, error) {
	configs, err := s.configs.FindAll(ctx, actor, group)
	if err != nil {
		return nil, err
	}
	out := make([]system.SysConfig, 0, len(configs))
	for _, c := range configs {
		if c.Matches(search) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Grouped returns every setting keyed by configGroup
func (s *ConfigService) Grouped(ctx context.Context, actor shared.Actor) (map[string][]system.SysConfig, error) {
	configs, err := s.configs.FindAll(ctx, actor, "")
	if err != nil {
		return nil, err
	}
	return system.Grouped(configs), nil
}

// ActiveMap returns configKey to configValue over active settings
func (s *ConfigService) ActiveMap(ctx context.Context, actor shared.Actor) (map[string]string, error) {
	configs, err := s.configs.FindActive(ctx, actor)
	if err != nil {
		return nil, err
	}
	return system.ValueMap(configs), nil
}

// GetValue returns the value of an active setting; ok is false when there is none
func (s *ConfigService) GetValue(ctx context.Context, actor shared.Actor, key string) (value string, ok bool, err error) {
	c, err := s.configs.FindOne(ctx, actor, shared.Conds{"config_key": key, "is_active": shared.Yes})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return c.ConfigValue, true, nil
}

// IsEnabled reports whether an active setting holds Y
func (s *ConfigService) IsEnabled(ctx context.Context, actor shared.Actor, key string) (bool, error) {
	v, ok, err := s.GetValue(ctx, actor, key)
	if err != nil || !ok {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(v), shared.Yes), nil
}

// GetByID returns one setting
func (s *ConfigService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*system.SysConfig, error) {
	return s.configs.FindByID(ctx, actor, id)
}

// Create adds a setting; (configGroup, configKey) is unique
func (s *ConfigService) Create(ctx context.Context, actor shared.Actor, req CreateConfigRequest) (*system.SysConfig, error) {
	if err := shared.EnsureUnique(ctx, s.configs, actor,
		shared.Conds{"config_group": req.ConfigGroup, "config_key": req.ConfigKey}, nil,
		"configKey", req.ConfigGroup+"."+req.ConfigKey); err != nil {
		return nil, err
	}
	c, err := system.NewSysConfig(actor, req.ConfigGroup, req.ConfigKey, req.ConfigValue)
	if err != nil {
		return nil, err
	}
	if req.ConfigType != "" {
		c.ConfigType = req.ConfigType
	}
	if req.Label != "" {
		c.Label = req.Label
	}
	c.Description = req.Description
	c.Options = req.Options
	c.SortOrder = req.SortOrder
	c.IsActive = shared.YNOrDefault(req.IsActive, shared.Yes)
	if err := s.configs.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes one setting
func (s *ConfigService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateConfigRequest) (*system.SysConfig, error) {
	c, err := s.configs.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.ConfigValue != nil {
		c.ConfigValue = *req.ConfigValue
	}
	if req.ConfigType != nil {
		c.ConfigType = *req.ConfigType
	}
	if req.Label != nil {
		c.Label = *req.Label
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Options != nil {
		c.Options = *req.Options
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		c.IsActive = shared.YNOrDefault(*req.IsActive, c.IsActive)
	}
	c.Touch(actor.UserID)
	if err := s.configs.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BulkUpdate sets the values of several settings by key in one transaction.
// Unknown keys are skipped and reported back.
func (s *ConfigService) BulkUpdate(ctx context.Context, actor shared.Actor, req BulkUpdateRequest) (*BulkUpdateResult, error) {
	result := &BulkUpdateResult{Skipped: []string{}}
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		for _, item := range req.Items {
			c, err := repos.SysConfigs().FindByKey(ctx, actor, item.ConfigKey)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					result.Skipped = append(result.Skipped, item.ConfigKey)
					continue
				}
				return err
			}
			c.ConfigValue = item.ConfigValue
			c.Touch(actor.UserID)
			if err := repos.SysConfigs().Save(ctx, c); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		logger.L(ctx).Warn("bulk config update skipped unknown keys", zap.Strings("keys", result.Skipped))
	}
	return result, nil
}

// Delete removes a setting by key
func (s *ConfigService) Delete(ctx context.Context, actor shared.Actor, key string) error {
	return s.configs.Delete(ctx, actor, key)
}

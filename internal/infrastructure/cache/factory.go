package cache

import (
	"context"
	"fmt"

	"github.com/mes/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory picks the cache store from configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption configures the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory and the stores it creates
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to memory.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new StoreFactory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable, else a
// memory store (unless fallback is disabled)
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache")
		return NewMemoryStore(f.logger), nil
	}
	store, err := NewRedisStore(ctx, f.redisConfig, WithStoreLogger(f.logger))
	if err == nil {
		f.logger.Info("Using Redis cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
		"Cached codes are not shared between instances.", zap.Error(err))
	return NewMemoryStore(f.logger), nil
}

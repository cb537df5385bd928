package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultScanBatchSize = 100
	defaultKeyPrefix     = "mes:cache:"
)

// RedisStore implements Store on Redis. Keys are namespaced with a prefix.
type RedisStore struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	logger     *zap.Logger
}

// RedisStoreOption configures a RedisStore
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix replaces the default key namespace
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithStoreLogger sets the logger for the store
func WithStoreLogger(logger *zap.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedisClient opens a client for cfg and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore connects to Redis and owns the client
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, opts ...RedisStoreOption) (*RedisStore, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := NewRedisStoreWithClient(client, opts...)
	s.ownsClient = true
	return s, nil
}

// NewRedisStoreWithClient wraps a shared client; the caller keeps ownership
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read cache entry", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get from cache: %w", err)
	}
	return data, true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return nil
}

// DeletePrefix scans for matching keys instead of using KEYS
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	var deleted int64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+prefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	s.logger.Debug("Invalidated cache keys", zap.String("prefix", prefix), zap.Int64("deleted", deleted))
	return nil
}

// Close closes the client if the store created it
func (s *RedisStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

var _ Store = (*RedisStore)(nil)

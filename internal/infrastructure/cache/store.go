// Package cache provides the key/value stores behind the MES read caches.
// Redis is used when configured and reachable; otherwise an in-process store
// with the same semantics takes its place.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a byte-valued cache with per-key expiry
type Store interface {
	// Get returns the value of key; found is false on a miss
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// GetJSON reads key and decodes it into T
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// corrupted entry, drop it so the next read repopulates
		_ = s.Delete(ctx, key)
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return &v, true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

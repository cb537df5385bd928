package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers tokens revoked by logout and users whose tokens were
// invalidated (password change, deactivation)
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUser invalidates every token of the user issued up to now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revocationPrefix = "mes:token:revoked:"

// RedisRevocationStore keeps revocations in Redis so every instance sees them
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a store on an existing client
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func jtiKey(jti string) string     { return revocationPrefix + "jti:" + jti }
func userKey(userID string) string { return revocationPrefix + "user:" + userID }

// Revoke stores the jti until the token would have expired anyway
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks the jti
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the invalidation time of the user
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether the token was issued at or before the user's invalidation time
func (s *RedisRevocationStore) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	at, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation time: %w", err)
	}
	return issuedAt.Unix() <= at, nil
}

// InMemoryRevocationStore is used when Redis is disabled. Revocations are lost on restart
// and are not shared between instances.
type InMemoryRevocationStore struct {
	mu    sync.Mutex
	jtis  map[string]time.Time
	users map[string]time.Time
	now   func() time.Time
}

// NewInMemoryRevocationStore creates an empty store
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{
		jtis:  make(map[string]time.Time),
		users: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Revoke implements RevocationStore
func (s *InMemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jtis[jti] = s.now().Add(ttl)
	return nil
}

// IsRevoked implements RevocationStore; expired entries are dropped on read
func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.jtis[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.jtis, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser implements RevocationStore
func (s *InMemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = s.now()
	return nil
}

// IsUserRevoked implements RevocationStore
func (s *InMemoryRevocationStore) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(at), nil
}

var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ RevocationStore = (*InMemoryRevocationStore)(nil)
)

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store in process memory. It does not share state
// across server instances.
type MemoryStore struct {
	entries sync.Map // key -> memoryEntry
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// NewMemoryStore creates a MemoryStore and starts its expiry sweeper
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{logger: logger, now: time.Now, stopCh: make(chan struct{})}
	go s.sweep()
	return s
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.entries.Load(key); ok {
		e := v.(memoryEntry)
		if !e.expired(s.now()) {
			atomic.AddInt64(&s.hits, 1)
			return e.value, true, nil
		}
		s.entries.Delete(key)
	}
	atomic.AddInt64(&s.misses, 1)
	return nil, false, nil
}

// Set implements Store; a ttl of 0 never expires
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries.Store(key, e)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.entries.Delete(k)
	}
	return nil
}

// DeletePrefix implements Store
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.entries.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			s.entries.Delete(k)
		}
		return true
	})
	return nil
}

// Close stops the sweeper
func (s *MemoryStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

// Stats returns hit and miss counters
func (s *MemoryStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	now := s.now()
	removed := 0
	s.entries.Range(func(k, v any) bool {
		if v.(memoryEntry).expired(now) {
			s.entries.Delete(k)
			removed++
		}
		return true
	})
	if removed > 0 {
		s.logger.Debug("Removed expired cache entries", zap.Int("removed", removed))
	}
}

var _ Store = (*MemoryStore)(nil)

package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows
type Limiter interface {
	// Allow records one request for key and reports whether it fits the window
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// MemoryLimiter is a per-process fixed-window limiter
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	used  int
	start time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window.
// Call Stop to end its cleanup goroutine.
func NewMemoryLimiter(limit int, win time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  win,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, w := range l.clients {
				if now.Sub(w.start) > l.window*2 {
					delete(l.clients, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.clients[key] = &window{used: 1, start: now}
		return true, l.limit - 1, nil
	}
	if w.used >= l.limit {
		return false, 0, nil
	}
	w.used++
	return true, l.limit - w.used, nil
}

// Limit implements Limiter
func (l *MemoryLimiter) Limit() int { return l.limit }

// Stop ends the cleanup goroutine
func (l *MemoryLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// RedisLimiter shares the request windows between API instances
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter backed by INCR/EXPIRE counters
func NewRedisLimiter(client *redis.Client, limit int, win time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: win, prefix: "mes:ratelimit:"}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if n > int64(l.limit) {
		return false, 0, nil
	}
	return true, l.limit - int(n), nil
}

// Limit implements Limiter
func (l *RedisLimiter) Limit() int { return l.limit }

// RateLimit limits requests per client IP and plant. When the limiter
// fails the request is let through and the error logged.
func RateLimit(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.ClientIP()
		if plant := c.GetHeader(HeaderPlant); plant != "" && tenantCodePattern.MatchString(plant) {
			key = plant + ":" + key
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			AbortWithError(c, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

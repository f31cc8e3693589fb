package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wichananm65/mobcommerce-backend/internal/response"
)

// Counter counts hits for key inside a fixed window and reports the count
// so far and how long until the window resets.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

// RedisCounter counts hits in Redis so limits hold across instances.
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounter(rdb *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: prefix}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := r.prefix + ":" + key
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	reset := ttl.Val()
	// first hit, or a key left without expiry by an earlier failed Expire
	if reset < 0 {
		if err := r.rdb.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		reset = window
	}
	return incr.Val(), reset, nil
}

type memoryWindow struct {
	count int64
	until time.Time
}

// MemoryCounter is a process-local Counter used when Redis is not
// configured.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]memoryWindow), now: time.Now}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.until) {
		w = memoryWindow{until: now.Add(window)}
		if len(m.windows) > 10000 {
			m.sweep(now)
		}
	}
	w.count++
	m.windows[key] = w
	return w.count, w.until.Sub(now), nil
}

func (m *MemoryCounter) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.until) {
			delete(m.windows, k)
		}
	}
}

// RateLimit allows limit requests per client IP and route per window.
// Counter errors let the request through.
func RateLimit(counter Counter, limit int, window time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit <= 0 {
			return c.Next()
		}
		key := c.Path() + ":" + c.IP()
		count, reset, err := counter.Hit(c.UserContext(), key, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			secs := int(reset.Round(time.Second).Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return response.Fail(c, fiber.StatusTooManyRequests, "Too many requests. Try again later.")
		}
		return c.Next()
	}
}

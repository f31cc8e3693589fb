package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func limitedApp(counter Counter, limit int) *fiber.App {
	app := fiber.New()
	app.Post("/login", RateLimit(counter, limit, time.Minute, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	app := limitedApp(NewMemoryCounter(), 3)

	for i := 0; i < 3; i++ {
		res, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}

	res, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("Retry-After"))
	assert.Equal(t, "0", res.Header.Get("X-RateLimit-Remaining"))
}

func TestMemoryCounter_WindowResets(t *testing.T) {
	m := NewMemoryCounter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	n, reset, err := m.Hit(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, reset)

	n, _, _ = m.Hit(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(2), n)

	now = now.Add(time.Minute)
	n, _, _ = m.Hit(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(1), n)
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	app := limitedApp(NewRedisCounter(rdb, "test"), 1)
	for i := 0; i < 3; i++ {
		res, err := app.Test(httptest.NewRequest("POST", "/login", nil), 2000)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}
}

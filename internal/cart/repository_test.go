package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_Scenario(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	const u = int64(1)

	require.NoError(t, repo.Add(ctx, u, "A", "Apple"))
	require.NoError(t, repo.Add(ctx, u, "A", "Other title"))
	require.NoError(t, repo.Increment(ctx, u, "A"))

	items, err := repo.Items(ctx, u)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Apple", items[0].ProductTitle)

	require.NoError(t, repo.Decrement(ctx, u, "A"))
	require.NoError(t, repo.Decrement(ctx, u, "A"))
	n, err := repo.Count(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Decrement(ctx, u, "A"))
	items, err = repo.Items(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, items)
	n, err = repo.Count(ctx, u)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInMemoryRepository_MissingLine(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	assert.ErrorIs(t, repo.Increment(ctx, 1, "A"), ErrLineNotFound)
	assert.ErrorIs(t, repo.Decrement(ctx, 1, "A"), ErrLineNotFound)
	assert.NoError(t, repo.Remove(ctx, 1, "A"))
	assert.NoError(t, repo.Clear(ctx, 1))

	items, err := repo.Items(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryRepository_NewestFirstAndPerUser(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { now = now.Add(time.Second); return now }
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, 1, "A", "Apple"))
	require.NoError(t, repo.Add(ctx, 1, "B", "Banana"))
	require.NoError(t, repo.Add(ctx, 2, "C", "Cherry"))
	require.NoError(t, repo.Add(ctx, 1, "A", "Apple"))

	items, err := repo.Items(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].ProductID)
	assert.Equal(t, "A", items[1].ProductID)

	n, _ := repo.Count(ctx, 1)
	assert.Equal(t, 3, n)

	require.NoError(t, repo.Clear(ctx, 1))
	n, _ = repo.Count(ctx, 2)
	assert.Equal(t, 1, n)
}

func TestInMemoryRepository_ConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Add(ctx, 1, "A", "Apple"))
		}()
	}
	wg.Wait()

	items, err := repo.Items(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, n, items[0].Quantity)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Decrement(ctx, 1, "A"))
		}()
	}
	wg.Wait()
	count, err := repo.Count(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

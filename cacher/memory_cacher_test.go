package cacher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string
	Count int
}

func TestNewMemoryCacher(t *testing.T) {
	c := NewMemoryCacher[string](time.Minute, 10*time.Minute)
	require.NotNil(t, c)

	mc, ok := c.(*MemoryCacher[string])
	require.True(t, ok)
	require.NotNil(t, mc.cache)
}

func TestMemoryCacher_SetGet(t *testing.T) {
	c := NewMemoryCacher[record](cache.NoExpiration, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:a", record{ID: "a", Count: 1}, 0))

	got, err := c.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, record{ID: "a", Count: 1}, got)

	require.NoError(t, c.Set(ctx, "session:a", record{ID: "a", Count: 2}, time.Minute))
	got, err = c.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count, "set replaces")
}

func TestMemoryCacher_Get_Missing(t *testing.T) {
	c := NewMemoryCacher[record](cache.NoExpiration, time.Minute)

	got, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, record{}, got)
}

func TestMemoryCacher_Expiry(t *testing.T) {
	c := NewMemoryCacher[string](cache.NoExpiration, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacher_ItemCount(t *testing.T) {
	c := NewMemoryCacher[int](cache.NoExpiration, time.Minute)
	ctx := context.Background()

	n, err := c.ItemCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))

	n, err = c.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryCacher_ContextCancelled(t *testing.T) {
	c := NewMemoryCacher[int](cache.NoExpiration, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "a", 1, 0), context.Canceled)

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.ItemCount(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryCacher_Concurrent(t *testing.T) {
	c := NewMemoryCacher[int](cache.NoExpiration, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			_ = c.Set(ctx, key, i, 0)
			_, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	n, err := c.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

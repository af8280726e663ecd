package cacher

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryCacher is an in-process Cacher backed by go-cache. Expired entries
// are swept every cleanupInterval.
type MemoryCacher[T any] struct {
	cache *cache.Cache
}

// NewMemoryCacher creates an in-memory cacher.
//
// Parameters:
//   - defaultExpiration: TTL used when Set is given 0 (cache.NoExpiration for none)
//   - cleanupInterval: How often expired entries are removed
//
// Returns:
//   - A new Cacher
func NewMemoryCacher[T any](defaultExpiration, cleanupInterval time.Duration) Cacher[T] {
	return &MemoryCacher[T]{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *MemoryCacher[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	val, found := c.cache.Get(key)
	if !found {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type in cache for key %s", key)
	}

	return typed, nil
}

func (c *MemoryCacher[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = cache.DefaultExpiration
	}

	c.cache.Set(key, value, ttl)
	return nil
}

func (c *MemoryCacher[T]) ItemCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return c.cache.ItemCount(), nil
}

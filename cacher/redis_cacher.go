package cacher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacher is a Cacher backed by Redis. Values are stored as JSON under
// prefix+key so several record kinds can share one database.
type RedisCacher[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedisCacher creates a Redis-backed cacher.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	records := NewRedisCacher[relay.SessionRecord](client, "netpong:")
func NewRedisCacher[T any](client *redis.Client, prefix string) Cacher[T] {
	return &RedisCacher[T]{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisCacher[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}

	if err != nil {
		return zero, fmt.Errorf("redis get error: %w", err)
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return result, nil
}

func (c *RedisCacher[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// ItemCount counts keys under the cacher's prefix using SCAN.
func (c *RedisCacher[T]) ItemCount(ctx context.Context) (int, error) {
	count := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}

	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan error: %w", err)
	}

	return count, nil
}

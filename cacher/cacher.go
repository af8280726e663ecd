// Package cacher stores small JSON-friendly records with a time-to-live. The
// relay keeps its session records here: in process memory for a single relay,
// or in Redis when several relays should share a history.
package cacher

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache key not found")

// Cacher is a typed key-value store with per-entry expiry. Implementations
// must be safe for concurrent use.
type Cacher[T any] interface {
	// Get returns the value stored under key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key
	//
	// Returns:
	//   - The stored value
	//   - ErrNotFound if the key is missing, or a backend error
	Get(ctx context.Context, key string) (T, error)

	// Set stores value under key, replacing any previous value.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key
	//   - value: The value to store
	//   - ttl: Time-to-live; 0 means no expiry
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// ItemCount returns the number of live entries.
	ItemCount(ctx context.Context) (int, error)
}

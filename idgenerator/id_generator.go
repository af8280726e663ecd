// Package idgenerator hands out monotonically increasing identifiers. The
// relay uses one generator for connection IDs and one for session sequence
// numbers; both are safe to share between goroutines.
package idgenerator

import "sync/atomic"

// IdGenerator generates monotonically increasing IDs in a concurrency-safe
// manner. The first Id returns start+1, so start can be reserved as "invalid".
type IdGenerator[T ~uint32 | ~uint64] struct {
	id atomic.Uint64
}

// NewIdGenerator creates an IdGenerator whose first Id will be startValue+1.
//
// Parameters:
//   - startValue: The value to initialize the counter to
//
// Returns:
//   - A new IdGenerator instance
func NewIdGenerator[T ~uint32 | ~uint64](startValue T) *IdGenerator[T] {
	gen := &IdGenerator[T]{}
	gen.id.Store(uint64(startValue))
	return gen
}

// Id returns the next ID. For 32-bit ID types the value wraps at the type's
// maximum, matching plain uint32 overflow.
//
// Returns:
//   - The next ID
func (g *IdGenerator[T]) Id() T {
	return T(g.id.Add(1))
}

// Last returns the most recently issued ID without advancing the counter,
// or the start value if none has been issued.
func (g *IdGenerator[T]) Last() T {
	return T(g.id.Load())
}

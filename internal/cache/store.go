package cache

import (
	"context"
	"time"
)

// Store represents a shared key-value cache interface used across the engine.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// ListStore manages bounded per-key lists, the backing primitive for offline
// notification backlogs. PushCapped must serialise concurrent appends to the
// same key; appends to different keys are independent.
type ListStore interface {
	// PushCapped appends value to the list at key, trims the list to its
	// most recent limit entries, and refreshes the key's TTL.
	PushCapped(ctx context.Context, key string, value []byte, limit int, ttl time.Duration) error
	// Range returns every entry in the list at key in insertion order.
	Range(ctx context.Context, key string) ([][]byte, error)
	// Delete removes entire lists, ignoring missing keys.
	Delete(ctx context.Context, keys ...string) error
}

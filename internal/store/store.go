// Package store provides the shared key-value contract the gateway uses for
// cross-instance state: the summary cache and the rate-limit counters. The
// production backend is redis; an in-memory implementation covers tests and
// single-node development.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or its TTL has elapsed
var ErrNotFound = errors.New("store: key not found")

// Store is the minimal TTL-keyed contract shared by the cache and the
// rate limiter. Callers treat any non-ErrNotFound error as "store
// unavailable" and degrade rather than fail the request.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL, overwriting
	// unconditionally
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically increments the counter at key. The first increment in
	// a window starts the window clock: the key expires after window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
}

// Package cache implements named cache regions over pluggable backends.
//
// A region pairs a backend (in-process LRU or shared Redis) with a
// default TTL. Backend faults never propagate to callers: reads degrade
// to misses and writes are best-effort, so a cache outage costs latency,
// not correctness.
package cache

import (
	"context"
	"time"
)

// Backend is a TTL-evicting key/value store a region binds to.
type Backend interface {
	// Get returns the stored value and whether the key was present and
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a single key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key beginning with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

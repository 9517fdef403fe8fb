// Package cache provides a read-through cached decorator over the single-key
// repository. Reads are served from the cache when possible; writes pass
// through to the base repository and invalidate the cached entry.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key has no cached value.
var ErrCacheMiss = errors.New("cache: miss")

// Cache is the byte-oriented cache the decorator stores serialized models in.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

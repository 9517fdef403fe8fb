package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"docstore/internal/repository"
	"docstore/internal/shared/logger"
)

// Repository is the surface the decorator wraps: the single-key repository's
// read and write operations.
type Repository[T repository.SingleKeyed[T, K], K comparable] interface {
	Add(ctx context.Context, model *T) (T, error)
	Update(ctx context.Context, model *T) (T, error)
	Delete(ctx context.Context, model *T) error
	Get(ctx context.Context, key K) (T, error)
	List(ctx context.Context) ([]T, error)
}

// CachedRepository is a read-through decorator. Get is served from the cache
// when possible; Add, Update and Delete pass through to the base repository
// and invalidate the cached entry. List always passes through: the cache
// holds individual documents, never query results.
type CachedRepository[T repository.SingleKeyed[T, K], K comparable] struct {
	base   Repository[T, K]
	cache  Cache
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// NewCachedRepository wraps a base repository. The prefix namespaces cache
// keys per container so two model types never collide.
func NewCachedRepository[T repository.SingleKeyed[T, K], K comparable](base Repository[T, K], c Cache, prefix string, ttl time.Duration, log logger.Logger) *CachedRepository[T, K] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CachedRepository[T, K]{
		base:   base,
		cache:  c,
		ttl:    ttl,
		prefix: prefix,
		log:    log.WithComponent("cache"),
	}
}

func (r *CachedRepository[T, K]) cacheKey(id string) string {
	return r.prefix + ":" + id
}

// Get returns the cached model when present, falling back to the base
// repository and populating the cache on a miss. Cache failures degrade to
// the base repository; they are logged, never surfaced.
func (r *CachedRepository[T, K]) Get(ctx context.Context, key K) (T, error) {
	id := repository.EncodeKey(key)

	data, err := r.cache.Get(ctx, r.cacheKey(id))
	if err == nil {
		var model T
		if err := json.Unmarshal(data, &model); err == nil {
			return model, nil
		}
		// Corrupt entry: fall through to the base and let Set overwrite it.
		r.log.Warnf("discarding corrupt cache entry for %s", id)
	} else if !errors.Is(err, ErrCacheMiss) {
		r.log.Warnf("cache get for %s failed: %v", id, err)
	}

	model, err := r.base.Get(ctx, key)
	if err != nil {
		return model, err
	}
	r.store(ctx, id, model)
	return model, nil
}

// Add passes through and invalidates the entry for the assigned key.
func (r *CachedRepository[T, K]) Add(ctx context.Context, model *T) (T, error) {
	result, err := r.base.Add(ctx, model)
	if err != nil {
		return result, err
	}
	r.invalidate(ctx, result)
	return result, nil
}

// Update passes through and invalidates the stale entry.
func (r *CachedRepository[T, K]) Update(ctx context.Context, model *T) (T, error) {
	result, err := r.base.Update(ctx, model)
	if err != nil {
		return result, err
	}
	r.invalidate(ctx, result)
	return result, nil
}

// Delete passes through and invalidates the entry.
func (r *CachedRepository[T, K]) Delete(ctx context.Context, model *T) error {
	if err := r.base.Delete(ctx, model); err != nil {
		return err
	}
	if model != nil {
		r.invalidate(ctx, *model)
	}
	return nil
}

// List always passes through to the base repository.
func (r *CachedRepository[T, K]) List(ctx context.Context) ([]T, error) {
	return r.base.List(ctx)
}

func (r *CachedRepository[T, K]) store(ctx context.Context, id string, model T) {
	data, err := json.Marshal(model)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.cacheKey(id), data, r.ttl); err != nil {
		r.log.Warnf("cache set for %s failed: %v", id, err)
	}
}

func (r *CachedRepository[T, K]) invalidate(ctx context.Context, model T) {
	id := repository.EncodeKey(model.DocumentKey())
	if err := r.cache.Delete(ctx, r.cacheKey(id)); err != nil {
		r.log.Warnf("cache invalidation for %s failed: %v", id, err)
	}
}

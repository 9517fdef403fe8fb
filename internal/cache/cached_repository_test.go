package cache_test

import (
	"context"
	"testing"
	"time"

	"docstore/internal/cache"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Invoice struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func (i Invoice) DocumentKey() string { return i.ID }

func (i Invoice) WithDocumentKey(key string) Invoice {
	i.ID = key
	return i
}

// stubRepository counts calls so tests can assert whether the cache or the
// base repository served a read.
type stubRepository struct {
	getCalls  int
	addCalls  int
	models    map[string]Invoice
	getErr    error
	listCalls int
}

func newStubRepository(models ...Invoice) *stubRepository {
	s := &stubRepository{models: make(map[string]Invoice)}
	for _, m := range models {
		s.models[m.ID] = m
	}
	return s
}

func (s *stubRepository) Add(ctx context.Context, model *Invoice) (Invoice, error) {
	s.addCalls++
	s.models[model.ID] = *model
	return *model, nil
}

func (s *stubRepository) Update(ctx context.Context, model *Invoice) (Invoice, error) {
	s.models[model.ID] = *model
	return *model, nil
}

func (s *stubRepository) Delete(ctx context.Context, model *Invoice) error {
	delete(s.models, model.ID)
	return nil
}

func (s *stubRepository) Get(ctx context.Context, key string) (Invoice, error) {
	s.getCalls++
	if s.getErr != nil {
		return Invoice{}, s.getErr
	}
	model, ok := s.models[key]
	if !ok {
		return Invoice{}, apperrors.ErrDocumentNotFound
	}
	return model, nil
}

func (s *stubRepository) List(ctx context.Context) ([]Invoice, error) {
	s.listCalls++
	out := make([]Invoice, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	return out, nil
}

func newCached(base *stubRepository, c cache.Cache) *cache.CachedRepository[Invoice, string] {
	return cache.NewCachedRepository[Invoice, string](base, c, "Invoices", time.Minute, logger.NewNopLogger())
}

func TestCachedRepositoryGetPopulatesOnMiss(t *testing.T) {
	base := newStubRepository(Invoice{ID: "inv-1", Name: "first", Amount: 10})
	mem := cache.NewMemoryCache()
	repo := newCached(base, mem)

	got, err := repo.Get(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, base.getCalls)

	data, err := mem.Get(context.Background(), "Invoices:inv-1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"first"`)
}

func TestCachedRepositoryGetServedFromCache(t *testing.T) {
	base := newStubRepository(Invoice{ID: "inv-1", Name: "first"})
	repo := newCached(base, cache.NewMemoryCache())
	ctx := context.Background()

	_, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)

	got, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, base.getCalls, "second read must not reach the base repository")
}

func TestCachedRepositoryGetMissPropagatesNotFound(t *testing.T) {
	base := newStubRepository()
	repo := newCached(base, cache.NewMemoryCache())

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCachedRepositoryCorruptEntryFallsBack(t *testing.T) {
	base := newStubRepository(Invoice{ID: "inv-1", Name: "first"})
	mem := cache.NewMemoryCache()
	repo := newCached(base, mem)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "Invoices:inv-1", []byte("{not json"), time.Minute))

	got, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, base.getCalls)

	// The corrupt entry was overwritten with the fresh model.
	data, err := mem.Get(ctx, "Invoices:inv-1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"first"`)
}

func TestCachedRepositoryUpdateInvalidates(t *testing.T) {
	base := newStubRepository(Invoice{ID: "inv-1", Name: "first"})
	mem := cache.NewMemoryCache()
	repo := newCached(base, mem)
	ctx := context.Background()

	_, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)

	updated := Invoice{ID: "inv-1", Name: "second"}
	_, err = repo.Update(ctx, &updated)
	require.NoError(t, err)

	_, err = mem.Get(ctx, "Invoices:inv-1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	got, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
}

func TestCachedRepositoryDeleteInvalidates(t *testing.T) {
	base := newStubRepository(Invoice{ID: "inv-1", Name: "first"})
	mem := cache.NewMemoryCache()
	repo := newCached(base, mem)
	ctx := context.Background()

	_, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)

	doomed := Invoice{ID: "inv-1"}
	require.NoError(t, repo.Delete(ctx, &doomed))

	_, err = mem.Get(ctx, "Invoices:inv-1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCachedRepositoryAddPassesThrough(t *testing.T) {
	base := newStubRepository()
	repo := newCached(base, cache.NewMemoryCache())

	added, err := repo.Add(context.Background(), &Invoice{ID: "inv-9", Name: "new"})
	require.NoError(t, err)
	assert.Equal(t, "inv-9", added.ID)
	assert.Equal(t, 1, base.addCalls)
}

func TestCachedRepositoryListPassesThrough(t *testing.T) {
	base := newStubRepository(Invoice{ID: "a"}, Invoice{ID: "b"})
	repo := newCached(base, cache.NewMemoryCache())

	models, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 2)
	assert.Equal(t, 1, base.listCalls)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mem := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := mem.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	mem := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, mem.Delete(ctx, "k"))

	_, err := mem.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

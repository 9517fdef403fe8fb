package repository_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docstore/internal/repository"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"
	"docstore/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOptions() repository.Options {
	return repository.Options{DatabaseID: "appdb", RecheckAfterFailure: true}
}

func TestProvisioner_FirstUseProvisionsOnce(t *testing.T) {
	container := &mockContainer{}
	store := provisionedStore(container)
	p := repository.NewProvisioner(store, testOptions(), logger.NewNopLogger())

	spec := storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices", PartitionKeyPath: "/id"}
	for i := 0; i < 3; i++ {
		c, err := p.Container(context.Background(), spec)
		require.NoError(t, err)
		assert.Same(t, container, c)
	}

	store.AssertNumberOfCalls(t, "EnsureDatabase", 1)
	store.AssertNumberOfCalls(t, "EnsureContainer", 1)
}

// countingStore counts ensure calls under concurrency without testify's
// bookkeeping in the hot path.
type countingStore struct {
	ensureDatabase  atomic.Int32
	ensureContainer atomic.Int32
	container       storage.Container
}

func (s *countingStore) EnsureDatabase(ctx context.Context, databaseID string) (storage.Status, error) {
	time.Sleep(5 * time.Millisecond) // widen the race window
	s.ensureDatabase.Add(1)
	return storage.StatusCreated, nil
}

func (s *countingStore) EnsureContainer(ctx context.Context, spec storage.ContainerSpec) (storage.Status, error) {
	time.Sleep(5 * time.Millisecond)
	s.ensureContainer.Add(1)
	return storage.StatusCreated, nil
}

func (s *countingStore) Container(spec storage.ContainerSpec) (storage.Container, error) {
	return s.container, nil
}

func (s *countingStore) DropDatabase(ctx context.Context, databaseID string) error { return nil }

func (s *countingStore) Close() error { return nil }

func TestProvisioner_ConcurrentFirstUseProvisionsExactlyOnce(t *testing.T) {
	store := &countingStore{container: &mockContainer{}}
	p := repository.NewProvisioner(store, testOptions(), logger.NewNopLogger())
	spec := storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices", PartitionKeyPath: "/id"}

	const callers = 50
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Container(context.Background(), spec)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.ensureDatabase.Load())
	assert.Equal(t, int32(1), store.ensureContainer.Load())
}

func TestProvisioner_UnexpectedStatusIsFatal(t *testing.T) {
	store := &mockStore{}
	store.On("EnsureDatabase", mock.Anything, "appdb").Return(storage.StatusConflict, nil)
	p := repository.NewProvisioner(store, testOptions(), logger.NewNopLogger())

	_, err := p.Container(context.Background(), storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices"})
	require.Error(t, err)
	assert.True(t, apperrors.IsProvisioning(err))

	var provErr *apperrors.ProvisioningError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "database", provErr.Resource)
	assert.Equal(t, "Conflict", provErr.Status)
}

func TestProvisioner_StoreErrorWrappedAsProvisioning(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	store := &mockStore{}
	store.On("EnsureDatabase", mock.Anything, "appdb").Return(storage.StatusUnknown, cause)
	p := repository.NewProvisioner(store, testOptions(), logger.NewNopLogger())

	_, err := p.Container(context.Background(), storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices"})
	require.Error(t, err)
	assert.True(t, apperrors.IsProvisioning(err))
	assert.True(t, errors.Is(err, cause))
}

func TestProvisioner_RecheckAfterFailure(t *testing.T) {
	container := &mockContainer{}
	store := &mockStore{}
	store.On("EnsureDatabase", mock.Anything, "appdb").Return(storage.StatusFailed, nil).Once()
	store.On("EnsureDatabase", mock.Anything, "appdb").Return(storage.StatusOK, nil)
	store.On("EnsureContainer", mock.Anything, mock.Anything).Return(storage.StatusOK, nil)
	store.On("Container", mock.Anything).Return(container, nil)

	p := repository.NewProvisioner(store, repository.Options{DatabaseID: "appdb", RecheckAfterFailure: true}, logger.NewNopLogger())
	spec := storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices"}

	_, err := p.Container(context.Background(), spec)
	require.Error(t, err)

	// The failed check left the database unchecked, so the next use retries
	// and succeeds.
	c, err := p.Container(context.Background(), spec)
	require.NoError(t, err)
	assert.Same(t, container, c)
	store.AssertNumberOfCalls(t, "EnsureDatabase", 2)
}

func TestProvisioner_MarkCheckedDespiteFailure(t *testing.T) {
	container := &mockContainer{}
	store := &mockStore{}
	store.On("EnsureDatabase", mock.Anything, "appdb").Return(storage.StatusFailed, nil).Once()
	store.On("EnsureContainer", mock.Anything, mock.Anything).Return(storage.StatusOK, nil)
	store.On("Container", mock.Anything).Return(container, nil)

	p := repository.NewProvisioner(store, repository.Options{DatabaseID: "appdb", RecheckAfterFailure: false}, logger.NewNopLogger())
	spec := storage.ContainerSpec{DatabaseID: "appdb", ContainerID: "Invoices"}

	_, err := p.Container(context.Background(), spec)
	require.Error(t, err)

	// The failed check still marked the database checked: the next use skips
	// re-verification entirely.
	c, err := p.Container(context.Background(), spec)
	require.NoError(t, err)
	assert.Same(t, container, c)
	store.AssertNumberOfCalls(t, "EnsureDatabase", 1)
}

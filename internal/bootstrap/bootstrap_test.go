package bootstrap_test

import (
	"context"
	"errors"
	"testing"

	"docstore/internal/bootstrap"
	"docstore/internal/config"
	"docstore/internal/shared/logger"
	"docstore/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureDatabase(ctx context.Context, databaseID string) (storage.Status, error) {
	args := m.Called(ctx, databaseID)
	return args.Get(0).(storage.Status), args.Error(1)
}

func (m *mockStore) EnsureContainer(ctx context.Context, spec storage.ContainerSpec) (storage.Status, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(storage.Status), args.Error(1)
}

func (m *mockStore) Container(spec storage.ContainerSpec) (storage.Container, error) {
	args := m.Called(spec)
	if c := args.Get(0); c != nil {
		return c.(storage.Container), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) DropDatabase(ctx context.Context, databaseID string) error {
	args := m.Called(ctx, databaseID)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func devConfig(drop bool) *config.Config {
	return &config.Config{
		DatabaseID:            "appdb",
		Environment:           "development",
		DropDatabaseOnStartup: drop,
	}
}

func TestRunDropsDatabaseInDevelopment(t *testing.T) {
	store := new(mockStore)
	store.On("DropDatabase", mock.Anything, "appdb").Return(nil)

	b := bootstrap.New(devConfig(true), store, logger.NewNopLogger())
	require.NoError(t, b.Run(context.Background(), nil))

	store.AssertCalled(t, "DropDatabase", mock.Anything, "appdb")
}

func TestRunSkipsDropWhenDisabled(t *testing.T) {
	store := new(mockStore)

	b := bootstrap.New(devConfig(false), store, logger.NewNopLogger())
	require.NoError(t, b.Run(context.Background(), nil))

	store.AssertNotCalled(t, "DropDatabase", mock.Anything, mock.Anything)
}

func TestRunRefusesDropOutsideDevelopment(t *testing.T) {
	cfg := devConfig(true)
	cfg.Environment = "production"
	store := new(mockStore)

	b := bootstrap.New(cfg, store, logger.NewNopLogger())
	require.NoError(t, b.Run(context.Background(), nil))

	store.AssertNotCalled(t, "DropDatabase", mock.Anything, mock.Anything)
}

func TestRunAppliesSeed(t *testing.T) {
	store := new(mockStore)
	seeded := false

	b := bootstrap.New(devConfig(false), store, logger.NewNopLogger())
	require.NoError(t, b.Run(context.Background(), func(ctx context.Context) error {
		seeded = true
		return nil
	}))

	assert.True(t, seeded)
}

func TestRunPropagatesSeedError(t *testing.T) {
	store := new(mockStore)
	boom := errors.New("seed failed")

	b := bootstrap.New(devConfig(false), store, logger.NewNopLogger())
	err := b.Run(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunPropagatesDropError(t *testing.T) {
	store := new(mockStore)
	boom := errors.New("drop failed")
	store.On("DropDatabase", mock.Anything, "appdb").Return(boom)

	seeded := false
	b := bootstrap.New(devConfig(true), store, logger.NewNopLogger())
	err := b.Run(context.Background(), func(ctx context.Context) error {
		seeded = true
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, seeded, "seed must not run after a failed drop")
}

package repository_test

import (
	"context"

	"docstore/internal/repository"
	"docstore/internal/storage"

	"github.com/stretchr/testify/mock"
)

// Test models

type Invoice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

func (i Invoice) DocumentKey() string { return i.ID }

func (i Invoice) WithDocumentKey(key string) Invoice {
	i.ID = key
	return i
}

type Counter struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

func (c Counter) DocumentKey() int { return c.ID }

func (c Counter) WithDocumentKey(key int) Counter {
	c.ID = key
	return c
}

type LedgerEntry struct {
	Account string `json:"account"`
	Period  string `json:"period"`
	Balance int    `json:"balance"`
}

func (l LedgerEntry) DocumentKeys() (string, string) { return l.Account, l.Period }

type ShipmentLine struct {
	Region string `json:"region"`
	Order  string `json:"order"`
	Line   int    `json:"line"`
	SKU    string `json:"sku"`
}

func (s ShipmentLine) DocumentKeys() (string, string, int) { return s.Region, s.Order, s.Line }

// mockStore mocks the storage.Store interface

type mockStore struct{ mock.Mock }

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
	if c, ok := args.Get(0).(storage.Container); ok {
		return c, args.Error(1)
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

// mockContainer mocks the storage.Container interface

type mockContainer struct{ mock.Mock }

func (m *mockContainer) CreateItem(ctx context.Context, item any, result any) error {
	args := m.Called(ctx, item, result)
	return args.Error(0)
}

func (m *mockContainer) ReadItem(ctx context.Context, id string, pk storage.PartitionKey, result any) error {
	args := m.Called(ctx, id, pk, result)
	return args.Error(0)
}

func (m *mockContainer) ReplaceItem(ctx context.Context, id string, item any, result any) error {
	args := m.Called(ctx, id, item, result)
	return args.Error(0)
}

func (m *mockContainer) DeleteItem(ctx context.Context, id string, pk storage.PartitionKey) error {
	args := m.Called(ctx, id, pk)
	return args.Error(0)
}

func (m *mockContainer) Query(ctx context.Context) (storage.Cursor, error) {
	args := m.Called(ctx)
	if c, ok := args.Get(0).(storage.Cursor); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// invoiceCursor is a canned cursor over invoice envelopes.

type invoiceCursor struct {
	docs []repository.Envelope[Invoice]
	idx  int
	err  error
}

func (c *invoiceCursor) Next(ctx context.Context) bool {
	if c.idx >= len(c.docs) {
		return false
	}
	c.idx++
	return true
}

func (c *invoiceCursor) Decode(val any) error {
	*val.(*repository.Envelope[Invoice]) = c.docs[c.idx-1]
	return nil
}

func (c *invoiceCursor) Err() error { return c.err }

func (c *invoiceCursor) Close(ctx context.Context) error { return nil }

// provisionedStore wires a mockStore with the expectations of a clean
// provisioning pass returning the given container.
func provisionedStore(container storage.Container) *mockStore {
	store := &mockStore{}
	store.On("EnsureDatabase", mock.Anything, mock.Anything).Return(storage.StatusOK, nil)
	store.On("EnsureContainer", mock.Anything, mock.Anything).Return(storage.StatusCreated, nil)
	store.On("Container", mock.Anything).Return(container, nil)
	return store
}

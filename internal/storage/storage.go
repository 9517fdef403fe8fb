// Package storage defines the document store contract the repository layer
// is written against. A store keeps JSON-like items in named containers
// within named databases; every item carries a string id. Implementations
// live in subpackages (mongodb).
package storage

import (
	"context"
	"errors"
)

// Store-level sentinel errors. Implementations translate their driver errors
// into these so the repository layer never depends on a driver.
var (
	ErrItemNotFound = errors.New("storage: item not found")
	ErrItemExists   = errors.New("storage: item already exists")
)

// IndexingMode controls how eagerly the store indexes new items.
type IndexingMode string

const (
	// IndexingLazy defers index maintenance; freshly written items may not be
	// visible to queries until the store catches up.
	IndexingLazy IndexingMode = "lazy"
	// IndexingConsistent indexes items synchronously with the write.
	IndexingConsistent IndexingMode = "consistent"
	// IndexingNone disables secondary indexing for the container.
	IndexingNone IndexingMode = "none"
)

// IndexingPolicy is the indexing configuration applied when a container is
// provisioned.
type IndexingPolicy struct {
	Mode      IndexingMode
	Automatic bool
}

// DefaultIndexingPolicy returns the policy applied when none is configured:
// lazy, non-automatic. Callers must not assume synchronous index visibility.
func DefaultIndexingPolicy() IndexingPolicy {
	return IndexingPolicy{Mode: IndexingLazy, Automatic: false}
}

// ContainerSpec identifies a container and carries its provisioning settings.
type ContainerSpec struct {
	DatabaseID       string
	ContainerID      string
	PartitionKeyPath string
	Indexing         IndexingPolicy
}

// PartitionKey is the partition routing value for an item. The zero value is
// the store's "no partition key" sentinel.
type PartitionKey struct {
	value string
	set   bool
}

// NewPartitionKey builds a partition key carrying an explicit value.
func NewPartitionKey(value string) PartitionKey {
	return PartitionKey{value: value, set: true}
}

// NonePartitionKey returns the "no partition key" sentinel.
func NonePartitionKey() PartitionKey {
	return PartitionKey{}
}

// Value returns the partition value and whether one was set.
func (pk PartitionKey) Value() (string, bool) {
	return pk.value, pk.set
}

// Store is the document store client the repository layer consumes.
// Connection management, retries and query execution belong to the
// implementation, not to callers.
type Store interface {
	// EnsureDatabase creates the database if it does not exist and reports
	// the resulting status. Safe to call concurrently and repeatedly.
	EnsureDatabase(ctx context.Context, databaseID string) (Status, error)

	// EnsureContainer creates the container if it does not exist, applying
	// the spec's partition key path and indexing policy.
	EnsureContainer(ctx context.Context, spec ContainerSpec) (Status, error)

	// Container returns a handle for issuing item operations. It performs no
	// I/O and does not verify the container exists.
	Container(spec ContainerSpec) (Container, error)

	// DropDatabase removes the database and everything in it.
	DropDatabase(ctx context.Context, databaseID string) error

	// Close releases the underlying client. Safe to call more than once.
	Close() error
}

// Container is a handle for item operations against one container.
type Container interface {
	// CreateItem inserts the item and decodes the stored document into
	// result. The item must carry its own id.
	CreateItem(ctx context.Context, item any, result any) error

	// ReadItem fetches the item addressed by id, decoding into result.
	// Returns ErrItemNotFound when absent.
	ReadItem(ctx context.Context, id string, pk PartitionKey, result any) error

	// ReplaceItem replaces the item addressed by id with the given item and
	// decodes the stored document into result.
	ReplaceItem(ctx context.Context, id string, item any, result any) error

	// DeleteItem removes the item addressed by id and partition key.
	DeleteItem(ctx context.Context, id string, pk PartitionKey) error

	// Query returns a cursor over every item in the container.
	Query(ctx context.Context) (Cursor, error)
}

// Cursor is a lazy sequence of query results. It mirrors the shape of the
// driver cursors the implementations wrap.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

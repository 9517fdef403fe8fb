package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"docstore/internal/storage"
)

// Envelope pairs the store-mandated string id with the opaque application
// model. It exists only at the storage boundary: built fresh on every write,
// decoded on every read, never returned to callers.
type Envelope[T any] struct {
	ID    string `bson:"_id" json:"id"`
	Model T      `bson:"model" json:"model"`
}

// NewEnvelope wraps a model under an id. The id must come from EncodeKey.
func NewEnvelope[T any](id string, model T) Envelope[T] {
	return Envelope[T]{ID: id, Model: model}
}

// PartitionValue resolves the partition key value for this envelope from the
// configured partition key path. The value is derived from the same field the
// container was provisioned with, so deletes address the exact partitioned
// document. An empty or unresolvable path yields the no-partition-key
// sentinel.
func (e Envelope[T]) PartitionValue(path string) storage.PartitionKey {
	switch path {
	case "", "/":
		return storage.NonePartitionKey()
	case "/id":
		return storage.NewPartitionKey(e.ID)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return storage.NonePartitionKey()
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return storage.NonePartitionKey()
	}

	var current any = doc
	for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		m, ok := current.(map[string]any)
		if !ok {
			return storage.NonePartitionKey()
		}
		current, ok = m[segment]
		if !ok {
			return storage.NonePartitionKey()
		}
	}

	switch current.(type) {
	case map[string]any, []any, nil:
		return storage.NonePartitionKey()
	}
	return storage.NewPartitionKey(fmt.Sprintf("%v", current))
}

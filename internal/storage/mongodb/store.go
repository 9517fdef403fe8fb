// Package mongodb implements the storage contract over a MongoDB deployment.
// Databases map to databases, containers to collections, items to documents
// addressed by the _id field.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"docstore/internal/shared/logger"
	"docstore/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// metadataCollection is the marker collection inserted when a database is
// first provisioned. MongoDB materializes a database on first write, so
// provisioning writes a metadata document the way Firestore-style backends
// record database creation.
const metadataCollection = "_metadata"

const namespaceExistsCode = 48

// Store adapts a mongo client to the storage.Store contract. It owns the
// client handle and releases it exactly once on Close.
type Store struct {
	client *mongo.Client
	log    logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewStore wraps an already-connected client.
func NewStore(client *mongo.Client, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{client: client, log: log.WithComponent("mongodb")}
}

// Connect dials the deployment, verifies the connection and returns a store
// over it.
func Connect(ctx context.Context, uri string, log logger.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewStore(client, log), nil
}

// Ping verifies the deployment is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureDatabase creates the database if it does not exist. MongoDB has no
// explicit create-database call, so existence is checked by name and
// materialized by writing the metadata marker.
func (s *Store) EnsureDatabase(ctx context.Context, databaseID string) (storage.Status, error) {
	names, err := s.client.ListDatabaseNames(ctx, bson.M{"name": databaseID})
	if err != nil {
		return storage.StatusFailed, fmt.Errorf("failed to list databases: %w", err)
	}
	if len(names) > 0 {
		return storage.StatusOK, nil
	}

	_, err = s.client.Database(databaseID).Collection(metadataCollection).InsertOne(ctx, bson.M{
		"type":       "database_metadata",
		"created_at": time.Now().UTC(),
		"version":    "1.0",
	})
	if err != nil {
		return storage.StatusFailed, fmt.Errorf("failed to initialize database: %w", err)
	}

	s.log.WithFields(map[string]interface{}{"database_id": databaseID}).Info("Created database")
	return storage.StatusCreated, nil
}

// EnsureContainer creates the collection if it does not exist and applies
// the spec's indexing policy.
func (s *Store) EnsureContainer(ctx context.Context, spec storage.ContainerSpec) (storage.Status, error) {
	db := s.client.Database(spec.DatabaseID)

	err := db.CreateCollection(ctx, spec.ContainerID)
	switch {
	case err == nil:
		if err := s.applyIndexing(ctx, db, spec); err != nil {
			return storage.StatusFailed, err
		}
		s.log.WithFields(map[string]interface{}{
			"database_id":        spec.DatabaseID,
			"container_id":       spec.ContainerID,
			"partition_key_path": spec.PartitionKeyPath,
			"indexing_mode":      string(spec.Indexing.Mode),
		}).Info("Created container")
		return storage.StatusCreated, nil
	case isNamespaceExists(err):
		return storage.StatusOK, nil
	default:
		return storage.StatusFailed, fmt.Errorf("failed to create container %s: %w", spec.ContainerID, err)
	}
}

// applyIndexing creates a secondary index on the partition key field. With
// the lazy policy the index builds in the background; queries may trail
// fresh writes until it catches up.
func (s *Store) applyIndexing(ctx context.Context, db *mongo.Database, spec storage.ContainerSpec) error {
	if spec.Indexing.Mode == storage.IndexingNone {
		return nil
	}
	field := partitionField(spec.PartitionKeyPath)
	if field == "" || field == "_id" {
		return nil // _id is always indexed
	}

	_, err := db.Collection(spec.ContainerID).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index partition key field %s: %w", field, err)
	}
	return nil
}

// Container returns a handle without touching the deployment.
func (s *Store) Container(spec storage.ContainerSpec) (storage.Container, error) {
	coll := s.client.Database(spec.DatabaseID).Collection(spec.ContainerID)
	return &container{
		coll:           coll,
		partitionField: partitionField(spec.PartitionKeyPath),
	}, nil
}

// DropDatabase removes the database and everything in it.
func (s *Store) DropDatabase(ctx context.Context, databaseID string) error {
	if err := s.client.Database(databaseID).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", databaseID, err)
	}
	s.log.WithFields(map[string]interface{}{"database_id": databaseID}).Warn("Dropped database")
	return nil
}

// Close disconnects the client. Only the first call performs the disconnect;
// subsequent calls are no-ops returning the first call's error.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.closeErr = s.client.Disconnect(ctx)
	})
	return s.closeErr
}

// partitionField maps a partition key path like "/id" or "/model/region" to
// the document field MongoDB filters on.
func partitionField(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	field := strings.ReplaceAll(trimmed, "/", ".")
	if field == "id" {
		return "_id"
	}
	return field
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode
}

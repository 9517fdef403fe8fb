package mongodb

import (
	"context"
	"fmt"

	"docstore/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// container issues item operations against one collection.
type container struct {
	coll           *mongo.Collection
	partitionField string
}

// filter builds the document filter for an id plus optional partition key.
// The id addresses the document; the partition value narrows the match to
// the exact partitioned document when the container partitions on a field
// other than the id itself.
func (c *container) filter(id string, pk storage.PartitionKey) bson.M {
	f := bson.M{"_id": id}
	if value, ok := pk.Value(); ok && c.partitionField != "" && c.partitionField != "_id" {
		f[c.partitionField] = value
	}
	return f
}

func (c *container) CreateItem(ctx context.Context, item any, result any) error {
	res, err := c.coll.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", storage.ErrItemExists, err)
		}
		return err
	}

	// Read the stored document back so callers get the store's authoritative
	// version, not their own input.
	if err := c.coll.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(result); err != nil {
		return fmt.Errorf("failed to read back created item: %w", err)
	}
	return nil
}

func (c *container) ReadItem(ctx context.Context, id string, pk storage.PartitionKey, result any) error {
	err := c.coll.FindOne(ctx, c.filter(id, pk)).Decode(result)
	if err == mongo.ErrNoDocuments {
		return storage.ErrItemNotFound
	}
	return err
}

func (c *container) ReplaceItem(ctx context.Context, id string, item any, result any) error {
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	err := c.coll.FindOneAndReplace(ctx, bson.M{"_id": id}, item, opts).Decode(result)
	if err == mongo.ErrNoDocuments {
		return storage.ErrItemNotFound
	}
	return err
}

func (c *container) DeleteItem(ctx context.Context, id string, pk storage.PartitionKey) error {
	res, err := c.coll.DeleteOne(ctx, c.filter(id, pk))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrItemNotFound
	}
	return nil
}

func (c *container) Query(ctx context.Context) (storage.Cursor, error) {
	cur, err := c.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	return cur, nil
}

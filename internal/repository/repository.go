// Package repository implements a typed CRUD repository over a schemaless
// document store. Models with one, two or three-part composite keys are
// mapped onto the store's flat string id scheme by one canonical key codec;
// backing databases and containers are provisioned lazily, once, on first
// use.
package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"sync"

	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/eventbus"
	"docstore/internal/shared/logger"
	"docstore/internal/storage"
)

// Operation names carried by RepositoryError diagnostics.
const (
	opAdd    = "Add"
	opUpdate = "Update"
	opDelete = "Delete"
	opGet    = "Get"
	opQuery  = "Query"
)

// Option customizes a repository at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	containerName string
	bus           *eventbus.Bus
}

// WithContainerName overrides the container name derived from the model's
// type name.
func WithContainerName(name string) Option {
	return func(c *engineConfig) { c.containerName = name }
}

// WithEventBus attaches a bus that receives a ChangeEvent after every
// successful mutation.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(c *engineConfig) { c.bus = bus }
}

// engine is the key-arity-independent CRUD core shared by every repository
// variant. It holds the lazily acquired container handle for the lifetime of
// the owning repository instance; the keyed variants differ only in how they
// compose the document id.
type engine[T any] struct {
	provisioner *Provisioner
	log         logger.Logger
	bus         *eventbus.Bus
	spec        storage.ContainerSpec
	modelType   string

	mu        sync.Mutex
	container storage.Container
}

func newEngine[T any](p *Provisioner, log logger.Logger, opts ...Option) engine[T] {
	cfg := engineConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.containerName == "" {
		cfg.containerName = ContainerNameFor[T]()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	modelType := reflect.TypeOf((*T)(nil)).Elem().Name()
	return engine[T]{
		provisioner: p,
		log:         log.WithComponent("repository").WithFields(map[string]interface{}{"container_id": cfg.containerName}),
		bus:         cfg.bus,
		spec: storage.ContainerSpec{
			DatabaseID:       p.opts.DatabaseID,
			ContainerID:      cfg.containerName,
			PartitionKeyPath: p.opts.partitionKeyPath(),
			Indexing:         p.opts.indexing(),
		},
		modelType: modelType,
	}
}

// containerHandle returns the cached container, triggering provisioning on
// first use. Only a successful handle is cached, so a failed first use is
// retried by the next operation.
func (e *engine[T]) containerHandle(ctx context.Context) (storage.Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.container != nil {
		return e.container, nil
	}
	c, err := e.provisioner.Container(ctx, e.spec)
	if err != nil {
		return nil, err
	}
	e.container = c
	return c, nil
}

// wrap contextualizes a store failure. Cancellation outcomes pass through
// untouched; everything else is re-raised as a RepositoryError carrying the
// operation name, model type and a serialized snapshot of the model.
func (e *engine[T]) wrap(op string, model T, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.NewRepositoryError(op, e.modelType, model, err)
}

// wrapRead is wrap for key-addressed reads and queries, which have no model
// to snapshot.
func (e *engine[T]) wrapRead(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &apperrors.RepositoryError{Op: op, ModelType: e.modelType, Cause: err}
}

func (e *engine[T]) publish(ctx context.Context, eventType, id string) {
	if e.bus == nil {
		return
	}
	ev := eventbus.NewChangeEvent(eventType, e.spec.DatabaseID, e.spec.ContainerID, id)
	if err := e.bus.Publish(ctx, ev); err != nil {
		e.log.Warnf("change event %s for %s not delivered: %v", eventType, id, err)
	}
}

func (e *engine[T]) add(ctx context.Context, id string, model T) (T, error) {
	var zero T
	c, err := e.containerHandle(ctx)
	if err != nil {
		return zero, err
	}

	env := NewEnvelope(id, model)
	var stored Envelope[T]
	if err := c.CreateItem(ctx, env, &stored); err != nil {
		if errors.Is(err, storage.ErrItemExists) {
			return zero, apperrors.NewConflictError(fmt.Sprintf("%s %q already exists", e.modelType, id)).WithCause(apperrors.ErrDocumentExists)
		}
		return zero, e.wrap(opAdd, model, err)
	}
	e.publish(ctx, eventbus.EventDocumentAdded, id)
	return stored.Model, nil
}

func (e *engine[T]) update(ctx context.Context, id string, model T) (T, error) {
	var zero T
	c, err := e.containerHandle(ctx)
	if err != nil {
		return zero, err
	}

	// The envelope id and the replace address come from the same encode
	// call; they can never disagree.
	env := NewEnvelope(id, model)
	var stored Envelope[T]
	if err := c.ReplaceItem(ctx, id, env, &stored); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return zero, apperrors.NewNotFoundError(e.modelType)
		}
		return zero, e.wrap(opUpdate, model, err)
	}
	e.publish(ctx, eventbus.EventDocumentReplaced, id)
	return stored.Model, nil
}

func (e *engine[T]) remove(ctx context.Context, id string, model T) error {
	c, err := e.containerHandle(ctx)
	if err != nil {
		return err
	}

	pk := NewEnvelope(id, model).PartitionValue(e.spec.PartitionKeyPath)
	if err := c.DeleteItem(ctx, id, pk); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return apperrors.NewNotFoundError(e.modelType)
		}
		return e.wrap(opDelete, model, err)
	}
	e.publish(ctx, eventbus.EventDocumentDeleted, id)
	return nil
}

func (e *engine[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	c, err := e.containerHandle(ctx)
	if err != nil {
		return zero, err
	}

	// A key-addressed read has no model to resolve the partition value
	// from, so it reads by id alone.
	var stored Envelope[T]
	if err := c.ReadItem(ctx, id, storage.NonePartitionKey(), &stored); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return zero, apperrors.NewNotFoundError(e.modelType)
		}
		return zero, e.wrapRead(opGet, err)
	}
	return stored.Model, nil
}

// all returns a lazy, restartable sequence over every model in the
// container. Each range re-issues the query; nothing is cached. With lazy
// indexing a write is not guaranteed to be visible to an immediately
// following query.
func (e *engine[T]) all(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		c, err := e.containerHandle(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		cur, err := c.Query(ctx)
		if err != nil {
			yield(zero, e.wrapRead(opQuery, err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var env Envelope[T]
			if err := cur.Decode(&env); err != nil {
				yield(zero, e.wrapRead(opQuery, err))
				return
			}
			if !yield(env.Model, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(zero, e.wrapRead(opQuery, err))
		}
	}
}

func (e *engine[T]) list(ctx context.Context) ([]T, error) {
	var models []T
	for model, err := range e.all(ctx) {
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// Repository is the single-key variant. Add generates a key when the model's
// key is the zero value; the other variants never generate key parts.
type Repository[T SingleKeyed[T, K], K comparable] struct {
	eng engine[T]
}

// NewRepository creates a single-key repository. Construction performs no
// I/O: store unavailability surfaces on the first operation, not here.
func NewRepository[T SingleKeyed[T, K], K comparable](p *Provisioner, log logger.Logger, opts ...Option) *Repository[T, K] {
	return &Repository[T, K]{eng: newEngine[T](p, log, opts...)}
}

// ContainerID exposes the derived container name.
func (r *Repository[T, K]) ContainerID() string {
	return r.eng.spec.ContainerID
}

// Add persists a new model. A zero key is replaced with a generated one
// before encoding; the returned model is the store's authoritative echo and
// carries the assigned key.
func (r *Repository[T, K]) Add(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opAdd, r.eng.modelType)
	}

	m := *model
	if IsZeroKey(m.DocumentKey()) {
		key, err := RandomKey[K]()
		if err != nil {
			return zero, apperrors.NewValidationError("cannot generate document key").WithCause(err)
		}
		m = m.WithDocumentKey(key)
	}
	return r.eng.add(ctx, EncodeKey(m.DocumentKey()), m)
}

// Update replaces the stored model addressed by the model's key. The key
// must already be set; no generation is attempted.
func (r *Repository[T, K]) Update(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opUpdate, r.eng.modelType)
	}

	key := (*model).DocumentKey()
	if IsZeroKey(key) {
		return zero, apperrors.NewMissingKeyError(opUpdate, r.eng.modelType)
	}
	return r.eng.update(ctx, EncodeKey(key), *model)
}

// Delete removes the stored model addressed by the model's key, passing the
// real partition key value derived from the model.
func (r *Repository[T, K]) Delete(ctx context.Context, model *T) error {
	if model == nil {
		return apperrors.NewNilModelError(opDelete, r.eng.modelType)
	}

	key := (*model).DocumentKey()
	if IsZeroKey(key) {
		return apperrors.NewMissingKeyError(opDelete, r.eng.modelType)
	}
	return r.eng.remove(ctx, EncodeKey(key), *model)
}

// Get fetches the model addressed by the key.
func (r *Repository[T, K]) Get(ctx context.Context, key K) (T, error) {
	return r.eng.get(ctx, EncodeKey(key))
}

// All returns a lazy, restartable sequence over every model in the container.
func (r *Repository[T, K]) All(ctx context.Context) iter.Seq2[T, error] {
	return r.eng.all(ctx)
}

// List is the eager convenience form of All.
func (r *Repository[T, K]) List(ctx context.Context) ([]T, error) {
	return r.eng.list(ctx)
}

// DualKeyRepository is the two-part composite key variant. Callers supply
// both key parts; none are generated.
type DualKeyRepository[T DualKeyed[K1, K2], K1, K2 comparable] struct {
	eng engine[T]
}

// NewDualKeyRepository creates a two-part key repository.
func NewDualKeyRepository[T DualKeyed[K1, K2], K1, K2 comparable](p *Provisioner, log logger.Logger, opts ...Option) *DualKeyRepository[T, K1, K2] {
	return &DualKeyRepository[T, K1, K2]{eng: newEngine[T](p, log, opts...)}
}

// ContainerID exposes the derived container name.
func (r *DualKeyRepository[T, K1, K2]) ContainerID() string {
	return r.eng.spec.ContainerID
}

// Add persists a new model under its composite key.
func (r *DualKeyRepository[T, K1, K2]) Add(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opAdd, r.eng.modelType)
	}
	k1, k2 := (*model).DocumentKeys()
	return r.eng.add(ctx, EncodeKey(k1, k2), *model)
}

// Update replaces the stored model addressed by its composite key.
func (r *DualKeyRepository[T, K1, K2]) Update(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opUpdate, r.eng.modelType)
	}
	k1, k2 := (*model).DocumentKeys()
	return r.eng.update(ctx, EncodeKey(k1, k2), *model)
}

// Delete removes the stored model addressed by its composite key.
func (r *DualKeyRepository[T, K1, K2]) Delete(ctx context.Context, model *T) error {
	if model == nil {
		return apperrors.NewNilModelError(opDelete, r.eng.modelType)
	}
	k1, k2 := (*model).DocumentKeys()
	return r.eng.remove(ctx, EncodeKey(k1, k2), *model)
}

// Get fetches the model addressed by the composite key.
func (r *DualKeyRepository[T, K1, K2]) Get(ctx context.Context, k1 K1, k2 K2) (T, error) {
	return r.eng.get(ctx, EncodeKey(k1, k2))
}

// All returns a lazy, restartable sequence over every model in the container.
func (r *DualKeyRepository[T, K1, K2]) All(ctx context.Context) iter.Seq2[T, error] {
	return r.eng.all(ctx)
}

// List is the eager convenience form of All.
func (r *DualKeyRepository[T, K1, K2]) List(ctx context.Context) ([]T, error) {
	return r.eng.list(ctx)
}

// TripleKeyRepository is the three-part composite key variant.
type TripleKeyRepository[T TripleKeyed[K1, K2, K3], K1, K2, K3 comparable] struct {
	eng engine[T]
}

// NewTripleKeyRepository creates a three-part key repository.
func NewTripleKeyRepository[T TripleKeyed[K1, K2, K3], K1, K2, K3 comparable](p *Provisioner, log logger.Logger, opts ...Option) *TripleKeyRepository[T, K1, K2, K3] {
	return &TripleKeyRepository[T, K1, K2, K3]{eng: newEngine[T](p, log, opts...)}
}

// ContainerID exposes the derived container name.
func (r *TripleKeyRepository[T, K1, K2, K3]) ContainerID() string {
	return r.eng.spec.ContainerID
}

// Add persists a new model under its composite key.
func (r *TripleKeyRepository[T, K1, K2, K3]) Add(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opAdd, r.eng.modelType)
	}
	k1, k2, k3 := (*model).DocumentKeys()
	return r.eng.add(ctx, EncodeKey(k1, k2, k3), *model)
}

// Update replaces the stored model addressed by its composite key. The
// envelope id and the replace address are one and the same value.
func (r *TripleKeyRepository[T, K1, K2, K3]) Update(ctx context.Context, model *T) (T, error) {
	var zero T
	if model == nil {
		return zero, apperrors.NewNilModelError(opUpdate, r.eng.modelType)
	}
	k1, k2, k3 := (*model).DocumentKeys()
	return r.eng.update(ctx, EncodeKey(k1, k2, k3), *model)
}

// Delete removes the stored model addressed by its composite key.
func (r *TripleKeyRepository[T, K1, K2, K3]) Delete(ctx context.Context, model *T) error {
	if model == nil {
		return apperrors.NewNilModelError(opDelete, r.eng.modelType)
	}
	k1, k2, k3 := (*model).DocumentKeys()
	return r.eng.remove(ctx, EncodeKey(k1, k2, k3), *model)
}

// Get fetches the model addressed by the composite key.
func (r *TripleKeyRepository[T, K1, K2, K3]) Get(ctx context.Context, k1 K1, k2 K2, k3 K3) (T, error) {
	return r.eng.get(ctx, EncodeKey(k1, k2, k3))
}

// All returns a lazy, restartable sequence over every model in the container.
func (r *TripleKeyRepository[T, K1, K2, K3]) All(ctx context.Context) iter.Seq2[T, error] {
	return r.eng.all(ctx)
}

// List is the eager convenience form of All.
func (r *TripleKeyRepository[T, K1, K2, K3]) List(ctx context.Context) ([]T, error) {
	return r.eng.list(ctx)
}

package repository

import (
	"context"
	"sync"

	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"
	"docstore/internal/storage"

	"golang.org/x/sync/singleflight"
)

// Provisioner ensures a named database and container exist before first use,
// memoizing the outcome. It is an explicit process-wide registry keyed by
// database and container id, injected into repositories at construction, so
// the checked state has an owner with a lifecycle instead of living in
// static fields.
//
// Checked flags are monotone: they flip from unchecked to checked at most
// once and never revert. Under N concurrent first uses of the same resource,
// the single-flight group guarantees exactly one ensure call reaches the
// store; everyone else waits for that result.
type Provisioner struct {
	store storage.Store
	opts  Options
	log   logger.Logger

	mu         sync.Mutex
	databases  map[string]bool
	containers map[string]bool
	flight     singleflight.Group
}

// NewProvisioner creates a provisioner over the given store. Construction
// performs no I/O; the first Container call for a spec does.
func NewProvisioner(store storage.Store, opts Options, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Provisioner{
		store:      store,
		opts:       opts,
		log:        log.WithComponent("provisioner"),
		databases:  make(map[string]bool),
		containers: make(map[string]bool),
	}
}

// Container returns a ready handle for the spec, provisioning the database
// and container on first use. Provisioning errors propagate unwrapped so the
// caller sees them for what they are: a fatal first-use failure, not a
// store-operation failure.
func (p *Provisioner) Container(ctx context.Context, spec storage.ContainerSpec) (storage.Container, error) {
	if err := p.ensureDatabase(ctx, spec.DatabaseID); err != nil {
		return nil, err
	}
	if err := p.ensureContainer(ctx, spec); err != nil {
		return nil, err
	}
	return p.store.Container(spec)
}

func (p *Provisioner) ensureDatabase(ctx context.Context, databaseID string) error {
	p.mu.Lock()
	checked := p.databases[databaseID]
	p.mu.Unlock()
	if checked {
		return nil
	}

	_, err, _ := p.flight.Do("database:"+databaseID, func() (any, error) {
		// Re-check inside the flight: a previous flight may have finished
		// between the caller's check and this one.
		p.mu.Lock()
		if p.databases[databaseID] {
			p.mu.Unlock()
			return nil, nil
		}
		p.mu.Unlock()

		status, err := p.store.EnsureDatabase(ctx, databaseID)
		ok := err == nil && status.Provisioned()
		p.markChecked(p.databases, databaseID, ok)

		if err != nil {
			return nil, &apperrors.ProvisioningError{Resource: "database", Name: databaseID, Cause: err}
		}
		if !status.Provisioned() {
			return nil, &apperrors.ProvisioningError{Resource: "database", Name: databaseID, Status: status.String()}
		}
		p.log.WithFields(map[string]interface{}{
			"database_id": databaseID,
			"status":      status.String(),
		}).Info("Database provisioned")
		return nil, nil
	})
	return err
}

func (p *Provisioner) ensureContainer(ctx context.Context, spec storage.ContainerSpec) error {
	key := spec.DatabaseID + "/" + spec.ContainerID

	p.mu.Lock()
	checked := p.containers[key]
	p.mu.Unlock()
	if checked {
		return nil
	}

	_, err, _ := p.flight.Do("container:"+key, func() (any, error) {
		p.mu.Lock()
		if p.containers[key] {
			p.mu.Unlock()
			return nil, nil
		}
		p.mu.Unlock()

		status, err := p.store.EnsureContainer(ctx, spec)
		ok := err == nil && status.Provisioned()
		p.markChecked(p.containers, key, ok)

		if err != nil {
			return nil, &apperrors.ProvisioningError{Resource: "container", Name: key, Cause: err}
		}
		if !status.Provisioned() {
			return nil, &apperrors.ProvisioningError{Resource: "container", Name: key, Status: status.String()}
		}
		p.log.WithFields(map[string]interface{}{
			"database_id":        spec.DatabaseID,
			"container_id":       spec.ContainerID,
			"partition_key_path": spec.PartitionKeyPath,
			"status":             status.String(),
		}).Info("Container provisioned")
		return nil, nil
	})
	return err
}

// markChecked flips the checked flag. On failure the behavior is
// configurable: with RecheckAfterFailure the flag stays unchecked and the
// next operation retries the check; without it the flag is set regardless of
// outcome and subsequent accesses skip re-verification.
func (p *Provisioner) markChecked(flags map[string]bool, key string, ok bool) {
	if !ok && p.opts.RecheckAfterFailure {
		return
	}
	p.mu.Lock()
	flags[key] = true
	p.mu.Unlock()
}

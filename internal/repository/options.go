package repository

import "docstore/internal/storage"

// Options is the configuration value object repositories read from. It is
// supplied externally at construction and never mutated by this package.
type Options struct {
	// DatabaseID names the backing database. Required, non-empty; validated
	// by the configuration layer before it reaches this package.
	DatabaseID string

	// PartitionKeyPath is the fixed field path the container partitions on.
	// Defaults to "/id" when empty.
	PartitionKeyPath string

	// RecheckAfterFailure controls what a failed provisioning attempt leaves
	// behind: true leaves the resource unchecked so the next operation
	// retries the check, false marks it checked anyway and subsequent
	// accesses skip re-verification.
	RecheckAfterFailure bool

	// Indexing is the policy applied when the container is provisioned.
	// Zero value means lazy, non-automatic.
	Indexing storage.IndexingPolicy
}

func (o Options) partitionKeyPath() string {
	if o.PartitionKeyPath == "" {
		return "/id"
	}
	return o.PartitionKeyPath
}

func (o Options) indexing() storage.IndexingPolicy {
	if o.Indexing.Mode == "" {
		return storage.DefaultIndexingPolicy()
	}
	return o.Indexing
}

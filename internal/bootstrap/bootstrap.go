// Package bootstrap runs the development startup hook: optionally dropping
// the configured database so every run starts from a known state, then
// seeding initial documents.
package bootstrap

import (
	"context"

	"docstore/internal/config"
	"docstore/internal/shared/logger"
	"docstore/internal/storage"
)

// SeedFunc loads initial documents after a fresh start. It runs on every
// startup; seeds are expected to be idempotent.
type SeedFunc func(ctx context.Context) error

// Bootstrap owns the development start-from-scratch flow.
type Bootstrap struct {
	cfg   *config.Config
	store storage.Store
	log   logger.Logger
}

// New builds the bootstrap hook.
func New(cfg *config.Config, store storage.Store, log logger.Logger) *Bootstrap {
	return &Bootstrap{cfg: cfg, store: store, log: log.WithComponent("bootstrap")}
}

// Run drops the database when configured to and the environment allows it,
// then applies the seed. Dropping is refused outside development regardless
// of configuration.
func (b *Bootstrap) Run(ctx context.Context, seed SeedFunc) error {
	if b.cfg.DropDatabaseOnStartup {
		if !b.cfg.IsDevelopment() {
			b.log.Warnf("DROP_DATABASE_ON_STARTUP set in %s environment, ignoring", b.cfg.Environment)
		} else {
			b.log.Warnf("dropping database %s", b.cfg.DatabaseID)
			if err := b.store.DropDatabase(ctx, b.cfg.DatabaseID); err != nil {
				return err
			}
		}
	}

	if seed != nil {
		if err := seed(ctx); err != nil {
			return err
		}
		b.log.Info("seed data applied")
	}
	return nil
}

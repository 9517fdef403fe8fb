package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"docstore/internal/repository"
	"docstore/internal/storage"

	"github.com/caarlos0/env/v6"
)

// RedisConfig holds connection settings for the optional read-through cache.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	Database int    `env:"REDIS_DATABASE" envDefault:"0"`
}

// Addr returns host:port for the redis client.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
	Port string `env:"SERVER_PORT" envDefault:"3000"`
}

// Addr returns host:port for the fiber listener.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Config holds all configuration for the service. Values load from the
// environment; DatabaseID is required and validated at load time.
type Config struct {
	MongoURI         string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseID       string `env:"DATABASE_ID"`
	PartitionKeyPath string `env:"PARTITION_KEY_PATH" envDefault:"/id"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`

	// RecheckProvisioningAfterFailure leaves a failed provisioning check
	// unchecked so the next operation retries it. Disable to mark resources
	// checked regardless of outcome.
	RecheckProvisioningAfterFailure bool `env:"RECHECK_PROVISIONING_AFTER_FAILURE" envDefault:"true"`

	// DropDatabaseOnStartup drops and re-seeds the database at startup.
	// Honored only in a development environment.
	DropDatabaseOnStartup bool `env:"DROP_DATABASE_ON_STARTUP" envDefault:"false"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	Redis  RedisConfig
	Server ServerConfig
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load redis configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, errors.New("failed to load server configuration from environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the repository layer relies on.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGO_URI must not be empty")
	}
	if strings.TrimSpace(c.DatabaseID) == "" {
		return errors.New("DATABASE_ID must be set and non-empty")
	}
	if !strings.HasPrefix(c.PartitionKeyPath, "/") {
		return fmt.Errorf("PARTITION_KEY_PATH must start with '/', got %q", c.PartitionKeyPath)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// RepositoryOptions projects the configuration the repository layer consumes.
func (c *Config) RepositoryOptions() repository.Options {
	return repository.Options{
		DatabaseID:          c.DatabaseID,
		PartitionKeyPath:    c.PartitionKeyPath,
		RecheckAfterFailure: c.RecheckProvisioningAfterFailure,
		Indexing:            storage.DefaultIndexingPolicy(),
	}
}

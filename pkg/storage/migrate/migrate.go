// Package migrate runs the schema migrations of the SQL datastores.
package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/mysql"
	"github.com/fanout-labs/gqlgate/pkg/storage/postgres"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig = storage.MigrationConfig

var (
	defaultRegistry *storage.MigratorRegistry
	registryOnce    sync.Once
)

func initDefaultRegistry() {
	registryOnce.Do(func() {
		defaultRegistry = storage.NewMigratorRegistry()
		defaultRegistry.RegisterProvider("postgres", postgres.NewMigrationProvider())
		defaultRegistry.RegisterProvider("mysql", mysql.NewMigrationProvider())
		defaultRegistry.RegisterProvider("sqlite", sqlite.NewMigrationProvider())
	})
}

// GetDefaultRegistry returns the registry holding the built-in providers.
func GetDefaultRegistry() *storage.MigratorRegistry {
	initDefaultRegistry()
	return defaultRegistry
}

// RunMigrationsWithRegistry runs migrations with the provider registry registers for cfg.Engine.
func RunMigrationsWithRegistry(ctx context.Context, registry *storage.MigratorRegistry, cfg storage.MigrationConfig) error {
	if cfg.Engine == "memory" || cfg.Engine == "file" {
		if cfg.Logger != nil {
			cfg.Logger.Info(fmt.Sprintf("no migrations to run for `%s` datastore", cfg.Engine))
		}
		return nil
	}

	provider, exists := registry.GetProvider(cfg.Engine)
	if !exists {
		return fmt.Errorf("no migration provider registered for engine: %s", cfg.Engine)
	}

	return provider.RunMigrations(ctx, cfg)
}

// RunMigrations runs the migrations for cfg with the built-in providers.
func RunMigrations(ctx context.Context, cfg storage.MigrationConfig) error {
	return RunMigrationsWithRegistry(ctx, GetDefaultRegistry(), cfg)
}

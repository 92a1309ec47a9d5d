package storage

import (
	"context"
	"sort"
	"time"

	"github.com/fanout-labs/gqlgate/pkg/logger"
)

// MigrationProvider runs schema migrations for one datastore engine.
type MigrationProvider interface {
	// RunMigrations migrates the database to config.TargetVersion, or to the latest
	// version when TargetVersion is zero.
	RunMigrations(ctx context.Context, config MigrationConfig) error

	GetCurrentVersion(ctx context.Context, config MigrationConfig) (int64, error)

	GetSupportedEngine() string
}

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig struct {
	Engine        string
	URI           string
	TargetVersion uint
	Timeout       time.Duration
	Verbose       bool
	Username      string
	Password      string
	Logger        logger.Logger
}

// MigratorRegistry maps engine names to their migration providers.
type MigratorRegistry struct {
	providers map[string]MigrationProvider
}

func NewMigratorRegistry() *MigratorRegistry {
	return &MigratorRegistry{
		providers: make(map[string]MigrationProvider),
	}
}

func (r *MigratorRegistry) RegisterProvider(engine string, provider MigrationProvider) {
	r.providers[engine] = provider
}

func (r *MigratorRegistry) GetProvider(engine string) (MigrationProvider, bool) {
	provider, exists := r.providers[engine]
	return provider, exists
}

// GetSupportedEngines returns the registered engine names in sorted order.
func (r *MigratorRegistry) GetSupportedEngines() []string {
	engines := make([]string, 0, len(r.providers))
	for engine := range r.providers {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	return engines
}

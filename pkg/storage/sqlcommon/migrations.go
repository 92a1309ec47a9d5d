package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/assets"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

// GooseMigrator runs the embedded goose migrations of one dialect. The dialect packages
// wrap it into a [storage.MigrationProvider].
type GooseMigrator struct {
	Engine  string
	Driver  string
	Dialect string
	Dir     string

	// PrepareURI rewrites the configured URI before the connection is opened.
	PrepareURI func(storage.MigrationConfig) (string, error)
}

// Open connects and waits for the database within config.Timeout.
func (m *GooseMigrator) Open(ctx context.Context, config storage.MigrationConfig) (*sql.DB, error) {
	uri := config.URI
	if m.PrepareURI != nil {
		var err error
		if uri, err = m.PrepareURI(config); err != nil {
			return nil, err
		}
	}

	db, err := goose.OpenDBWithDriver(m.Driver, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", m.Engine, err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize %s connection: %w", m.Engine, err)
	}

	return db, nil
}

// RunMigrations migrates to config.TargetVersion, or to the latest version when it is zero.
func (m *GooseMigrator) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	log := config.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetVerbose(config.Verbose)
	if err := goose.SetDialect(m.Dialect); err != nil {
		return fmt.Errorf("failed to set %s dialect: %w", m.Engine, err)
	}
	goose.SetBaseFS(assets.EmbedMigrations)

	db, err := m.Open(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	currentVersion, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get %s db version: %w", m.Engine, err)
	}
	log.Info("current schema version", zap.String("engine", m.Engine), zap.Int64("version", currentVersion))

	target := int64(config.TargetVersion)
	switch {
	case target == 0:
		err = goose.UpContext(ctx, db, m.Dir)
	case target < currentVersion:
		err = goose.DownToContext(ctx, db, m.Dir, target)
	case target > currentVersion:
		err = goose.UpToContext(ctx, db, m.Dir, target)
	default:
		log.Info("nothing to migrate", zap.String("engine", m.Engine))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", m.Engine, err)
	}

	log.Info("migration done", zap.String("engine", m.Engine))
	return nil
}

// GetCurrentVersion returns the schema version recorded by goose.
func (m *GooseMigrator) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	if err := goose.SetDialect(m.Dialect); err != nil {
		return 0, err
	}

	db, err := m.Open(ctx, config)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return goose.GetDBVersionContext(ctx, db)
}

// GetSupportedEngine returns the engine name the migrator is registered under.
func (m *GooseMigrator) GetSupportedEngine() string {
	return m.Engine
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"

	"github.com/fanout-labs/gqlgate/assets"
)

// migrateDatabase waits for the database to accept connections, applies the embedded
// migrations from dir and returns the resulting schema version.
func migrateDatabase(driverName, dialect, uri, dir string) (int64, error) {
	goose.SetLogger(goose.NopLogger())

	db, err := sql.Open(driverName, uri)
	if err != nil {
		return 0, fmt.Errorf("open connection to %s: %w", driverName, err)
	}
	defer db.Close()

	backoffPolicy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(60 * time.Second))
	if err := backoff.Retry(db.Ping, backoffPolicy); err != nil {
		return 0, fmt.Errorf("ping %s database: %w", driverName, err)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	goose.SetBaseFS(assets.EmbedMigrations)

	if err := goose.Up(db, dir); err != nil {
		return 0, fmt.Errorf("migrate %s database: %w", driverName, err)
	}

	return goose.GetDBVersion(db)
}

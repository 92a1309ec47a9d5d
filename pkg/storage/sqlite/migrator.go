package sqlite

import (
	"github.com/fanout-labs/gqlgate/assets"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

// NewMigrationProvider returns the goose based migration provider for SQLite.
func NewMigrationProvider() storage.MigrationProvider {
	return &sqlcommon.GooseMigrator{
		Engine:  "sqlite",
		Driver:  "sqlite",
		Dialect: "sqlite3",
		Dir:     assets.SqliteMigrationDir,
		PrepareURI: func(config storage.MigrationConfig) (string, error) {
			return PrepareDSN(config.URI)
		},
	}
}

package mysql

import (
	"github.com/fanout-labs/gqlgate/assets"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

// NewMigrationProvider returns the goose based migration provider for MySQL.
func NewMigrationProvider() storage.MigrationProvider {
	return &sqlcommon.GooseMigrator{
		Engine:  "mysql",
		Driver:  "mysql",
		Dialect: "mysql",
		Dir:     assets.MySQLMigrationDir,
		PrepareURI: func(config storage.MigrationConfig) (string, error) {
			return PrepareDSN(config.URI, config.Username, config.Password)
		},
	}
}

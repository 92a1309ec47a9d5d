package postgres

import (
	"net/url"

	"github.com/fanout-labs/gqlgate/assets"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

// NewMigrationProvider returns the goose based migration provider for PostgreSQL.
func NewMigrationProvider() storage.MigrationProvider {
	return &sqlcommon.GooseMigrator{
		Engine:     "postgres",
		Driver:     "pgx",
		Dialect:    "postgres",
		Dir:        assets.PostgresMigrationDir,
		PrepareURI: prepareURI,
	}
}

func prepareURI(config storage.MigrationConfig) (string, error) {
	if config.Username == "" && config.Password == "" {
		return config.URI, nil
	}

	dbURI, err := url.Parse(config.URI)
	if err != nil {
		return "", err
	}

	username := config.Username
	if username == "" && dbURI.User != nil {
		username = dbURI.User.Username()
	}

	password := config.Password
	if password == "" && dbURI.User != nil {
		password, _ = dbURI.User.Password()
	}

	dbURI.User = url.UserPassword(username, password)
	return dbURI.String(), nil
}

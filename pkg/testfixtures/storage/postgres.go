package storage

import (
	"fmt"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/assets"
)

const postgresImage = "postgres:17"

type postgresTestContainer struct {
	addr     string
	version  int64
	username string
	password string
}

func runPostgresTestContainer(t testing.TB) DatastoreTestContainer {
	addr := runContainer(t, containerSpec{
		image: postgresImage,
		env: []string{
			"POSTGRES_DB=defaultdb",
			"POSTGRES_PASSWORD=secret",
		},
		port: "5432/tcp",
	})

	p := &postgresTestContainer{
		addr:     addr,
		username: "postgres",
		password: "secret",
	}

	version, err := migrateDatabase("pgx", "postgres", p.GetConnectionURI(true), assets.PostgresMigrationDir)
	require.NoError(t, err)
	p.version = version

	return p
}

func (p *postgresTestContainer) GetDatabaseSchemaVersion() int64 {
	return p.version
}

// GetConnectionURI returns the postgres connection uri for the running postgres test container.
func (p *postgresTestContainer) GetConnectionURI(includeCredentials bool) string {
	creds := ""
	if includeCredentials {
		creds = fmt.Sprintf("%s:%s@", p.username, p.password)
	}

	return fmt.Sprintf("postgres://%s%s/defaultdb?sslmode=disable", creds, p.addr)
}

func (p *postgresTestContainer) GetUsername() string {
	return p.username
}

func (p *postgresTestContainer) GetPassword() string {
	return p.password
}

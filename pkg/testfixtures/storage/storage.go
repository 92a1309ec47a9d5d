// Package storage bootstraps datastores for tests: docker containers for the networked
// engines, a temporary file for sqlite.
package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
	"github.com/fanout-labs/gqlgate/pkg/storage/mysql"
	"github.com/fanout-labs/gqlgate/pkg/storage/postgres"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlite"
)

// DatastoreTestContainer represents a runnable container for testing specific datastore engines.
type DatastoreTestContainer interface {

	// GetConnectionURI returns a connection string to the datastore instance running inside
	// the container.
	GetConnectionURI(includeCredentials bool) string

	// GetDatabaseSchemaVersion returns the last migration applied when the container was created.
	GetDatabaseSchemaVersion() int64

	GetUsername() string
	GetPassword() string
}

type memoryTestContainer struct{}

func (m memoryTestContainer) GetConnectionURI(bool) string { return "" }

func (m memoryTestContainer) GetUsername() string { return "" }

func (m memoryTestContainer) GetPassword() string { return "" }

func (m memoryTestContainer) GetDatabaseSchemaVersion() int64 { return 1 }

// RunDatastoreTestContainer constructs and runs a DatastoreTestContainer for the provided
// datastore engine and applies all migrations. Docker backed engines skip the test when
// no docker daemon is reachable. Resources are released when the test finishes.
func RunDatastoreTestContainer(t testing.TB, engine string) DatastoreTestContainer {
	switch engine {
	case "mysql":
		return runMySQLTestContainer(t)
	case "postgres":
		return runPostgresTestContainer(t)
	case "sqlite":
		return runSqliteTestDatabase(t)
	case "memory":
		return memoryTestContainer{}
	default:
		t.Fatalf("'%s' engine is not supported by RunDatastoreTestContainer", engine)
		return nil
	}
}

// MustBootstrapDatastore returns a migrated datastore for engine that is closed on cleanup.
func MustBootstrapDatastore(t testing.TB, engine string) storage.GatewayDatastore {
	testDatastore := RunDatastoreTestContainer(t, engine)

	uri := testDatastore.GetConnectionURI(true)

	var ds storage.GatewayDatastore
	var err error

	switch engine {
	case "memory":
		ds = memory.New()
	case "postgres":
		ds, err = postgres.New(uri, sqlcommon.NewConfig())
	case "mysql":
		ds, err = mysql.New(uri, sqlcommon.NewConfig())
	case "sqlite":
		ds, err = sqlite.New(uri, sqlcommon.NewConfig())
	default:
		t.Fatalf("'%s' is not a supported datastore engine", engine)
	}
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	return ds
}

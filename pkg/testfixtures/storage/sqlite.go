package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/fanout-labs/gqlgate/assets"
)

type sqliteTestContainer struct {
	path    string
	version int64
}

// runSqliteTestDatabase creates a migrated sqlite database file in a temporary directory.
func runSqliteTestDatabase(t testing.TB) DatastoreTestContainer {
	s := &sqliteTestContainer{
		path: filepath.Join(t.TempDir(), "database.db"),
	}

	version, err := migrateDatabase("sqlite", "sqlite3", s.GetConnectionURI(true), assets.SqliteMigrationDir)
	require.NoError(t, err)
	s.version = version

	return s
}

func (s *sqliteTestContainer) GetDatabaseSchemaVersion() int64 {
	return s.version
}

// GetConnectionURI returns the sqlite connection uri for the test database.
func (s *sqliteTestContainer) GetConnectionURI(bool) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(100)", s.path)
}

func (s *sqliteTestContainer) GetUsername() string {
	return ""
}

func (s *sqliteTestContainer) GetPassword() string {
	return ""
}

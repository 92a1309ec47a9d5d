package storage

import (
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql" // MySQL driver.
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/assets"
)

const mySQLImage = "mysql:8"

type mySQLTestContainer struct {
	addr     string
	version  int64
	username string
	password string
}

func runMySQLTestContainer(t testing.TB) DatastoreTestContainer {
	addr := runContainer(t, containerSpec{
		image: mySQLImage,
		env: []string{
			"MYSQL_DATABASE=defaultdb",
			"MYSQL_ROOT_PASSWORD=secret",
		},
		port: "3306/tcp",
	})

	m := &mySQLTestContainer{
		addr:     addr,
		username: "root",
		password: "secret",
	}

	version, err := migrateDatabase("mysql", "mysql", m.GetConnectionURI(true), assets.MySQLMigrationDir)
	require.NoError(t, err)
	m.version = version

	return m
}

func (m *mySQLTestContainer) GetDatabaseSchemaVersion() int64 {
	return m.version
}

// GetConnectionURI returns the mysql connection dsn for the running mysql test container.
func (m *mySQLTestContainer) GetConnectionURI(includeCredentials bool) string {
	creds := ""
	if includeCredentials {
		creds = fmt.Sprintf("%s:%s@", m.username, m.password)
	}

	return fmt.Sprintf("%stcp(%s)/defaultdb?parseTime=true", creds, m.addr)
}

func (m *mySQLTestContainer) GetUsername() string {
	return m.username
}

func (m *mySQLTestContainer) GetPassword() string {
	return m.password
}

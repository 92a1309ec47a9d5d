package credentials

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanout-labs/gqlgate/pkg/storage/migrate"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlite"
)

func migratedSQLite(t *testing.T) string {
	t.Helper()
	uri := filepath.Join(t.TempDir(), "gqlgate.db")
	require.NoError(t, migrate.RunMigrations(t.Context(), migrate.MigrationConfig{
		Engine:  "sqlite",
		URI:     uri,
		Timeout: 5 * time.Second,
	}))
	return uri
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCredentialsCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func outputValue(t *testing.T, out, key string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, key+": "); ok {
			return v
		}
	}
	t.Fatalf("no %q in output %q", key, out)
	return ""
}

func TestAddKey(t *testing.T) {
	t.Run("generates_a_token", func(t *testing.T) {
		uri := migratedSQLite(t)

		out, err := execute(t, "add-key", "--datastore-engine", "sqlite", "--datastore-uri", uri,
			"--name", "ci", "--rate-limit", "60")
		require.NoError(t, err)

		token := outputValue(t, out, "token")
		require.True(t, strings.HasPrefix(token, tokenPrefix))

		ds, err := sqlite.New(uri, sqlcommon.NewConfig())
		require.NoError(t, err)
		t.Cleanup(ds.Close)

		credential, err := ds.ReadCredential(t.Context(), token)
		require.NoError(t, err)
		require.Equal(t, outputValue(t, out, "id"), credential.ID)
		require.Equal(t, "ci", credential.DisplayName)
		require.Equal(t, 60, credential.RateLimitPerMinute)
		require.True(t, credential.Enabled)
	})

	t.Run("explicit_token", func(t *testing.T) {
		uri := migratedSQLite(t)

		out, err := execute(t, "add-key", "--datastore-engine", "sqlite", "--datastore-uri", uri,
			"--name", "ci", "--token", "my-token", "--disabled")
		require.NoError(t, err)
		require.Equal(t, "my-token", outputValue(t, out, "token"))

		ds, err := sqlite.New(uri, sqlcommon.NewConfig())
		require.NoError(t, err)
		t.Cleanup(ds.Close)

		credential, err := ds.ReadCredential(t.Context(), "my-token")
		require.NoError(t, err)
		require.False(t, credential.Enabled)
	})

	t.Run("requires_a_name", func(t *testing.T) {
		_, err := execute(t, "add-key", "--datastore-engine", "sqlite", "--datastore-uri", "unused")
		require.EqualError(t, err, "missing key name")
	})

	t.Run("rejects_memory_engine", func(t *testing.T) {
		_, err := execute(t, "add-key", "--datastore-engine", "memory", "--name", "ci")
		require.ErrorContains(t, err, "would be lost on exit")
	})
}

func TestAddUser(t *testing.T) {
	t.Run("hashes_the_password", func(t *testing.T) {
		uri := migratedSQLite(t)

		out, err := execute(t, "add-user", "--datastore-engine", "sqlite", "--datastore-uri", uri,
			"--tenant", "acme", "--username", "alice", "--password", "s3cret",
			"--roles", "ROLE_ADMIN,orders:read", "--bcrypt-cost", "4")
		require.NoError(t, err)

		ds, err := sqlite.New(uri, sqlcommon.NewConfig())
		require.NoError(t, err)
		t.Cleanup(ds.Close)

		user, err := ds.ReadUser(t.Context(), "acme", "alice")
		require.NoError(t, err)
		require.Equal(t, outputValue(t, out, "id"), user.ID)
		require.Equal(t, []string{"ROLE_ADMIN", "orders:read"}, user.Roles)
		require.True(t, user.Enabled)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
	})

	t.Run("missing_flags", func(t *testing.T) {
		_, err := execute(t, "add-user", "--datastore-engine", "sqlite", "--datastore-uri", "unused", "--tenant", "acme")
		require.EqualError(t, err, "missing required flags: username, password")
	})
}

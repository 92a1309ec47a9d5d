package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const document = `
apiKeys:
  - id: k1
    token: "  partner-key  "
    name: partner
    rateLimitPerMinute: 30
  - token: retired
    name: old
    enabled: false
users:
  - tenantId: acme
    username: alice
    passwordHash: "$2a$10$abcdefghijklmnopqrstuv"
    roles: [ROLE_ADMIN]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	ctx := context.Background()
	ds, err := Load(ctx, path)
	require.NoError(t, err)

	t.Run("tokens_are_trimmed", func(t *testing.T) {
		c, err := ds.ReadCredential(ctx, "partner-key")
		require.NoError(t, err)
		require.Equal(t, "k1", c.ID)
		require.True(t, c.Enabled)
		require.Equal(t, 30, c.RateLimitPerMinute)
	})

	t.Run("enabled_flag_is_kept", func(t *testing.T) {
		c, err := ds.ReadCredential(ctx, "retired")
		require.NoError(t, err)
		require.False(t, c.Enabled)
	})

	t.Run("users", func(t *testing.T) {
		u, err := ds.ReadUser(ctx, "acme", "alice")
		require.NoError(t, err)
		require.Equal(t, []string{"ROLE_ADMIN"}, u.Roles)
		require.True(t, u.Enabled)

		_, err = ds.ReadUser(ctx, "other", "alice")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Parse(ctx, []byte("apiKeys:\n  - name: nameless\n"))
	require.ErrorContains(t, err, "apiKeys[0]: token is required")

	_, err = Parse(ctx, []byte("unknownField: 1\n"))
	require.ErrorContains(t, err, "parse credentials file")

	_, err = Parse(ctx, []byte("users:\n  - username: bob\n"))
	require.ErrorContains(t, err, "users[0]")

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read credentials file")
}

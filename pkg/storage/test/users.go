package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func UserWriteAndReadTest(t *testing.T, ds storage.UserBackend) {
	ctx := context.Background()
	tenant := "tenant-" + uuid.NewString()[:8]

	user := &storage.User{
		ID:           uuid.NewString(),
		TenantID:     tenant,
		Username:     "alice",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Roles:        []string{"ROLE_ORDERS_READ", "ROLE_PAYMENTS_WRITE"},
		Enabled:      true,
	}
	require.NoError(t, ds.WriteUser(ctx, user))

	t.Run("read_user", func(t *testing.T) {
		got, err := ds.ReadUser(ctx, tenant, "alice")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Equal(t, user.PasswordHash, got.PasswordHash)
		require.Equal(t, user.Roles, got.Roles)
		require.True(t, got.Enabled)
		require.False(t, got.Locked)
		require.Nil(t, got.LastLoginAt)
	})

	t.Run("same_username_other_tenant_is_unknown", func(t *testing.T) {
		_, err := ds.ReadUser(ctx, tenant+"-other", "alice")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate_username_collides", func(t *testing.T) {
		err := ds.WriteUser(ctx, &storage.User{ID: uuid.NewString(), TenantID: tenant, Username: "alice", PasswordHash: "x", Enabled: true})
		require.ErrorIs(t, err, storage.ErrCollision)
	})

	t.Run("record_login", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, ds.RecordLogin(ctx, user.ID, at))

		got, err := ds.ReadUser(ctx, tenant, "alice")
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		require.True(t, at.Equal(got.LastLoginAt.UTC()), "want %s got %s", at, got.LastLoginAt)
	})
}

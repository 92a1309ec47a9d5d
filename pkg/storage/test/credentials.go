package test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func CredentialWriteAndReadTest(t *testing.T, ds storage.CredentialBackend) {
	ctx := context.Background()

	t.Run("unknown_token", func(t *testing.T) {
		_, err := ds.ReadCredential(ctx, "unknown-"+uuid.NewString())
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("enabled_and_disabled_credentials_are_returned", func(t *testing.T) {
		enabled := &storage.Credential{
			ID:                 uuid.NewString(),
			Token:              "key-" + uuid.NewString(),
			DisplayName:        "reporting job",
			Enabled:            true,
			RateLimitPerMinute: 60,
		}
		disabled := &storage.Credential{
			ID:                 uuid.NewString(),
			Token:              "key-" + uuid.NewString(),
			DisplayName:        "retired partner",
			Enabled:            false,
			RateLimitPerMinute: 120,
		}
		require.NoError(t, ds.WriteCredential(ctx, enabled))
		require.NoError(t, ds.WriteCredential(ctx, disabled))

		got, err := ds.ReadCredential(ctx, enabled.Token)
		require.NoError(t, err)
		require.Equal(t, enabled.ID, got.ID)
		require.Equal(t, "reporting job", got.DisplayName)
		require.True(t, got.Enabled)
		require.Equal(t, 60, got.RateLimitPerMinute)
		require.False(t, got.CreatedAt.IsZero())

		got, err = ds.ReadCredential(ctx, disabled.Token)
		require.NoError(t, err)
		require.False(t, got.Enabled)
	})

	t.Run("duplicate_token_collides", func(t *testing.T) {
		token := "key-" + uuid.NewString()
		require.NoError(t, ds.WriteCredential(ctx, &storage.Credential{ID: uuid.NewString(), Token: token, DisplayName: "a", Enabled: true, RateLimitPerMinute: 1}))

		err := ds.WriteCredential(ctx, &storage.Credential{ID: uuid.NewString(), Token: token, DisplayName: "b", Enabled: true, RateLimitPerMinute: 1})
		require.ErrorIs(t, err, storage.ErrCollision)
	})
}

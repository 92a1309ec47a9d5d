package storagewrappers

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fanout-labs/gqlgate/internal/mocks"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func TestCachedDatastore(t *testing.T) {
	ctx := context.Background()

	t.Run("hits_are_served_from_cache", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()

		mockDatastore := mocks.NewMockGatewayDatastore(mockController)
		credential := &storage.Credential{ID: "1", Token: "secret", Enabled: true}
		mockDatastore.EXPECT().ReadCredential(gomock.Any(), "secret").Return(credential, nil).Times(1)
		mockDatastore.EXPECT().Close().Times(1)

		ds, err := NewCachedDatastore(mockDatastore, 10)
		require.NoError(t, err)
		defer ds.Close()

		for i := 0; i < 3; i++ {
			got, err := ds.ReadCredential(ctx, "secret")
			require.NoError(t, err)
			require.Equal(t, credential, got)
		}
	})

	t.Run("misses_are_cached_negatively", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()

		mockDatastore := mocks.NewMockGatewayDatastore(mockController)
		mockDatastore.EXPECT().ReadCredential(gomock.Any(), "unknown").Return(nil, storage.ErrNotFound).Times(1)
		mockDatastore.EXPECT().Close().Times(1)

		ds, err := NewCachedDatastore(mockDatastore, 10, WithCredentialNegativeCacheTTL(time.Minute))
		require.NoError(t, err)
		defer ds.Close()

		_, err = ds.ReadCredential(ctx, "unknown")
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = ds.ReadCredential(ctx, "unknown")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write_invalidates", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()

		mockDatastore := mocks.NewMockGatewayDatastore(mockController)
		credential := &storage.Credential{ID: "1", Token: "secret", Enabled: true}
		gomock.InOrder(
			mockDatastore.EXPECT().ReadCredential(gomock.Any(), "secret").Return(nil, storage.ErrNotFound),
			mockDatastore.EXPECT().WriteCredential(gomock.Any(), credential).Return(nil),
			mockDatastore.EXPECT().ReadCredential(gomock.Any(), "secret").Return(credential, nil),
		)
		mockDatastore.EXPECT().Close().Times(1)

		ds, err := NewCachedDatastore(mockDatastore, 10)
		require.NoError(t, err)
		defer ds.Close()

		_, err = ds.ReadCredential(ctx, "secret")
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, ds.WriteCredential(ctx, credential))

		got, err := ds.ReadCredential(ctx, "secret")
		require.NoError(t, err)
		require.Equal(t, credential, got)
	})

	t.Run("colliding_entries_are_not_served", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()

		mockDatastore := mocks.NewMockGatewayDatastore(mockController)
		credential := &storage.Credential{ID: "1", Token: "secret", Enabled: true}
		mockDatastore.EXPECT().ReadCredential(gomock.Any(), "secret").Return(credential, nil).Times(1)
		mockDatastore.EXPECT().Close().Times(1)

		ds, err := NewCachedDatastore(mockDatastore, 10, WithCredentialNegativeCacheTTL(time.Minute))
		require.NoError(t, err)
		defer ds.Close()

		// Entries cached for another token under the same key, positive and negative.
		other := &storage.Credential{ID: "2", Token: "other", Enabled: true}
		ds.cache.Set(credentialCacheKey("secret"), credentialEntry{digest: sha256.Sum256([]byte("other")), credential: other}, time.Minute)

		got, err := ds.ReadCredential(ctx, "secret")
		require.NoError(t, err)
		require.Equal(t, credential, got)

		ds.cache.Set(credentialCacheKey("secret"), credentialEntry{digest: sha256.Sum256([]byte("other"))}, time.Minute)
		mockDatastore.EXPECT().ReadCredential(gomock.Any(), "secret").Return(credential, nil).Times(1)

		got, err = ds.ReadCredential(ctx, "secret")
		require.NoError(t, err)
		require.Equal(t, credential, got)

		// The entry written by the last lookup is served.
		got, err = ds.ReadCredential(ctx, "secret")
		require.NoError(t, err)
		require.Equal(t, credential, got)
	})

	t.Run("cache_keys_do_not_contain_tokens", func(t *testing.T) {
		require.NotContains(t, credentialCacheKey("very-secret"), "very-secret")
		require.Equal(t, credentialCacheKey("a"), credentialCacheKey("a"))
		require.NotEqual(t, credentialCacheKey("a"), credentialCacheKey("b"))
	})
}

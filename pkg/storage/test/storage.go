// Package test contains the behavioural suite every storage.GatewayDatastore implementation
// must pass.
package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func RunAllTests(t *testing.T, ds storage.GatewayDatastore) {
	t.Run("TestDatastoreIsReady", func(t *testing.T) {
		status, err := ds.IsReady(context.Background())
		require.NoError(t, err)
		require.True(t, status.IsReady)
	})

	// Persisted queries.
	t.Run("TestPersistedQueryUpsertAndRead", func(t *testing.T) { PersistedQueryUpsertAndReadTest(t, ds) })
	t.Run("TestPersistedQueryReadDoesNotTrackUsage", func(t *testing.T) { PersistedQueryReadDoesNotTrackUsageTest(t, ds) })

	// Credentials.
	t.Run("TestCredentialWriteAndRead", func(t *testing.T) { CredentialWriteAndReadTest(t, ds) })

	// Users.
	t.Run("TestUserWriteAndRead", func(t *testing.T) { UserWriteAndReadTest(t, ds) })
}

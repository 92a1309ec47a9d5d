package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

func PersistedQueryUpsertAndReadTest(t *testing.T, ds storage.PersistedQueryBackend) {
	ctx := context.Background()

	t.Run("read_unknown_id_returns_not_found", func(t *testing.T) {
		_, err := ds.ReadPersistedQuery(ctx, "missing-"+uuid.NewString())
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("first_upsert_creates_record", func(t *testing.T) {
		id := "q-" + uuid.NewString()
		require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "query A { orders(ids: []) { id } }", "A"))

		got, err := ds.ReadPersistedQuery(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, got.QueryID)
		require.Equal(t, "query A { orders(ids: []) { id } }", got.Document)
		require.Equal(t, "A", got.OperationName)
		require.Equal(t, int64(1), got.UseCount)
		require.False(t, got.CreatedAt.IsZero())
		require.False(t, got.LastUsedAt.Before(got.CreatedAt))
	})

	t.Run("last_write_wins", func(t *testing.T) {
		id := "q-" + uuid.NewString()
		require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "query A { a }", "A"))

		first, err := ds.ReadPersistedQuery(ctx, id)
		require.NoError(t, err)

		require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "query B { b }", "B"))

		got, err := ds.ReadPersistedQuery(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "query B { b }", got.Document)
		require.Equal(t, "B", got.OperationName)
		require.Equal(t, int64(2), got.UseCount)
		require.False(t, got.LastUsedAt.Before(first.LastUsedAt))
		require.True(t, got.CreatedAt.Equal(first.CreatedAt))
	})
}

// PersistedQueryLastUsedNeverMovesBackTest checks that an upsert stamped earlier than the
// stored last_used_at leaves it alone. setLastUsed writes last_used_at directly.
func PersistedQueryLastUsedNeverMovesBackTest(t *testing.T, ds storage.PersistedQueryBackend, setLastUsed func(ctx context.Context, id string, at time.Time) error) {
	ctx := context.Background()
	id := "q-" + uuid.NewString()

	require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "{ a }", ""))

	future := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, setLastUsed(ctx, id, future))

	require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "{ b }", ""))

	got, err := ds.ReadPersistedQuery(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "{ b }", got.Document)
	require.Equal(t, int64(2), got.UseCount)
	require.WithinDuration(t, future, got.LastUsedAt, time.Second)
}

func PersistedQueryReadDoesNotTrackUsageTest(t *testing.T, ds storage.PersistedQueryBackend) {
	ctx := context.Background()
	id := "q-" + uuid.NewString()

	require.NoError(t, ds.UpsertPersistedQuery(ctx, id, "{ a }", ""))

	before, err := ds.ReadPersistedQuery(ctx, id)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := ds.ReadPersistedQuery(ctx, id)
		require.NoError(t, err)
	}

	after, err := ds.ReadPersistedQuery(ctx, id)
	require.NoError(t, err)
	require.Equal(t, before.UseCount, after.UseCount)
	require.True(t, before.LastUsedAt.Equal(after.LastUsedAt))
}

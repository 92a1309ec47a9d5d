package storagewrappers

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

func TestInstrumentedDatastore(t *testing.T) {
	ds := NewInstrumentedDatastore(memory.New())
	ctx := context.Background()

	require.NoError(t, ds.UpsertPersistedQuery(ctx, "q1", "{ orders(ids: []) { id } }", ""))
	_, err := ds.ReadPersistedQuery(ctx, "q1")
	require.NoError(t, err)
	_, err = ds.ReadCredential(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.GreaterOrEqual(t, testutil.CollectAndCount(datastoreQueryDurationHistogram), 3)
}

package storagewrappers

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var _ storage.GatewayDatastore = (*BoundedConcurrencyDatastore)(nil)

var timeWaitingHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: build.ProjectName,
	Name:      "datastore_read_wait_ms",
	Help:      "Time (in ms) spent waiting for a free slot before reading from the datastore.",
	Buckets:   []float64{1, 10, 25, 50, 100, 1000, 5000},
})

// BoundedConcurrencyDatastore makes sure that there are, at most, N concurrent reads
// against the wrapped datastore so that one burst of traffic cannot hoard every
// database connection.
type BoundedConcurrencyDatastore struct {
	storage.GatewayDatastore
	limiter chan struct{}
}

func NewBoundedConcurrencyDatastore(wrapped storage.GatewayDatastore, n uint32) *BoundedConcurrencyDatastore {
	return &BoundedConcurrencyDatastore{
		GatewayDatastore: wrapped,
		limiter:          make(chan struct{}, n),
	}
}

func (b *BoundedConcurrencyDatastore) acquire(ctx context.Context) (func(), error) {
	start := time.Now()

	select {
	case b.limiter <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	timeWaiting := time.Since(start).Milliseconds()
	timeWaitingHistogram.Observe(float64(timeWaiting))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("time_waiting", timeWaiting))

	return func() { <-b.limiter }, nil
}

// ReadPersistedQuery see [storage.PersistedQueryBackend].ReadPersistedQuery.
func (b *BoundedConcurrencyDatastore) ReadPersistedQuery(ctx context.Context, queryID string) (*storage.PersistedQuery, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return b.GatewayDatastore.ReadPersistedQuery(ctx, queryID)
}

// ReadCredential see [storage.CredentialBackend].ReadCredential.
func (b *BoundedConcurrencyDatastore) ReadCredential(ctx context.Context, token string) (*storage.Credential, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return b.GatewayDatastore.ReadCredential(ctx, token)
}

// ReadUser see [storage.UserBackend].ReadUser.
func (b *BoundedConcurrencyDatastore) ReadUser(ctx context.Context, tenantID, username string) (*storage.User, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return b.GatewayDatastore.ReadUser(ctx, tenantID, username)
}

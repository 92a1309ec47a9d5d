package storagewrappers

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var _ storage.GatewayDatastore = (*InstrumentedDatastore)(nil)

var datastoreQueryDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace:                       build.ProjectName,
	Name:                            "datastore_query_duration_ms",
	Help:                            "The duration (in ms) of datastore calls labeled by method and outcome.",
	Buckets:                         []float64{1, 5, 10, 25, 50, 100, 200, 300, 1000},
	NativeHistogramBucketFactor:     1.1,
	NativeHistogramMaxBucketNumber:  100,
	NativeHistogramMinResetDuration: time.Hour,
}, []string{"method", "outcome"})

// InstrumentedDatastore records the latency of every datastore call.
type InstrumentedDatastore struct {
	storage.GatewayDatastore
}

func NewInstrumentedDatastore(wrapped storage.GatewayDatastore) *InstrumentedDatastore {
	return &InstrumentedDatastore{GatewayDatastore: wrapped}
}

func observe(method string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	datastoreQueryDurationHistogram.WithLabelValues(method, outcome).Observe(float64(time.Since(start).Milliseconds()))
}

func (m *InstrumentedDatastore) ReadPersistedQuery(ctx context.Context, queryID string) (pq *storage.PersistedQuery, err error) {
	defer func(start time.Time) { observe("ReadPersistedQuery", start, err) }(time.Now())
	return m.GatewayDatastore.ReadPersistedQuery(ctx, queryID)
}

func (m *InstrumentedDatastore) UpsertPersistedQuery(ctx context.Context, queryID, document, operationName string) (err error) {
	defer func(start time.Time) { observe("UpsertPersistedQuery", start, err) }(time.Now())
	return m.GatewayDatastore.UpsertPersistedQuery(ctx, queryID, document, operationName)
}

func (m *InstrumentedDatastore) ReadCredential(ctx context.Context, token string) (c *storage.Credential, err error) {
	defer func(start time.Time) { observe("ReadCredential", start, err) }(time.Now())
	return m.GatewayDatastore.ReadCredential(ctx, token)
}

func (m *InstrumentedDatastore) WriteCredential(ctx context.Context, credential *storage.Credential) (err error) {
	defer func(start time.Time) { observe("WriteCredential", start, err) }(time.Now())
	return m.GatewayDatastore.WriteCredential(ctx, credential)
}

func (m *InstrumentedDatastore) ReadUser(ctx context.Context, tenantID, username string) (u *storage.User, err error) {
	defer func(start time.Time) { observe("ReadUser", start, err) }(time.Now())
	return m.GatewayDatastore.ReadUser(ctx, tenantID, username)
}

func (m *InstrumentedDatastore) WriteUser(ctx context.Context, user *storage.User) (err error) {
	defer func(start time.Time) { observe("WriteUser", start, err) }(time.Now())
	return m.GatewayDatastore.WriteUser(ctx, user)
}

func (m *InstrumentedDatastore) RecordLogin(ctx context.Context, userID string, at time.Time) (err error) {
	defer func(start time.Time) { observe("RecordLogin", start, err) }(time.Now())
	return m.GatewayDatastore.RecordLogin(ctx, userID, at)
}

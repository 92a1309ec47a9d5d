package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/fanout-labs/gqlgate/pkg/logger"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = id

		fields := logger.FieldsFromContext(r.Context())
		require.Len(t, fields, 1)
		require.Equal(t, requestIDKey, fields[0].Key)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	_, err := ulid.Parse(seen)
	require.NoError(t, err)
}

func TestInitIDUsesTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	require.Equal(t, span.SpanContext().TraceID().String(), InitID(ctx))
}

func TestFromContextWithoutID(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
}

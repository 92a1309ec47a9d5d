package requestid

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/logger"
)

const (
	requestIDKey      = "request_id"
	requestIDTraceKey = "request_id"

	// RequestIDHeader defines the HTTP header that is set in each HTTP response
	// for a given request. The value of the header is unique per request.
	RequestIDHeader = "X-Request-Id"
)

type ctxKey string

const requestIDCtxKey = ctxKey(requestIDKey)

// InitID returns the ID to be used to identify the request.
// If trace is enabled, returns trace ID; otherwise returns a new ULID.
func InitID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.TraceID().IsValid() {
		return spanCtx.TraceID().String()
	}
	return ulid.Make().String()
}

// FromContext returns the request id assigned by [Middleware].
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDCtxKey).(string)
	return id, ok
}

func ContextWithRequestID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, requestIDCtxKey, id)
}

// Middleware assigns a request id, echoes it in the response and attaches it to the
// context, the logger fields and the current span. It must come after the tracing handler
// and before the logging middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := InitID(ctx)

		w.Header().Set(RequestIDHeader, requestID)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String(requestIDTraceKey, requestID))

		ctx = ContextWithRequestID(ctx, requestID)
		ctx = logger.ContextWithFields(ctx, zap.String(requestIDKey, requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

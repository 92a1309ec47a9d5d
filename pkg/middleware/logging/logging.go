package logging

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/logger"
)

const (
	httpMethodKey      = "http_method"
	httpPathKey        = "http_path"
	httpStatusKey      = "http_status"
	principalIDKey     = "principal_id"
	principalSchemeKey = "principal_scheme"
	userAgentKey       = "user_agent"
	queryDurationKey   = "query_duration_ms"
	httpReqCompleteKey = "http_request_complete"
	healthCheckPath    = "/healthz"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// NewLoggingMiddleware logs one line per completed request. It creates the request's
// AuthContext so that the principal committed further down the chain can be reported.
func NewLoggingMiddleware(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, ac := authcontext.ContextWithAuthContext(r.Context())
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(ctx))

			if r.URL.Path == healthCheckPath {
				return
			}
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String(httpMethodKey, r.Method),
				zap.String(httpPathKey, r.URL.Path),
				zap.Int(httpStatusKey, rec.status),
				zap.String(queryDurationKey, strconv.FormatInt(time.Since(start).Milliseconds(), 10)),
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, zap.String(userAgentKey, ua))
			}
			if p, ok := ac.Principal(); ok {
				fields = append(fields,
					zap.String(principalIDKey, p.ID),
					zap.String(principalSchemeKey, string(p.Scheme)))
			}

			if rec.status >= http.StatusInternalServerError {
				l.ErrorWithContext(ctx, httpReqCompleteKey, fields...)
				return
			}
			l.InfoWithContext(ctx, httpReqCompleteKey, fields...)
		})
	}
}

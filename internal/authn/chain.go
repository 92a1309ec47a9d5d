package authn

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/logger"
)

var tracer = otel.Tracer("internal/authn")

var authnAttemptsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: build.ProjectName,
	Name:      "authn_attempts_total",
	Help:      "The total number of authentication attempts labeled by scheme and outcome.",
}, []string{"scheme", "outcome"})

// Chain runs its schemes in order. The first scheme that produces a principal wins and
// the remaining schemes are not consulted.
type Chain struct {
	schemes  []Scheme
	required bool
	logger   logger.Logger
}

type ChainOption func(*Chain)

// WithRequired rejects requests for which no scheme produced a principal.
func WithRequired(required bool) ChainOption {
	return func(c *Chain) {
		c.required = required
	}
}

func WithLogger(l logger.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = l
	}
}

func NewChain(schemes []Scheme, opts ...ChainOption) *Chain {
	c := &Chain{
		schemes: schemes,
		logger:  logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schemes returns the names of the schemes in evaluation order.
func (c *Chain) Schemes() []string {
	names := make([]string, 0, len(c.schemes))
	for _, s := range c.schemes {
		names = append(names, s.Name())
	}
	return names
}

// Resolve authenticates r and commits the principal to the AuthContext of r's context.
// A nil principal with a nil error means the request continues anonymously.
func (c *Chain) Resolve(r *http.Request) (*authcontext.Principal, error) {
	ctx, ac := authcontext.ContextWithAuthContext(r.Context())
	ctx, span := tracer.Start(ctx, "authn.Resolve")
	defer span.End()

	for _, scheme := range c.schemes {
		if p, ok := ac.Principal(); ok {
			span.SetAttributes(attribute.String("principal.scheme", string(p.Scheme)))
			return p, nil
		}

		p, err := scheme.Authenticate(ctx, r)
		if err != nil {
			outcome := "error"
			switch {
			case errors.Is(err, ErrUnauthenticated):
				outcome = "rejected"
			case errors.Is(err, ErrRateLimited):
				outcome = "rate_limited"
			}
			authnAttemptsCounter.WithLabelValues(scheme.Name(), outcome).Inc()
			c.logger.DebugWithContext(ctx, "authentication failed",
				zap.String("scheme", scheme.Name()),
				zap.Error(err))
			span.RecordError(err)
			return nil, err
		}
		if p == nil {
			authnAttemptsCounter.WithLabelValues(scheme.Name(), "skipped").Inc()
			continue
		}

		token := ""
		if p.Scheme == authcontext.SchemeJWT {
			token, _ = BearerToken(r)
		}
		if ac.Commit(p, token) {
			authnAttemptsCounter.WithLabelValues(scheme.Name(), "authenticated").Inc()
		}
	}

	if p, ok := ac.Principal(); ok {
		span.SetAttributes(attribute.String("principal.scheme", string(p.Scheme)))
		return p, nil
	}

	if c.required {
		return nil, ErrMissingCredentials
	}
	return nil, nil
}

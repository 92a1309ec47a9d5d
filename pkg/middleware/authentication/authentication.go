// Package authentication runs the authentication chain in front of protected handlers.
package authentication

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
)

// Resolver authenticates a request and commits its principal to the request's AuthContext.
type Resolver interface {
	Resolve(r *http.Request) (*authcontext.Principal, error)
}

var _ Resolver = (*authn.Chain)(nil)

// NewAuthenticationMiddleware rejects requests the resolver refuses. Requests without a
// principal continue when the resolver allows anonymous access.
func NewAuthenticationMiddleware(resolver Resolver, l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := authcontext.ContextWithAuthContext(r.Context())
			r = r.WithContext(ctx)

			p, err := resolver.Resolve(r)
			if err != nil {
				if !errors.Is(err, authn.ErrUnauthenticated) && !errors.Is(err, authn.ErrRateLimited) {
					l.ErrorWithContext(ctx, "authentication failed", zap.Error(err))
				}
				serverErrors.WriteError(w, r, serverErrors.HandleError("", err))
				return
			}

			if p != nil {
				ctx = logger.ContextWithFields(ctx,
					zap.String("principal_id", p.ID),
					zap.String("principal_scheme", string(p.Scheme)))
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

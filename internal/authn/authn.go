// Package authn resolves the caller of a request by running an ordered chain of
// authentication schemes.
package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fanout-labs/gqlgate/pkg/authcontext"
)

const bearerPrefix = "Bearer "

var (
	// ErrUnauthenticated is matched by every error that must end the request with 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMissingCredentials is returned when authentication is required and no scheme
	// found a credential in the request.
	ErrMissingCredentials = Unauthenticated("missing credentials", nil)

	// ErrRateLimited is returned when a credential exceeded its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Error is an authentication failure. Reason is safe to show to clients; Cause is not.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthenticated
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Unauthenticated returns an error matching [ErrUnauthenticated].
func Unauthenticated(reason string, cause error) error {
	return &Error{Reason: reason, Cause: cause}
}

// Scheme authenticates one kind of credential.
type Scheme interface {
	// Name is the configuration name of the scheme.
	Name() string

	// Authenticate returns (nil, nil) when the request carries no credential for this scheme,
	// a Principal when the credential is valid and an error matching [ErrUnauthenticated]
	// when the credential is present but invalid. Other errors are internal failures.
	Authenticate(ctx context.Context, r *http.Request) (*authcontext.Principal, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

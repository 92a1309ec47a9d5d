// Package errors maps gateway failures to the payloads returned to clients.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const InternalServerErrorMsg = "Internal Server Error"

// Codes reported in the errorCode field of REST payloads and in extensions.errorCode of
// GraphQL errors.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotFound        = "NOT_FOUND"
)

var (
	Unauthenticated   = NewEncodedError(http.StatusUnauthorized, CodeUnauthenticated, "Authentication required")
	InvalidCredential = NewEncodedError(http.StatusUnauthorized, CodeUnauthenticated, "Invalid credentials")
	RateLimited       = NewEncodedError(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
	RequestCancelled  = NewEncodedError(http.StatusRequestTimeout, CodeBadRequest, "Request Cancelled")
	NotFound          = NewEncodedError(http.StatusNotFound, CodeNotFound, "Not Found")
)

// InternalError keeps the detail of a failure away from clients.
type InternalError struct {
	public   string
	internal error
}

func (e InternalError) Error() string {
	return e.public
}

func (e InternalError) InternalError() string {
	return e.internal.Error()
}

func (e InternalError) Internal() error {
	return e.internal
}

func (e InternalError) Unwrap() error {
	return e.internal
}

func NewInternalError(public string, internal error) InternalError {
	if public == "" {
		public = InternalServerErrorMsg
	}

	return InternalError{
		public:   public,
		internal: internal,
	}
}

// BadRequest is a client error whose message is safe to show.
func BadRequest(message string) *EncodedError {
	return NewEncodedError(http.StatusBadRequest, CodeBadRequest, message)
}

// HandleError translates err into the error returned to the client. Encoded errors pass
// through, known sentinels are mapped and everything else becomes an InternalError.
func HandleError(public string, err error) error {
	var encoded *EncodedError
	var authErr *authn.Error
	switch {
	case errors.As(err, &encoded):
		return encoded
	case errors.Is(err, authn.ErrRateLimited):
		return RateLimited
	case errors.As(err, &authErr):
		return NewEncodedError(http.StatusUnauthorized, CodeUnauthenticated, authErr.Reason)
	case errors.Is(err, authn.ErrUnauthenticated):
		return Unauthenticated
	case errors.Is(err, storage.ErrNotFound):
		return NotFound
	case errors.Is(err, storage.ErrCancelled), errors.Is(err, context.Canceled):
		return RequestCancelled
	}

	return NewInternalError(public, err)
}

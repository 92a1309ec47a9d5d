package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
)

// InternalErrorMsg replaces the message of every failure that is not the client's fault.
const InternalErrorMsg = "Internal error"

const errorCodeExtension = "errorCode"

// Error is a resolver error whose message is safe to show to clients.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions is picked up by the executor and reported under the error's extensions.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{errorCodeExtension: e.Code}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Code: serverErrors.CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

var errInternal = &Error{Code: serverErrors.CodeInternalError, Message: InternalErrorMsg}

// resolverError converts err into the error a resolver returns. Client errors keep their
// message; everything else is logged and reported as an internal error.
func resolverError(ctx context.Context, l logger.Logger, field string, err error) error {
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationError(validationErrs)
	}

	l.ErrorWithContext(ctx, "resolver failed",
		zap.String("field", field),
		zap.Error(err))
	return errInternal
}

func validationError(errs validator.ValidationErrors) *Error {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s=%s'", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", field, fe.Tag()))
	}
	return BadRequest("invalid input: %s", strings.Join(msgs, "; "))
}

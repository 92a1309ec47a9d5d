package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	unexpectedEOF = regexp.MustCompile(`unexpected EOF`)
	jsonPrefix    = regexp.MustCompile(`^json: `)
)

// ErrorResponse is the REST error payload.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// EncodedError allows customized error with code in string and specified http status field.
type EncodedError struct {
	HTTPStatusCode int
	ErrorCode      string
	Message        string
}

// Error returns the encoded message.
func (e *EncodedError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP Status code.
func (e *EncodedError) HTTPStatus() int {
	return e.HTTPStatusCode
}

// Code returns the encoded code in string.
func (e *EncodedError) Code() string {
	return e.ErrorCode
}

func sanitizedMessage(message string) string {
	sanitized := unexpectedEOF.ReplaceAllString(strings.TrimSpace(message), "malformed JSON")
	return strings.TrimSpace(jsonPrefix.ReplaceAllString(sanitized, ""))
}

// NewEncodedError returns the encoded error with the given http status code.
func NewEncodedError(httpStatusCode int, code, message string) *EncodedError {
	return &EncodedError{
		HTTPStatusCode: httpStatusCode,
		ErrorCode:      code,
		Message:        sanitizedMessage(message),
	}
}

// Response builds the payload for a request to path at now.
func (e *EncodedError) Response(path string, now time.Time) ErrorResponse {
	return ErrorResponse{
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Status:    e.HTTPStatusCode,
		Error:     http.StatusText(e.HTTPStatusCode),
		ErrorCode: e.ErrorCode,
		Message:   e.Message,
		Path:      path,
	}
}

// WriteError writes err as a REST payload. Errors that are not encoded are reported as a
// 500 with a stable message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var encoded *EncodedError
	if !errors.As(err, &encoded) {
		encoded = NewEncodedError(http.StatusInternalServerError, CodeInternalError, InternalServerErrorMsg)
	}

	w.Header().Set("Content-Type", "application/json")
	if encoded.HTTPStatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(encoded.HTTPStatusCode)
	_ = json.NewEncoder(w).Encode(encoded.Response(r.URL.Path, time.Now()))
}

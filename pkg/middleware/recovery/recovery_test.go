package recovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/server/errors"
)

func TestHTTPPanicRecoveryHandler(t *testing.T) {
	log, logs := logger.NewObserverLogger("error")
	h := HTTPPanicRecoveryHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), log)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errors.CodeInternalError, body.ErrorCode)
	require.Equal(t, errors.InternalServerErrorMsg, body.Message)

	require.Equal(t, 1, logs.FilterMessage("HTTPPanicRecoveryHandler has recovered a panic").Len())
}

func TestAbortHandlerIsRepanicked(t *testing.T) {
	h := NewRecoveryMiddleware(logger.NewNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/downstream"
	"github.com/fanout-labs/gqlgate/pkg/batch"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/middleware/envelope"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
)

const (
	PersistedQueryNotFoundMsg = "persisted query not found"
	NoQueryMsg                = "no query provided"

	panicMessagePrefix = "panic occurred"
)

// Handler is the execution step of the /graphql pipeline.
type Handler struct {
	schema         *graphql.Schema
	services       *downstream.Services
	logger         logger.Logger
	batchOpts      []batch.Option
	maxParallelism int
	maxDepth       int
}

func NewHandler(services *downstream.Services, opts ...Option) (*Handler, error) {
	h := &Handler{
		services:       services,
		logger:         logger.NewNoopLogger(),
		maxParallelism: DefaultMaxParallelism,
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(h)
	}

	schema, err := parseSchema(newResolver(services, h.logger, h.batchOpts), h.maxParallelism, h.maxDepth, h.logger)
	if err != nil {
		return nil, err
	}
	h.schema = schema

	return h, nil
}

// ServeHTTP executes the envelope left in the context by the envelope middleware, or
// decodes it from r when the handler is mounted on its own.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := envelope.RequestFromContext(ctx)
	if !ok {
		decoded, err := envelope.Decode(r)
		if err != nil {
			serverErrors.WriteError(w, r, err)
			return
		}
		req = decoded
	}

	if !req.HasDocument() {
		msg := NoQueryMsg
		if id, _ := req.PersistedQueryID(); id != "" {
			msg = PersistedQueryNotFoundMsg
		}
		h.write(w, &graphql.Response{Errors: []*gqlerrors.QueryError{codedError(msg, serverErrors.CodeBadRequest)}})
		return
	}

	ctx = ContextWithLoaders(ctx, NewLoaders(h.services, h.batchOpts...))
	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	for _, qe := range resp.Errors {
		h.normalize(r, qe)
	}

	h.write(w, resp)
}

// normalize makes sure every error carries an error code and that only client errors
// expose their message.
func (h *Handler) normalize(r *http.Request, qe *gqlerrors.QueryError) {
	if _, ok := qe.Extensions[errorCodeExtension]; ok {
		return
	}

	if qe.ResolverError != nil || strings.HasPrefix(qe.Message, panicMessagePrefix) {
		h.logger.ErrorWithContext(r.Context(), "unhandled resolver error",
			zap.String("error", qe.Message),
			zap.Any("path", qe.Path))
		qe.Message = InternalErrorMsg
		qe.Extensions = map[string]interface{}{errorCodeExtension: serverErrors.CodeInternalError}
		return
	}

	// parse, validation and variable coercion errors
	if qe.Extensions == nil {
		qe.Extensions = map[string]interface{}{}
	}
	qe.Extensions[errorCodeExtension] = serverErrors.CodeBadRequest
}

func (h *Handler) write(w http.ResponseWriter, resp *graphql.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode graphql response", zap.Error(err))
		body = []byte(fmt.Sprintf(`{"errors":[{"message":%q,"extensions":{"errorCode":%q}}]}`,
			InternalErrorMsg, serverErrors.CodeInternalError))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func codedError(msg, code string) *gqlerrors.QueryError {
	return &gqlerrors.QueryError{
		Message:    msg,
		Extensions: map[string]interface{}{errorCodeExtension: code},
	}
}

// Package envelope decodes the GraphQL request envelope from POST bodies and GET query
// strings and carries it through the request context.
package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
)

const (
	// PersistedQueryIDExtension carries the id of a persisted query.
	PersistedQueryIDExtension = "persistedQueryId"

	apolloExtension  = "persistedQuery"
	apolloHashField  = "sha256Hash"
	maxBodyBytes     = 1 << 20
	graphQLMediaType = "application/graphql"
)

type ctxKey string

const requestContextKey = ctxKey("graphql-request")

// Request is the GraphQL request envelope.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    map[string]any `json:"extensions"`

	// Registration is set when the request registers its document under a persisted query
	// id. It is stored only once authentication accepted the request.
	Registration *Registration `json:"-"`
}

// Registration is a persisted query registration waiting to be stored.
type Registration struct {
	ID            string
	Document      string
	OperationName string
}

// PersistedQueryID returns the persisted query id of the request. The persistedQueryId
// extension takes precedence over the Apollo persistedQuery.sha256Hash extension; apollo
// reports whether the id came from the latter.
func (r *Request) PersistedQueryID() (id string, apollo bool) {
	if v, ok := r.Extensions[PersistedQueryIDExtension].(string); ok && strings.TrimSpace(v) != "" {
		return v, false
	}
	if pq, ok := r.Extensions[apolloExtension].(map[string]any); ok {
		if v, ok := pq[apolloHashField].(string); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// HasDocument reports whether the client supplied a query document.
func (r *Request) HasDocument() bool {
	return strings.TrimSpace(r.Query) != ""
}

// Decode reads the envelope of r.
func Decode(r *http.Request) (*Request, error) {
	switch r.Method {
	case http.MethodGet:
		return decodeQueryString(r)
	case http.MethodPost:
		return decodeBody(r)
	default:
		return nil, serverErrors.NewEncodedError(http.StatusMethodNotAllowed, serverErrors.CodeBadRequest, "Method Not Allowed")
	}
}

func decodeQueryString(r *http.Request) (*Request, error) {
	values := r.URL.Query()
	req := &Request{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if raw := values.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return nil, serverErrors.BadRequest(fmt.Sprintf("invalid variables: %s", err))
		}
	}
	if raw := values.Get("extensions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Extensions); err != nil {
			return nil, serverErrors.BadRequest(fmt.Sprintf("invalid extensions: %s", err))
		}
	}
	return req, nil
}

func decodeBody(r *http.Request) (*Request, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == graphQLMediaType {
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, bodyError(err)
		}
		return &Request{Query: string(raw)}, nil
	}

	req := &Request{}
	if err := json.NewDecoder(body).Decode(req); err != nil {
		return nil, bodyError(err)
	}
	return req, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return serverErrors.NewEncodedError(http.StatusRequestEntityTooLarge, serverErrors.CodeBadRequest, "request body too large")
	}
	if errors.Is(err, io.EOF) {
		return serverErrors.BadRequest("request body is empty")
	}
	return serverErrors.BadRequest(err.Error())
}

// ContextWithRequest attaches the decoded envelope to the context.
func ContextWithRequest(parent context.Context, req *Request) context.Context {
	return context.WithValue(parent, requestContextKey, req)
}

// RequestFromContext returns the envelope decoded by [Middleware].
func RequestFromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestContextKey).(*Request)
	return req, ok
}

// Middleware decodes the envelope and rejects requests that do not carry one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := Decode(r)
		if err != nil {
			serverErrors.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
	})
}

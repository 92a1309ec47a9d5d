package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/internal/authn/apikey"
	"github.com/fanout-labs/gqlgate/internal/authn/issuer"
	"github.com/fanout-labs/gqlgate/internal/persistedquery"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/middleware/envelope"
	"github.com/fanout-labs/gqlgate/pkg/middleware/requestid"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

const staticKey = "static-secret"

// echoExecutor stands in for the GraphQL executor and reports what reached it.
var echoExecutor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	out := map[string]string{}
	if req, ok := envelope.RequestFromContext(r.Context()); ok {
		out["query"] = req.Query
	}
	if p, ok := authcontext.PrincipalFromContext(r.Context()); ok {
		out["principal"] = p.ID
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
})

type fixture struct {
	handler   http.Handler
	datastore *memory.MemoryBackend
}

func newFixture(t *testing.T, config *Config, withIssuer bool) *fixture {
	t.Helper()
	datastore := memory.New()
	l := logger.NewNoopLogger()

	keys, err := apikey.NewScheme(datastore, apikey.WithStaticKey(staticKey))
	require.NoError(t, err)
	t.Cleanup(keys.Close)

	pq, err := persistedquery.New(datastore, persistedquery.WithLogger(l))
	require.NoError(t, err)
	t.Cleanup(pq.Close)

	deps := &Dependencies{
		Datastore:        datastore,
		Logger:           l,
		Authenticator:    authn.NewChain([]authn.Scheme{keys}, authn.WithRequired(true)),
		Executor:         echoExecutor,
		PersistedQueries: pq,
	}
	if withIssuer {
		deps.Issuer, err = issuer.New(datastore, "0123456789abcdef0123456789abcdef")
		require.NoError(t, err)
	}

	return &fixture{handler: New(deps, config).Handler(), datastore: datastore}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func postGraphQL(body string, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, GraphQLPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(apikey.DefaultHeader, key)
	}
	return req
}

func TestGraphQLPipeline(t *testing.T) {
	f := newFixture(t, nil, false)

	t.Run("rejects_anonymous_requests_with_rest_payload", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ a }"}`, ""))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

		var resp serverErrors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, http.StatusUnauthorized, resp.Status)
		require.Equal(t, serverErrors.CodeUnauthenticated, resp.ErrorCode)
		require.Equal(t, GraphQLPath, resp.Path)
	})

	t.Run("rejects_invalid_keys", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ a }"}`, "wrong"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("executes_authenticated_requests", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ a }"}`, staticKey))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"query":"{ a }","principal":"static-api-key"}`, rec.Body.String())
		require.NotEmpty(t, rec.Header().Get(requestid.RequestIDHeader))
	})

	t.Run("malformed_envelope_is_bad_request", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":`, staticKey))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("registers_and_resolves_persisted_queries", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ orders(ids: []) { id } }","extensions":{"persistedQueryId":"q1"}}`, staticKey))
		require.Equal(t, http.StatusOK, rec.Code)

		stored, err := f.datastore.ReadPersistedQuery(t.Context(), "q1")
		require.NoError(t, err)
		require.Equal(t, "{ orders(ids: []) { id } }", stored.Document)

		target := GraphQLPath + "?extensions=" + url.QueryEscape(`{"persistedQueryId":"q1"}`)
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set(apikey.DefaultHeader, staticKey)
		rec = f.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"query":"{ orders(ids: []) { id } }","principal":"static-api-key"}`, rec.Body.String())
	})

	t.Run("rejected_requests_do_not_overwrite_persisted_queries", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ good }","extensions":{"persistedQueryId":"abc"}}`, staticKey))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.do(t, postGraphQL(`{"query":"{ evil }","extensions":{"persistedQueryId":"abc"}}`, "wrong-key"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = f.do(t, postGraphQL(`{"query":"{ evil }","extensions":{"persistedQueryId":"abc"}}`, ""))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		stored, err := f.datastore.ReadPersistedQuery(t.Context(), "abc")
		require.NoError(t, err)
		require.Equal(t, "{ good }", stored.Document)
		require.Equal(t, int64(1), stored.UseCount)

		rec = f.do(t, postGraphQL(`{"extensions":{"persistedQueryId":"abc"}}`, staticKey))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"query":"{ good }","principal":"static-api-key"}`, rec.Body.String())
	})

	t.Run("apollo_hash_mismatch", func(t *testing.T) {
		rec := f.do(t, postGraphQL(`{"query":"{ a }","extensions":{"persistedQuery":{"version":1,"sha256Hash":"abc"}}}`, staticKey))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "provided sha does not match query")
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("me_requires_a_principal", func(t *testing.T) {
		f := newFixture(t, nil, false)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, MePath, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me_reports_the_principal", func(t *testing.T) {
		f := newFixture(t, nil, false)
		req := httptest.NewRequest(http.MethodGet, MePath, nil)
		req.Header.Set(apikey.DefaultHeader, staticKey)
		rec := f.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"scheme":"STATIC_KEY","username":"static-api-key","scopes":[],"authorities":["ROLE_API_CLIENT"]}`, rec.Body.String())
	})

	t.Run("token_route_needs_an_issuer", func(t *testing.T) {
		f := newFixture(t, nil, false)
		rec := f.do(t, httptest.NewRequest(http.MethodPost, TokenPath, strings.NewReader(`{}`)))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("token_route_rejects_unknown_users", func(t *testing.T) {
		f := newFixture(t, nil, true)
		req := httptest.NewRequest(http.MethodPost, TokenPath, strings.NewReader(`{"tenantId":"t1","username":"nobody","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(t, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthAndPlayground(t *testing.T) {
	t.Run("healthz_is_public", func(t *testing.T) {
		f := newFixture(t, nil, false)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, HealthPath, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"SERVING"}`, rec.Body.String())
	})

	t.Run("playground_disabled_by_default", func(t *testing.T) {
		f := newFixture(t, nil, false)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, PlaygroundPath, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("playground_enabled", func(t *testing.T) {
		f := newFixture(t, &Config{Playground: true}, false)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, PlaygroundPath, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})
}

func TestCORS(t *testing.T) {
	f := newFixture(t, &Config{CORSAllowedOrigins: []string{"https://app.example.com"}}, false)

	req := httptest.NewRequest(http.MethodOptions, GraphQLPath, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := f.do(t, req)

	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, GraphQLPath, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = f.do(t, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

package bearer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/internal/mocks"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
)

const secret = "test-secret"

func signHS256(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func requestWithAuthorization(value string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if value != "" {
		r.Header.Set("Authorization", value)
	}
	return r
}

func TestSchemeAuthenticate(t *testing.T) {
	validator, err := NewHMACValidator(secret, WithIssuer("gqlgate"))
	require.NoError(t, err)
	scheme := NewScheme(validator)
	ctx := context.Background()
	now := time.Now()

	t.Run("absent_header_is_skipped", func(t *testing.T) {
		p, err := scheme.Authenticate(ctx, requestWithAuthorization(""))
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("other_schemes_are_skipped", func(t *testing.T) {
		p, err := scheme.Authenticate(ctx, requestWithAuthorization("Basic dXNlcjpwYXNz"))
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("valid_token", func(t *testing.T) {
		token := signHS256(t, secret, jwt.MapClaims{
			"iss":   "gqlgate",
			"sub":   "user-1",
			"iat":   now.Unix(),
			"exp":   now.Add(time.Minute).Unix(),
			"scope": "orders:read payments:read",
			"scp":   []string{"orders:read", "inventory:write"},
		})

		p, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.NoError(t, err)
		require.Equal(t, "user-1", p.ID)
		require.Equal(t, authcontext.SchemeJWT, p.Scheme)
		require.Equal(t, []string{
			"SCOPE_inventory:write",
			"SCOPE_orders:read",
			"SCOPE_payments:read",
		}, p.SortedAuthorities())
	})

	t.Run("expired_token_is_rejected", func(t *testing.T) {
		token := signHS256(t, secret, jwt.MapClaims{
			"iss": "gqlgate",
			"sub": "user-1",
			"exp": now.Add(-time.Minute).Unix(),
		})

		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong_signature_is_rejected", func(t *testing.T) {
		token := signHS256(t, "other-secret", jwt.MapClaims{
			"iss": "gqlgate",
			"exp": now.Add(time.Minute).Unix(),
		})

		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("wrong_issuer_is_rejected", func(t *testing.T) {
		token := signHS256(t, secret, jwt.MapClaims{
			"iss": "someone-else",
			"exp": now.Add(time.Minute).Unix(),
		})

		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("token_without_expiry_is_rejected", func(t *testing.T) {
		token := signHS256(t, secret, jwt.MapClaims{"iss": "gqlgate", "sub": "user-1"})

		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("non_string_subject_is_rejected", func(t *testing.T) {
		token := signHS256(t, secret, jwt.MapClaims{
			"iss": "gqlgate",
			"sub": 42,
			"exp": now.Add(time.Minute).Unix(),
		})

		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer "+token))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
		require.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("garbage_is_rejected", func(t *testing.T) {
		_, err := scheme.Authenticate(ctx, requestWithAuthorization("Bearer not-a-jwt"))
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
	})
}

func TestExtractScopes(t *testing.T) {
	tests := map[string]struct {
		claims jwt.MapClaims
		want   []string
	}{
		"space_delimited_string": {
			claims: jwt.MapClaims{"scope": "b a  c"},
			want:   []string{"a", "b", "c"},
		},
		"list_claim": {
			claims: jwt.MapClaims{"scp": []any{"x", "y", 3}},
			want:   []string{"x", "y"},
		},
		"union_across_claims": {
			claims: jwt.MapClaims{"scope": "a b", "scopes": "b c", "scp": []any{"d"}},
			want:   []string{"a", "b", "c", "d"},
		},
		"no_scopes": {
			claims: jwt.MapClaims{"sub": "x"},
			want:   nil,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.want, ExtractScopes(test.claims))
		})
	}
}

func TestNewHMACValidatorRequiresSecret(t *testing.T) {
	_, err := NewHMACValidator("")
	require.Error(t, err)
}

func TestJWKSValidator(t *testing.T) {
	oidcServer, err := mocks.NewMockOidcServer()
	require.NoError(t, err)
	defer oidcServer.Stop()

	jwksURI, err := DiscoverJWKSURI(context.Background(), http.DefaultClient, oidcServer.IssuerURL())
	require.NoError(t, err)
	require.Equal(t, oidcServer.JWKSURL(), jwksURI)

	validator, err := NewJWKSValidator(jwksURI, http.DefaultClient, WithIssuer(oidcServer.IssuerURL()))
	require.NoError(t, err)
	defer validator.Close()

	token, err := oidcServer.GetToken("client-1", "orders:read", time.Minute)
	require.NoError(t, err)

	p, err := NewScheme(validator).Authenticate(context.Background(), requestWithAuthorization("Bearer "+token))
	require.NoError(t, err)
	require.Equal(t, "client-1", p.ID)
	require.True(t, p.HasAuthority("SCOPE_orders:read"))

	t.Run("hmac_tokens_are_not_accepted", func(t *testing.T) {
		hmacToken := signHS256(t, secret, jwt.MapClaims{
			"iss": oidcServer.IssuerURL(),
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		_, err := validator.Validate(context.Background(), hmacToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestDiscoverJWKSURIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing/.well-known/openid-configuration":
			_, _ = w.Write([]byte(`{"issuer":"x"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	_, err := DiscoverJWKSURI(context.Background(), server.Client(), server.URL+"/missing")
	require.ErrorContains(t, err, "missing jwks_uri value")

	_, err = DiscoverJWKSURI(context.Background(), server.Client(), server.URL+"/other")
	require.ErrorContains(t, err, "unexpected status code")
}

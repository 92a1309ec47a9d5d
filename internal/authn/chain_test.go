package authn_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/internal/authn/apikey"
	"github.com/fanout-labs/gqlgate/internal/authn/bearer"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

const hmacSecret = "chain-secret"

type countingScheme struct {
	authn.Scheme
	calls int
}

func (s *countingScheme) Authenticate(ctx context.Context, r *http.Request) (*authcontext.Principal, error) {
	s.calls++
	return s.Scheme.Authenticate(ctx, r)
}

func newSchemes(t *testing.T) (*countingScheme, *countingScheme) {
	t.Helper()

	backend := memory.New()
	require.NoError(t, backend.WriteCredential(context.Background(), &storage.Credential{
		ID: "k1", Token: "live-key", Enabled: true,
	}))

	validator, err := bearer.NewHMACValidator(hmacSecret)
	require.NoError(t, err)

	keys, err := apikey.NewScheme(backend, apikey.WithStaticKey("static-secret"))
	require.NoError(t, err)
	t.Cleanup(keys.Close)

	return &countingScheme{Scheme: bearer.NewScheme(validator)}, &countingScheme{Scheme: keys}
}

func validToken(t *testing.T, subject string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Minute).Unix(),
		"scope": "orders:read",
	}).SignedString([]byte(hmacSecret))
	require.NoError(t, err)
	return token
}

func newRequest(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	ctx, _ := authcontext.ContextWithAuthContext(r.Context())
	return r.WithContext(ctx)
}

func TestChainResolve(t *testing.T) {
	t.Run("first_scheme_wins_and_later_schemes_are_not_consulted", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme})
		token := validToken(t, "alice")

		r := newRequest(map[string]string{
			"Authorization":      "Bearer " + token,
			apikey.DefaultHeader: "live-key",
		})
		p, err := chain.Resolve(r)
		require.NoError(t, err)
		require.Equal(t, "alice", p.ID)
		require.Equal(t, authcontext.SchemeJWT, p.Scheme)
		require.Equal(t, 1, jwtScheme.calls)
		require.Zero(t, keyScheme.calls)

		committed, ok := authcontext.PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Same(t, p, committed)
		require.Equal(t, token, authcontext.BearerTokenFromContext(r.Context()))
	})

	t.Run("configured_order_is_honoured", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{keyScheme, jwtScheme})
		require.Equal(t, []string{"apikey", "jwt"}, chain.Schemes())

		r := newRequest(map[string]string{
			"Authorization":      "Bearer " + validToken(t, "alice"),
			apikey.DefaultHeader: "live-key",
		})
		p, err := chain.Resolve(r)
		require.NoError(t, err)
		require.Equal(t, "api-key:k1", p.ID)
		require.Zero(t, jwtScheme.calls)
		require.Empty(t, authcontext.BearerTokenFromContext(r.Context()))
	})

	t.Run("absent_credential_falls_through", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme})

		p, err := chain.Resolve(newRequest(map[string]string{apikey.DefaultHeader: "static-secret"}))
		require.NoError(t, err)
		require.Equal(t, apikey.StaticPrincipalID, p.ID)
		require.Equal(t, authcontext.SchemeStaticKey, p.Scheme)
	})

	t.Run("invalid_credential_stops_the_chain", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme})

		r := newRequest(map[string]string{
			"Authorization":      "Bearer garbage",
			apikey.DefaultHeader: "live-key",
		})
		p, err := chain.Resolve(r)
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
		require.Nil(t, p)
		require.Zero(t, keyScheme.calls)

		_, ok := authcontext.PrincipalFromContext(r.Context())
		require.False(t, ok)
	})

	t.Run("anonymous_allowed_when_not_required", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme})

		p, err := chain.Resolve(newRequest(nil))
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("anonymous_rejected_when_required", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme}, authn.WithRequired(true))

		_, err := chain.Resolve(newRequest(nil))
		require.ErrorIs(t, err, authn.ErrMissingCredentials)
		require.ErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("existing_principal_is_never_replaced", func(t *testing.T) {
		jwtScheme, keyScheme := newSchemes(t)
		chain := authn.NewChain([]authn.Scheme{jwtScheme, keyScheme})

		r := newRequest(map[string]string{apikey.DefaultHeader: "live-key"})
		ac, _ := authcontext.FromContext(r.Context())
		preset := authcontext.NewPrincipal("preset", authcontext.SchemeJWT)
		require.True(t, ac.Commit(preset, ""))

		p, err := chain.Resolve(r)
		require.NoError(t, err)
		require.Same(t, preset, p)
		require.Zero(t, jwtScheme.calls)
		require.Zero(t, keyScheme.calls)
	})
}

func TestUnauthenticatedError(t *testing.T) {
	cause := errors.New("token is expired")
	err := authn.Unauthenticated("invalid bearer token", cause)

	require.ErrorIs(t, err, authn.ErrUnauthenticated)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "invalid bearer token: token is expired", err.Error())

	var authErr *authn.Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid bearer token", authErr.Reason)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":       {header: "Bearer abc", want: "abc", ok: true},
		"padded":       {header: "Bearer   abc  ", want: "abc", ok: true},
		"empty_token":  {header: "Bearer ", ok: false},
		"other_scheme": {header: "Basic abc", ok: false},
		"missing":      {ok: false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				r.Header.Set("Authorization", test.header)
			}
			got, ok := authn.BearerToken(r)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.want, got)
		})
	}
}

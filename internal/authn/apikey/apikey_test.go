package apikey

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/internal/mocks"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

func requestWithKey(header, key string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if key != "" {
		r.Header.Set(header, key)
	}
	return r
}

func seededBackend(t *testing.T) *memory.MemoryBackend {
	t.Helper()
	backend := memory.New()
	ctx := context.Background()
	require.NoError(t, backend.WriteCredential(ctx, &storage.Credential{ID: "k1", Token: "live-key", Enabled: true}))
	require.NoError(t, backend.WriteCredential(ctx, &storage.Credential{ID: "k2", Token: "disabled-key", Enabled: false}))
	return backend
}

func TestAuthenticate(t *testing.T) {
	backend := seededBackend(t)
	ctx := context.Background()

	tests := map[string]struct {
		opts      []Option
		header    string
		key       string
		wantID    string
		wantType  authcontext.Scheme
		wantErr   error
		wantAnony bool
	}{
		"absent_header_is_skipped": {
			header:    DefaultHeader,
			wantAnony: true,
		},
		"blank_header_is_skipped": {
			header:    DefaultHeader,
			key:       "   ",
			wantAnony: true,
		},
		"enabled_credential": {
			header:   DefaultHeader,
			key:      "live-key",
			wantID:   "api-key:k1",
			wantType: authcontext.SchemeAPIKey,
		},
		"token_is_trimmed": {
			header:   DefaultHeader,
			key:      "  live-key ",
			wantID:   "api-key:k1",
			wantType: authcontext.SchemeAPIKey,
		},
		"disabled_credential_is_rejected": {
			header:  DefaultHeader,
			key:     "disabled-key",
			wantErr: authn.ErrUnauthenticated,
		},
		"unknown_key_is_rejected": {
			header:  DefaultHeader,
			key:     "nope",
			wantErr: authn.ErrUnauthenticated,
		},
		"static_key_fallback": {
			opts:     []Option{WithStaticKey("static-secret")},
			header:   DefaultHeader,
			key:      "static-secret",
			wantID:   StaticPrincipalID,
			wantType: authcontext.SchemeStaticKey,
		},
		"disabled_credential_falls_back_to_static_key": {
			opts:     []Option{WithStaticKey("disabled-key")},
			header:   DefaultHeader,
			key:      "disabled-key",
			wantID:   StaticPrincipalID,
			wantType: authcontext.SchemeStaticKey,
		},
		"blank_static_key_never_matches": {
			opts:    []Option{WithStaticKey("  ")},
			header:  DefaultHeader,
			key:     "other",
			wantErr: authn.ErrUnauthenticated,
		},
		"custom_header": {
			opts:     []Option{WithHeader("X-Gateway-Key")},
			header:   "X-Gateway-Key",
			key:      "live-key",
			wantID:   "api-key:k1",
			wantType: authcontext.SchemeAPIKey,
		},
		"default_header_ignored_with_custom_header": {
			opts:      []Option{WithHeader("X-Gateway-Key")},
			header:    DefaultHeader,
			key:       "live-key",
			wantAnony: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			scheme, err := NewScheme(backend, test.opts...)
			require.NoError(t, err)
			defer scheme.Close()

			p, err := scheme.Authenticate(ctx, requestWithKey(test.header, test.key))
			if test.wantErr != nil {
				require.ErrorIs(t, err, test.wantErr)
				require.Nil(t, p)
				return
			}
			require.NoError(t, err)
			if test.wantAnony {
				require.Nil(t, p)
				return
			}
			require.Equal(t, test.wantID, p.ID)
			require.Equal(t, test.wantType, p.Scheme)
			require.Equal(t, []string{ClientAuthority}, p.SortedAuthorities())
		})
	}
}

func TestStorageFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockCredentialBackend(ctrl)
	backend.EXPECT().ReadCredential(gomock.Any(), "k").Return(nil, errors.New("connection refused"))

	scheme, err := NewScheme(backend, WithStaticKey("k"))
	require.NoError(t, err)

	_, err = scheme.Authenticate(context.Background(), requestWithKey(DefaultHeader, "k"))
	require.Error(t, err)
	require.NotErrorIs(t, err, authn.ErrUnauthenticated)
}

func TestRateLimit(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	require.NoError(t, backend.WriteCredential(ctx, &storage.Credential{
		ID: "limited", Token: "limited-key", Enabled: true, RateLimitPerMinute: 2,
	}))
	require.NoError(t, backend.WriteCredential(ctx, &storage.Credential{
		ID: "unlimited", Token: "unlimited-key", Enabled: true,
	}))

	t.Run("budget_is_enforced", func(t *testing.T) {
		scheme, err := NewScheme(backend, WithRateLimit(true))
		require.NoError(t, err)
		defer scheme.Close()

		for i := 0; i < 2; i++ {
			_, err := scheme.Authenticate(ctx, requestWithKey(DefaultHeader, "limited-key"))
			require.NoError(t, err)
		}
		_, err = scheme.Authenticate(ctx, requestWithKey(DefaultHeader, "limited-key"))
		require.ErrorIs(t, err, authn.ErrRateLimited)
		require.NotErrorIs(t, err, authn.ErrUnauthenticated)
	})

	t.Run("zero_budget_is_unlimited", func(t *testing.T) {
		scheme, err := NewScheme(backend, WithRateLimit(true))
		require.NoError(t, err)
		defer scheme.Close()

		for i := 0; i < 10; i++ {
			_, err := scheme.Authenticate(ctx, requestWithKey(DefaultHeader, "unlimited-key"))
			require.NoError(t, err)
		}
	})

	t.Run("disabled_enforcement_ignores_budget", func(t *testing.T) {
		scheme, err := NewScheme(backend)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := scheme.Authenticate(ctx, requestWithKey(DefaultHeader, "limited-key"))
			require.NoError(t, err)
		}
	})
}

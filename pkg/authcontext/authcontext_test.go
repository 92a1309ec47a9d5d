package authcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstCommitWins(t *testing.T) {
	ctx, ac := ContextWithAuthContext(context.Background())

	jwtPrincipal := NewPrincipal("alice", SchemeJWT, "SCOPE_orders:read")
	require.True(t, ac.Commit(jwtPrincipal, "token-1"))
	require.False(t, ac.Commit(NewPrincipal("api-key:1", SchemeAPIKey, "ROLE_API_CLIENT"), ""))

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	require.Same(t, jwtPrincipal, got)
	require.Equal(t, "token-1", BearerTokenFromContext(ctx))
}

func TestContextWithAuthContextReusesExisting(t *testing.T) {
	ctx, first := ContextWithAuthContext(context.Background())
	_, second := ContextWithAuthContext(ctx)
	require.Same(t, first, second)
}

func TestNoAuthContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	require.False(t, ok)
	require.Empty(t, BearerTokenFromContext(context.Background()))
}

func TestPrincipalAuthorities(t *testing.T) {
	p := NewPrincipal("bob", SchemeJWT, "SCOPE_b", "SCOPE_a", "SCOPE_b")
	require.True(t, p.HasAuthority("SCOPE_a"))
	require.False(t, p.HasAuthority("SCOPE_c"))
	require.Equal(t, []string{"SCOPE_a", "SCOPE_b"}, p.SortedAuthorities())
}

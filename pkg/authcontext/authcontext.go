// Package authcontext carries the authenticated caller of a request through its context.
package authcontext

import (
	"context"
	"slices"
	"sync"
)

type ctxKey string

const authContextKey = ctxKey("auth-context")

// Scheme identifies the authentication scheme that produced a Principal.
type Scheme string

const (
	SchemeJWT       Scheme = "JWT"
	SchemeAPIKey    Scheme = "API_KEY"
	SchemeStaticKey Scheme = "STATIC_KEY"
)

// Principal is the authenticated identity attached to a request. It is never mutated
// after it has been committed.
type Principal struct {
	ID          string
	Scheme      Scheme
	Authorities map[string]struct{}

	// Claims holds the verified token claims for JWT principals.
	Claims map[string]any
}

// NewPrincipal builds a Principal with the given authorities.
func NewPrincipal(id string, scheme Scheme, authorities ...string) *Principal {
	set := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		set[a] = struct{}{}
	}
	return &Principal{ID: id, Scheme: scheme, Authorities: set}
}

// HasAuthority reports whether the principal was granted the authority.
func (p *Principal) HasAuthority(authority string) bool {
	_, ok := p.Authorities[authority]
	return ok
}

// SortedAuthorities returns the authorities in lexical order.
func (p *Principal) SortedAuthorities() []string {
	out := make([]string, 0, len(p.Authorities))
	for a := range p.Authorities {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// AuthContext is the request-scoped authentication state. The principal is assigned at
// most once; later commits are ignored.
type AuthContext struct {
	mu          sync.Mutex
	principal   *Principal
	bearerToken string
}

// Commit attaches the principal and the raw bearer token (empty for non-bearer schemes).
// It returns false if a principal was already committed, in which case nothing changes.
func (a *AuthContext) Commit(p *Principal, bearerToken string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.principal != nil {
		return false
	}
	a.principal = p
	a.bearerToken = bearerToken
	return true
}

// Principal returns the committed principal, if any.
func (a *AuthContext) Principal() (*Principal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.principal, a.principal != nil
}

// BearerToken returns the token to propagate to downstream services.
func (a *AuthContext) BearerToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bearerToken
}

// ContextWithAuthContext injects a fresh AuthContext into the parent context, unless one
// is already present.
func ContextWithAuthContext(parent context.Context) (context.Context, *AuthContext) {
	if existing, ok := FromContext(parent); ok {
		return parent, existing
	}
	ac := &AuthContext{}
	return context.WithValue(parent, authContextKey, ac), ac
}

// FromContext extracts the AuthContext from the provided ctx (if any).
func FromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*AuthContext)
	return ac, ok
}

// PrincipalFromContext returns the committed principal of the request, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil, false
	}
	return ac.Principal()
}

// BearerTokenFromContext returns the bearer token to propagate downstream, if any.
func BearerTokenFromContext(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.BearerToken()
}

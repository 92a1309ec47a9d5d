// Package bearer authenticates requests carrying an "Authorization: Bearer" JWT.
package bearer

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
)

const (
	SchemeName = "jwt"

	// ScopeAuthorityPrefix marks authorities derived from token scopes.
	ScopeAuthorityPrefix = "SCOPE_"
)

// scopeClaims are read in order and unioned.
var scopeClaims = []string{"scope", "scp", "scopes"}

type Scheme struct {
	validator TokenValidator
}

var _ authn.Scheme = (*Scheme)(nil)

func NewScheme(validator TokenValidator) *Scheme {
	return &Scheme{validator: validator}
}

func (s *Scheme) Name() string {
	return SchemeName
}

func (s *Scheme) Authenticate(ctx context.Context, r *http.Request) (*authcontext.Principal, error) {
	token, ok := authn.BearerToken(r)
	if !ok {
		return nil, nil
	}

	claims, err := s.validator.Validate(ctx, token)
	if err != nil {
		return nil, authn.Unauthenticated("invalid bearer token", err)
	}

	var subject string
	if raw, ok := claims["sub"]; ok {
		if subject, ok = raw.(string); !ok {
			return nil, authn.Unauthenticated("invalid subject", ErrInvalidClaims)
		}
	}

	scopes := ExtractScopes(claims)
	authorities := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		authorities = append(authorities, ScopeAuthorityPrefix+scope)
	}

	p := authcontext.NewPrincipal(subject, authcontext.SchemeJWT, authorities...)
	p.Claims = claims
	return p, nil
}

// ExtractScopes unions the scopes found in the scope, scp and scopes claims. Each claim may
// be a space delimited string or a list of strings.
func ExtractScopes(claims jwt.MapClaims) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(scope string) {
		for _, s := range strings.Fields(scope) {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}

	for _, name := range scopeClaims {
		switch v := claims[name].(type) {
		case string:
			add(v)
		case []string:
			for _, s := range v {
				add(s)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}

	slices.Sort(out)
	return out
}

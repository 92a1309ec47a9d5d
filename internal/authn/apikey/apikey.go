// Package apikey authenticates requests carrying an API key header. Keys are looked up in a
// CredentialBackend and, failing that, compared with an optional static key.
package apikey

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/pkg/authcontext"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const (
	SchemeName = "apikey"

	DefaultHeader = "X-API-Key"

	// ClientAuthority is granted to every API key principal.
	ClientAuthority = "ROLE_API_CLIENT"

	StaticPrincipalID = "static-api-key"

	principalIDPrefix = "api-key:"

	defaultLimiterCacheSize = 10000
	limiterIdleTTL          = 10 * time.Minute
)

type Scheme struct {
	header    string
	staticKey string
	backend   storage.CredentialBackend

	enforceRateLimit bool
	limitersMu       sync.Mutex
	limiters         storage.InMemoryCache[*rate.Limiter]
}

var _ authn.Scheme = (*Scheme)(nil)

type Option func(*Scheme)

// WithHeader sets the request header that carries the key.
func WithHeader(header string) Option {
	return func(s *Scheme) {
		if header != "" {
			s.header = header
		}
	}
}

// WithStaticKey accepts key when the presented value is not a known credential.
func WithStaticKey(key string) Option {
	return func(s *Scheme) {
		s.staticKey = strings.TrimSpace(key)
	}
}

// WithRateLimit enforces the per-minute budget of each credential.
func WithRateLimit(enabled bool) Option {
	return func(s *Scheme) {
		s.enforceRateLimit = enabled
	}
}

func NewScheme(backend storage.CredentialBackend, opts ...Option) (*Scheme, error) {
	s := &Scheme{
		header:  DefaultHeader,
		backend: backend,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.enforceRateLimit {
		limiters, err := storage.NewInMemoryLRUCache(storage.WithMaxCacheSize[*rate.Limiter](defaultLimiterCacheSize))
		if err != nil {
			return nil, fmt.Errorf("initialize rate limiters: %w", err)
		}
		s.limiters = limiters
	}
	return s, nil
}

func (s *Scheme) Name() string {
	return SchemeName
}

func (s *Scheme) Header() string {
	return s.header
}

func (s *Scheme) Authenticate(ctx context.Context, r *http.Request) (*authcontext.Principal, error) {
	token := strings.TrimSpace(r.Header.Get(s.header))
	if token == "" {
		return nil, nil
	}

	credential, err := s.backend.ReadCredential(ctx, token)
	switch {
	case err == nil && credential.Enabled:
		if err := s.allow(credential); err != nil {
			return nil, err
		}
		return authcontext.NewPrincipal(principalIDPrefix+credential.ID, authcontext.SchemeAPIKey, ClientAuthority), nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("read credential: %w", err)
	}

	if s.staticKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.staticKey)) == 1 {
		return authcontext.NewPrincipal(StaticPrincipalID, authcontext.SchemeStaticKey, ClientAuthority), nil
	}
	return nil, authn.Unauthenticated("invalid API key", nil)
}

func (s *Scheme) allow(credential *storage.Credential) error {
	if !s.enforceRateLimit || credential.RateLimitPerMinute <= 0 {
		return nil
	}

	s.limitersMu.Lock()
	limiter, ok := s.limiters.Get(credential.ID)
	if !ok {
		perMinute := credential.RateLimitPerMinute
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		s.limiters.Set(credential.ID, limiter, limiterIdleTTL)
	}
	s.limitersMu.Unlock()

	if !limiter.Allow() {
		return fmt.Errorf("%w: api key %s", authn.ErrRateLimited, credential.ID)
	}
	return nil
}

// Close releases the rate limiter cache.
func (s *Scheme) Close() {
	if s.limiters != nil {
		s.limiters.Stop()
	}
}

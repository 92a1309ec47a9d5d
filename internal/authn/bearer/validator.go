package bearer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid bearer token")
	ErrInvalidClaims = errors.New("invalid claims")

	jwkRefreshInterval = 48 * time.Hour
)

// TokenValidator decodes and verifies a bearer token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (jwt.MapClaims, error)
}

type validatorConfig struct {
	issuer   string
	audience string
	leeway   time.Duration
}

type ValidatorOption func(*validatorConfig)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) ValidatorOption {
	return func(c *validatorConfig) {
		c.issuer = issuer
	}
}

// WithAudience requires audience to be one of the aud claim values.
func WithAudience(audience string) ValidatorOption {
	return func(c *validatorConfig) {
		c.audience = audience
	}
}

func WithLeeway(leeway time.Duration) ValidatorOption {
	return func(c *validatorConfig) {
		c.leeway = leeway
	}
}

func newParser(methods []string, opts []ValidatorOption) *jwt.Parser {
	cfg := &validatorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}
	if cfg.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.audience))
	}
	if cfg.leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(cfg.leeway))
	}

	return jwt.NewParser(parserOpts...)
}

func parse(parser *jwt.Parser, token string, keyFunc jwt.Keyfunc) (jwt.MapClaims, error) {
	parsed, err := parser.Parse(token, keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// HMACValidator verifies HS256 tokens signed with a shared secret.
type HMACValidator struct {
	secret []byte
	parser *jwt.Parser
}

var _ TokenValidator = (*HMACValidator)(nil)

func NewHMACValidator(secret string, opts ...ValidatorOption) (*HMACValidator, error) {
	if secret == "" {
		return nil, errors.New("invalid jwt configuration, the hmac secret is empty")
	}
	return &HMACValidator{
		secret: []byte(secret),
		parser: newParser([]string{jwt.SigningMethodHS256.Alg()}, opts),
	}, nil
}

func (v *HMACValidator) Validate(_ context.Context, token string) (jwt.MapClaims, error) {
	return parse(v.parser, token, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
}

// JWKSValidator verifies RS256 tokens against a remote JWKS document that is refreshed in
// the background. Close must be called to stop the refresh.
type JWKSValidator struct {
	JwksURI string
	jwks    *keyfunc.JWKS
	parser  *jwt.Parser
}

var _ TokenValidator = (*JWKSValidator)(nil)

func NewJWKSValidator(jwksURI string, client *http.Client, opts ...ValidatorOption) (*JWKSValidator, error) {
	jwks, err := keyfunc.Get(jwksURI, keyfunc.Options{
		Client:            client,
		RefreshInterval:   jwkRefreshInterval,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching keys from %v: %w", jwksURI, err)
	}

	return &JWKSValidator{
		JwksURI: jwksURI,
		jwks:    jwks,
		parser:  newParser([]string{jwt.SigningMethodRS256.Alg()}, opts),
	}, nil
}

func (v *JWKSValidator) Validate(_ context.Context, token string) (jwt.MapClaims, error) {
	return parse(v.parser, token, v.jwks.Keyfunc)
}

func (v *JWKSValidator) Close() {
	v.jwks.EndBackground()
}

// OidcConfig contains authorization server metadata. See https://datatracker.ietf.org/doc/html/rfc8414#section-2
type OidcConfig struct {
	Issuer  string `json:"issuer"`
	JWKsURI string `json:"jwks_uri"`
}

// DiscoverJWKSURI reads the jwks_uri from the issuer's openid-configuration document.
func DiscoverJWKSURI(ctx context.Context, client *http.Client, issuerURL string) (string, error) {
	wellKnown := strings.TrimSuffix(issuerURL, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return "", fmt.Errorf("error forming request to get OIDC: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error getting OIDC: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code getting OIDC: %v", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	oidcConfig := &OidcConfig{}
	if err := json.Unmarshal(body, oidcConfig); err != nil {
		return "", fmt.Errorf("failed parsing document: %w", err)
	}

	if oidcConfig.JWKsURI == "" {
		return "", errors.New("missing jwks_uri value")
	}
	return oidcConfig.JWKsURI, nil
}

// Package issuer exchanges user passwords for HS256 bearer tokens that the bearer scheme
// of the same gateway accepts.
package issuer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var tracer = otel.Tracer("internal/authn/issuer")

const (
	DefaultIssuer   = "gqlgate"
	DefaultTokenTTL = time.Hour

	rolePrefix = "ROLE_"
)

// ErrInvalidCredentials is returned for unknown users, wrong passwords and accounts that
// may not log in. Callers cannot tell these cases apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the user does not exist so that lookups of unknown
// users take as long as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("gqlgate"), bcrypt.DefaultCost)
	return hash
})

// Token is the result of a successful login.
type Token struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	ExpiresIn   int64    `json:"expiresIn"`
	TenantID    string   `json:"tenantId"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
}

type Issuer struct {
	users  storage.UserBackend
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger
}

type Option func(*Issuer)

func WithIssuer(issuer string) Option {
	return func(i *Issuer) {
		if issuer != "" {
			i.issuer = issuer
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(i *Issuer) {
		i.logger = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func New(users storage.UserBackend, secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token issuing requires an hmac secret")
	}

	i := &Issuer{
		users:  users,
		secret: []byte(secret),
		issuer: DefaultIssuer,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue verifies the password of the user and returns a signed token carrying the user's
// roles as scopes.
func (i *Issuer) Issue(ctx context.Context, tenantID, username, password string) (*Token, error) {
	ctx, span := tracer.Start(ctx, "issuer.Issue")
	defer span.End()

	user, err := i.users.ReadUser(ctx, tenantID, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("read user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled || user.Locked {
		return nil, ErrInvalidCredentials
	}

	now := i.now()
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":    i.issuer,
		"sub":    user.Username,
		"iat":    now.Unix(),
		"exp":    now.Add(i.ttl).Unix(),
		"tenant": user.TenantID,
		"scope":  strings.Join(Scopes(user.Roles), " "),
	}).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := i.users.RecordLogin(ctx, user.ID, now); err != nil {
		i.logger.WarnWithContext(ctx, "failed to record login",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	return &Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(i.ttl.Seconds()),
		TenantID:    user.TenantID,
		Username:    user.Username,
		Roles:       user.Roles,
	}, nil
}

// Scopes turns roles into token scopes by dropping the ROLE_ prefix.
func Scopes(roles []string) []string {
	scopes := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		scopes = append(scopes, strings.TrimPrefix(role, rolePrefix))
	}
	return scopes
}

// Package storage contains storage interfaces and implementations
//
//go:generate mockgen -source storage.go -destination ../../internal/mocks/mock_storage.go -package mocks GatewayDatastore
package storage

import (
	"context"
	"time"
)

// PersistedQuery is a stored GraphQL document addressed by an opaque client-chosen id.
type PersistedQuery struct {
	QueryID       string
	Document      string
	OperationName string
	CreatedAt     time.Time
	LastUsedAt    time.Time
	UseCount      int64
}

// Credential is an API key that callers present in a request header.
type Credential struct {
	ID                 string
	Token              string
	DisplayName        string
	Enabled            bool
	RateLimitPerMinute int
	CreatedAt          time.Time
}

// User is an account that may exchange its password for a bearer token.
type User struct {
	ID           string
	TenantID     string
	Username     string
	PasswordHash string
	Roles        []string
	Enabled      bool
	Locked       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// PersistedQueryBackend stores GraphQL documents for the persisted query protocol.
type PersistedQueryBackend interface {
	// ReadPersistedQuery returns the record stored under queryID, or ErrNotFound.
	// Reads never change LastUsedAt or UseCount.
	ReadPersistedQuery(ctx context.Context, queryID string) (*PersistedQuery, error)

	// UpsertPersistedQuery inserts the document or, if queryID already exists, replaces its
	// document and operation name, sets LastUsedAt to now and increments UseCount.
	UpsertPersistedQuery(ctx context.Context, queryID, document, operationName string) error
}

// CredentialBackend looks up API keys.
type CredentialBackend interface {
	// ReadCredential returns the credential whose token equals the given token, or
	// ErrNotFound. Disabled credentials are returned with Enabled set to false.
	ReadCredential(ctx context.Context, token string) (*Credential, error)

	// WriteCredential stores a new credential. It returns ErrCollision if the token exists.
	WriteCredential(ctx context.Context, credential *Credential) error
}

// UserBackend stores accounts used to issue bearer tokens.
type UserBackend interface {
	// ReadUser returns the user of the tenant, or ErrNotFound.
	ReadUser(ctx context.Context, tenantID, username string) (*User, error)

	// WriteUser stores a new user. It returns ErrCollision if the tenant already has the username.
	WriteUser(ctx context.Context, user *User) error

	// RecordLogin sets LastLoginAt of the user.
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}

// GatewayDatastore is the full set of storage the gateway needs.
type GatewayDatastore interface {
	PersistedQueryBackend
	CredentialBackend
	UserBackend

	// IsReady reports whether the datastore is ready to accept traffic.
	IsReady(ctx context.Context) (ReadinessStatus, error)

	// Close closes the datastore and cleans up any residual resources.
	Close()
}

// ReadinessStatus represents the readiness status of the datastore.
type ReadinessStatus struct {
	// Message is a human-friendly status message for the current datastore status.
	Message string

	IsReady bool
}

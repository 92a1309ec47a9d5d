// Package memory contains an in-memory implementation of storage.GatewayDatastore. It is
// meant for development and tests; data does not survive a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var tracer = otel.Tracer("gqlgate/pkg/storage/memory")

type StorageOption func(ds *MemoryBackend)

// WithClock overrides the source of timestamps.
func WithClock(now func() time.Time) StorageOption {
	return func(ds *MemoryBackend) { ds.now = now }
}

// MemoryBackend provides an ephemeral memory-backed implementation of [storage.GatewayDatastore].
type MemoryBackend struct {
	now func() time.Time

	// map: query id => persisted query
	persistedQueries map[string]*storage.PersistedQuery // GUARDED_BY(mutexQueries).
	mutexQueries     sync.RWMutex

	// map: token => credential
	credentials      map[string]*storage.Credential // GUARDED_BY(mutexCredentials).
	mutexCredentials sync.RWMutex

	// map: tenant|username => user
	users      map[string]*storage.User // GUARDED_BY(mutexUsers).
	mutexUsers sync.RWMutex
}

var _ storage.GatewayDatastore = (*MemoryBackend)(nil)

// New creates a new [MemoryBackend] given the options.
func New(opts ...StorageOption) *MemoryBackend {
	ds := &MemoryBackend{
		now:              time.Now,
		persistedQueries: make(map[string]*storage.PersistedQuery),
		credentials:      make(map[string]*storage.Credential),
		users:            make(map[string]*storage.User),
	}

	for _, opt := range opts {
		opt(ds)
	}

	return ds
}

// ReadPersistedQuery see [storage.PersistedQueryBackend].ReadPersistedQuery.
func (s *MemoryBackend) ReadPersistedQuery(ctx context.Context, queryID string) (*storage.PersistedQuery, error) {
	_, span := tracer.Start(ctx, "memory.ReadPersistedQuery")
	defer span.End()

	s.mutexQueries.RLock()
	defer s.mutexQueries.RUnlock()

	pq, ok := s.persistedQueries[queryID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	clone := *pq
	return &clone, nil
}

// UpsertPersistedQuery see [storage.PersistedQueryBackend].UpsertPersistedQuery.
func (s *MemoryBackend) UpsertPersistedQuery(ctx context.Context, queryID, document, operationName string) error {
	_, span := tracer.Start(ctx, "memory.UpsertPersistedQuery")
	defer span.End()

	s.mutexQueries.Lock()
	defer s.mutexQueries.Unlock()

	now := s.now().UTC()

	existing, ok := s.persistedQueries[queryID]
	if !ok {
		s.persistedQueries[queryID] = &storage.PersistedQuery{
			QueryID:       queryID,
			Document:      document,
			OperationName: operationName,
			CreatedAt:     now,
			LastUsedAt:    now,
			UseCount:      1,
		}
		return nil
	}

	existing.Document = document
	existing.OperationName = operationName
	if now.After(existing.LastUsedAt) {
		existing.LastUsedAt = now
	}
	existing.UseCount++

	return nil
}

// ReadCredential see [storage.CredentialBackend].ReadCredential.
func (s *MemoryBackend) ReadCredential(ctx context.Context, token string) (*storage.Credential, error) {
	_, span := tracer.Start(ctx, "memory.ReadCredential")
	defer span.End()

	s.mutexCredentials.RLock()
	defer s.mutexCredentials.RUnlock()

	c, ok := s.credentials[token]
	if !ok {
		return nil, storage.ErrNotFound
	}

	clone := *c
	return &clone, nil
}

// WriteCredential see [storage.CredentialBackend].WriteCredential.
func (s *MemoryBackend) WriteCredential(ctx context.Context, credential *storage.Credential) error {
	_, span := tracer.Start(ctx, "memory.WriteCredential")
	defer span.End()

	s.mutexCredentials.Lock()
	defer s.mutexCredentials.Unlock()

	if _, ok := s.credentials[credential.Token]; ok {
		return storage.ErrCollision
	}

	clone := *credential
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = s.now().UTC()
	}
	s.credentials[clone.Token] = &clone

	return nil
}

func userKey(tenantID, username string) string {
	return strings.Join([]string{tenantID, username}, "|")
}

// ReadUser see [storage.UserBackend].ReadUser.
func (s *MemoryBackend) ReadUser(ctx context.Context, tenantID, username string) (*storage.User, error) {
	_, span := tracer.Start(ctx, "memory.ReadUser")
	defer span.End()

	s.mutexUsers.RLock()
	defer s.mutexUsers.RUnlock()

	u, ok := s.users[userKey(tenantID, username)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	clone := *u
	clone.Roles = append([]string(nil), u.Roles...)
	return &clone, nil
}

// WriteUser see [storage.UserBackend].WriteUser.
func (s *MemoryBackend) WriteUser(ctx context.Context, user *storage.User) error {
	_, span := tracer.Start(ctx, "memory.WriteUser")
	defer span.End()

	s.mutexUsers.Lock()
	defer s.mutexUsers.Unlock()

	key := userKey(user.TenantID, user.Username)
	if _, ok := s.users[key]; ok {
		return storage.ErrCollision
	}

	now := s.now().UTC()
	clone := *user
	clone.Roles = append([]string(nil), user.Roles...)
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	s.users[key] = &clone

	return nil
}

// RecordLogin see [storage.UserBackend].RecordLogin.
func (s *MemoryBackend) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, span := tracer.Start(ctx, "memory.RecordLogin")
	defer span.End()

	s.mutexUsers.Lock()
	defer s.mutexUsers.Unlock()

	for _, u := range s.users {
		if u.ID == userID {
			at := at.UTC()
			u.LastLoginAt = &at
			u.UpdatedAt = at
			return nil
		}
	}

	return storage.ErrNotFound
}

// IsReady see [storage.GatewayDatastore].IsReady.
func (s *MemoryBackend) IsReady(context.Context) (storage.ReadinessStatus, error) {
	return storage.ReadinessStatus{IsReady: true}, nil
}

// Close does not do anything for [MemoryBackend].
func (s *MemoryBackend) Close() {}

package mocks

import (
	"context"
	"time"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

// slowDataStorage delays every read by readDelay before delegating to the wrapped datastore.
type slowDataStorage struct {
	readDelay time.Duration
	storage.GatewayDatastore
}

// NewMockSlowDataStorage returns a wrapper of a datastore that adds artificial delays into reads.
func NewMockSlowDataStorage(ds storage.GatewayDatastore, readDelay time.Duration) storage.GatewayDatastore {
	return &slowDataStorage{
		readDelay:        readDelay,
		GatewayDatastore: ds,
	}
}

func (m *slowDataStorage) sleep(ctx context.Context) error {
	select {
	case <-time.After(m.readDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *slowDataStorage) ReadPersistedQuery(ctx context.Context, queryID string) (*storage.PersistedQuery, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	return m.GatewayDatastore.ReadPersistedQuery(ctx, queryID)
}

func (m *slowDataStorage) ReadCredential(ctx context.Context, token string) (*storage.Credential, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	return m.GatewayDatastore.ReadCredential(ctx, token)
}

func (m *slowDataStorage) ReadUser(ctx context.Context, tenantID, username string) (*storage.User, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	return m.GatewayDatastore.ReadUser(ctx, tenantID, username)
}

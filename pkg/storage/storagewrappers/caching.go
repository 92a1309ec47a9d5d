package storagewrappers

import (
	"context"
	"crypto/sha256"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const (
	DefaultCredentialCacheTTL         = time.Minute
	DefaultCredentialNegativeCacheTTL = 5 * time.Second
)

var _ storage.GatewayDatastore = (*CachedDatastore)(nil)

// credentialEntry records the digest of the token it was cached for, so a collision on
// the shorter cache key never serves another token's credential.
type credentialEntry struct {
	digest     [sha256.Size]byte
	credential *storage.Credential
}

// CachedDatastore caches credential lookups in front of a datastore. Unknown tokens are
// cached too, for a shorter period, so that repeated bad keys do not reach the database.
type CachedDatastore struct {
	storage.GatewayDatastore

	lookupGroup singleflight.Group
	cache       storage.InMemoryCache[credentialEntry]
	ttl         time.Duration
	negativeTTL time.Duration
}

type CachedDatastoreOpt func(*CachedDatastore)

func WithCredentialCacheTTL(ttl time.Duration) CachedDatastoreOpt {
	return func(c *CachedDatastore) {
		c.ttl = ttl
	}
}

func WithCredentialNegativeCacheTTL(ttl time.Duration) CachedDatastoreOpt {
	return func(c *CachedDatastore) {
		c.negativeTTL = ttl
	}
}

// NewCachedDatastore returns a wrapper over inner that caches up to maxSize credential lookups.
func NewCachedDatastore(inner storage.GatewayDatastore, maxSize int64, opts ...CachedDatastoreOpt) (*CachedDatastore, error) {
	cache, err := storage.NewInMemoryLRUCache[credentialEntry](storage.WithMaxCacheSize[credentialEntry](maxSize))
	if err != nil {
		return nil, err
	}

	c := &CachedDatastore{
		GatewayDatastore: inner,
		cache:            cache,
		ttl:              DefaultCredentialCacheTTL,
		negativeTTL:      DefaultCredentialNegativeCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// credentialCacheKey keeps raw tokens out of the cache keys.
func credentialCacheKey(token string) string {
	return "credential:" + strconv.FormatUint(xxhash.Sum64String(token), 16)
}

// ReadCredential see [storage.CredentialBackend].ReadCredential.
func (c *CachedDatastore) ReadCredential(ctx context.Context, token string) (*storage.Credential, error) {
	key := credentialCacheKey(token)
	digest := sha256.Sum256([]byte(token))
	if entry, ok := c.cache.Get(key); ok && entry.digest == digest {
		if entry.credential == nil {
			return nil, storage.ErrNotFound
		}
		return entry.credential, nil
	}

	v, err, _ := c.lookupGroup.Do(string(digest[:]), func() (interface{}, error) {
		return c.GatewayDatastore.ReadCredential(ctx, token)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) && c.negativeTTL > 0 {
			c.cache.Set(key, credentialEntry{digest: digest}, c.negativeTTL)
		}
		return nil, err
	}

	credential := v.(*storage.Credential)
	c.cache.Set(key, credentialEntry{digest: digest, credential: credential}, c.ttl)

	return credential, nil
}

// WriteCredential see [storage.CredentialBackend].WriteCredential.
func (c *CachedDatastore) WriteCredential(ctx context.Context, credential *storage.Credential) error {
	if err := c.GatewayDatastore.WriteCredential(ctx, credential); err != nil {
		return err
	}
	c.cache.Delete(credentialCacheKey(credential.Token))
	return nil
}

// Close closes the datastore and cleans up any residual resources.
func (c *CachedDatastore) Close() {
	c.cache.Stop()
	c.GatewayDatastore.Close()
}

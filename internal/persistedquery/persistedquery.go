// Package persistedquery implements the persisted query protocol: clients register a
// document under an id once and later send only the id.
package persistedquery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/middleware/envelope"
	serverErrors "github.com/fanout-labs/gqlgate/pkg/server/errors"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var tracer = otel.Tracer("internal/persistedquery")

var (
	lookupCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "persisted_query_lookups_total",
		Help:      "The total number of persisted query lookups labeled by outcome (hit, miss, error) and tier.",
	}, []string{"outcome", "tier"})

	upsertCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "persisted_query_upserts_total",
		Help:      "The total number of persisted query registrations labeled by outcome (stored, unparseable, failed).",
	}, []string{"outcome"})
)

// ErrHashMismatch is returned when a document is sent with an Apollo hash that is not its
// SHA-256 digest.
var ErrHashMismatch = serverErrors.BadRequest("provided sha does not match query")

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 10 * time.Minute
)

// Cache resolves and registers persisted queries. A read-through in-memory tier sits in
// front of the backend.
type Cache struct {
	backend storage.PersistedQueryBackend
	tier    storage.InMemoryCache[string]
	ttl     time.Duration
	logger  logger.Logger
}

type Option func(*cacheConfig)

type cacheConfig struct {
	size   int64
	ttl    time.Duration
	logger logger.Logger
}

// WithCacheSize sets the number of documents kept in memory. Zero disables the tier.
func WithCacheSize(size int64) Option {
	return func(c *cacheConfig) {
		c.size = size
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *cacheConfig) {
		c.ttl = ttl
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *cacheConfig) {
		c.logger = l
	}
}

func New(backend storage.PersistedQueryBackend, opts ...Option) (*Cache, error) {
	cfg := &cacheConfig{
		size:   defaultCacheSize,
		ttl:    defaultCacheTTL,
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Cache{
		backend: backend,
		ttl:     cfg.ttl,
		logger:  cfg.logger,
	}
	if cfg.size > 0 {
		tier, err := storage.NewInMemoryLRUCache(storage.WithMaxCacheSize[string](cfg.size))
		if err != nil {
			return nil, err
		}
		c.tier = tier
	}
	return c, nil
}

// Resolve returns the document stored under id. A miss is not an error; backend failures
// are logged and reported as a miss.
func (c *Cache) Resolve(ctx context.Context, id string) (string, bool) {
	ctx, span := tracer.Start(ctx, "persistedquery.Resolve")
	defer span.End()

	if c.tier != nil {
		if document, ok := c.tier.Get(id); ok {
			lookupCounter.WithLabelValues("hit", "memory").Inc()
			span.SetAttributes(attribute.Bool("hit", true))
			return document, true
		}
	}

	record, err := c.backend.ReadPersistedQuery(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lookupCounter.WithLabelValues("miss", "datastore").Inc()
		} else {
			lookupCounter.WithLabelValues("error", "datastore").Inc()
			c.logger.ErrorWithContext(ctx, "failed to read persisted query",
				zap.String("persisted_query_id", id),
				zap.Error(err))
		}
		span.SetAttributes(attribute.Bool("hit", false))
		return "", false
	}

	lookupCounter.WithLabelValues("hit", "datastore").Inc()
	span.SetAttributes(attribute.Bool("hit", true))
	if c.tier != nil {
		c.tier.Set(id, record.Document, c.ttl)
	}
	return record.Document, true
}

// Upsert registers document under id. It never fails the request: documents that do not
// parse are skipped and storage failures are logged.
func (c *Cache) Upsert(ctx context.Context, id, document, operationName string) {
	ctx, span := tracer.Start(ctx, "persistedquery.Upsert")
	defer span.End()

	parsed, err := parser.ParseQuery(&ast.Source{Name: id, Input: document})
	if err != nil {
		upsertCounter.WithLabelValues("unparseable").Inc()
		c.logger.WarnWithContext(ctx, "not persisting unparseable document",
			zap.String("persisted_query_id", id),
			zap.Error(err))
		return
	}
	if operationName == "" {
		operationName = soleOperationName(parsed)
	}

	if err := c.backend.UpsertPersistedQuery(ctx, id, document, operationName); err != nil {
		upsertCounter.WithLabelValues("failed").Inc()
		span.RecordError(err)
		c.logger.WarnWithContext(ctx, "failed to store persisted query",
			zap.String("persisted_query_id", id),
			zap.Error(err))
		return
	}

	upsertCounter.WithLabelValues("stored").Inc()
	if c.tier != nil {
		c.tier.Set(id, document, c.ttl)
	}
	c.logger.DebugWithContext(ctx, "stored persisted query",
		zap.String("persisted_query_id", id),
		zap.String("operation_name", operationName))
}

// Apply resolves or registers the persisted query of req.
//
//   - no id: req is left untouched.
//   - id without a document: the stored document is injected when found. On a miss req
//     still has no document and execution reports the missing query.
//   - id with a document: the document is executed as sent and its registration is
//     recorded on req. [Cache.Register] stores it later in the chain.
func (c *Cache) Apply(ctx context.Context, req *envelope.Request) error {
	id, apollo := req.PersistedQueryID()
	if id == "" {
		return nil
	}

	if !req.HasDocument() {
		if document, ok := c.Resolve(ctx, id); ok {
			req.Query = document
		}
		return nil
	}

	if apollo && !strings.EqualFold(id, Hash(req.Query)) {
		return ErrHashMismatch
	}

	req.Registration = &envelope.Registration{ID: id, Document: req.Query, OperationName: req.OperationName}
	return nil
}

// Register stores the registration recorded on req by [Cache.Apply], if any.
func (c *Cache) Register(ctx context.Context, req *envelope.Request) {
	reg := req.Registration
	if reg == nil {
		return
	}
	req.Registration = nil
	c.Upsert(ctx, reg.ID, reg.Document, reg.OperationName)
}

// Middleware applies the persisted query protocol to the envelope decoded earlier in the
// chain.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if req, ok := envelope.RequestFromContext(r.Context()); ok {
			if err := c.Apply(r.Context(), req); err != nil {
				serverErrors.WriteError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterMiddleware stores pending registrations. It must run after authentication so
// that rejected requests never overwrite a stored document.
func (c *Cache) RegisterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if req, ok := envelope.RequestFromContext(r.Context()); ok {
			c.Register(r.Context(), req)
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases the in-memory tier.
func (c *Cache) Close() {
	if c.tier != nil {
		c.tier.Stop()
	}
}

// Hash returns the hex encoded SHA-256 digest of document.
func Hash(document string) string {
	sum := sha256.Sum256([]byte(document))
	return hex.EncodeToString(sum[:])
}

func soleOperationName(doc *ast.QueryDocument) string {
	if len(doc.Operations) != 1 {
		return ""
	}
	return doc.Operations[0].Name
}

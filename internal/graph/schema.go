// Package graph executes GraphQL operations against the downstream resource services.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/batch"
	"github.com/fanout-labs/gqlgate/pkg/logger"
)

//go:embed schema.graphql
var schemaSDL string

const (
	DefaultMaxParallelism = 10
	DefaultMaxDepth       = 10
)

// SDL returns the schema served by the gateway.
func SDL() string {
	return schemaSDL
}

type Option func(*Handler)

func WithMaxParallelism(n int) Option {
	return func(h *Handler) {
		h.maxParallelism = n
	}
}

// WithMaxDepth rejects operations nested deeper than n. Zero disables the check.
func WithMaxDepth(n int) Option {
	return func(h *Handler) {
		h.maxDepth = n
	}
}

// WithBatchOptions configures the loaders built for every request.
func WithBatchOptions(opts ...batch.Option) Option {
	return func(h *Handler) {
		h.batchOpts = opts
	}
}

func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// panicLogger reports resolver panics through the gateway's logger.
type panicLogger struct {
	logger logger.Logger
}

func (p panicLogger) LogPanic(ctx context.Context, value interface{}) {
	p.logger.ErrorWithContext(ctx, "panic while resolving field",
		zap.Any("panic", value),
		zap.StackSkip("stack", 2))
}

func parseSchema(root *Resolver, maxParallelism, maxDepth int, l logger.Logger) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.MaxParallelism(maxParallelism),
		graphql.Logger(panicLogger{logger: l}),
	}
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}

	schema, err := graphql.ParseSchema(schemaSDL, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

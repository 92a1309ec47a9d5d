// Package batch coalesces individual "fetch by key" calls made during one request into a
// single downstream call per batching window, then redistributes the results.
//
// Two resolution policies are provided. A scalar resolver (NewScalar) maps each key to at
// most one value and leaves unknown keys out of the result. A grouping resolver
// (NewGrouping) maps every requested key to a slice, using an empty slice for keys without
// related records. Resolvers hold per-request state and must not be shared across requests.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultWait     = 2 * time.Millisecond
	DefaultMaxBatch = 100
)

var tracer = otel.Tracer("github.com/fanout-labs/gqlgate/pkg/batch")

var (
	batchSizeHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gqlgate",
		Name:      "batch_size",
		Help:      "The number of distinct keys sent to a downstream service in one batched fetch.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"loader"})

	batchFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gqlgate",
		Name:      "batch_fetch_failures_total",
		Help:      "The number of batched fetches that failed.",
	}, []string{"loader"})
)

// FetchFunc retrieves the records for a set of distinct keys in one call. The records may
// come back in any order and may omit keys.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// FetchError is delivered to every caller waiting on a window whose fetch failed.
type FetchError struct {
	Loader string
	Keys   int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("batch fetch '%s' for %d keys failed: %v", e.Loader, e.Keys, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type config struct {
	name     string
	wait     time.Duration
	maxBatch int
}

type Option func(*config)

// WithName labels the resolver in metrics, spans and errors.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithWait sets how long a window stays open after its first key was queued.
func WithWait(wait time.Duration) Option {
	return func(c *config) {
		if wait > 0 {
			c.wait = wait
		}
	}
}

// WithMaxBatch caps the number of distinct keys per window. A full window is dispatched
// immediately.
func WithMaxBatch(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBatch = n
		}
	}
}

// Resolver batches Load calls. R is the per-key result: V for scalar resolvers and []V for
// grouping resolvers.
type Resolver[K comparable, R any] struct {
	cfg   config
	fetch func(ctx context.Context, keys []K) (map[K]R, error)

	mu      sync.Mutex
	current *window[K, R]
}

type window[K comparable, R any] struct {
	ctx        context.Context
	keys       []K
	seen       map[K]struct{}
	timer      *time.Timer
	dispatched bool

	done   chan struct{}
	result map[K]R
	err    error
}

func newResolver[K comparable, R any](fetch func(context.Context, []K) (map[K]R, error), opts ...Option) *Resolver[K, R] {
	cfg := config{
		name:     "unnamed",
		wait:     DefaultWait,
		maxBatch: DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Resolver[K, R]{cfg: cfg, fetch: fetch}
}

// NewScalar returns a one-to-one resolver. keyOf extracts the key a record answers for.
// Keys the downstream service does not return are absent from the results.
func NewScalar[K comparable, V any](fetch FetchFunc[K, V], keyOf func(V) K, opts ...Option) *Resolver[K, V] {
	return newResolver(func(ctx context.Context, keys []K) (map[K]V, error) {
		values, err := fetch(ctx, keys)
		if err != nil {
			return nil, err
		}
		return IndexScalar(keys, values, keyOf), nil
	}, opts...)
}

// NewGrouping returns a one-to-many resolver. groupKeyOf extracts the correlating key
// (usually a foreign key) of a record. Every requested key is present in the results.
func NewGrouping[K comparable, V any](fetch FetchFunc[K, V], groupKeyOf func(V) K, opts ...Option) *Resolver[K, []V] {
	return newResolver(func(ctx context.Context, keys []K) (map[K][]V, error) {
		values, err := fetch(ctx, keys)
		if err != nil {
			return nil, err
		}
		return IndexGrouping(keys, values, groupKeyOf), nil
	}, opts...)
}

// Load queues the key in the current window and waits for the window's fetch. The boolean
// is false when the key has no result (only possible for scalar resolvers).
func (r *Resolver[K, R]) Load(ctx context.Context, key K) (R, bool, error) {
	var zero R

	windows := r.enqueue(ctx, []K{key})
	w := windows[0]

	select {
	case <-w.done:
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}

	if w.err != nil {
		return zero, false, w.err
	}

	v, ok := w.result[key]
	return v, ok, nil
}

// LoadMany queues all keys and returns the merged results of every window they landed in.
func (r *Resolver[K, R]) LoadMany(ctx context.Context, keys []K) (map[K]R, error) {
	out := make(map[K]R, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	for _, w := range r.enqueue(ctx, keys) {
		select {
		case <-w.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if w.err != nil {
			return nil, w.err
		}

		for _, k := range w.keys {
			if v, ok := w.result[k]; ok {
				out[k] = v
			}
		}
	}

	return out, nil
}

func (r *Resolver[K, R]) enqueue(ctx context.Context, keys []K) []*window[K, R] {
	var (
		windows []*window[K, R]
		full    []*window[K, R]
	)

	r.mu.Lock()
	for _, key := range keys {
		w := r.current
		if w == nil {
			w = &window[K, R]{
				ctx:  ctx,
				seen: make(map[K]struct{}),
				done: make(chan struct{}),
			}
			w.timer = time.AfterFunc(r.cfg.wait, func() { r.flush(w) })
			r.current = w
		}

		if len(windows) == 0 || windows[len(windows)-1] != w {
			windows = append(windows, w)
		}

		if _, dup := w.seen[key]; dup {
			continue
		}
		w.seen[key] = struct{}{}
		w.keys = append(w.keys, key)

		if len(w.keys) >= r.cfg.maxBatch {
			w.dispatched = true
			w.timer.Stop()
			r.current = nil
			full = append(full, w)
		}
	}
	r.mu.Unlock()

	for _, w := range full {
		go r.dispatch(w)
	}

	return windows
}

func (r *Resolver[K, R]) flush(w *window[K, R]) {
	r.mu.Lock()
	if w.dispatched {
		r.mu.Unlock()
		return
	}
	w.dispatched = true
	if r.current == w {
		r.current = nil
	}
	r.mu.Unlock()

	r.dispatch(w)
}

func (r *Resolver[K, R]) dispatch(w *window[K, R]) {
	defer close(w.done)

	ctx, span := tracer.Start(w.ctx, "batch.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("loader", r.cfg.name),
		attribute.Int("keys", len(w.keys)),
	)

	batchSizeHistogram.WithLabelValues(r.cfg.name).Observe(float64(len(w.keys)))

	var pc panics.Catcher
	pc.Try(func() {
		w.result, w.err = r.fetch(ctx, w.keys)
	})
	if recovered := pc.Recovered(); recovered != nil {
		w.result, w.err = nil, recovered.AsError()
	}

	if w.err != nil {
		batchFailuresCounter.WithLabelValues(r.cfg.name).Inc()
		span.RecordError(w.err)
		span.SetStatus(codes.Error, w.err.Error())
		w.err = &FetchError{Loader: r.cfg.name, Keys: len(w.keys), Err: w.err}
	}
}

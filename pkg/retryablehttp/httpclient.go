// Package retryablehttp builds HTTP clients that retry transient failures with
// exponential backoff and log through the gateway logger.
package retryablehttp

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/logger"
)

const (
	DefaultRetryMax     = 2
	DefaultRetryWaitMin = 50 * time.Millisecond
	DefaultRetryWaitMax = time.Second
	DefaultTimeout      = 5 * time.Second
)

type config struct {
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	transport    http.RoundTripper
	logger       logger.Logger
}

type Option func(*config)

// WithRetryMax sets how many times a request is retried after the first attempt.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}

func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = minWait
		c.retryWaitMax = maxWait
	}
}

// WithTimeout bounds every attempt, not the whole retried call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithTransport wraps the transport of the underlying client, e.g. for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// NewClient returns a retrying client. Connection errors, 429 and 5xx responses are
// retried; other responses are returned as is.
func NewClient(opts ...Option) *retryablehttp.Client {
	cfg := &config{
		retryMax:     DefaultRetryMax,
		retryWaitMin: DefaultRetryWaitMin,
		retryWaitMax: DefaultRetryWaitMax,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.retryMax
	client.RetryWaitMin = cfg.retryWaitMin
	client.RetryWaitMax = cfg.retryWaitMax
	client.HTTPClient.Timeout = cfg.timeout
	if cfg.transport != nil {
		client.HTTPClient.Transport = cfg.transport
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.logger != nil {
		client.Logger = &leveledLogger{logger: cfg.logger}
	} else {
		client.Logger = nil
	}
	return client
}

// NewStandardClient is NewClient exposed as a plain *http.Client.
func NewStandardClient(opts ...Option) *http.Client {
	return NewClient(opts...).StandardClient()
}

// leveledLogger adapts logger.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger logger.Logger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues)...)
}

func fields(keysAndValues []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		out = append(out, zap.Any(key, keysAndValues[i+1]))
	}
	return out
}

// Package config contains all knobs and defaults used to configure the gateway when running
// as a standalone server.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	SchemeJWT    = "jwt"
	SchemeAPIKey = "apikey"

	DefaultMaxParallelism        = 10
	DefaultMaxDepth              = 10
	DefaultPersistedQueryCache   = 1000
	DefaultPersistedQueryTTL     = 10 * time.Minute
	DefaultBatchWait             = 2 * time.Millisecond
	DefaultMaxBatch              = 100
	DefaultCredentialCacheSize   = 10000
	DefaultCredentialCacheTTL    = 30 * time.Second
	DefaultCredentialNegativeTTL = 5 * time.Second
	DefaultServiceTimeout        = 5 * time.Second
	DefaultServiceRetryMax       = 2
	DefaultTokenTTL              = time.Hour
	DefaultTokenIssuer           = "gqlgate"
)

var (
	supportedSchemes  = []string{SchemeJWT, SchemeAPIKey}
	supportedEngines  = []string{"memory", "postgres", "mysql", "sqlite"}
	supportedLogLevel = []string{"none", "debug", "info", "warn", "error", "panic", "fatal"}
)

// HTTPConfig defines configurations for the HTTP server.
type HTTPConfig struct {
	Addr string
	TLS  *TLSConfig

	CORSAllowedOrigins []string
	CORSAllowedHeaders []string
}

// TLSConfig defines configuration specific to Transport Layer Security (TLS) settings.
type TLSConfig struct {
	Enabled  bool
	CertPath string `mapstructure:"cert"`
	KeyPath  string `mapstructure:"key"`
}

// GraphQLConfig defines the limits of the GraphQL executor.
type GraphQLConfig struct {
	// MaxParallelism is the number of fields resolved concurrently per request.
	MaxParallelism int

	// MaxDepth rejects operations nested deeper than this. Zero disables the check.
	MaxDepth int

	// Playground serves the GraphQL playground on /playground.
	Playground bool
}

// AuthnConfig defines how callers are authenticated.
type AuthnConfig struct {
	// Schemes is the ordered list of schemes tried on every request (e.g. 'jwt', 'apikey').
	Schemes []string

	// Required rejects requests for which no scheme found a credential.
	Required bool

	JWT    AuthnJWTConfig    `mapstructure:"jwt"`
	APIKey AuthnAPIKeyConfig `mapstructure:"apikey"`
}

// AuthnJWTConfig configures bearer token validation. Exactly one of Secret and JWKSURI
// (or Issuer, to discover it) must be set when the 'jwt' scheme is enabled.
type AuthnJWTConfig struct {
	// Secret validates HS256 tokens. It also enables token issuing on /auth/token.
	Secret string

	// JWKSURI validates asymmetric tokens against a key set.
	JWKSURI string `mapstructure:"jwksUri"`

	// Issuer is checked against the 'iss' claim when set. Without JWKSURI it is also used
	// to discover the key set through OpenID Connect discovery.
	Issuer string

	Audience string

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

// AuthnAPIKeyConfig configures API key authentication.
type AuthnAPIKeyConfig struct {
	Header string

	// StaticKey is accepted in addition to stored keys.
	StaticKey string

	// File replaces the datastore as the source of API keys.
	File string

	EnforceRateLimit bool
}

// PersistedQueriesConfig configures the persisted query protocol.
type PersistedQueriesConfig struct {
	Enabled   bool
	CacheSize int64
	CacheTTL  time.Duration
}

// BatchConfig configures the loaders that coalesce downstream lookups.
type BatchConfig struct {
	// Wait is how long a batch collects keys before it is dispatched.
	Wait time.Duration

	// MaxBatch dispatches a batch early once it holds this many keys.
	MaxBatch int
}

// DatastoreConfig defines configurations for datastore specific settings.
type DatastoreConfig struct {
	// Engine is the datastore engine to use (e.g. 'memory', 'postgres', 'mysql', 'sqlite')
	Engine   string
	URI      string
	Username string
	Password string

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections to the datastore in the idle connection
	// pool.
	MaxIdleConns int

	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// MaxConcurrentReads caps concurrent reads against the datastore. Zero is unbounded.
	MaxConcurrentReads uint32

	CredentialCacheSize        int64
	CredentialCacheTTL         time.Duration
	CredentialNegativeCacheTTL time.Duration

	// Metrics exports database/sql pool statistics.
	Metrics bool
}

// ServicesConfig points the gateway at the resource services.
type ServicesConfig struct {
	Orders    string
	Inventory string
	Payments  string
	Timeout   time.Duration
	RetryMax  int
}

// LogConfig defines configurations for log specific settings. For production we recommend
// using the 'json' log format.
type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string

	// SlowTraceThreshold only exports traces at least this slow. Zero exports all.
	SlowTraceThreshold time.Duration
}

type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

type OTLPTraceTLSConfig struct {
	Enabled bool
}

// MetricConfig defines configurations for serving Prometheus metrics.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

type Config struct {
	HTTP             HTTPConfig
	GraphQL          GraphQLConfig `mapstructure:"graphql"`
	Authn            AuthnConfig
	PersistedQueries PersistedQueriesConfig
	Batch            BatchConfig
	Datastore        DatastoreConfig
	Services         ServicesConfig
	Log              LogConfig
	Trace            TraceConfig
	Metrics          MetricConfig
}

func (cfg *Config) Verify() error {
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	if !slices.Contains(supportedLogLevel, cfg.Log.Level) {
		return fmt.Errorf("config 'log.level' must be one of ['%s']", strings.Join(supportedLogLevel, "', '"))
	}

	if cfg.HTTP.TLS != nil && cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.CertPath == "" || cfg.HTTP.TLS.KeyPath == "" {
			return errors.New("'http.tls.cert' and 'http.tls.key' configs must be set")
		}
	}

	if !slices.Contains(supportedEngines, cfg.Datastore.Engine) {
		return fmt.Errorf("config 'datastore.engine' must be one of ['%s']", strings.Join(supportedEngines, "', '"))
	}
	if cfg.Datastore.Engine != "memory" && cfg.Datastore.URI == "" {
		return fmt.Errorf("config 'datastore.uri' is required for engine '%s'", cfg.Datastore.Engine)
	}

	if err := cfg.verifyAuthn(); err != nil {
		return err
	}

	if cfg.GraphQL.MaxParallelism < 1 {
		return errors.New("config 'graphql.maxParallelism' must be at least 1")
	}
	if cfg.GraphQL.MaxDepth < 0 {
		return errors.New("config 'graphql.maxDepth' must not be negative")
	}

	if cfg.Batch.Wait < 0 {
		return errors.New("config 'batch.wait' must not be negative")
	}
	if cfg.Batch.MaxBatch < 0 {
		return errors.New("config 'batch.maxBatch' must not be negative")
	}

	if cfg.PersistedQueries.CacheSize < 0 {
		return errors.New("config 'persistedQueries.cacheSize' must not be negative")
	}

	for name, raw := range map[string]string{
		"services.orders":    cfg.Services.Orders,
		"services.inventory": cfg.Services.Inventory,
		"services.payments":  cfg.Services.Payments,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config '%s' must be an absolute http(s) URL", name)
		}
	}
	if cfg.Services.RetryMax < 0 {
		return errors.New("config 'services.retryMax' must not be negative")
	}

	if cfg.Trace.Enabled && (cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1) {
		return errors.New("config 'trace.sampleRatio' must be between 0 and 1")
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("config 'metrics.addr' is invalid: %w", err)
		}
	}

	return nil
}

func (cfg *Config) verifyAuthn() error {
	seen := map[string]bool{}
	for _, scheme := range cfg.Authn.Schemes {
		if !slices.Contains(supportedSchemes, scheme) {
			return fmt.Errorf("config 'authn.schemes' contains unknown scheme '%s'", scheme)
		}
		if seen[scheme] {
			return fmt.Errorf("config 'authn.schemes' lists '%s' twice", scheme)
		}
		seen[scheme] = true
	}

	if cfg.Authn.Required && len(cfg.Authn.Schemes) == 0 {
		return errors.New("config 'authn.required' needs at least one scheme in 'authn.schemes'")
	}

	if seen[SchemeJWT] {
		jwt := cfg.Authn.JWT
		if jwt.Secret == "" && jwt.JWKSURI == "" && jwt.Issuer == "" {
			return errors.New("the 'jwt' scheme needs 'authn.jwt.secret', 'authn.jwt.jwksUri' or 'authn.jwt.issuer'")
		}
		if jwt.Secret != "" && jwt.JWKSURI != "" {
			return errors.New("'authn.jwt.secret' and 'authn.jwt.jwksUri' are mutually exclusive")
		}
		if jwt.Secret != "" && len(jwt.Secret) < 32 {
			return errors.New("'authn.jwt.secret' must be at least 32 bytes long")
		}
	}
	if cfg.Authn.JWT.TokenTTL <= 0 {
		return errors.New("config 'authn.jwt.tokenTTL' must be positive")
	}

	if seen[SchemeAPIKey] && cfg.Authn.APIKey.Header == "" {
		return errors.New("config 'authn.apikey.header' must be set when the 'apikey' scheme is enabled")
	}

	return nil
}

// DefaultConfig is the gateway default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:               "0.0.0.0:8080",
			TLS:                &TLSConfig{Enabled: false},
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedHeaders: []string{"*"},
		},
		GraphQL: GraphQLConfig{
			MaxParallelism: DefaultMaxParallelism,
			MaxDepth:       DefaultMaxDepth,
			Playground:     true,
		},
		Authn: AuthnConfig{
			Schemes:  []string{SchemeAPIKey},
			Required: false,
			JWT: AuthnJWTConfig{
				Issuer:   "",
				TokenTTL: DefaultTokenTTL,
			},
			APIKey: AuthnAPIKeyConfig{
				Header: "X-API-Key",
			},
		},
		PersistedQueries: PersistedQueriesConfig{
			Enabled:   true,
			CacheSize: DefaultPersistedQueryCache,
			CacheTTL:  DefaultPersistedQueryTTL,
		},
		Batch: BatchConfig{
			Wait:     DefaultBatchWait,
			MaxBatch: DefaultMaxBatch,
		},
		Datastore: DatastoreConfig{
			Engine:                     "memory",
			MaxIdleConns:               10,
			MaxOpenConns:               30,
			CredentialCacheSize:        DefaultCredentialCacheSize,
			CredentialCacheTTL:         DefaultCredentialCacheTTL,
			CredentialNegativeCacheTTL: DefaultCredentialNegativeTTL,
		},
		Services: ServicesConfig{
			Orders:    "http://localhost:8081",
			Inventory: "http://localhost:8082",
			Payments:  "http://localhost:8083",
			Timeout:   DefaultServiceTimeout,
			RetryMax:  DefaultServiceRetryMax,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
				TLS: OTLPTraceTLSConfig{
					Enabled: false,
				},
			},
			SampleRatio: 0.2,
			ServiceName: "gqlgate",
		},
		Metrics: MetricConfig{
			Enabled: true,
			Addr:    "0.0.0.0:2112",
		},
	}
}

// MustDefaultConfig returns default server config with the playground and metrics turned off.
func MustDefaultConfig() *Config {
	config := DefaultConfig()

	config.GraphQL.Playground = false
	config.Metrics.Enabled = false

	return config
}

// TokenIssuer is the 'iss' claim of issued tokens.
func (cfg *Config) TokenIssuer() string {
	if cfg.Authn.JWT.Issuer != "" {
		return cfg.Authn.JWT.Issuer
	}
	return DefaultTokenIssuer
}

// MustDefaultConfigWithRandomPorts returns the MustDefaultConfig with the HTTP server bound to a
// free port.
func MustDefaultConfigWithRandomPorts() *Config {
	config := MustDefaultConfig()

	httpPort, httpPortReleaser := TCPRandomPort()
	defer httpPortReleaser()

	config.HTTP.Addr = fmt.Sprintf("127.0.0.1:%d", httpPort)

	return config
}

// TCPRandomPort tries to find a random TCP Port. If it can't find one, it panics. Else, it returns the port and a function that releases the port.
// It is the responsibility of the caller to call the release function right before trying to listen on the given port.
func TCPRandomPort() (int, func()) {
	l, err := net.Listen("tcp", "")
	if err != nil {
		panic(err)
	}
	return l.Addr().(*net.TCPAddr).Port, func() {
		l.Close()
	}
}

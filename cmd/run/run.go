// Package run contains the command to run the gqlgate server.
package run

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/cmd/util"
	"github.com/fanout-labs/gqlgate/internal/authn"
	"github.com/fanout-labs/gqlgate/internal/authn/apikey"
	"github.com/fanout-labs/gqlgate/internal/authn/bearer"
	"github.com/fanout-labs/gqlgate/internal/authn/issuer"
	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/internal/downstream"
	"github.com/fanout-labs/gqlgate/internal/graph"
	"github.com/fanout-labs/gqlgate/internal/persistedquery"
	serverconfig "github.com/fanout-labs/gqlgate/internal/server/config"
	"github.com/fanout-labs/gqlgate/pkg/batch"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/retryablehttp"
	"github.com/fanout-labs/gqlgate/pkg/server"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/file"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
	"github.com/fanout-labs/gqlgate/pkg/storage/storagewrappers"
	"github.com/fanout-labs/gqlgate/pkg/telemetry"
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gqlgate server",
		Long:  "Run the gqlgate server.",
		Run:   run,
		Args:  cobra.NoArgs,
	}

	defaultConfig := serverconfig.DefaultConfig()
	flags := cmd.Flags()

	flags.String("http-addr", defaultConfig.HTTP.Addr, "the host:port address to serve the HTTP server on")

	flags.Bool("http-tls-enabled", defaultConfig.HTTP.TLS.Enabled, "enable/disable transport layer security (TLS)")

	flags.String("http-tls-cert", defaultConfig.HTTP.TLS.CertPath, "the (absolute) file path of the certificate to use for the TLS connection")

	flags.String("http-tls-key", defaultConfig.HTTP.TLS.KeyPath, "the (absolute) file path of the TLS key that should be used for the TLS connection")

	cmd.MarkFlagsRequiredTogether("http-tls-enabled", "http-tls-cert", "http-tls-key")

	flags.StringSlice("http-cors-allowed-origins", defaultConfig.HTTP.CORSAllowedOrigins, "specifies the CORS allowed origins")

	flags.StringSlice("http-cors-allowed-headers", defaultConfig.HTTP.CORSAllowedHeaders, "specifies the CORS allowed headers")

	flags.Int("graphql-max-parallelism", defaultConfig.GraphQL.MaxParallelism, "the number of fields resolved concurrently per request")

	flags.Int("graphql-max-depth", defaultConfig.GraphQL.MaxDepth, "reject operations nested deeper than this (0 disables the check)")

	flags.Bool("graphql-playground", defaultConfig.GraphQL.Playground, "serve the GraphQL playground on /playground")

	flags.StringSlice("authn-schemes", defaultConfig.Authn.Schemes, "the ordered authentication schemes tried on every request ('jwt', 'apikey')")

	flags.Bool("authn-required", defaultConfig.Authn.Required, "reject requests that carry no credential")

	flags.String("authn-jwt-secret", defaultConfig.Authn.JWT.Secret, "the HS256 secret used to validate and issue bearer tokens")

	flags.String("authn-jwt-jwks-uri", defaultConfig.Authn.JWT.JWKSURI, "the JWKS uri used to validate bearer tokens")

	flags.String("authn-jwt-issuer", defaultConfig.Authn.JWT.Issuer, "the expected 'iss' claim; also used for OIDC discovery when no JWKS uri is set")

	flags.String("authn-jwt-audience", defaultConfig.Authn.JWT.Audience, "the expected 'aud' claim")

	flags.Duration("authn-jwt-token-ttl", defaultConfig.Authn.JWT.TokenTTL, "the lifetime of tokens issued on /auth/token")

	flags.String("authn-apikey-header", defaultConfig.Authn.APIKey.Header, "the request header carrying the API key")

	flags.String("authn-apikey-static-key", defaultConfig.Authn.APIKey.StaticKey, "an API key accepted in addition to stored keys")

	flags.String("authn-apikey-file", defaultConfig.Authn.APIKey.File, "a YAML file holding API keys, used instead of the datastore")

	flags.Bool("authn-apikey-enforce-rate-limit", defaultConfig.Authn.APIKey.EnforceRateLimit, "enforce the per minute rate limit of API keys")

	flags.Bool("persisted-queries-enabled", defaultConfig.PersistedQueries.Enabled, "enable the persisted query protocol")

	flags.Int64("persisted-queries-cache-size", defaultConfig.PersistedQueries.CacheSize, "the number of persisted queries kept in memory")

	flags.Duration("persisted-queries-cache-ttl", defaultConfig.PersistedQueries.CacheTTL, "how long a persisted query stays in memory")

	flags.Duration("batch-wait", defaultConfig.Batch.Wait, "how long a batch collects keys before it is dispatched")

	flags.Int("batch-max-batch", defaultConfig.Batch.MaxBatch, "dispatch a batch early once it holds this many keys (0 is unbounded)")

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, "the datastore engine that will be used for persistence")

	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the connection uri to use to connect to the datastore (for any engine other than 'memory')")

	flags.String("datastore-username", "", "the connection username to use to connect to the datastore (overwrites any username provided in the connection uri)")

	flags.String("datastore-password", "", "the connection password to use to connect to the datastore (overwrites any password provided in the connection uri)")

	flags.Int("datastore-max-open-conns", defaultConfig.Datastore.MaxOpenConns, "the maximum number of open connections to the datastore")

	flags.Int("datastore-max-idle-conns", defaultConfig.Datastore.MaxIdleConns, "the maximum number of connections to the datastore in the idle connection pool")

	flags.Duration("datastore-conn-max-idle-time", defaultConfig.Datastore.ConnMaxIdleTime, "the maximum amount of time a connection to the datastore may be idle")

	flags.Duration("datastore-conn-max-lifetime", defaultConfig.Datastore.ConnMaxLifetime, "the maximum amount of time a connection to the datastore may be reused")

	flags.Uint32("datastore-max-concurrent-reads", defaultConfig.Datastore.MaxConcurrentReads, "the maximum number of concurrent reads against the datastore (0 is unbounded)")

	flags.Int64("datastore-credential-cache-size", defaultConfig.Datastore.CredentialCacheSize, "the number of API key lookups kept in memory")

	flags.Duration("datastore-credential-cache-ttl", defaultConfig.Datastore.CredentialCacheTTL, "how long a found API key stays cached")

	flags.Duration("datastore-credential-negative-cache-ttl", defaultConfig.Datastore.CredentialNegativeCacheTTL, "how long an unknown API key stays cached")

	flags.Bool("datastore-metrics-enabled", defaultConfig.Datastore.Metrics, "enable/disable sql metrics")

	flags.String("services-orders", defaultConfig.Services.Orders, "the base URL of the order service")

	flags.String("services-inventory", defaultConfig.Services.Inventory, "the base URL of the inventory service")

	flags.String("services-payments", defaultConfig.Services.Payments, "the base URL of the payment service")

	flags.Duration("services-timeout", defaultConfig.Services.Timeout, "the timeout of a single downstream request")

	flags.Int("services-retry-max", defaultConfig.Services.RetryMax, "the number of retries of idempotent downstream requests")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")

	flags.Bool("trace-otlp-tls-enabled", defaultConfig.Trace.OTLP.TLS.Enabled, "use TLS connection for trace collector")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none.")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces.")

	flags.Duration("trace-slow-threshold", defaultConfig.Trace.SlowTraceThreshold, "only export traces at least this slow (0 exports all)")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindRunFlagsFunc(flags)

	return cmd
}

// ReadConfig returns the gqlgate server configuration based on the values provided in the server's 'config.yaml' file.
// The 'config.yaml' file is loaded from '/etc/gqlgate', '$HOME/.gqlgate', or the current working directory. If no configuration
// file is present, the default values are returned.
func ReadConfig() (*serverconfig.Config, error) {
	config := serverconfig.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load server config: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}

	return config, nil
}

func run(_ *cobra.Command, _ []string) {
	config, err := ReadConfig()
	if err != nil {
		panic(err)
	}

	if err := config.Verify(); err != nil {
		panic(err)
	}

	logger := logger.MustNewLogger(config.Log.Format, config.Log.Level)
	serverCtx := &ServerContext{Logger: logger}
	if err := serverCtx.Run(context.Background(), config); err != nil {
		panic(err)
	}
}

type ServerContext struct {
	Logger logger.Logger
}

// telemetryConfig returns the function that must be called to shut down tracing.
// The context provided to this function should be error-free, or shut down will be incomplete.
func (s *ServerContext) telemetryConfig(ctx context.Context, config *serverconfig.Config) (func() error, error) {
	if config.Trace.Enabled {
		s.Logger.Info(fmt.Sprintf("🕵 tracing enabled: sampling ratio is %v and sending traces to '%s', tls: %t", config.Trace.SampleRatio, config.Trace.OTLP.Endpoint, config.Trace.OTLP.TLS.Enabled))

		options := []telemetry.TracerOption{
			telemetry.WithOTLPEndpoint(
				config.Trace.OTLP.Endpoint,
			),
			telemetry.WithAttributes(
				semconv.ServiceNameKey.String(config.Trace.ServiceName),
				semconv.ServiceVersionKey.String(build.Version),
			),
			telemetry.WithSamplingRatio(config.Trace.SampleRatio),
			telemetry.WithSlowTraceThreshold(config.Trace.SlowTraceThreshold),
		}

		if !config.Trace.OTLP.TLS.Enabled {
			options = append(options, telemetry.WithOTLPInsecure())
		}

		tp, err := telemetry.NewTracerProvider(ctx, options...)
		if err != nil {
			return nil, err
		}
		return func() error {
			// the batch span processor may need up to 5 seconds to flush
			ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
			defer cancel()
			return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
		}, nil
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	return func() error {
		return nil
	}, nil
}

// datastoreConfig opens the configured datastore and wraps it with instrumentation, the read
// concurrency bound and the credential cache, innermost first.
func (s *ServerContext) datastoreConfig(config *serverconfig.Config) (storage.GatewayDatastore, error) {
	dsCfg := config.Datastore

	opts := []sqlcommon.DatastoreOption{
		sqlcommon.WithUsername(dsCfg.Username),
		sqlcommon.WithPassword(dsCfg.Password),
		sqlcommon.WithLogger(s.Logger),
		sqlcommon.WithMaxOpenConns(dsCfg.MaxOpenConns),
		sqlcommon.WithMaxIdleConns(dsCfg.MaxIdleConns),
		sqlcommon.WithConnMaxIdleTime(dsCfg.ConnMaxIdleTime),
		sqlcommon.WithConnMaxLifetime(dsCfg.ConnMaxLifetime),
	}
	if dsCfg.Metrics {
		opts = append(opts, sqlcommon.WithMetrics())
	}

	datastore, err := util.OpenDatastore(dsCfg.Engine, dsCfg.URI, opts...)
	if err != nil {
		return nil, err
	}

	var wrapped storage.GatewayDatastore = storagewrappers.NewInstrumentedDatastore(datastore)
	if dsCfg.MaxConcurrentReads > 0 {
		wrapped = storagewrappers.NewBoundedConcurrencyDatastore(wrapped, dsCfg.MaxConcurrentReads)
	}

	cached, err := storagewrappers.NewCachedDatastore(wrapped, dsCfg.CredentialCacheSize,
		storagewrappers.WithCredentialCacheTTL(dsCfg.CredentialCacheTTL),
		storagewrappers.WithCredentialNegativeCacheTTL(dsCfg.CredentialNegativeCacheTTL),
	)
	if err != nil {
		datastore.Close()
		return nil, fmt.Errorf("failed to initialize credential cache: %w", err)
	}

	s.Logger.Info(fmt.Sprintf("using '%v' storage engine", dsCfg.Engine))

	return cached, nil
}

// authenticatorConfig builds the authentication chain. The returned closer releases the
// resources held by the schemes.
func (s *ServerContext) authenticatorConfig(ctx context.Context, config *serverconfig.Config, datastore storage.GatewayDatastore) (*authn.Chain, func(), error) {
	var (
		schemes []authn.Scheme
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, name := range config.Authn.Schemes {
		switch name {
		case serverconfig.SchemeJWT:
			validator, closer, err := s.tokenValidatorConfig(ctx, config)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			if closer != nil {
				closers = append(closers, closer)
			}
			schemes = append(schemes, bearer.NewScheme(validator))
		case serverconfig.SchemeAPIKey:
			apiKeyCfg := config.Authn.APIKey

			var backend storage.CredentialBackend = datastore
			if apiKeyCfg.File != "" {
				fileBackend, err := file.Load(ctx, apiKeyCfg.File)
				if err != nil {
					closeAll()
					return nil, nil, fmt.Errorf("failed to load API keys: %w", err)
				}
				backend = fileBackend
				s.Logger.Info(fmt.Sprintf("loading API keys from '%s'", apiKeyCfg.File))
			}

			scheme, err := apikey.NewScheme(backend,
				apikey.WithHeader(apiKeyCfg.Header),
				apikey.WithStaticKey(apiKeyCfg.StaticKey),
				apikey.WithRateLimit(apiKeyCfg.EnforceRateLimit),
			)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to initialize API key authentication: %w", err)
			}
			closers = append(closers, scheme.Close)
			schemes = append(schemes, scheme)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unsupported authentication scheme '%s'", name)
		}
	}

	chain := authn.NewChain(schemes,
		authn.WithRequired(config.Authn.Required),
		authn.WithLogger(s.Logger),
	)

	if len(schemes) == 0 {
		s.Logger.Warn("authentication is disabled")
	} else {
		s.Logger.Info(fmt.Sprintf("🔑 authentication schemes: %v (required: %t)", chain.Schemes(), config.Authn.Required))
	}

	return chain, closeAll, nil
}

func (s *ServerContext) tokenValidatorConfig(ctx context.Context, config *serverconfig.Config) (bearer.TokenValidator, func(), error) {
	jwtCfg := config.Authn.JWT

	var validatorOpts []bearer.ValidatorOption
	if jwtCfg.Issuer != "" {
		validatorOpts = append(validatorOpts, bearer.WithIssuer(jwtCfg.Issuer))
	}
	if jwtCfg.Audience != "" {
		validatorOpts = append(validatorOpts, bearer.WithAudience(jwtCfg.Audience))
	}

	if jwtCfg.Secret != "" {
		validator, err := bearer.NewHMACValidator(jwtCfg.Secret, validatorOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize token validation: %w", err)
		}
		return validator, nil, nil
	}

	client := retryablehttp.NewStandardClient(retryablehttp.WithLogger(s.Logger))

	jwksURI := jwtCfg.JWKSURI
	if jwksURI == "" {
		var err error
		jwksURI, err = bearer.DiscoverJWKSURI(ctx, client, jwtCfg.Issuer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to discover the JWKS uri of '%s': %w", jwtCfg.Issuer, err)
		}
	}

	validator, err := bearer.NewJWKSValidator(jwksURI, client, validatorOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token validation: %w", err)
	}
	return validator, validator.Close, nil
}

func (s *ServerContext) runHTTPServer(config *serverconfig.Config, handler http.Handler) (*http.Server, error) {
	httpServer := &http.Server{
		Addr:              config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	listener, err := net.Listen("tcp", config.HTTP.Addr)
	if err != nil {
		return nil, err
	}

	if config.HTTP.TLS != nil && config.HTTP.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(config.HTTP.TLS.CertPath, config.HTTP.TLS.KeyPath)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to load the TLS certificate: %w", err)
		}
		listener = tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})

		s.Logger.Info("HTTP TLS is enabled, serving connections using the provided certificate")
	} else {
		s.Logger.Warn("HTTP TLS is disabled, serving connections using insecure plaintext")
	}

	go func() {
		s.Logger.Info(fmt.Sprintf("🚀 starting HTTP server on '%s'...", httpServer.Addr))
		if err := httpServer.Serve(listener); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Fatal("HTTP server closed with unexpected error", zap.Error(err))
			}
		}
		s.Logger.Info("HTTP server shut down.")
	}()
	return httpServer, nil
}

// Run returns an error if the server was unable to start successfully.
// If it started and terminated successfully, it returns a nil error.
func (s *ServerContext) Run(ctx context.Context, config *serverconfig.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProviderCloser, err := s.telemetryConfig(ctx, config)
	if err != nil {
		return err
	}

	datastore, err := s.datastoreConfig(config)
	if err != nil {
		return err
	}

	authenticator, authenticatorCloser, err := s.authenticatorConfig(ctx, config, datastore)
	if err != nil {
		datastore.Close()
		return err
	}

	var tokenIssuer *issuer.Issuer
	if config.Authn.JWT.Secret != "" {
		tokenIssuer, err = issuer.New(datastore, config.Authn.JWT.Secret,
			issuer.WithIssuer(config.TokenIssuer()),
			issuer.WithTokenTTL(config.Authn.JWT.TokenTTL),
			issuer.WithLogger(s.Logger),
		)
		if err != nil {
			authenticatorCloser()
			datastore.Close()
			return fmt.Errorf("failed to initialize the token issuer: %w", err)
		}
	}

	var persistedQueries *persistedquery.Cache
	if config.PersistedQueries.Enabled {
		persistedQueries, err = persistedquery.New(datastore,
			persistedquery.WithCacheSize(config.PersistedQueries.CacheSize),
			persistedquery.WithCacheTTL(config.PersistedQueries.CacheTTL),
			persistedquery.WithLogger(s.Logger),
		)
		if err != nil {
			authenticatorCloser()
			datastore.Close()
			return fmt.Errorf("failed to initialize the persisted query cache: %w", err)
		}
	}

	services, err := downstream.New(downstream.Config{
		OrdersURL:    config.Services.Orders,
		InventoryURL: config.Services.Inventory,
		PaymentsURL:  config.Services.Payments,
		Timeout:      config.Services.Timeout,
		RetryMax:     config.Services.RetryMax,
	}, s.Logger)
	if err != nil {
		return errors.Join(err, s.closeAll(datastore, authenticatorCloser, persistedQueries, tracerProviderCloser))
	}

	executor, err := graph.NewHandler(services,
		graph.WithMaxParallelism(config.GraphQL.MaxParallelism),
		graph.WithMaxDepth(config.GraphQL.MaxDepth),
		graph.WithBatchOptions(
			batch.WithWait(config.Batch.Wait),
			batch.WithMaxBatch(config.Batch.MaxBatch),
		),
		graph.WithLogger(s.Logger),
	)
	if err != nil {
		return errors.Join(err, s.closeAll(datastore, authenticatorCloser, persistedQueries, tracerProviderCloser))
	}

	svr := server.New(&server.Dependencies{
		Datastore:        datastore,
		Logger:           s.Logger,
		Authenticator:    authenticator,
		Executor:         executor,
		PersistedQueries: persistedQueries,
		Issuer:           tokenIssuer,
	}, &server.Config{
		CORSAllowedOrigins: config.HTTP.CORSAllowedOrigins,
		CORSAllowedHeaders: config.HTTP.CORSAllowedHeaders,
		Playground:         config.GraphQL.Playground,
		Tracing:            config.Trace.Enabled,
	})

	var metricsServer *http.Server
	if config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsServer = &http.Server{Addr: config.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 30 * time.Second}

		go func() {
			s.Logger.Info(fmt.Sprintf("📈 starting prometheus metrics server on '%s'", config.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Fatal("failed to start prometheus metrics server", zap.Error(err))
				}
			}
			s.Logger.Info("metrics server shut down.")
		}()
	}

	httpServer, err := s.runHTTPServer(config, svr.Handler())
	if err != nil {
		return errors.Join(err, s.closeAll(datastore, authenticatorCloser, persistedQueries, tracerProviderCloser))
	}

	if config.GraphQL.Playground {
		s.Logger.Info(fmt.Sprintf("🛝 playground available on '%s%s'", config.HTTP.Addr, server.PlaygroundPath))
	}

	// wait for cancellation signal
	<-ctx.Done()
	s.Logger.Info("attempting to shutdown gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.Logger.Info("failed to shutdown the http server", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			s.Logger.Info("failed to shutdown the prometheus metrics server", zap.Error(err))
		}
	}

	if err := s.closeAll(datastore, authenticatorCloser, persistedQueries, tracerProviderCloser); err != nil {
		s.Logger.Error("failed to shutdown tracing", zap.Error(err))
	}

	s.Logger.Info("server exited. goodbye 👋")

	return nil
}

func (s *ServerContext) closeAll(datastore storage.GatewayDatastore, authenticatorCloser func(), persistedQueries *persistedquery.Cache, tracerProviderCloser func() error) error {
	if persistedQueries != nil {
		persistedQueries.Close()
	}
	authenticatorCloser()
	datastore.Close()
	return tracerProviderCloser()
}

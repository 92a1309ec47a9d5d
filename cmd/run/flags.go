package run

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fanout-labs/gqlgate/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		util.MustBindPFlag("http.addr", flags.Lookup("http-addr"))
		util.MustBindEnv("http.addr", "GQLGATE_HTTP_ADDR")

		util.MustBindPFlag("http.tls.enabled", flags.Lookup("http-tls-enabled"))
		util.MustBindEnv("http.tls.enabled", "GQLGATE_HTTP_TLS_ENABLED")

		util.MustBindPFlag("http.tls.cert", flags.Lookup("http-tls-cert"))
		util.MustBindEnv("http.tls.cert", "GQLGATE_HTTP_TLS_CERT")

		util.MustBindPFlag("http.tls.key", flags.Lookup("http-tls-key"))
		util.MustBindEnv("http.tls.key", "GQLGATE_HTTP_TLS_KEY")

		util.MustBindPFlag("http.corsAllowedOrigins", flags.Lookup("http-cors-allowed-origins"))
		util.MustBindEnv("http.corsAllowedOrigins", "GQLGATE_HTTP_CORS_ALLOWED_ORIGINS")

		util.MustBindPFlag("http.corsAllowedHeaders", flags.Lookup("http-cors-allowed-headers"))
		util.MustBindEnv("http.corsAllowedHeaders", "GQLGATE_HTTP_CORS_ALLOWED_HEADERS")

		util.MustBindPFlag("graphql.maxParallelism", flags.Lookup("graphql-max-parallelism"))
		util.MustBindEnv("graphql.maxParallelism", "GQLGATE_GRAPHQL_MAX_PARALLELISM")

		util.MustBindPFlag("graphql.maxDepth", flags.Lookup("graphql-max-depth"))
		util.MustBindEnv("graphql.maxDepth", "GQLGATE_GRAPHQL_MAX_DEPTH")

		util.MustBindPFlag("graphql.playground", flags.Lookup("graphql-playground"))
		util.MustBindEnv("graphql.playground", "GQLGATE_GRAPHQL_PLAYGROUND")

		util.MustBindPFlag("authn.schemes", flags.Lookup("authn-schemes"))
		util.MustBindEnv("authn.schemes", "GQLGATE_AUTHN_SCHEMES")

		util.MustBindPFlag("authn.required", flags.Lookup("authn-required"))
		util.MustBindEnv("authn.required", "GQLGATE_AUTHN_REQUIRED")

		util.MustBindPFlag("authn.jwt.secret", flags.Lookup("authn-jwt-secret"))
		util.MustBindEnv("authn.jwt.secret", "GQLGATE_AUTHN_JWT_SECRET")

		util.MustBindPFlag("authn.jwt.jwksUri", flags.Lookup("authn-jwt-jwks-uri"))
		util.MustBindEnv("authn.jwt.jwksUri", "GQLGATE_AUTHN_JWT_JWKS_URI")

		util.MustBindPFlag("authn.jwt.issuer", flags.Lookup("authn-jwt-issuer"))
		util.MustBindEnv("authn.jwt.issuer", "GQLGATE_AUTHN_JWT_ISSUER")

		util.MustBindPFlag("authn.jwt.audience", flags.Lookup("authn-jwt-audience"))
		util.MustBindEnv("authn.jwt.audience", "GQLGATE_AUTHN_JWT_AUDIENCE")

		util.MustBindPFlag("authn.jwt.tokenTTL", flags.Lookup("authn-jwt-token-ttl"))
		util.MustBindEnv("authn.jwt.tokenTTL", "GQLGATE_AUTHN_JWT_TOKEN_TTL")

		util.MustBindPFlag("authn.apikey.header", flags.Lookup("authn-apikey-header"))
		util.MustBindEnv("authn.apikey.header", "GQLGATE_AUTHN_APIKEY_HEADER")

		util.MustBindPFlag("authn.apikey.staticKey", flags.Lookup("authn-apikey-static-key"))
		util.MustBindEnv("authn.apikey.staticKey", "GQLGATE_AUTHN_APIKEY_STATIC_KEY")

		util.MustBindPFlag("authn.apikey.file", flags.Lookup("authn-apikey-file"))
		util.MustBindEnv("authn.apikey.file", "GQLGATE_AUTHN_APIKEY_FILE")

		util.MustBindPFlag("authn.apikey.enforceRateLimit", flags.Lookup("authn-apikey-enforce-rate-limit"))
		util.MustBindEnv("authn.apikey.enforceRateLimit", "GQLGATE_AUTHN_APIKEY_ENFORCE_RATE_LIMIT")

		util.MustBindPFlag("persistedQueries.enabled", flags.Lookup("persisted-queries-enabled"))
		util.MustBindEnv("persistedQueries.enabled", "GQLGATE_PERSISTED_QUERIES_ENABLED")

		util.MustBindPFlag("persistedQueries.cacheSize", flags.Lookup("persisted-queries-cache-size"))
		util.MustBindEnv("persistedQueries.cacheSize", "GQLGATE_PERSISTED_QUERIES_CACHE_SIZE")

		util.MustBindPFlag("persistedQueries.cacheTTL", flags.Lookup("persisted-queries-cache-ttl"))
		util.MustBindEnv("persistedQueries.cacheTTL", "GQLGATE_PERSISTED_QUERIES_CACHE_TTL")

		util.MustBindPFlag("batch.wait", flags.Lookup("batch-wait"))
		util.MustBindEnv("batch.wait", "GQLGATE_BATCH_WAIT")

		util.MustBindPFlag("batch.maxBatch", flags.Lookup("batch-max-batch"))
		util.MustBindEnv("batch.maxBatch", "GQLGATE_BATCH_MAX_BATCH")

		util.MustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
		util.MustBindEnv("datastore.engine", "GQLGATE_DATASTORE_ENGINE")

		util.MustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
		util.MustBindEnv("datastore.uri", "GQLGATE_DATASTORE_URI")

		util.MustBindPFlag("datastore.username", flags.Lookup("datastore-username"))
		util.MustBindEnv("datastore.username", "GQLGATE_DATASTORE_USERNAME")

		util.MustBindPFlag("datastore.password", flags.Lookup("datastore-password"))
		util.MustBindEnv("datastore.password", "GQLGATE_DATASTORE_PASSWORD")

		util.MustBindPFlag("datastore.maxOpenConns", flags.Lookup("datastore-max-open-conns"))
		util.MustBindEnv("datastore.maxOpenConns", "GQLGATE_DATASTORE_MAX_OPEN_CONNS")

		util.MustBindPFlag("datastore.maxIdleConns", flags.Lookup("datastore-max-idle-conns"))
		util.MustBindEnv("datastore.maxIdleConns", "GQLGATE_DATASTORE_MAX_IDLE_CONNS")

		util.MustBindPFlag("datastore.connMaxIdleTime", flags.Lookup("datastore-conn-max-idle-time"))
		util.MustBindEnv("datastore.connMaxIdleTime", "GQLGATE_DATASTORE_CONN_MAX_IDLE_TIME")

		util.MustBindPFlag("datastore.connMaxLifetime", flags.Lookup("datastore-conn-max-lifetime"))
		util.MustBindEnv("datastore.connMaxLifetime", "GQLGATE_DATASTORE_CONN_MAX_LIFETIME")

		util.MustBindPFlag("datastore.maxConcurrentReads", flags.Lookup("datastore-max-concurrent-reads"))
		util.MustBindEnv("datastore.maxConcurrentReads", "GQLGATE_DATASTORE_MAX_CONCURRENT_READS")

		util.MustBindPFlag("datastore.credentialCacheSize", flags.Lookup("datastore-credential-cache-size"))
		util.MustBindEnv("datastore.credentialCacheSize", "GQLGATE_DATASTORE_CREDENTIAL_CACHE_SIZE")

		util.MustBindPFlag("datastore.credentialCacheTTL", flags.Lookup("datastore-credential-cache-ttl"))
		util.MustBindEnv("datastore.credentialCacheTTL", "GQLGATE_DATASTORE_CREDENTIAL_CACHE_TTL")

		util.MustBindPFlag("datastore.credentialNegativeCacheTTL", flags.Lookup("datastore-credential-negative-cache-ttl"))
		util.MustBindEnv("datastore.credentialNegativeCacheTTL", "GQLGATE_DATASTORE_CREDENTIAL_NEGATIVE_CACHE_TTL")

		util.MustBindPFlag("datastore.metrics", flags.Lookup("datastore-metrics-enabled"))
		util.MustBindEnv("datastore.metrics", "GQLGATE_DATASTORE_METRICS_ENABLED")

		util.MustBindPFlag("services.orders", flags.Lookup("services-orders"))
		util.MustBindEnv("services.orders", "GQLGATE_SERVICES_ORDERS")

		util.MustBindPFlag("services.inventory", flags.Lookup("services-inventory"))
		util.MustBindEnv("services.inventory", "GQLGATE_SERVICES_INVENTORY")

		util.MustBindPFlag("services.payments", flags.Lookup("services-payments"))
		util.MustBindEnv("services.payments", "GQLGATE_SERVICES_PAYMENTS")

		util.MustBindPFlag("services.timeout", flags.Lookup("services-timeout"))
		util.MustBindEnv("services.timeout", "GQLGATE_SERVICES_TIMEOUT")

		util.MustBindPFlag("services.retryMax", flags.Lookup("services-retry-max"))
		util.MustBindEnv("services.retryMax", "GQLGATE_SERVICES_RETRY_MAX")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "GQLGATE_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "GQLGATE_LOG_LEVEL")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "GQLGATE_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "GQLGATE_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
		util.MustBindEnv("trace.otlp.tls.enabled", "GQLGATE_TRACE_OTLP_TLS_ENABLED")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "GQLGATE_TRACE_SAMPLE_RATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "GQLGATE_TRACE_SERVICE_NAME")

		util.MustBindPFlag("trace.slowTraceThreshold", flags.Lookup("trace-slow-threshold"))
		util.MustBindEnv("trace.slowTraceThreshold", "GQLGATE_TRACE_SLOW_THRESHOLD")

		util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
		util.MustBindEnv("metrics.enabled", "GQLGATE_METRICS_ENABLED")

		util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
		util.MustBindEnv("metrics.addr", "GQLGATE_METRICS_ADDR")
	}
}

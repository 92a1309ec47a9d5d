// Package server assembles the HTTP surface of the gateway.
package server

import (
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fanout-labs/gqlgate/internal/authn/issuer"
	"github.com/fanout-labs/gqlgate/internal/persistedquery"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/middleware"
	"github.com/fanout-labs/gqlgate/pkg/middleware/authentication"
	"github.com/fanout-labs/gqlgate/pkg/middleware/envelope"
	"github.com/fanout-labs/gqlgate/pkg/middleware/logging"
	"github.com/fanout-labs/gqlgate/pkg/middleware/recovery"
	"github.com/fanout-labs/gqlgate/pkg/middleware/requestid"
	"github.com/fanout-labs/gqlgate/pkg/server/health"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

const (
	GraphQLPath    = "/graphql"
	TokenPath      = "/auth/token"
	MePath         = "/auth/me"
	HealthPath     = "/healthz"
	PlaygroundPath = "/playground"
)

// A Server routes HTTP requests through the gateway's middleware to the GraphQL executor
// and the authentication endpoints.
type Server struct {
	logger           logger.Logger
	datastore        storage.GatewayDatastore
	authenticator    authentication.Resolver
	persistedQueries *persistedquery.Cache
	executor         http.Handler
	issuer           *issuer.Issuer
	config           *Config
}

type Dependencies struct {
	Datastore     storage.GatewayDatastore
	Logger        logger.Logger
	Authenticator authentication.Resolver
	Executor      http.Handler

	// PersistedQueries is optional. Without it persisted query ids are ignored.
	PersistedQueries *persistedquery.Cache

	// Issuer is optional. Without it /auth/token is not served.
	Issuer *issuer.Issuer
}

type Config struct {
	CORSAllowedOrigins []string
	CORSAllowedHeaders []string
	Playground         bool
	Tracing            bool
}

// New creates a new Server which uses the supplied collaborators.
func New(dependencies *Dependencies, config *Config) *Server {
	l := dependencies.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}
	if config == nil {
		config = &Config{}
	}

	return &Server{
		logger:           l,
		datastore:        dependencies.Datastore,
		authenticator:    dependencies.Authenticator,
		persistedQueries: dependencies.PersistedQueries,
		executor:         dependencies.Executor,
		issuer:           dependencies.Issuer,
		config:           config,
	}
}

// GraphQLPipeline is the ordered middleware in front of the executor. Recovery is the
// outermost step.
func (s *Server) GraphQLPipeline() []middleware.Middleware {
	mws := []middleware.Middleware{
		recovery.NewRecoveryMiddleware(s.logger),
		requestid.Middleware,
		logging.NewLoggingMiddleware(s.logger),
		envelope.Middleware,
	}
	if s.persistedQueries != nil {
		mws = append(mws, s.persistedQueries.Middleware)
	}
	mws = append(mws, authentication.NewAuthenticationMiddleware(s.authenticator, s.logger))
	if s.persistedQueries != nil {
		mws = append(mws, s.persistedQueries.RegisterMiddleware)
	}
	return mws
}

// Handler returns the root handler with every route of the gateway.
func (s *Server) Handler() http.Handler {
	base := []middleware.Middleware{
		recovery.NewRecoveryMiddleware(s.logger),
		requestid.Middleware,
		logging.NewLoggingMiddleware(s.logger),
	}

	mux := http.NewServeMux()
	mux.Handle(GraphQLPath, middleware.Chain(s.executor, s.GraphQLPipeline()...))
	mux.Handle(MePath, middleware.Chain(issuer.MeHandler(),
		append(base, authentication.NewAuthenticationMiddleware(s.authenticator, s.logger))...))
	if s.issuer != nil {
		mux.Handle(TokenPath, middleware.Chain(s.issuer.TokenHandler(), base...))
	}
	mux.Handle(HealthPath, &health.Checker{TargetService: s, Logger: s.logger})
	if s.config.Playground {
		mux.Handle(PlaygroundPath, playground.Handler("gqlgate", GraphQLPath))
	}

	handler := http.Handler(mux)
	if s.config.Tracing {
		handler = otelhttp.NewHandler(handler, "gqlgate")
	}

	origins := s.config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedHeaders:   s.config.CORSAllowedHeaders,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
	}).Handler(handler)
}

// IsReady reports whether the gateway can serve traffic. For now only the datastore is
// checked.
func (s *Server) IsReady(ctx context.Context) (bool, error) {
	status, err := s.datastore.IsReady(ctx)
	if err != nil {
		return false, err
	}
	return status.IsReady, nil
}

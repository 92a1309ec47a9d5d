// Package sqlcommon contains the SQL implementation of the gateway storage shared by the
// postgres, mysql and sqlite datastores. Dialect packages supply the connection, the
// statement builder and the error translation.
package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/build"
	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/sqlcommon")

// MinimumSupportedSchemaRevision is the lowest migration version the datastores can run on.
const MinimumSupportedSchemaRevision = 1

// Config defines the configuration parameters
// for setting up and managing a sql connection.
type Config struct {
	Username string
	Password string
	Logger   logger.Logger

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type
// used for configuring a Config object.
type DatastoreOption func(*Config)

// WithUsername returns a DatastoreOption that sets the username in the Config.
func WithUsername(username string) DatastoreOption {
	return func(config *Config) {
		config.Username = username
	}
}

// WithPassword returns a DatastoreOption that sets the password in the Config.
func WithPassword(password string) DatastoreOption {
	return func(config *Config) {
		config.Password = password
	}
}

// WithLogger returns a DatastoreOption that sets the Logger in the Config.
func WithLogger(l logger.Logger) DatastoreOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

func WithMaxOpenConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxOpenConns = c
	}
}

func WithMaxIdleConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxIdleConns = c
	}
}

func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxLifetime = d
	}
}

// WithMetrics returns a DatastoreOption that
// enables the export of connection pool metrics.
func WithMetrics() DatastoreOption {
	return func(cfg *Config) {
		cfg.ExportMetrics = true
	}
}

// NewConfig creates a new Config instance with default values
// and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	return cfg
}

// ApplyPoolSettings applies the connection pool settings of cfg to db.
func ApplyPoolSettings(db *sql.DB, cfg *Config) {
	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// ConfigureDB waits for the database to answer pings and registers the pool metrics
// collector when enabled.
func ConfigureDB(db *sql.DB, cfg *Config) (prometheus.Collector, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 1 * time.Minute
	attempt := 1
	err := backoff.Retry(func() error {
		err := db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for database", zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	return collector, nil
}

type errorHandlerFn func(error, ...interface{}) error

// DBInfo bundles what the shared queries need from a dialect.
type DBInfo struct {
	db                *sql.DB
	stbl              sq.StatementBuilderType
	HandleSQLError    errorHandlerFn
	upsertQuerySuffix string
}

// NewDBInfo constructs a [DBInfo] object. upsertQuerySuffix is appended to the persisted
// query INSERT to turn it into an upsert in the dialect's syntax.
func NewDBInfo(db *sql.DB, stbl sq.StatementBuilderType, errorHandler errorHandlerFn, dialect, upsertQuerySuffix string) *DBInfo {
	if err := goose.SetDialect(dialect); err != nil {
		panic("failed to set database dialect: " + err.Error())
	}

	return &DBInfo{
		db:                db,
		stbl:              stbl,
		HandleSQLError:    errorHandler,
		upsertQuerySuffix: upsertQuerySuffix,
	}
}

// SQLBackend implements the storage backends on top of a [DBInfo]. Dialect datastores
// embed it.
type SQLBackend struct {
	dbInfo *DBInfo
	now    func() time.Time
}

func NewSQLBackend(dbInfo *DBInfo) *SQLBackend {
	return &SQLBackend{dbInfo: dbInfo, now: time.Now}
}

// ReadPersistedQuery see [storage.PersistedQueryBackend].ReadPersistedQuery.
func (s *SQLBackend) ReadPersistedQuery(ctx context.Context, queryID string) (*storage.PersistedQuery, error) {
	ctx, span := tracer.Start(ctx, "sql.ReadPersistedQuery")
	defer span.End()

	var (
		pq            storage.PersistedQuery
		operationName sql.NullString
	)
	err := s.dbInfo.stbl.
		Select("query_id", "document", "operation_name", "created_at", "last_used_at", "use_count").
		From("persisted_query").
		Where(sq.Eq{"query_id": queryID}).
		QueryRowContext(ctx).
		Scan(&pq.QueryID, &pq.Document, &operationName, &pq.CreatedAt, &pq.LastUsedAt, &pq.UseCount)
	if err != nil {
		return nil, s.dbInfo.HandleSQLError(err)
	}
	pq.OperationName = operationName.String

	return &pq, nil
}

// UpsertPersistedQuery see [storage.PersistedQueryBackend].UpsertPersistedQuery.
func (s *SQLBackend) UpsertPersistedQuery(ctx context.Context, queryID, document, operationName string) error {
	ctx, span := tracer.Start(ctx, "sql.UpsertPersistedQuery")
	defer span.End()

	now := s.now().UTC()
	_, err := s.dbInfo.stbl.
		Insert("persisted_query").
		Columns("id", "query_id", "document", "operation_name", "created_at", "last_used_at", "use_count").
		Values(uuid.NewString(), queryID, document, nullString(operationName), now, now, 1).
		Suffix(s.dbInfo.upsertQuerySuffix).
		ExecContext(ctx)
	if err != nil {
		return s.dbInfo.HandleSQLError(err)
	}

	return nil
}

// ReadCredential see [storage.CredentialBackend].ReadCredential.
func (s *SQLBackend) ReadCredential(ctx context.Context, token string) (*storage.Credential, error) {
	ctx, span := tracer.Start(ctx, "sql.ReadCredential")
	defer span.End()

	var c storage.Credential
	err := s.dbInfo.stbl.
		Select("id", "token", "name", "enabled", "rate_limit_per_minute", "created_at").
		From("api_key").
		Where(sq.Eq{"token": token}).
		QueryRowContext(ctx).
		Scan(&c.ID, &c.Token, &c.DisplayName, &c.Enabled, &c.RateLimitPerMinute, &c.CreatedAt)
	if err != nil {
		return nil, s.dbInfo.HandleSQLError(err)
	}

	return &c, nil
}

// WriteCredential see [storage.CredentialBackend].WriteCredential.
func (s *SQLBackend) WriteCredential(ctx context.Context, credential *storage.Credential) error {
	ctx, span := tracer.Start(ctx, "sql.WriteCredential")
	defer span.End()

	id := credential.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := credential.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.dbInfo.stbl.
		Insert("api_key").
		Columns("id", "token", "name", "enabled", "rate_limit_per_minute", "created_at").
		Values(id, credential.Token, credential.DisplayName, credential.Enabled, credential.RateLimitPerMinute, createdAt.UTC()).
		ExecContext(ctx)
	if err != nil {
		return s.dbInfo.HandleSQLError(err)
	}

	return nil
}

// ReadUser see [storage.UserBackend].ReadUser.
func (s *SQLBackend) ReadUser(ctx context.Context, tenantID, username string) (*storage.User, error) {
	ctx, span := tracer.Start(ctx, "sql.ReadUser")
	defer span.End()
	span.SetAttributes(attribute.String("tenant_id", tenantID))

	var (
		u           storage.User
		roles       string
		lastLoginAt sql.NullTime
	)
	err := s.dbInfo.stbl.
		Select("id", "tenant_id", "username", "password_hash", "roles", "enabled", "locked", "created_at", "updated_at", "last_login_at").
		From("users").
		Where(sq.Eq{"tenant_id": tenantID, "username": username}).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.TenantID, &u.Username, &u.PasswordHash, &roles, &u.Enabled, &u.Locked, &u.CreatedAt, &u.UpdatedAt, &lastLoginAt)
	if err != nil {
		return nil, s.dbInfo.HandleSQLError(err)
	}

	u.Roles = SplitRoles(roles)
	if lastLoginAt.Valid {
		at := lastLoginAt.Time
		u.LastLoginAt = &at
	}

	return &u, nil
}

// WriteUser see [storage.UserBackend].WriteUser.
func (s *SQLBackend) WriteUser(ctx context.Context, user *storage.User) error {
	ctx, span := tracer.Start(ctx, "sql.WriteUser")
	defer span.End()

	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now().UTC()

	_, err := s.dbInfo.stbl.
		Insert("users").
		Columns("id", "tenant_id", "username", "password_hash", "roles", "enabled", "locked", "created_at", "updated_at").
		Values(id, user.TenantID, user.Username, user.PasswordHash, strings.Join(user.Roles, ","), user.Enabled, user.Locked, now, now).
		ExecContext(ctx)
	if err != nil {
		return s.dbInfo.HandleSQLError(err)
	}

	return nil
}

// RecordLogin see [storage.UserBackend].RecordLogin.
func (s *SQLBackend) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "sql.RecordLogin")
	defer span.End()

	res, err := s.dbInfo.stbl.
		Update("users").
		Set("last_login_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": userID}).
		ExecContext(ctx)
	if err != nil {
		return s.dbInfo.HandleSQLError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return s.dbInfo.HandleSQLError(err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// SplitRoles parses the comma separated roles column.
func SplitRoles(roles string) []string {
	var out []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsReady reports whether the database answers and runs a supported schema revision.
func IsReady(ctx context.Context, db *sql.DB) (storage.ReadinessStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// do ping first to ensure we have better error message
	// if error is due to connection issue.
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return storage.ReadinessStatus{}, pingErr
	}

	revision, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	if revision < MinimumSupportedSchemaRevision {
		return storage.ReadinessStatus{
			Message: "datastore requires migrations: at revision '" +
				strconv.FormatInt(revision, 10) +
				"', but requires '" +
				strconv.FormatInt(MinimumSupportedSchemaRevision, 10) +
				"'. Run '" + build.ProjectName + " migrate'.",
			IsReady: false,
		}, nil
	}
	return storage.ReadinessStatus{
		IsReady: true,
	}, nil
}

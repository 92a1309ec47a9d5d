package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

const (
	duplicateEntry = 1062

	upsertPersistedQuerySuffix = "ON DUPLICATE KEY UPDATE " +
		"document = VALUES(document), " +
		"operation_name = VALUES(operation_name), " +
		"last_used_at = GREATEST(last_used_at, VALUES(last_used_at)), " +
		"use_count = use_count + 1"
)

// Datastore provides a MySQL based implementation of [storage.GatewayDatastore].
type Datastore struct {
	*sqlcommon.SQLBackend

	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
}

// Ensures that Datastore implements the GatewayDatastore interface.
var _ storage.GatewayDatastore = (*Datastore)(nil)

// PrepareDSN applies credential overrides and forces time parsing, which the
// timestamp columns rely on.
func PrepareDSN(uri, username, password string) (string, error) {
	dsnCfg, err := mysql.ParseDSN(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql connection dsn: %w", err)
	}

	if username != "" {
		dsnCfg.User = username
	}
	if password != "" {
		dsnCfg.Passwd = password
	}
	dsnCfg.ParseTime = true

	return dsnCfg.FormatDSN(), nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mysql connection: %w", err)
	}

	sqlcommon.ApplyPoolSettings(db, cfg)

	collector, err := sqlcommon.ConfigureDB(db, cfg)
	if err != nil {
		return nil, fmt.Errorf("configure db: %w", err)
	}

	stbl := sq.StatementBuilder.RunWith(db)
	dbInfo := sqlcommon.NewDBInfo(db, stbl, HandleSQLError, "mysql", upsertPersistedQuerySuffix)

	return &Datastore{
		SQLBackend:       sqlcommon.NewSQLBackend(dbInfo),
		db:               db,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
	}, nil
}

// Close see [storage.GatewayDatastore].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// IsReady see [sqlcommon.IsReady].
func (s *Datastore) IsReady(ctx context.Context) (storage.ReadinessStatus, error) {
	return sqlcommon.IsReady(ctx, s.db)
}

// HandleSQLError processes an SQL error and converts it into a storage error.
func HandleSQLError(err error, _ ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == duplicateEntry {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/prometheus/client_golang/prometheus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
)

const upsertPersistedQuerySuffix = "ON CONFLICT (query_id) DO UPDATE SET " +
	"document = excluded.document, " +
	"operation_name = excluded.operation_name, " +
	"last_used_at = MAX(persisted_query.last_used_at, excluded.last_used_at), " +
	"use_count = persisted_query.use_count + 1"

// Datastore provides a SQLite based implementation of [storage.GatewayDatastore].
type Datastore struct {
	*sqlcommon.SQLBackend

	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
}

// Ensures that SQLite implements the GatewayDatastore interface.
var _ storage.GatewayDatastore = (*Datastore)(nil)

// PrepareDSN prepares a raw DSN for use with SQLite, specifying defaults for journal mode and busy timeout.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}

		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}

	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	uri += "?" + query.Encode()

	return uri, nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	sqlcommon.ApplyPoolSettings(db, cfg)

	collector, err := sqlcommon.ConfigureDB(db, cfg)
	if err != nil {
		return nil, fmt.Errorf("configure db: %w", err)
	}

	stbl := sq.StatementBuilder.RunWith(db)
	dbInfo := sqlcommon.NewDBInfo(db, stbl, HandleSQLError, "sqlite", upsertPersistedQuerySuffix)

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

// UpsertPersistedQuery see [storage.PersistedQueryBackend].UpsertPersistedQuery.
func (s *Datastore) UpsertPersistedQuery(ctx context.Context, queryID, document, operationName string) error {
	return busyRetry(func() error {
		return s.SQLBackend.UpsertPersistedQuery(ctx, queryID, document, operationName)
	})
}

// WriteCredential see [storage.CredentialBackend].WriteCredential.
func (s *Datastore) WriteCredential(ctx context.Context, credential *storage.Credential) error {
	return busyRetry(func() error {
		return s.SQLBackend.WriteCredential(ctx, credential)
	})
}

// WriteUser see [storage.UserBackend].WriteUser.
func (s *Datastore) WriteUser(ctx context.Context, user *storage.User) error {
	return busyRetry(func() error {
		return s.SQLBackend.WriteUser(ctx, user)
	})
}

// RecordLogin see [storage.UserBackend].RecordLogin.
func (s *Datastore) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return busyRetry(func() error {
		return s.SQLBackend.RecordLogin(ctx, userID, at)
	})
}

// HandleSQLError processes an SQL error and converts it into a storage error.
func HandleSQLError(err error, _ ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}

// SQLite returns SQLITE_BUSY when the database is locked rather than waiting for the lock.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}

		if isBusyError(err) {
			if retries < maxRetries {
				continue
			}

			return fmt.Errorf("sqlite busy error after %d retries: %w", maxRetries, err)
		}

		return err
	}
}

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}

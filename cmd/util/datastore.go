package util

import (
	"fmt"

	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
	"github.com/fanout-labs/gqlgate/pkg/storage/mysql"
	"github.com/fanout-labs/gqlgate/pkg/storage/postgres"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlcommon"
	"github.com/fanout-labs/gqlgate/pkg/storage/sqlite"
)

// OpenDatastore opens the datastore for the given engine. The returned datastore is not wrapped.
func OpenDatastore(engine, uri string, opts ...sqlcommon.DatastoreOption) (storage.GatewayDatastore, error) {
	cfg := sqlcommon.NewConfig(opts...)

	switch engine {
	case "memory":
		return memory.New(), nil
	case "postgres":
		ds, err := postgres.New(uri, cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres datastore: %w", err)
		}
		return ds, nil
	case "mysql":
		ds, err := mysql.New(uri, cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize mysql datastore: %w", err)
		}
		return ds, nil
	case "sqlite":
		ds, err := sqlite.New(uri, cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite datastore: %w", err)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("storage engine '%s' is unsupported", engine)
	}
}

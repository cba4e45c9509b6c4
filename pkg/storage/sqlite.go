package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open returns providers for the configured persistence driver. The returned
// close function releases the database, if any.
func Open(ctx context.Context, cfg config.PersistenceConfig, lgr logger.Logger) (Providers, func() error, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryProviders(), func() error { return nil }, nil
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.DSN, lgr)
		if err != nil {
			return Providers{}, nil, err
		}
		return NewBunProviders(db), db.Close, nil
	default:
		return Providers{}, nil, fmt.Errorf("storage: unsupported driver %s", cfg.Driver)
	}
}

// OpenSQLite opens dsn through sqliteshim and creates the module tables.
func OpenSQLite(ctx context.Context, dsn string, lgr logger.Logger) (*bun.DB, error) {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = config.Defaults().Persistence.DSN
	}
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	lgr.Debug("sqlite storage ready", logger.Field{Key: "dsn", Value: dsn})
	return db, nil
}

func ensureSQLiteDir(dsn string) error {
	if !strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database.
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// DefaultConfig uses a local sqlite file.
func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		DSN:    "file:catalog.db?cache=shared&_fk=1",
	}
}

// Open connects and picks the bun dialect for cfg.Driver.
func Open(cfg Config) (*bun.DB, error) {
	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	switch cfg.Driver {
	case DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// CreateSchema creates the tables that do not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*Product)(nil),
		(*User)(nil),
		(*Client)(nil),
		(*Sale)(nil),
		(*SaleItem)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table for %T: %w", m, err)
		}
	}
	return nil
}

// Package database opens the optional catalog connection used for
// connectivity checks and schema listings.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/sijms/go-ora/v2"
	_ "github.com/snowflakedb/gosnowflake"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

// ErrNoCatalog is returned when no catalog DSN is configured
var ErrNoCatalog = errors.New("no catalog database configured")

const pingTimeout = 5 * time.Second

// driver names registered by the imported database/sql drivers
var drivers = map[dialect.Dialect]string{
	dialect.MySQL:      "mysql",
	dialect.PostgreSQL: "pgx",
	dialect.SQLServer:  "sqlserver",
	dialect.Oracle:     "oracle",
	dialect.Snowflake:  "snowflake",
	dialect.Databricks: "databricks",
}

// DriverFor returns the database/sql driver name for d
func DriverFor(d dialect.Dialect) (string, error) {
	name, ok := drivers[d]
	if !ok {
		return "", fmt.Errorf("no database driver for dialect %q", d)
	}
	return name, nil
}

type DB struct {
	*sql.DB
	Dialect dialect.Dialect
}

// NewConnection opens and pings the catalog database described by cfg
func NewConnection(ctx context.Context, cfg config.CatalogConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoCatalog
	}
	d := dialect.Parse(cfg.Dialect)
	driver, err := DriverFor(d)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	conn := &DB{DB: db, Dialect: d}
	if err := conn.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// HealthCheck pings the database with a short timeout
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

package database

import (
	"context"
	"fmt"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

// tablesSQL lists the base tables of the session's current schema
var tablesSQL = map[dialect.Dialect]string{
	dialect.MySQL: `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	dialect.PostgreSQL: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	dialect.SQLServer: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME()
ORDER BY TABLE_NAME`,
	dialect.Oracle: `SELECT table_name FROM user_tables ORDER BY table_name`,
	dialect.Snowflake: `SELECT table_name FROM information_schema.tables
WHERE table_schema = CURRENT_SCHEMA() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	dialect.Databricks: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema()
ORDER BY table_name`,
}

// TablesQuery returns the catalog query that lists tables for d
func TablesQuery(d dialect.Dialect) (string, error) {
	q, ok := tablesSQL[d]
	if !ok {
		return "", fmt.Errorf("no catalog query for dialect %q", d)
	}
	return q, nil
}

// Tables lists the tables visible in the current schema
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	q, err := TablesQuery(db.Dialect)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

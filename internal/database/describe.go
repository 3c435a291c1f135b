package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

var (
	ErrInvalidTableName = errors.New("invalid table name")
	ErrTableNotFound    = errors.New("table not found")
)

// Column is one column of a described table, in ordinal order.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

type ForeignKey struct {
	Name      string `json:"name"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableInfo is the structure of one table in the current schema. RowCount
// is nil unless it was asked for.
type TableInfo struct {
	Dialect     string       `json:"dialect"`
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes"`
	RowCount    *int64       `json:"row_count,omitempty"`
}

// describeSQL holds the catalog queries for one dialect. Each takes the
// table name as its only bind argument; an empty query is not supported
// by that catalog and is skipped.
type describeSQL struct {
	columns     string
	primaryKey  string
	foreignKeys string
	indexes     string
	upperNames  bool
}

var describeQueries = map[dialect.Dialect]describeSQL{
	dialect.MySQL: {
		columns: `SELECT column_name, column_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`,
		primaryKey: `SELECT column_name FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
ORDER BY ordinal_position`,
		foreignKeys: `SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
ORDER BY constraint_name, ordinal_position`,
		indexes: `SELECT index_name, column_name, CASE WHEN non_unique = 0 THEN 1 ELSE 0 END
FROM information_schema.statistics
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY index_name, seq_in_index`,
	},
	dialect.PostgreSQL: {
		columns: `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`,
		primaryKey: `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY kcu.ordinal_position`,
		foreignKeys: `SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY tc.constraint_name, kcu.ordinal_position`,
		indexes: `SELECT i.relname, a.attname, CASE WHEN ix.indisunique THEN 1 ELSE 0 END
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = current_schema() AND t.relname = $1
ORDER BY i.relname, a.attnum`,
	},
	dialect.SQLServer: {
		columns: `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`,
		primaryKey: `SELECT kcu.COLUMN_NAME
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
  ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = SCHEMA_NAME() AND tc.TABLE_NAME = @p1
ORDER BY kcu.ORDINAL_POSITION`,
		foreignKeys: `SELECT fk.name, pc.name, rt.name, rc.name
FROM sys.foreign_keys fk
JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
WHERE fk.parent_object_id = OBJECT_ID(@p1)
ORDER BY fk.name, fkc.constraint_column_id`,
		indexes: `SELECT i.name, c.name, CAST(i.is_unique AS int)
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE i.object_id = OBJECT_ID(@p1) AND i.name IS NOT NULL
ORDER BY i.name, ic.key_ordinal`,
	},
	dialect.Oracle: {
		columns: `SELECT column_name, data_type, nullable, CAST(NULL AS VARCHAR2(1))
FROM user_tab_columns
WHERE table_name = :1
ORDER BY column_id`,
		primaryKey: `SELECT cc.column_name
FROM user_constraints c
JOIN user_cons_columns cc ON cc.constraint_name = c.constraint_name
WHERE c.constraint_type = 'P' AND c.table_name = :1
ORDER BY cc.position`,
		foreignKeys: `SELECT c.constraint_name, cc.column_name, rc.table_name, rc.column_name
FROM user_constraints c
JOIN user_cons_columns cc ON cc.constraint_name = c.constraint_name
JOIN user_cons_columns rc ON rc.constraint_name = c.r_constraint_name AND rc.position = cc.position
WHERE c.constraint_type = 'R' AND c.table_name = :1
ORDER BY c.constraint_name, cc.position`,
		indexes: `SELECT i.index_name, ic.column_name, CASE WHEN i.uniqueness = 'UNIQUE' THEN 1 ELSE 0 END
FROM user_indexes i
JOIN user_ind_columns ic ON ic.index_name = i.index_name
WHERE i.table_name = :1
ORDER BY i.index_name, ic.column_position`,
		upperNames: true,
	},
	// Snowflake has no secondary indexes and keeps constraints out of
	// information_schema key usage views.
	dialect.Snowflake: {
		columns: `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?
ORDER BY ordinal_position`,
		upperNames: true,
	},
	dialect.Databricks: {
		columns: `SELECT column_name, full_data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`,
		primaryKey: `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema() AND tc.table_name = ?
ORDER BY kcu.ordinal_position`,
	},
}

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]{0,127}$`)

// normalizeTableName validates an unqualified table name and folds it to
// the case the catalog stores unquoted names in.
func normalizeTableName(d dialect.Dialect, name string) (string, error) {
	name = strings.TrimSpace(name)
	if !tableNameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	q, ok := describeQueries[d]
	if !ok {
		return "", fmt.Errorf("no catalog query for dialect %q", d)
	}
	if q.upperNames {
		return strings.ToUpper(name), nil
	}
	return name, nil
}

// DescribeTable reads the columns, keys and indexes of one table in the
// current schema. The exact row count is a full scan and only runs when
// withRowCount is set.
func (db *DB) DescribeTable(ctx context.Context, table string, withRowCount bool) (*TableInfo, error) {
	name, err := normalizeTableName(db.Dialect, table)
	if err != nil {
		return nil, err
	}
	q := describeQueries[db.Dialect]

	info := &TableInfo{Dialect: db.Dialect.String(), Name: name}

	err = db.each(ctx, q.columns, name, func(rows *sql.Rows) error {
		var col, typ, nullable string
		var def sql.NullString
		if err := rows.Scan(&col, &typ, &nullable, &def); err != nil {
			return err
		}
		info.Columns = append(info.Columns, Column{Name: col, Type: typ, Nullable: isNullable(nullable), Default: def.String})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	err = db.each(ctx, q.primaryKey, name, func(rows *sql.Rows) error {
		var col string
		if err := rows.Scan(&col); err != nil {
			return err
		}
		info.PrimaryKey = append(info.PrimaryKey, col)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", name, err)
	}

	err = db.each(ctx, q.foreignKeys, name, func(rows *sql.Rows) error {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return err
		}
		info.ForeignKeys = append(info.ForeignKeys, fk)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", name, err)
	}

	var idx []indexColumn
	err = db.each(ctx, q.indexes, name, func(rows *sql.Rows) error {
		var ic indexColumn
		if err := rows.Scan(&ic.index, &ic.column, &ic.unique); err != nil {
			return err
		}
		idx = append(idx, ic)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", name, err)
	}
	info.Indexes = groupIndexes(idx)

	if withRowCount {
		var n int64
		// name passed tableNameRegex, so it is a bare identifier
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count rows of %s: %w", name, err)
		}
		info.RowCount = &n
	}
	return info, nil
}

// each runs query with the table name and calls fn per row. An empty
// query is a no-op.
func (db *DB) each(ctx context.Context, query, table string, fn func(*sql.Rows) error) error {
	if query == "" {
		return nil
	}
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

type indexColumn struct {
	index  string
	column string
	unique int
}

// groupIndexes folds per-column index rows, already ordered by index and
// position, into one Index per name.
func groupIndexes(rows []indexColumn) []Index {
	var out []Index
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Name == r.index {
			out[n-1].Columns = append(out[n-1].Columns, r.column)
			continue
		}
		out = append(out, Index{Name: r.index, Columns: []string{r.column}, Unique: r.unique != 0})
	}
	return out
}

// isNullable reads the YES/NO and Y/N spellings catalogs use
func isNullable(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "YES", "Y", "TRUE", "1":
		return true
	}
	return false
}

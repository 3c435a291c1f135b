// Package dialect maps a target database to the syntax choices the
// optimizer makes for it.
package dialect

import (
	"fmt"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// Dialect identifies a target SQL database.
type Dialect string

const (
	Oracle     Dialect = "oracle"
	Databricks Dialect = "databricks"
	Snowflake  Dialect = "snowflake"
	PostgreSQL Dialect = "postgresql"
	MySQL      Dialect = "mysql"
	SQLServer  Dialect = "sqlserver"
)

// Known lists the dialects with a dedicated policy, in display order.
var Known = []Dialect{Oracle, Databricks, Snowflake, PostgreSQL, MySQL, SQLServer}

var aliases = map[string]Dialect{
	"postgres": PostgreSQL,
	"pg":       PostgreSQL,
	"mssql":    SQLServer,
	"tsql":     SQLServer,
	"spark":    Databricks,
	"mariadb":  MySQL,
}

// Parse normalizes a user supplied identifier. Unknown names are kept
// lower-cased so they can be echoed back; they resolve to the generic policy.
func Parse(s string) Dialect {
	name := strings.ToLower(strings.TrimSpace(s))
	if d, ok := aliases[name]; ok {
		return d
	}
	return Dialect(name)
}

func (d Dialect) String() string { return string(d) }

// IsKnown reports whether d has a dedicated policy.
func (d Dialect) IsKnown() bool {
	_, ok := policies[d]
	return ok
}

// HintStyle is the optimizer-hint vocabulary a dialect accepts.
type HintStyle int

const (
	HintNone HintStyle = iota
	HintBlock          // Oracle /*+ ... */
	HintBroadcast      // Databricks BROADCAST
)

// RowLimit is the row-limiting idiom of a dialect.
type RowLimit int

const (
	RowLimitNone RowLimit = iota
	RowLimitLimit
	RowLimitRownum
	RowLimitTop
)

func (r RowLimit) String() string {
	switch r {
	case RowLimitLimit:
		return "LIMIT"
	case RowLimitRownum:
		return "ROWNUM"
	case RowLimitTop:
		return "TOP"
	default:
		return "NONE"
	}
}

// DateTrunc selects the expression used to partition rows by a truncated date.
type DateTrunc int

const (
	DateTruncNone DateTrunc = iota
	DateTruncFormat          // DATE_FORMAT(col, 'fmt')
	DateTruncOracle          // TRUNC(col, 'unit')
)

// Policy holds the syntax choices for one dialect.
type Policy struct {
	Dialect        Dialect
	Name           string
	Hints          HintStyle
	DateTrunc      DateTrunc
	RowLimit       RowLimit
	SupportsWindow bool
	// NoLockAdvice marks dialects where WITH (NOLOCK) is suggested, never applied.
	NoLockAdvice bool
	IndexKind    string
	// Syntax is how the dialect writes string literals
	Syntax sqltext.Syntax
}

// mysqlStrings covers dialects with backslash escapes and "..." strings
var mysqlStrings = sqltext.Syntax{BackslashEscapes: true, DoubleQuotedStrings: true}

var policies = map[Dialect]Policy{
	Oracle: {
		Dialect: Oracle, Name: "Oracle", Hints: HintBlock, DateTrunc: DateTruncOracle,
		RowLimit: RowLimitRownum, SupportsWindow: true, IndexKind: "B-TREE",
	},
	Databricks: {
		Dialect: Databricks, Name: "Databricks", Hints: HintBroadcast, DateTrunc: DateTruncFormat,
		RowLimit: RowLimitLimit, SupportsWindow: true, IndexKind: "INDEX", Syntax: mysqlStrings,
	},
	Snowflake: {
		Dialect: Snowflake, Name: "Snowflake", DateTrunc: DateTruncFormat,
		RowLimit: RowLimitLimit, SupportsWindow: true, IndexKind: "INDEX",
	},
	PostgreSQL: {
		Dialect: PostgreSQL, Name: "PostgreSQL", DateTrunc: DateTruncFormat,
		RowLimit: RowLimitLimit, SupportsWindow: true, IndexKind: "B-TREE",
	},
	MySQL: {
		Dialect: MySQL, Name: "MySQL", DateTrunc: DateTruncFormat,
		RowLimit: RowLimitLimit, SupportsWindow: true, IndexKind: "B-TREE", Syntax: mysqlStrings,
	},
	SQLServer: {
		Dialect: SQLServer, Name: "SQL Server", RowLimit: RowLimitTop,
		SupportsWindow: true, NoLockAdvice: true, IndexKind: "INDEX",
	},
}

// PolicyFor returns the policy for d, or a generic no-op policy.
func PolicyFor(d Dialect) Policy {
	if p, ok := policies[d]; ok {
		return p
	}
	return Policy{Dialect: d, Name: "Generic", IndexKind: "INDEX"}
}

// Query masks text with the dialect's literal rules
func (p Policy) Query(text string) *sqltext.Query {
	return sqltext.NewWithSyntax(text, p.Syntax)
}

// SupportsLimit reports whether LIMIT n is the row-limiting idiom.
func (p Policy) SupportsLimit() bool { return p.RowLimit == RowLimitLimit }

var oracleTruncUnits = map[string]string{
	"%Y-%m":    "MM",
	"%Y%m":     "MM",
	"%Y/%m":    "MM",
	"%Y":       "YYYY",
	"%Y-%m-%d": "DD",
	"%Y%m%d":   "DD",
	"%Y/%m/%d": "DD",
}

// PartitionExpr renders the window partition expression for a column
// truncated by a DATE_FORMAT-style format string. ok is false when the
// dialect has no equivalent.
func (p Policy) PartitionExpr(column, format string) (expr string, ok bool) {
	if column == "" || format == "" || !p.SupportsWindow {
		return "", false
	}
	switch p.DateTrunc {
	case DateTruncFormat:
		return fmt.Sprintf("DATE_FORMAT(%s, '%s')", column, format), true
	case DateTruncOracle:
		unit, known := oracleTruncUnits[format]
		if !known {
			return "", false
		}
		return fmt.Sprintf("TRUNC(%s, '%s')", column, unit), true
	default:
		return "", false
	}
}

// LimitClause renders a row limit of n around a bare SELECT body. It is
// used by generated SQL, never to rewrite user queries.
func (p Policy) LimitClause(selectList, from string, n int) string {
	switch p.RowLimit {
	case RowLimitRownum:
		return fmt.Sprintf("SELECT %s FROM %s WHERE ROWNUM <= %d", selectList, from, n)
	case RowLimitTop:
		return fmt.Sprintf("SELECT TOP %d %s FROM %s", n, selectList, from)
	default:
		return fmt.Sprintf("SELECT %s FROM %s LIMIT %d", selectList, from, n)
	}
}

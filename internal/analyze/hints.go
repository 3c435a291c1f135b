package analyze

import (
	"regexp"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

var firstSelectRegex = regexp.MustCompile(`(?i)\bSELECT\b`)

// insertHintBlock adds an Oracle /*+ ... */ block after the first SELECT.
// Queries that already carry a hint block are left alone.
func insertHintBlock(text string) (string, []string) {
	if strings.Contains(text, "/*+") {
		return text, nil
	}
	q := sqltext.New(text)

	var hints []string
	joins := q.CountKeyword("JOIN")
	if joins > 0 {
		hints = append(hints, "USE_HASH")
	}
	if joins > 1 || q.HasKeyword("GROUP BY") {
		hints = append(hints, "PARALLEL(4)")
	}
	if len(hints) == 0 {
		return text, nil
	}

	loc := firstSelectRegex.FindStringIndex(q.Masked())
	if loc == nil {
		return text, nil
	}
	block := " /*+ " + strings.Join(hints, " ") + " */"
	return text[:loc[1]] + block + text[loc[1]:], hints
}

// hintSuggestions returns the dialect's non-mutating hint advice for q
func hintSuggestions(q *sqltext.Query, policy dialect.Policy) []Suggestion {
	if !q.HasKeyword("SELECT") {
		return nil
	}
	var out []Suggestion
	switch {
	case policy.Hints == dialect.HintBlock:
		if q.HasKeyword("WHERE") && !strings.Contains(strings.ToUpper(q.Text()), "INDEX(") {
			out = append(out, Suggestion{
				Priority:    PriorityInfo,
				Title:       "Index Hint Suggestion",
				Description: "If a suitable index exists, add an /*+ INDEX(table_name index_name) */ hint",
				Example:     "SELECT /*+ INDEX(employees emp_idx) */ ...",
			})
		}
	case policy.Hints == dialect.HintBroadcast:
		if q.HasKeyword("JOIN") {
			out = append(out, Suggestion{
				Priority:    PriorityInfo,
				Title:       "Databricks Broadcast Join",
				Description: "For small dimension tables, use a broadcast hint: SELECT /*+ BROADCAST(small_table) */",
				Example:     "SELECT /*+ BROADCAST(dim_table) */ * FROM fact JOIN dim_table",
			})
		}
	case policy.NoLockAdvice:
		if !q.HasKeyword("NOLOCK") {
			out = append(out, Suggestion{
				Priority:    PriorityInfo,
				Title:       "SQL Server Table Hints",
				Description: "Consider table hints like WITH (NOLOCK) for read operations, accepting dirty reads",
				Example:     "FROM employees WITH (NOLOCK)",
			})
		}
	case policy.Dialect == dialect.Snowflake:
		out = append(out, Suggestion{
			Priority:    PriorityInfo,
			Title:       "Snowflake Clustering Keys",
			Description: "Consider defining clustering keys on frequently filtered columns",
			Example:     "ALTER TABLE table_name CLUSTER BY (date_column, id_column);",
		})
	}
	return out
}

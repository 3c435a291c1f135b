package analyze

import (
	"fmt"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// Advisor turns pattern hits into suggestions. It never changes the query.
type Advisor struct {
	analyzer *QueryAnalyzer
}

func NewAdvisor(analyzer *QueryAnalyzer) *Advisor {
	return &Advisor{analyzer: analyzer}
}

// Advise returns suggestions for every detected pattern whose category is
// enabled. Patterns listed in rewritten were already fixed in the output
// query and are not reported again.
func (a *Advisor) Advise(q *sqltext.Query, policy dialect.Policy, opts OptionSet, rewritten map[PatternKind]bool) []Suggestion {
	d := a.analyzer.Detect(q, policy)
	pending := func(kind PatternKind) bool { return d.Has(kind) && !rewritten[kind] }

	var out []Suggestion

	if opts.Enabled(CategoryJoins) && pending(PatternCommaJoin) {
		out = append(out, commaJoinSuggestion(d.Of(PatternCommaJoin)[0]))
	}

	if opts.Enabled(CategoryBestPractices) && d.Has(PatternSelectStar) {
		out = append(out, Suggestion{
			Priority:    PriorityMedium,
			Title:       "Avoid SELECT * in Production Queries",
			Description: "SELECT * retrieves all columns, which can be inefficient. Specify only the columns you need.",
			Example:     "SELECT column1, column2, column3 FROM table_name",
		})
	}

	if opts.Enabled(CategorySubqueries) {
		if pending(PatternInSubquery) {
			out = append(out, Suggestion{
				Priority:    PriorityMedium,
				Title:       "IN Subquery Detected",
				Description: "IN with subqueries can be slow. Consider using EXISTS or JOIN instead",
				Example:     "WHERE EXISTS (SELECT 1 FROM table WHERE table.id = outer.id)",
			})
		}
		if d.Has(PatternNotInSubquery) {
			out = append(out, Suggestion{
				Priority:    PriorityHigh,
				Title:       "NOT IN Subquery Detected",
				Description: "NOT IN returns no rows when the subquery yields a NULL. Use NOT EXISTS or LEFT JOIN with a NULL check",
				Example:     "WHERE NOT EXISTS (SELECT 1 FROM table WHERE table.id = outer.id)",
			})
		}
		if pending(PatternCorrelatedAvg) {
			out = append(out, Suggestion{
				Priority:    PriorityHigh,
				Title:       "Correlated Subquery Detected",
				Description: "Correlated subqueries execute once per row. Window functions are much faster",
				Example:     "SELECT * FROM (SELECT col, AVG(col) OVER (PARTITION BY group_col) AS avg FROM table) WHERE col > avg",
			})
		}
	}

	if opts.Enabled(CategoryBestPractices) {
		if d.Has(PatternOrChain) {
			out = append(out, Suggestion{
				Priority:    PriorityMedium,
				Title:       "Multiple OR Conditions",
				Description: "OR conditions can prevent index usage. Consider using IN or UNION",
				Example:     "WHERE status IN ('active', 'pending') -- instead of: status = 'active' OR status = 'pending'",
			})
		}
		if d.Has(PatternLeadingWildcard) {
			out = append(out, Suggestion{
				Priority:    PriorityHigh,
				Title:       "Leading Wildcard in LIKE",
				Description: "LIKE with a leading wildcard (%) cannot use indexes. Consider full-text search",
				Example:     "Use LIKE 'value%' (trailing wildcard) or implement full-text search",
			})
		}
		if matches := d.Of(PatternFunctionOnColumn); len(matches) > 0 {
			out = append(out, functionOnColumnSuggestion(matches))
		}
	}

	if d.Has(PatternMissingLimit) {
		out = append(out, Suggestion{
			Priority:    PriorityLow,
			Title:       "Missing LIMIT with ORDER BY",
			Description: "ORDER BY without LIMIT sorts the entire result set. Add LIMIT for better performance",
			Example:     "ORDER BY created_date DESC LIMIT 100",
		})
	}
	if d.Has(PatternHaving) {
		out = append(out, Suggestion{
			Priority:    PriorityInfo,
			Title:       "HAVING Clause Usage",
			Description: "Ensure HAVING filters are necessary. Move row-level conditions to WHERE when possible",
			Example:     "Use WHERE for row-level filtering before GROUP BY",
		})
	}

	return out
}

func commaJoinSuggestion(m Match) Suggestion {
	s := Suggestion{
		Priority:    PriorityMedium,
		Title:       "Implicit Join Detected",
		Description: "Old-style comma joins (FROM table1, table2) should be replaced with explicit JOIN syntax for better readability and optimizer hints.",
		Example:     "FROM employees e JOIN departments d ON e.dept_id = d.id",
	}
	if m.Detail != "" {
		s.Description += " Not rewritten automatically: " + m.Detail + "."
	}
	return s
}

func functionOnColumnSuggestion(matches []Match) Suggestion {
	var exprs []string
	for _, m := range matches {
		if m.Detail != "" && !containsFold(exprs, m.Detail) {
			exprs = append(exprs, m.Detail)
		}
	}
	return Suggestion{
		Priority: PriorityMedium,
		Title:    "Function on Column in WHERE Clause",
		Description: fmt.Sprintf("Functions on columns prevent index usage (%s). Create function-based indexes or compare against a transformed constant",
			strings.Join(exprs, ", ")),
		Example: "CREATE INDEX idx_func ON table (UPPER(column)); -- then use: WHERE UPPER(column) = 'VALUE'",
	}
}

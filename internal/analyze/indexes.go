package analyze

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// MaxIndexRecommendations caps the recommendations per query
const MaxIndexRecommendations = 5

var (
	predicateColumnRegex = regexp.MustCompile(`(?i)\b(` + identPattern + `)\.(` + identPattern + `)\s*(?:=|<>|!=|<=|>=|<|>|\bBETWEEN\b|\bLIKE\b|\bIN\b)`)
	joinOnRegex          = regexp.MustCompile(`(?i)\bON\s+(` + identPattern + `)\.(` + identPattern + `)\s*=\s*(` + identPattern + `)\.(` + identPattern + `)`)
	fromItemRegex        = regexp.MustCompile(`(?i)^\s*(` + identPattern + `(?:\.` + identPattern + `)?)(?:\s+(?:AS\s+)?(` + identPattern + `))?`)
	joinTableRegex       = regexp.MustCompile(`(?i)\bJOIN\s+(` + identPattern + `(?:\.` + identPattern + `)?)(?:\s+(?:AS\s+)?(` + identPattern + `))?`)
)

var notAliases = map[string]bool{
	"ON": true, "USING": true, "WHERE": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true, "JOIN": true, "GROUP": true, "ORDER": true, "HAVING": true,
	"LIMIT": true, "NATURAL": true, "OUTER": true, "UNION": true, "WITH": true,
}

// aliasTable maps every alias and bare table name in FROM lists and JOIN
// clauses to the table it stands for
func aliasTable(q *sqltext.Query) map[string]string {
	tables := map[string]string{}
	add := func(name, alias string) {
		if name == "" || notAliases[strings.ToUpper(name)] {
			return
		}
		_, base := splitQualified(name)
		if _, ok := tables[strings.ToLower(base)]; !ok {
			tables[strings.ToLower(base)] = name
		}
		if alias != "" && !notAliases[strings.ToUpper(alias)] {
			tables[strings.ToLower(alias)] = name
		}
	}

	for _, from := range q.ClauseSpans("FROM") {
		for _, item := range q.SplitCommas(from) {
			if m := q.Submatches(fromItemRegex, item); m != nil {
				add(q.Slice(m[1]), q.Slice(m[2]))
			}
		}
	}
	for _, m := range q.AllSubmatches(joinTableRegex, q.All()) {
		add(q.Slice(m[1]), q.Slice(m[2]))
	}
	return tables
}

// recommendIndexes proposes indexes for columns filtered in WHERE clauses
// and compared in JOIN ... ON conditions, resolving aliases to table names
// where the FROM clause allows it
func recommendIndexes(q *sqltext.Query, policy dialect.Policy) []IndexRecommendation {
	tables := aliasTable(q)
	resolve := func(alias string) string {
		if table, ok := tables[strings.ToLower(alias)]; ok {
			return table
		}
		return alias
	}

	var recs []IndexRecommendation
	seen := map[string]bool{}
	add := func(alias, column, rationale string) {
		table := resolve(alias)
		key := strings.ToLower(table) + "." + strings.ToLower(column)
		if seen[key] {
			return
		}
		seen[key] = true
		recs = append(recs, IndexRecommendation{
			Table:     table,
			Columns:   column,
			Kind:      policy.IndexKind,
			Rationale: rationale,
			DDL:       indexDDL(table, column),
		})
	}

	visited := map[int]bool{}
	for _, where := range q.ClauseSpans("WHERE") {
		for _, m := range q.AllSubmatches(predicateColumnRegex, where) {
			if visited[m[0].Start] {
				continue
			}
			visited[m[0].Start] = true
			add(q.Slice(m[1]), q.Slice(m[2]), "Column used in WHERE clause for filtering")
		}
	}
	for _, m := range q.AllSubmatches(joinOnRegex, q.All()) {
		add(q.Slice(m[1]), q.Slice(m[2]), "Column used in JOIN condition")
		add(q.Slice(m[3]), q.Slice(m[4]), "Column used in JOIN condition")
	}

	if len(recs) > MaxIndexRecommendations {
		recs = recs[:MaxIndexRecommendations]
	}
	return recs
}

func indexDDL(table, column string) string {
	name := strings.ReplaceAll(table, ".", "_")
	return fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", name, strings.ToLower(column), table, column)
}

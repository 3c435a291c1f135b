package analyze

import (
	"regexp"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// PatternKind names one entry of the pattern catalog
type PatternKind string

const (
	PatternCommaJoin        PatternKind = "comma-join"
	PatternCorrelatedAvg    PatternKind = "correlated-aggregate"
	PatternInSubquery       PatternKind = "in-subquery"
	PatternNotInSubquery    PatternKind = "not-in-subquery"
	PatternLeadingWildcard  PatternKind = "leading-wildcard"
	PatternFunctionOnColumn PatternKind = "function-on-column"
	PatternMissingLimit     PatternKind = "missing-limit"
	PatternSelectStar       PatternKind = "select-star"
	PatternOrChain          PatternKind = "or-chain"
	PatternHaving           PatternKind = "having"
)

// Capture is the structured data extracted by a rewritable pattern
type Capture interface {
	pattern() PatternKind
}

// Match is a single recognizer hit. Complete is false when the shape was
// seen but a capture needed for a safe rewrite is missing.
type Match struct {
	Kind     PatternKind
	Span     sqltext.Span
	Capture  Capture
	Complete bool
	Detail   string
}

// Rule recognizes one pattern. Rules are independent and side-effect free.
type Rule interface {
	Kind() PatternKind
	Match(q *sqltext.Query, policy dialect.Policy) []Match
}

// TableRef is a table as written in a FROM list
type TableRef struct {
	Name  string
	Alias string
	Text  string
}

// Ref is the name other clauses use to qualify this table's columns
func (t TableRef) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	if i := strings.LastIndex(t.Name, "."); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

const identPattern = `[A-Za-z_][\w$]*`

var tableItemRegex = regexp.MustCompile(`(?i)^\s*(` + identPattern + `(?:\.` + identPattern + `)*)(?:\s+(?:AS\s+)?(` + identPattern + `))?\s*$`)

var reservedAliases = map[string]bool{
	"WHERE": true, "ON": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true, "GROUP": true, "ORDER": true, "LATERAL": true, "SAMPLE": true,
}

// parseTableRef reads "schema.table [AS] alias" from s
func parseTableRef(q *sqltext.Query, s sqltext.Span) (TableRef, bool) {
	m := q.Submatches(tableItemRegex, s)
	if m == nil {
		return TableRef{}, false
	}
	ref := TableRef{
		Name:  q.Slice(m[1]),
		Alias: q.Slice(m[2]),
		Text:  q.Slice(q.Trim(s)),
	}
	if reservedAliases[strings.ToUpper(ref.Alias)] {
		return TableRef{}, false
	}
	return ref, true
}

func splitQualified(col string) (qualifier, name string) {
	if i := strings.LastIndex(col, "."); i >= 0 {
		return col[:i], col[i+1:]
	}
	return "", col
}

// QueryAnalyzer runs the pattern catalog over a query
type QueryAnalyzer struct {
	rules []Rule
}

func NewQueryAnalyzer() *QueryAnalyzer {
	return &QueryAnalyzer{
		rules: []Rule{
			commaJoinRule{},
			correlatedAvgRule{},
			inSubqueryRule{},
			notInSubqueryRule{},
			leadingWildcardRule{},
			functionOnColumnRule{},
			missingLimitRule{},
			selectStarRule{},
			orChainRule{},
			havingRule{},
		},
	}
}

// Detection is the outcome of running every rule over one query
type Detection struct {
	Matches []Match
}

// Of returns the matches of a single kind
func (d Detection) Of(kind PatternKind) []Match {
	var out []Match
	for _, m := range d.Matches {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Has reports whether kind matched at least once
func (d Detection) Has(kind PatternKind) bool {
	return len(d.Of(kind)) > 0
}

// Kinds lists the distinct kinds that matched, in catalog order
func (d Detection) Kinds() []PatternKind {
	seen := map[PatternKind]bool{}
	var out []PatternKind
	for _, m := range d.Matches {
		if !seen[m.Kind] {
			seen[m.Kind] = true
			out = append(out, m.Kind)
		}
	}
	return out
}

// Detect runs every rule; rules are not mutually exclusive
func (qa *QueryAnalyzer) Detect(q *sqltext.Query, policy dialect.Policy) Detection {
	var d Detection
	for _, rule := range qa.rules {
		d.Matches = append(d.Matches, rule.Match(q, policy)...)
	}
	return d
}

// DetectKind runs only the rule for kind
func (qa *QueryAnalyzer) DetectKind(q *sqltext.Query, policy dialect.Policy, kind PatternKind) []Match {
	for _, rule := range qa.rules {
		if rule.Kind() == kind {
			return rule.Match(q, policy)
		}
	}
	return nil
}

// --- 1. comma join ---

// CommaJoinCapture holds the FROM list and WHERE predicates of a comma join
type CommaJoinCapture struct {
	Tables     []TableRef
	FromStart  int
	ListEnd    int
	Where      sqltext.Span
	WhereEnd   int
	Conditions []sqltext.Span
}

func (*CommaJoinCapture) pattern() PatternKind { return PatternCommaJoin }

type commaJoinRule struct{}

func (commaJoinRule) Kind() PatternKind { return PatternCommaJoin }

func (commaJoinRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	if !q.StartsWith("SELECT", "WITH") || q.HasKeyword("JOIN") {
		return nil
	}
	fromIdx := q.FindTopLevel("FROM", 0, q.Len())
	if fromIdx < 0 {
		return nil
	}
	listStart := q.KeywordEnd(fromIdx, "FROM")
	listEnd := q.ClauseEnd(listStart)
	items := q.SplitCommas(sqltext.Span{Start: listStart, End: listEnd})
	if len(items) < 2 {
		return nil
	}

	match := Match{Kind: PatternCommaJoin, Span: sqltext.Span{Start: fromIdx, End: listEnd}}
	capture := &CommaJoinCapture{FromStart: fromIdx, ListEnd: listEnd, Where: sqltext.Span{Start: -1, End: -1}, WhereEnd: listEnd}
	for _, item := range items {
		ref, ok := parseTableRef(q, item)
		if !ok {
			match.Detail = "FROM list contains an item that is not a plain table"
			return []Match{match}
		}
		capture.Tables = append(capture.Tables, ref)
	}

	if where := q.ClauseBody(listEnd, "WHERE"); !where.Empty() {
		if q.HasTopLevel(where, "OR") {
			match.Detail = "WHERE clause mixes OR with the join predicates"
			return []Match{match}
		}
		capture.Where = where
		capture.WhereEnd = where.End
		capture.Conditions = q.SplitTopLevel(where, "AND")
		match.Span.End = where.End
	}

	match.Capture = capture
	match.Complete = true
	return []Match{match}
}

// --- 2. correlated aggregate subquery ---

// CorrelatedAvgCapture holds the pieces of
// SELECT ... FROM t a WHERE col > (SELECT AVG(x) FROM t b WHERE <date predicate>)
type CorrelatedAvgCapture struct {
	SelectList      string
	Table           string
	OuterAlias      string
	InnerAlias      string
	CompareColumn   string
	AvgColumn       string
	PartitionColumn string
	Format          string
	Tail            string
}

func (*CorrelatedAvgCapture) pattern() PatternKind { return PatternCorrelatedAvg }

var (
	correlatedAvgRegex = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+(` + identPattern + `(?:\.` + identPattern + `)?)\s+(?:AS\s+)?(` + identPattern + `)\s+WHERE\s+(` + identPattern + `(?:\.` + identPattern + `)?)\s*>\s*(\()\s*SELECT\s+AVG\s*\(\s*(` + identPattern + `(?:\.` + identPattern + `)?)\s*\)\s+FROM\s+(` + identPattern + `(?:\.` + identPattern + `)?)\s+(?:AS\s+)?(` + identPattern + `)\s+WHERE\s+`)

	dateTruncPredicateRegex = regexp.MustCompile(`(?is)^\s*DATE_FORMAT\s*\(\s*(?:(` + identPattern + `)\.)?(` + identPattern + `)\s*,\s*('[^']*')\s*\)\s*=\s*DATE_FORMAT\s*\(\s*(?:(` + identPattern + `)\.)?(` + identPattern + `)\s*,\s*('[^']*')\s*\)\s*$`)

	correlatedTailRegex = regexp.MustCompile(`(?is)^(?:(?:ORDER\s+BY|LIMIT)\b[^;]*)?;?$`)
)

type correlatedAvgRule struct{}

func (correlatedAvgRule) Kind() PatternKind { return PatternCorrelatedAvg }

// Match captures the rewritable AVG shape. Any other subquery in the WHERE
// clause that references an outer table is reported as an incomplete match.
func (correlatedAvgRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	if matches := matchCorrelatedAvg(q); matches != nil {
		return matches
	}
	return correlatedSubqueries(q)
}

func matchCorrelatedAvg(q *sqltext.Query) []Match {
	m := q.Submatches(correlatedAvgRegex, q.All())
	if m == nil {
		return nil
	}
	selectList := q.Trim(m[1])
	if q.HasTopLevel(selectList, "FROM") || q.DepthAt(selectList.End) != 0 {
		return nil
	}

	open := m[5].Start
	closeAt := q.MatchingParen(open)
	if closeAt < 0 {
		return nil
	}
	match := Match{Kind: PatternCorrelatedAvg, Span: sqltext.Span{Start: m[0].Start, End: closeAt + 1}}

	table, innerTable := q.Slice(m[2]), q.Slice(m[7])
	if !strings.EqualFold(table, innerTable) {
		match.Detail = "subquery reads a different table"
		return []Match{match}
	}

	if !correlatedTailRegex.MatchString(strings.TrimSpace(q.Masked()[closeAt+1:])) {
		match.Detail = "outer query has predicates beyond the subquery comparison"
		return []Match{match}
	}
	tail := strings.TrimSpace(q.Text()[closeAt+1:])
	tail = strings.TrimSpace(strings.TrimSuffix(tail, ";"))

	outerAlias, innerAlias := q.Slice(m[3]), q.Slice(m[8])
	pred := q.Submatches(dateTruncPredicateRegex, sqltext.Span{Start: m[0].End, End: closeAt})
	if pred == nil {
		match.Detail = "subquery predicate is not a DATE_FORMAT equality"
		return []Match{match}
	}

	leftQual, leftCol, leftFmt := q.Slice(pred[1]), q.Slice(pred[2]), q.Slice(pred[3])
	rightQual, rightCol, rightFmt := q.Slice(pred[4]), q.Slice(pred[5]), q.Slice(pred[6])
	if !strings.EqualFold(leftCol, rightCol) || leftFmt != rightFmt {
		match.Detail = "date predicate compares different columns or formats"
		return []Match{match}
	}
	isOuter := func(qual string) bool { return strings.EqualFold(qual, outerAlias) }
	isInner := func(qual string) bool {
		return qual == "" || strings.EqualFold(qual, innerAlias) || strings.EqualFold(qual, table)
	}
	correlated := (isOuter(leftQual) && isInner(rightQual)) || (isInner(leftQual) && isOuter(rightQual))
	if !correlated || strings.EqualFold(outerAlias, innerAlias) {
		match.Detail = "date predicate does not correlate the inner and outer rows"
		return []Match{match}
	}

	_, avgColumn := splitQualified(q.Slice(m[6]))
	match.Capture = &CorrelatedAvgCapture{
		SelectList:      q.Slice(selectList),
		Table:           table,
		OuterAlias:      outerAlias,
		InnerAlias:      innerAlias,
		CompareColumn:   q.Slice(m[4]),
		AvgColumn:       avgColumn,
		PartitionColumn: leftCol,
		Format:          strings.Trim(leftFmt, "'"),
		Tail:            tail,
	}
	match.Complete = true
	return []Match{match}
}

var (
	subqueryOpenRegex    = regexp.MustCompile(`(?i)(\()\s*SELECT\b`)
	qualifiedColumnRegex = regexp.MustCompile(`(?i)\b(` + identPattern + `)\s*\.\s*` + identPattern)
)

// correlatedSubqueries finds subqueries in the top-level WHERE clause whose
// own WHERE qualifies a column with a table of the outer FROM
func correlatedSubqueries(q *sqltext.Query) []Match {
	where := q.FindTopLevel("WHERE", 0, q.Len())
	if where < 0 {
		return nil
	}
	outer := fromRefs(q, 0, where)
	if len(outer) == 0 {
		return nil
	}

	var matches []Match
	covered := -1
	for _, m := range q.AllSubmatches(subqueryOpenRegex, q.ClauseBody(where, "WHERE")) {
		open := m[1].Start
		closeAt := q.MatchingParen(open)
		if closeAt < 0 || open < covered {
			continue
		}
		innerWhere := q.FindTopLevel("WHERE", open+1, closeAt)
		if innerWhere < 0 {
			continue
		}
		inner := fromRefs(q, open+1, innerWhere)
		predicate := q.ClauseBody(innerWhere, "WHERE")
		for _, c := range q.AllSubmatches(qualifiedColumnRegex, predicate) {
			qual := q.Slice(c[1])
			if containsFold(outer, qual) && !containsFold(inner, qual) {
				matches = append(matches, Match{
					Kind:   PatternCorrelatedAvg,
					Span:   sqltext.Span{Start: open, End: closeAt + 1},
					Detail: "subquery references the outer table " + qual + " and is not an AVG over a date partition",
				})
				covered = closeAt
				break
			}
		}
	}
	return matches
}

// fromRefs returns the names that qualify columns of the tables in the
// first FROM clause of [from, to) at the depth of from
func fromRefs(q *sqltext.Query, from, to int) []string {
	fromIdx := q.FindTopLevel("FROM", from, to)
	if fromIdx < 0 {
		return nil
	}
	listStart := q.KeywordEnd(fromIdx, "FROM")
	list := sqltext.Span{Start: listStart, End: q.ClauseEnd(listStart)}

	var refs []string
	add := func(name, alias string) {
		if name == "" || notAliases[strings.ToUpper(name)] {
			return
		}
		ref := TableRef{Name: name}
		if alias != "" && !notAliases[strings.ToUpper(alias)] {
			ref.Alias = alias
		}
		refs = append(refs, ref.Ref())
	}
	for _, item := range q.SplitCommas(list) {
		if m := q.Submatches(fromItemRegex, item); m != nil {
			add(q.Slice(m[1]), q.Slice(m[2]))
		}
	}
	depth := q.DepthAt(list.Start)
	for _, m := range q.AllSubmatches(joinTableRegex, list) {
		if q.DepthAt(m[0].Start) == depth {
			add(q.Slice(m[1]), q.Slice(m[2]))
		}
	}
	return refs
}

// --- 3. IN subquery ---

// InSubqueryCapture holds WHERE outer IN (SELECT inner FROM table [WHERE pred])
type InSubqueryCapture struct {
	Keyword        string
	OuterColumn    string
	OuterRef       string
	InnerColumn    string
	Table          TableRef
	InnerPredicate string
	PredicateHasOR bool
}

func (*InSubqueryCapture) pattern() PatternKind { return PatternInSubquery }

var (
	inSubqueryRegex  = regexp.MustCompile(`(?i)\bIN\s*(\()\s*SELECT\b`)
	notInPrefixRegex = regexp.MustCompile(`(?i)\bNOT\s*$`)

	inSubqueryCaptureRegex = regexp.MustCompile(`(?is)\b(WHERE|AND|OR)\s+(` + identPattern + `(?:\.` + identPattern + `)?)\s+IN\s*(\()\s*SELECT\s+(?:DISTINCT\s+)?(` + identPattern + `(?:\.` + identPattern + `)?)\s+FROM\s+`)
)

type inSubqueryRule struct{}

func (inSubqueryRule) Kind() PatternKind { return PatternInSubquery }

func (inSubqueryRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	captures := map[int][]sqltext.Span{}
	for _, m := range q.AllSubmatches(inSubqueryCaptureRegex, q.All()) {
		captures[m[3].Start] = m
	}

	var matches []Match
	for _, m := range q.AllSubmatches(inSubqueryRegex, q.All()) {
		if notInPrefixRegex.MatchString(q.Masked()[:m[0].Start]) {
			continue
		}
		open := m[1].Start
		closeAt := q.MatchingParen(open)
		if closeAt < 0 {
			continue
		}
		match := Match{Kind: PatternInSubquery, Span: sqltext.Span{Start: m[0].Start, End: closeAt + 1}}
		if c, ok := captures[open]; ok {
			match.Span.Start = c[0].Start
			capture, detail := captureInSubquery(q, c, closeAt)
			if capture != nil {
				match.Capture = capture
				match.Complete = true
			}
			match.Detail = detail
		} else {
			match.Detail = "IN subquery is not a single-column comparison in a WHERE predicate"
		}
		matches = append(matches, match)
	}
	return matches
}

func captureInSubquery(q *sqltext.Query, m []sqltext.Span, closeAt int) (*InSubqueryCapture, string) {
	body := sqltext.Span{Start: m[0].End, End: closeAt}
	tableSpan := body
	predicate := sqltext.Span{Start: -1, End: -1}
	if where := q.FindTopLevel("WHERE", body.Start, body.End); where >= 0 {
		tableSpan.End = where
		predicate = q.ClauseBody(where, "WHERE")
		if predicate.End != closeAt {
			return nil, "subquery has clauses after its WHERE predicate"
		}
	}

	table, ok := parseTableRef(q, tableSpan)
	if !ok {
		return nil, "subquery does not read a single plain table"
	}

	outerColumn := q.Slice(m[2])
	qualifier, _ := splitQualified(outerColumn)
	outerRef := qualifier
	if outerRef == "" {
		if q.DepthAt(m[0].Start) != 0 {
			return nil, "cannot resolve the outer table of a nested IN subquery"
		}
		ref, ok := outerTable(q, m[0].Start)
		if !ok {
			return nil, "outer column is unqualified and the outer FROM has several tables"
		}
		outerRef = ref.Ref()
	}

	if table.Alias != "" && strings.EqualFold(table.Alias, outerRef) {
		return nil, "subquery alias shadows the outer table"
	}

	_, innerColumn := splitQualified(q.Slice(m[4]))
	capture := &InSubqueryCapture{
		Keyword:     q.Slice(m[1]),
		OuterColumn: outerColumn,
		OuterRef:    outerRef,
		InnerColumn: innerColumn,
		Table:       table,
	}
	if !predicate.Empty() {
		predicate = q.Trim(predicate)
		capture.InnerPredicate = q.Slice(predicate)
		if table.Alias == "" && strings.EqualFold(table.Ref(), outerRef) {
			// the bare name meant the inner row; it gets the synthetic alias in EXISTS
			capture.InnerPredicate = requalify(q, predicate, table.Ref(), syntheticAlias)
		}
		capture.PredicateHasOR = q.HasTopLevel(predicate, "OR")
	}
	return capture, ""
}

// requalify returns the text of s with every ref.column qualifier outside
// literals and comments pointed at alias instead
func requalify(q *sqltext.Query, s sqltext.Span, ref, alias string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(ref) + `\s*\.`)
	var b strings.Builder
	last := s.Start
	for _, m := range q.AllSubmatches(re, s) {
		if m[0].Start > 0 && q.Masked()[m[0].Start-1] == '.' {
			continue
		}
		b.WriteString(q.Text()[last:m[0].Start])
		b.WriteString(alias + ".")
		last = m[0].End
	}
	b.WriteString(q.Text()[last:s.End])
	return b.String()
}

// outerTable resolves the single table of the top-level FROM before pos
func outerTable(q *sqltext.Query, pos int) (TableRef, bool) {
	fromIdx := q.FindTopLevel("FROM", 0, pos)
	if fromIdx < 0 {
		return TableRef{}, false
	}
	listStart := q.KeywordEnd(fromIdx, "FROM")
	list := sqltext.Span{Start: listStart, End: q.ClauseEnd(listStart)}
	if q.HasKeyword("JOIN") {
		return TableRef{}, false
	}
	items := q.SplitCommas(list)
	if len(items) != 1 {
		return TableRef{}, false
	}
	return parseTableRef(q, items[0])
}

// --- 4. NOT IN subquery ---

var notInSubqueryRegex = regexp.MustCompile(`(?i)\bNOT\s+IN\s*\(\s*SELECT\b`)

type notInSubqueryRule struct{}

func (notInSubqueryRule) Kind() PatternKind { return PatternNotInSubquery }

func (notInSubqueryRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	return spansToMatches(PatternNotInSubquery, q.AllSubmatches(notInSubqueryRegex, q.All()))
}

// --- 5. leading wildcard LIKE ---

var likeLiteralRegex = regexp.MustCompile(`(?i)\b(?:I?LIKE)\s+(['"])`)

type leadingWildcardRule struct{}

func (leadingWildcardRule) Kind() PatternKind { return PatternLeadingWildcard }

func (leadingWildcardRule) Match(q *sqltext.Query, policy dialect.Policy) []Match {
	var matches []Match
	for _, m := range q.AllSubmatches(likeLiteralRegex, q.All()) {
		quote := m[1].Start
		if q.Text()[quote] == '"' && !policy.Syntax.DoubleQuotedStrings {
			continue
		}
		if quote+1 < q.Len() && q.Text()[quote+1] == '%' {
			matches = append(matches, Match{Kind: PatternLeadingWildcard, Span: m[0], Complete: true})
		}
	}
	return matches
}

// --- 6. function wrapped column ---

var functionOnColumnRegex = regexp.MustCompile(`(?i)\b(UPPER|LOWER|SUBSTR|TO_CHAR|TO_DATE|DATE_FORMAT|TRIM)\s*\(\s*(` + identPattern + `\.` + identPattern + `)\s*[,)]`)

type functionOnColumnRule struct{}

func (functionOnColumnRule) Kind() PatternKind { return PatternFunctionOnColumn }

func (functionOnColumnRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	var matches []Match
	seen := map[int]bool{}
	for _, where := range q.ClauseSpans("WHERE") {
		for _, m := range q.AllSubmatches(functionOnColumnRegex, where) {
			if seen[m[0].Start] {
				continue
			}
			seen[m[0].Start] = true
			matches = append(matches, Match{
				Kind:     PatternFunctionOnColumn,
				Span:     m[0],
				Complete: true,
				Detail:   strings.ToUpper(q.Slice(m[1])) + "(" + q.Slice(m[2]) + ")",
			})
		}
	}
	return matches
}

// --- 7. ORDER BY without LIMIT ---

type missingLimitRule struct{}

func (missingLimitRule) Kind() PatternKind { return PatternMissingLimit }

func (missingLimitRule) Match(q *sqltext.Query, policy dialect.Policy) []Match {
	if !policy.SupportsLimit() {
		return nil
	}
	// window ORDER BY inside OVER (...) and subquery sorts do not count
	top := func(kw string) bool { return q.FindTopLevel(kw, 0, q.Len()) >= 0 }
	if !top("ORDER BY") || top("LIMIT") || top("FETCH") {
		return nil
	}
	return []Match{{Kind: PatternMissingLimit, Span: q.All(), Complete: true}}
}

// --- 8. SELECT * ---

var selectStarRegex = regexp.MustCompile(`(?i)\bSELECT\s+(?:DISTINCT\s+)?\*`)

type selectStarRule struct{}

func (selectStarRule) Kind() PatternKind { return PatternSelectStar }

func (selectStarRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	return spansToMatches(PatternSelectStar, q.AllSubmatches(selectStarRegex, q.All()))
}

// --- 9. OR in WHERE ---

type orChainRule struct{}

func (orChainRule) Kind() PatternKind { return PatternOrChain }

func (orChainRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	for _, where := range q.ClauseSpans("WHERE") {
		if q.MentionsWord(where, "OR") {
			return []Match{{Kind: PatternOrChain, Span: where, Complete: true}}
		}
	}
	return nil
}

// --- 10. HAVING ---

type havingRule struct{}

func (havingRule) Kind() PatternKind { return PatternHaving }

func (havingRule) Match(q *sqltext.Query, _ dialect.Policy) []Match {
	if !q.HasKeyword("GROUP BY") || !q.HasKeyword("HAVING") {
		return nil
	}
	return []Match{{Kind: PatternHaving, Span: q.All(), Complete: true}}
}

func spansToMatches(kind PatternKind, found [][]sqltext.Span) []Match {
	var matches []Match
	for _, m := range found {
		matches = append(matches, Match{Kind: kind, Span: m[0], Complete: true})
	}
	return matches
}

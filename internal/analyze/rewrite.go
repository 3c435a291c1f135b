package analyze

import (
	"fmt"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// syntheticAlias qualifies an IN subquery's table when its own name would
// collide with the outer table.
const syntheticAlias = "sub"

const ambiguousJoinMarker = "ON 1=1  -- TODO: Add proper join condition"

// maxInRewrites bounds the IN→EXISTS loop on pathological input
const maxInRewrites = 32

// rewriteCommaJoin converts a comma separated FROM list into INNER JOINs.
//
// Join predicates are picked by counting how many of the FROM list's
// aliases a WHERE condition mentions: two or more makes it a join
// condition. A condition that mentions two aliases incidentally (inside a
// function call, say) is misread as a join key; that approximation is kept.
func rewriteCommaJoin(q *sqltext.Query, c *CommaJoinCapture) (string, Change) {
	refs := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		refs[i] = t.Ref()
	}
	distinct := uniqueFold(refs)

	isJoin := make([]bool, len(c.Conditions))
	for i, cond := range c.Conditions {
		mentioned := 0
		for _, ref := range distinct {
			if q.MentionsWord(cond, ref) {
				mentioned++
			}
		}
		isJoin[i] = mentioned >= 2
	}

	var b strings.Builder
	b.WriteString("FROM ")
	b.WriteString(c.Tables[0].Text)

	used := make([]bool, len(c.Conditions))
	inScope := []string{refs[0]}
	ambiguous := 0
	endsInComment := false
	for i, table := range c.Tables[1:] {
		ref := refs[i+1]
		scope := append(append([]string{}, inScope...), ref)

		pick := -1
		for j, cond := range c.Conditions {
			if !isJoin[j] || used[j] || !q.MentionsWord(cond, ref) {
				continue
			}
			if mentionsOnly(q, cond, distinct, scope) {
				pick = j
				break
			}
		}

		if pick >= 0 {
			used[pick] = true
			fmt.Fprintf(&b, "\n    INNER JOIN %s ON %s", table.Text, q.Slice(c.Conditions[pick]))
			endsInComment = false
		} else {
			ambiguous++
			fmt.Fprintf(&b, "\n    INNER JOIN %s %s", table.Text, ambiguousJoinMarker)
			endsInComment = true
		}
		inScope = scope
	}

	var remaining []string
	for j, cond := range c.Conditions {
		if !used[j] {
			remaining = append(remaining, q.Slice(cond))
		}
	}
	if len(remaining) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(remaining, " AND "))
		endsInComment = false
	}

	text := q.Text()
	out := text[:c.FromStart] + b.String()
	if tail := strings.TrimSpace(text[c.WhereEnd:]); tail != "" {
		if tail == ";" && !endsInComment {
			out += tail
		} else {
			out += "\n" + tail
		}
	}

	change := Change{
		Category:    ChangeCommaJoin,
		Description: "Converted implicit comma joins to explicit INNER JOIN syntax",
		Rationale:   "Join keys are stated next to each table, which is easier to read and gives the optimizer explicit join predicates",
	}
	if ambiguous > 0 {
		change.Rationale += fmt.Sprintf("; %d table(s) had no join predicate and were joined ON 1=1 with a TODO marker", ambiguous)
	}
	return out, change
}

// mentionsOnly reports whether every alias cond mentions is in scope
func mentionsOnly(q *sqltext.Query, cond sqltext.Span, refs, scope []string) bool {
	for _, ref := range refs {
		if !q.MentionsWord(cond, ref) {
			continue
		}
		if !containsFold(scope, ref) {
			return false
		}
	}
	return true
}

// rewriteCorrelatedAvg replaces a correlated AVG subquery with a window
// aggregate over a derived table. ok is false when the dialect has no
// matching date truncation.
func rewriteCorrelatedAvg(c *CorrelatedAvgCapture, policy dialect.Policy) (string, Change, bool) {
	partition, ok := policy.PartitionExpr(c.PartitionColumn, c.Format)
	if !ok {
		return "", Change{}, false
	}

	out := fmt.Sprintf(`SELECT %s
FROM (
    SELECT %s.*,
           AVG(%s) OVER (PARTITION BY %s) AS month_avg
    FROM %s %s
) %s
WHERE %s > month_avg`,
		c.SelectList,
		c.OuterAlias,
		c.AvgColumn, partition,
		c.Table, c.OuterAlias,
		c.OuterAlias,
		c.CompareColumn)
	if c.Tail != "" {
		out += "\n" + c.Tail
	}

	description := "Converted correlated subquery to window function"
	rationale := "The average is computed once per partition in a single pass instead of once per outer row"
	if policy.DateTrunc == dialect.DateTruncOracle {
		description = "Converted correlated subquery to analytic function"
		rationale = "Oracle analytic AVG computes each month's average in a single pass instead of once per outer row"
	}
	return out, Change{Category: ChangeCorrelatedAvg, Description: description, Rationale: rationale}, true
}

// existsClause renders the EXISTS form of an IN subquery capture
func existsClause(c *InSubqueryCapture) string {
	innerRef := c.Table.Ref()
	tableText := c.Table.Text
	if c.Table.Alias == "" && strings.EqualFold(innerRef, c.OuterRef) {
		innerRef = syntheticAlias
		tableText = c.Table.Name + " " + syntheticAlias
	}

	outer := c.OuterColumn
	if !strings.Contains(outer, ".") {
		outer = c.OuterRef + "." + outer
	}

	cond := fmt.Sprintf("%s.%s = %s", innerRef, c.InnerColumn, outer)
	if c.InnerPredicate != "" {
		predicate := c.InnerPredicate
		if c.PredicateHasOR {
			predicate = "(" + predicate + ")"
		}
		cond += " AND " + predicate
	}
	return fmt.Sprintf("%s EXISTS (SELECT 1 FROM %s WHERE %s)", c.Keyword, tableText, cond)
}

// rewriteInSubqueries rewrites every fully captured IN subquery into
// EXISTS. remaining counts IN subqueries that could not be rewritten.
func rewriteInSubqueries(text string, policy dialect.Policy) (out string, rewritten, remaining int) {
	rule := inSubqueryRule{}
	out = text
	for rewritten < maxInRewrites {
		q := policy.Query(out)
		matches := rule.Match(q, policy)

		var next *Match
		remaining = 0
		for i := range matches {
			if matches[i].Complete {
				if next == nil {
					next = &matches[i]
				}
				continue
			}
			remaining++
		}
		if next == nil {
			return out, rewritten, remaining
		}

		capture := next.Capture.(*InSubqueryCapture)
		out = out[:next.Span.Start] + existsClause(capture) + out[next.Span.End:]
		rewritten++
	}
	return out, rewritten, remaining
}

func uniqueFold(values []string) []string {
	var out []string
	for _, v := range values {
		if !containsFold(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}

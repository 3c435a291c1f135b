package analyze

import "github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"

// Complexity is a display-only classification of query shape
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityMedium
	ComplexityComplex
	ComplexityVeryComplex
)

func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "Simple"
	case ComplexityMedium:
		return "Medium"
	case ComplexityComplex:
		return "Complex"
	default:
		return "Very Complex"
	}
}

// MaxImprovementEstimate is the ceiling of EstimateImprovement
const MaxImprovementEstimate = 85

// ComplexityScore weighs joins, nesting, aggregation and predicates
func ComplexityScore(q *sqltext.Query) int {
	score := 0
	score += q.CountKeyword("JOIN") * 2
	score += q.CountKeyword("LEFT JOIN") * 3
	score += q.CountKeyword("OUTER JOIN") * 3
	if selects := q.CountKeyword("SELECT"); selects > 1 {
		score += selects - 1
	}
	score += q.CountKeyword("GROUP BY") * 2
	score += q.CountKeyword("HAVING") * 2
	score += q.CountKeyword("WHERE")
	score += q.CountKeyword("AND")
	score += q.CountKeyword("OR")
	return score
}

// ClassifyComplexity maps a score to its label
func ClassifyComplexity(score int) Complexity {
	switch {
	case score <= 5:
		return ComplexitySimple
	case score <= 15:
		return ComplexityMedium
	case score <= 30:
		return ComplexityComplex
	default:
		return ComplexityVeryComplex
	}
}

// EstimateImprovement is a synthetic percentage derived from what the
// optimizer did and found. It is not measured against an execution plan.
func EstimateImprovement(changes int, suggestions []Suggestion, changed bool) int {
	estimate := 10 * changes
	for _, s := range suggestions {
		switch s.Priority {
		case PriorityHigh:
			estimate += 15
		case PriorityMedium:
			estimate += 10
		}
	}
	if changed {
		estimate += 20
	}
	if estimate > MaxImprovementEstimate {
		return MaxImprovementEstimate
	}
	if estimate < 0 {
		return 0
	}
	return estimate
}

package analyze

import "errors"

// ErrEmptyQuery is returned when there is no query text to optimize.
var ErrEmptyQuery = errors.New("no query provided")

// Category names accepted in an OptionSet
const (
	CategoryJoins         = "joins"
	CategoryHints         = "hints"
	CategoryBestPractices = "bestPractices"
	CategoryIndexes       = "indexes"
	CategorySubqueries    = "subqueries"
)

// Categories lists every category an OptionSet can switch off
var Categories = []string{CategoryJoins, CategoryHints, CategoryBestPractices, CategoryIndexes, CategorySubqueries}

// OptionSet enables or disables optimization categories. Missing
// categories are enabled.
type OptionSet map[string]bool

// Enabled reports whether category is switched on
func (o OptionSet) Enabled(category string) bool {
	enabled, ok := o[category]
	return !ok || enabled
}

// Change tags recorded when the query text is mutated
const (
	ChangeCommaJoin      = "comma-join→explicit-join"
	ChangeOracleHints    = "optimizer-hints"
	ChangeCorrelatedAvg  = "correlated-subquery→window-function"
	ChangeInToExists     = "in-subquery→exists"
	ChangeAIOptimization = "ai-optimization"
)

// Change records one mutation applied to the query
type Change struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

// Priority of an advisory suggestion
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)

// Suggestion is advisory only; it never mutates the query
type Suggestion struct {
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Example     string   `json:"example,omitempty"`
}

// IndexRecommendation proposes an index derived from column usage in the query text
type IndexRecommendation struct {
	Table     string `json:"table"`
	Columns   string `json:"columns"`
	Kind      string `json:"kind"`
	Rationale string `json:"rationale"`
	DDL       string `json:"ddl"`
}

// OptimizationResult is everything produced for one optimize call
type OptimizationResult struct {
	OriginalQuery        string                `json:"original_query"`
	RewrittenQuery       string                `json:"rewritten_query"`
	Dialect              string                `json:"dialect"`
	ChangeCount          int                   `json:"changes_count"`
	Complexity           string                `json:"complexity"`
	ImprovementEstimate  int                   `json:"estimated_improvement"`
	Changes              []Change              `json:"changes"`
	Suggestions          []Suggestion          `json:"suggestions"`
	IndexRecommendations []IndexRecommendation `json:"index_recommendations"`
	AIUsed               bool                  `json:"ai_used"`

	// Steps traces what each pipeline step did; it is not part of the payload.
	Steps []StepResult `json:"-"`
}

// Changed reports whether the rewritten text differs from the input
func (r *OptimizationResult) Changed() bool {
	return r.RewrittenQuery != r.OriginalQuery
}

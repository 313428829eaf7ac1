// Package indicator computes the weighted graduation-readiness score from
// enriched academic-history rows plus curriculum and criticality reference
// data. The engine favors documented neutral defaults over errors: missing
// or malformed academic data is the expected common case here.
package indicator

// Component keys, in the fixed aggregation order.
const (
	KeyApproval    = "approval_rate"
	KeyPerformance = "performance"
	KeyPermanence  = "permanence"
	KeyRepetition  = "repetition"
	KeyCriticality = "criticality"
	KeyRelevance   = "relevance"
	KeyDemographic = "demographic"
)

// Tier labels for the aggregate percentage.
const (
	TierHigh   = "High"
	TierMedium = "Medium"
	TierLow    = "Low"
)

// Component is one named sub-score. Read-only after creation.
type Component struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Value        float64 `json:"value"`  // 0.0-1.0
	Weight       float64 `json:"weight"` // fixed per component, sums to 1.0
	Contribution float64 `json:"contribution"`
}

// Stats summarizes the matched rows that fed the calculation. Dashboards use
// CoveragePct as the data-quality signal for warning about low-match uploads.
type Stats struct {
	UniqueCourses int     `json:"unique_courses"`
	ApprovedCount int     `json:"approved_count"`
	AvgGrade      float64 `json:"avg_grade"` // rounded to two decimals
	LastSemester  int     `json:"last_semester"`
	CoveragePct   float64 `json:"coverage_pct"`
}

// Result aggregates the seven components. One instance per (student, dataset)
// pair; recomputed fully on each invocation.
type Result struct {
	Components []Component `json:"components"`
	Total      float64     `json:"total"` // 0-100
	Tier       string      `json:"tier"`
	Stats      Stats       `json:"stats"`
}

// componentDefs fixes label, description and weight per component. Weights
// sum to exactly 1.0.
var componentDefs = []struct {
	key         string
	label       string
	description string
	weight      float64
}{
	{KeyApproval, "Approval rate", "Share of curriculum rows passed (grade >= 4.0 or approved status)", 0.25},
	{KeyPerformance, "Performance", "Mean grade over the 1.0-7.0 scale", 0.20},
	{KeyPermanence, "Permanence", "Penalty for years enrolled beyond the expected five", 0.20},
	{KeyRepetition, "Repetition", "Penalty for repeated course attempts", 0.10},
	{KeyCriticality, "Criticality", "Institutional risk weighting of the distinct courses taken", 0.10},
	{KeyRelevance, "Curricular progress", "Last curricular semester reached relative to the plan length", 0.10},
	{KeyDemographic, "Demographic context", "Self-reported gender, city and school-type factors", 0.05},
}

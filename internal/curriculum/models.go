package curriculum

// Entry is one canonical course of the study plan ("malla").
type Entry struct {
	Code     string         `json:"code,omitempty"`
	Name     string         `json:"name,omitempty"`
	Semester int            `json:"semester,omitempty"` // 1-based curricular semester, 0 when undetected
	Source   map[string]any `json:"-"`                  // originating document node, kept for diagnostics
}

// Index holds the lookup tables built from one curriculum document. Both maps
// are keyed by normalized strings; on key collisions the last inserted entry
// wins, while Entries keeps each distinct course exactly once.
type Index struct {
	ByCode  map[string]*Entry
	ByName  map[string]*Entry
	Entries []*Entry

	// nameOrder records ByName insertion order. Fuzzy matching iterates it so
	// that "first qualifying candidate wins" is reproducible across runs.
	nameOrder []string

	MaxSemester   int // highest semester index seen while scanning
	PlanSemesters int // explicit total-semesters figure from the document, 0 when absent
}

// NameKeys returns the normalized name keys in insertion order.
func (ix *Index) NameKeys() []string { return ix.nameOrder }

// PlanLength is the number of semesters in the plan: the explicit figure when
// the document carries one, else the highest semester seen, else ten.
func (ix *Index) PlanLength() int {
	if ix.PlanSemesters > 0 {
		return ix.PlanSemesters
	}
	if ix.MaxSemester > 0 {
		return ix.MaxSemester
	}
	return defaultPlanSemesters
}

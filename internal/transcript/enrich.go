package transcript

import (
	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/match"
)

// Enrich annotates every history row with its curriculum-match outcome. Pure
// map over the input: neither records nor the index are mutated, and rows
// with no match come back with the zero enrichment fields.
func Enrich(records []RawRecord, ix *curriculum.Index) []EnrichedRecord {
	out := make([]EnrichedRecord, len(records))
	for i, r := range records {
		er := EnrichedRecord{RawRecord: r}
		if e := match.Match(r.Code, r.Name, ix); e != nil {
			er.InCurriculum = true
			er.CurricularSemester = e.Semester
			er.CanonicalCode = e.Code
			er.CanonicalName = e.Name
		}
		out[i] = er
	}
	return out
}

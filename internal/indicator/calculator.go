package indicator

import (
	"math"
	"strings"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/textnorm"
	"github.com/campus-metrics/egreso/internal/transcript"
)

// Input bundles everything one calculation consumes. Criticality, Curriculum
// and Profile may each be nil; every component degrades to its documented
// default instead of failing.
type Input struct {
	Records     []transcript.EnrichedRecord
	Criticality *CriticalityTable
	Curriculum  *curriculum.Index
	Profile     *Profile
}

const (
	approvalGrade  = 4.0
	gradeScaleMax  = 7.0
	expectedYears  = 5
	minPlausible   = 2000
	maxPlausible   = 2100
	maxCriticality = 5
)

// Calculate computes the seven weighted components and their aggregate. Only
// rows matched into the curriculum participate; the whole result is
// recomputed on every call.
func Calculate(in Input) Result {
	malla := make([]transcript.EnrichedRecord, 0, len(in.Records))
	for _, r := range in.Records {
		if r.InCurriculum {
			malla = append(malla, r)
		}
	}

	relevance, lastSemester := relevanceScore(malla, in.Curriculum)
	values := map[string]float64{
		KeyApproval:    approvalRate(malla),
		KeyPerformance: performanceScore(malla),
		KeyPermanence:  permanenceScore(malla),
		KeyRepetition:  repetitionScore(malla),
		KeyCriticality: criticalityScore(malla, in.Criticality),
		KeyRelevance:   relevance,
		KeyDemographic: demographicScore(in.Profile),
	}

	res := Result{Components: make([]Component, 0, len(componentDefs))}
	total := 0.0
	for _, def := range componentDefs {
		v := values[def.key]
		c := Component{
			Key:          def.key,
			Label:        def.label,
			Description:  def.description,
			Value:        v,
			Weight:       def.weight,
			Contribution: v * def.weight,
		}
		total += c.Contribution
		res.Components = append(res.Components, c)
	}
	res.Total = clamp(total, 0, 1) * 100
	switch {
	case res.Total >= 80:
		res.Tier = TierHigh
	case res.Total >= 60:
		res.Tier = TierMedium
	default:
		res.Tier = TierLow
	}
	res.Stats = buildStats(malla, in.Curriculum, lastSemester)
	return res
}

// approvalRate: passed rows over total curriculum rows. Empty set: 0.
func approvalRate(malla []transcript.EnrichedRecord) float64 {
	if len(malla) == 0 {
		return 0
	}
	passed := 0
	for _, r := range malla {
		if approved(r) {
			passed++
		}
	}
	return float64(passed) / float64(len(malla))
}

func approved(r transcript.EnrichedRecord) bool {
	if r.Grade >= approvalGrade {
		return true
	}
	status := textnorm.Normalize(r.Status, false)
	return strings.Contains(status, "APROB") || strings.Contains(status, "APPROVED")
}

// performanceScore: mean of positive grades over the scale maximum. A grade
// of zero means "absent", not a failing mark, so it never drags the mean.
// Empty set: 0.
func performanceScore(malla []transcript.EnrichedRecord) float64 {
	sum, n := 0.0, 0
	for _, r := range malla {
		if r.Grade > 0 {
			sum += r.Grade
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n)/gradeScaleMax, 0, 1)
}

// permanenceScore penalizes only the years beyond the expected five. Years
// outside 2000-2100 are treated as data errors and ignored. Empty set: 1.
func permanenceScore(malla []transcript.EnrichedRecord) float64 {
	minYear, maxYear := 0, 0
	for _, r := range malla {
		if r.Year < minPlausible || r.Year > maxPlausible {
			continue
		}
		if minYear == 0 || r.Year < minYear {
			minYear = r.Year
		}
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	if minYear == 0 {
		return 1
	}
	span := maxYear - minYear + 1
	over := float64(span - expectedYears)
	if over < 0 {
		over = 0
	}
	return clamp(1-over/float64(expectedYears), 0, 1)
}

// repetitionScore: one repetition is every row of a course beyond its first.
// Empty set: 1.
func repetitionScore(malla []transcript.EnrichedRecord) float64 {
	if len(malla) == 0 {
		return 1
	}
	counts := map[string]int{}
	for _, r := range malla {
		counts[r.CourseKey()]++
	}
	repeats := 0
	for _, c := range counts {
		if c > 1 {
			repeats += c - 1
		}
	}
	return clamp(1-float64(repeats)/float64(len(malla)), 0, 1)
}

// criticalityScore averages the per-course risk score over the maximum.
// Empty set: 0.5 (neutral risk).
func criticalityScore(malla []transcript.EnrichedRecord, table *CriticalityTable) float64 {
	type course struct{ code, name string }
	distinct := map[string]course{}
	for _, r := range malla {
		k := r.CourseKey()
		if _, ok := distinct[k]; ok {
			continue
		}
		name := r.CanonicalName
		if name == "" {
			name = r.Name
		}
		distinct[k] = course{code: r.CanonicalCode, name: name}
	}
	if len(distinct) == 0 {
		return 0.5
	}
	sum := 0
	for _, c := range distinct {
		sum += table.ScoreFor(c.code, c.name)
	}
	return clamp(float64(sum)/float64(maxCriticality*len(distinct)), 0, 1)
}

// relevanceScore returns the progress sub-score together with the last
// curricular semester reached, which the aggregator also needs for the
// summary statistics. Empty set: 0, 0.
func relevanceScore(malla []transcript.EnrichedRecord, ix *curriculum.Index) (float64, int) {
	last := 0
	for _, r := range malla {
		if r.CurricularSemester > last {
			last = r.CurricularSemester
		}
	}
	if last == 0 {
		return 0, 0
	}
	plan := 10
	if ix != nil {
		plan = ix.PlanLength()
	}
	return math.Min(1, float64(last)/float64(plan)), last
}

func buildStats(malla []transcript.EnrichedRecord, ix *curriculum.Index, lastSemester int) Stats {
	distinct := map[string]struct{}{}
	approvedCount := 0
	sum, n := 0.0, 0
	for _, r := range malla {
		distinct[r.CourseKey()] = struct{}{}
		if approved(r) {
			approvedCount++
		}
		if r.Grade > 0 {
			sum += r.Grade
			n++
		}
	}
	st := Stats{
		UniqueCourses: len(distinct),
		ApprovedCount: approvedCount,
		LastSemester:  lastSemester,
	}
	if n > 0 {
		st.AvgGrade = round2(sum / float64(n))
	}
	if ix != nil && len(ix.Entries) > 0 {
		st.CoveragePct = round2(float64(len(distinct)) / float64(len(ix.Entries)) * 100)
	}
	return st
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

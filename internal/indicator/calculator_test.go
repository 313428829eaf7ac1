package indicator

import (
	"math"
	"testing"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/transcript"
)

func mallaRow(code string, grade float64, year, attempt int) transcript.EnrichedRecord {
	return transcript.EnrichedRecord{
		RawRecord:     transcript.RawRecord{StudentID: "s1", Code: code, Grade: grade, Year: year, Term: 1, Attempt: attempt},
		InCurriculum:  true,
		CanonicalCode: code,
	}
}

func componentValue(t *testing.T, res Result, key string) float64 {
	t.Helper()
	for _, c := range res.Components {
		if c.Key == key {
			return c.Value
		}
	}
	t.Fatalf("component %q missing from result", key)
	return 0
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, def := range componentDefs {
		sum += def.weight
	}
	if !almostEqual(sum, 1.0) {
		t.Fatalf("component weights sum to %v, want 1.0", sum)
	}
}

func TestEmptySetDefaults(t *testing.T) {
	res := Calculate(Input{Records: []transcript.EnrichedRecord{
		// present but unmatched: must not participate
		{RawRecord: transcript.RawRecord{Code: "X", Grade: 6.0, Year: 2020}},
	}})
	wantValues := map[string]float64{
		KeyApproval:    0,
		KeyPerformance: 0,
		KeyPermanence:  1,
		KeyRepetition:  1,
		KeyCriticality: 0.5,
		KeyRelevance:   0,
		KeyDemographic: 0.5,
	}
	for key, want := range wantValues {
		if got := componentValue(t, res, key); !almostEqual(got, want) {
			t.Errorf("%s empty-set default = %v, want %v", key, got, want)
		}
	}
	if res.Total < 0 || res.Total > 100 {
		t.Errorf("total out of range: %v", res.Total)
	}
	if res.Stats.UniqueCourses != 0 || res.Stats.ApprovedCount != 0 {
		t.Errorf("stats must be zero on empty malla set: %+v", res.Stats)
	}
}

func TestTotalRangeAndTier(t *testing.T) {
	perfect := []transcript.EnrichedRecord{mallaRow("C1", 7.0, 2022, 1)}
	ix := curriculum.BuildIndex([]any{map[string]any{"code": "C1", "name": "Curso Uno", "semester": float64(10)}})
	rows := make([]transcript.EnrichedRecord, len(perfect))
	copy(rows, perfect)
	rows[0].CurricularSemester = 10

	res := Calculate(Input{
		Records:    rows,
		Curriculum: ix,
		Profile:    &Profile{Gender: "femenino", City: "Valdivia", SchoolType: "municipal"},
	})
	if res.Total > 100 || res.Total < 0 {
		t.Fatalf("total out of range: %v", res.Total)
	}
	// approval 1, performance 1, permanence 1, repetition 1, relevance 1,
	// demographic 1, criticality 1/5: total = 100*(0.90 + 0.10*0.2) = 92.
	if !almostEqual(res.Total, 92) {
		t.Errorf("total = %v, want 92", res.Total)
	}
	if res.Tier != TierHigh {
		t.Errorf("tier = %s, want %s", res.Tier, TierHigh)
	}

	low := Calculate(Input{})
	if low.Tier != TierLow {
		t.Errorf("empty input tier = %s, want %s", low.Tier, TierLow)
	}
}

// Scenario: one course attempted twice among ten rows -> one repetition.
func TestRepetitionScenario(t *testing.T) {
	rows := []transcript.EnrichedRecord{
		mallaRow("REP1", 3.5, 2022, 1),
		mallaRow("REP1", 4.2, 2022, 2),
	}
	for i := 0; i < 8; i++ {
		rows = append(rows, mallaRow("C"+string(rune('A'+i)), 5.0, 2022, 1))
	}
	res := Calculate(Input{Records: rows})
	if got := componentValue(t, res, KeyRepetition); !almostEqual(got, 0.90) {
		t.Errorf("repetition = %v, want 0.90", got)
	}
}

func TestPermanenceScenarios(t *testing.T) {
	cases := []struct {
		years []int
		want  float64
	}{
		{[]int{2022, 2023}, 1.0},       // 2-year span, below threshold
		{[]int{2021, 2022, 2023}, 1.0}, // 3-year span, still below
		{[]int{2017, 2023}, 0.6},       // 7-year span: 1 - 2/5
		{[]int{2010, 2023}, 0.0},       // clamped at zero
		{[]int{1905, 2022}, 1.0},       // implausible year ignored
	}
	for _, c := range cases {
		rows := make([]transcript.EnrichedRecord, 0, len(c.years))
		for i, y := range c.years {
			rows = append(rows, mallaRow("P"+string(rune('A'+i)), 5.0, y, 1))
		}
		res := Calculate(Input{Records: rows})
		if got := componentValue(t, res, KeyPermanence); !almostEqual(got, c.want) {
			t.Errorf("permanence(%v) = %v, want %v", c.years, got, c.want)
		}
	}
}

// Scenario: nine distinct courses with scores summing to 43 of a possible 45.
func TestCriticalityScenario(t *testing.T) {
	entries := []CriticalityEntry{}
	rows := []transcript.EnrichedRecord{}
	// eight courses at score 5, one at score 3: sum 43
	for i := 0; i < 8; i++ {
		code := "CR" + string(rune('A'+i))
		entries = append(entries, CriticalityEntry{Code: code, Label: "muy alta"})
		rows = append(rows, mallaRow(code, 5.0, 2022, 1))
	}
	entries = append(entries, CriticalityEntry{Code: "CRI", Label: "media"})
	rows = append(rows, mallaRow("CRI", 5.0, 2022, 1))

	res := Calculate(Input{Records: rows, Criticality: NewCriticalityTable(entries)})
	want := 43.0 / 45.0
	if got := componentValue(t, res, KeyCriticality); !almostEqual(got, want) {
		t.Errorf("criticality = %v, want %v", got, want)
	}
}

func TestPerformanceIgnoresAbsentGrades(t *testing.T) {
	rows := []transcript.EnrichedRecord{
		mallaRow("G1", 6.0, 2022, 1),
		mallaRow("G2", 0, 2022, 1), // coerced-absent grade: not a zero mark
	}
	res := Calculate(Input{Records: rows})
	if got := componentValue(t, res, KeyPerformance); !almostEqual(got, 6.0/7.0) {
		t.Errorf("performance = %v, want %v", got, 6.0/7.0)
	}
	if !almostEqual(res.Stats.AvgGrade, 6.0) {
		t.Errorf("avg grade = %v, want 6.0", res.Stats.AvgGrade)
	}
}

func TestApprovalByStatusText(t *testing.T) {
	rows := []transcript.EnrichedRecord{
		{RawRecord: transcript.RawRecord{Code: "S1", Grade: 0, Status: "Aprobado"}, InCurriculum: true, CanonicalCode: "S1"},
		{RawRecord: transcript.RawRecord{Code: "S2", Grade: 3.9, Status: "Reprobado"}, InCurriculum: true, CanonicalCode: "S2"},
	}
	res := Calculate(Input{Records: rows})
	if got := componentValue(t, res, KeyApproval); !almostEqual(got, 0.5) {
		t.Errorf("approval = %v, want 0.5", got)
	}
	if res.Stats.ApprovedCount != 1 {
		t.Errorf("approved count = %d, want 1", res.Stats.ApprovedCount)
	}
}

func TestRelevanceAndCoverage(t *testing.T) {
	ix := curriculum.BuildIndex([]any{
		map[string]any{"code": "R1", "name": "Curso R1", "semester": float64(1)},
		map[string]any{"code": "R2", "name": "Curso R2", "semester": float64(4)},
		map[string]any{"code": "R3", "name": "Curso R3", "semester": float64(8)},
		map[string]any{"code": "R4", "name": "Curso R4", "semester": float64(8)},
	})
	r1 := mallaRow("R1", 5.0, 2022, 1)
	r1.CurricularSemester = 1
	r2 := mallaRow("R2", 5.5, 2023, 1)
	r2.CurricularSemester = 4

	res := Calculate(Input{Records: []transcript.EnrichedRecord{r1, r2}, Curriculum: ix})
	if got := componentValue(t, res, KeyRelevance); !almostEqual(got, 0.5) {
		t.Errorf("relevance = %v, want 4/8 = 0.5", got)
	}
	if res.Stats.LastSemester != 4 {
		t.Errorf("last semester = %d, want 4", res.Stats.LastSemester)
	}
	if !almostEqual(res.Stats.CoveragePct, 50) {
		t.Errorf("coverage = %v, want 50", res.Stats.CoveragePct)
	}
}

func TestDemographicScore(t *testing.T) {
	cases := []struct {
		p    *Profile
		want float64
	}{
		{nil, 0.5},
		{&Profile{}, 0.5},
		{&Profile{Gender: "Femenino", City: "Concepción", SchoolType: "Municipal"}, 1.0},
		{&Profile{Gender: "Masculino", City: "Santiago Centro", SchoolType: "Particular"}, 0.0},
		{&Profile{Gender: "Otro", City: "Santiago", SchoolType: "subvencionado"}, 2.0 / 3.0},
	}
	for _, c := range cases {
		if got := demographicScore(c.p); !almostEqual(got, c.want) {
			t.Errorf("demographicScore(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

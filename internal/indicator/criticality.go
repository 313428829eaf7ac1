package indicator

import (
	"strings"

	"github.com/campus-metrics/egreso/internal/textnorm"
)

// CriticalityEntry maps a course to an institutional risk figure: either a
// categorical label or failure percentages indexed by attempt number.
type CriticalityEntry struct {
	Code       string          `json:"code,omitempty"`
	Name       string          `json:"name,omitempty"`
	Label      string          `json:"label,omitempty"`
	AttemptPct map[int]float64 `json:"attempt_pct,omitempty"`
}

// CriticalityTable resolves a course to an integer score 1-5. Lookups go by
// normalized code first, then normalized name.
type CriticalityTable struct {
	byCode map[string]CriticalityEntry
	byName map[string]CriticalityEntry
}

// NewCriticalityTable indexes the reference entries. Nil-safe: a nil table
// scores every course at the default 1.
func NewCriticalityTable(entries []CriticalityEntry) *CriticalityTable {
	t := &CriticalityTable{
		byCode: map[string]CriticalityEntry{},
		byName: map[string]CriticalityEntry{},
	}
	for _, e := range entries {
		if k := textnorm.Normalize(e.Code, true); k != "" {
			t.byCode[k] = e
		}
		if k := textnorm.Normalize(e.Name, false); k != "" {
			t.byName[k] = e
		}
	}
	return t
}

// maxAttemptLevel bounds the attempt-percentage scan; institutional tables
// carry at most three attempt columns.
const maxAttemptLevel = 3

// ScoreFor resolves the criticality score of one course. Priority: failure
// percentage at the highest attempt level present, else the categorical
// label, else 1.
func (t *CriticalityTable) ScoreFor(code, name string) int {
	if t == nil {
		return 1
	}
	e, ok := t.byCode[textnorm.Normalize(code, true)]
	if !ok {
		e, ok = t.byName[textnorm.Normalize(name, false)]
	}
	if !ok {
		return 1
	}
	for attempt := maxAttemptLevel; attempt >= 1; attempt-- {
		if pct, present := e.AttemptPct[attempt]; present {
			return pctScore(pct)
		}
	}
	if s := labelScore(e.Label); s > 0 {
		return s
	}
	return 1
}

// pctScore maps a failure percentage to 1-5. Thresholds are half-open on the
// lower bound: exactly 5.0 scores 2, not 1.
func pctScore(pct float64) int {
	switch {
	case pct >= 30:
		return 5
	case pct >= 20:
		return 4
	case pct >= 10:
		return 3
	case pct >= 5:
		return 2
	default:
		return 1
	}
}

// labelScores is checked in order: compound labels ("media alta") must win
// before their substrings ("alta", "media").
var labelScores = []struct {
	label string
	score int
}{
	{"MUY ALTA", 5},
	{"VERY HIGH", 5},
	{"MEDIA ALTA", 4},
	{"MEDIUM HIGH", 4},
	{"MUY BAJA", 1},
	{"VERY LOW", 1},
	{"ALTA", 5},
	{"HIGH", 5},
	{"MEDIA", 3},
	{"MEDIUM", 3},
	{"BAJA", 2},
	{"LOW", 2},
}

func labelScore(label string) int {
	n := textnorm.Normalize(label, false)
	if n == "" {
		return 0
	}
	for _, ls := range labelScores {
		if strings.Contains(n, ls.label) {
			return ls.score
		}
	}
	return 0
}

package curriculum

import (
	"sort"
	"strconv"
	"strings"

	"github.com/campus-metrics/egreso/internal/textnorm"
)

// Candidate key lists for heuristic field extraction, highest priority first.
// Curriculum exports mix Spanish and English headers, so both appear. Keys are
// compared after textnorm.Normalize(key, true).
var (
	codeKeys     = []string{"CODIGO", "SIGLA", "COD", "CODE", "ID"}
	nameKeys     = []string{"NOMBRE", "ASIGNATURA", "RAMO", "CURSO", "MATERIA", "NAME", "SUBJECT", "TITLE"}
	semesterKeys = []string{"SEMESTRE", "NIVEL", "SEMESTER", "LEVEL", "PERIODO"}
	planKeys     = []string{"TOTALSEMESTRES", "SEMESTRESTOTALES", "DURACIONSEMESTRES", "TOTALSEMESTERS", "PLANSEMESTERS"}
)

// lookupField resolves a field from an untyped node: an exact normalized-key
// hit on any candidate wins, then a substring hit. Map keys are visited in
// sorted order so the result does not depend on map iteration.
func lookupField(node map[string]any, candidates []string) (any, bool) {
	keys := sortedKeys(node)
	normed := make([]string, len(keys))
	for i, k := range keys {
		normed[i] = textnorm.Normalize(k, true)
	}
	for _, cand := range candidates {
		for i, nk := range normed {
			if nk == cand {
				return node[keys[i]], true
			}
		}
	}
	for _, cand := range candidates {
		for i, nk := range normed {
			if strings.Contains(nk, cand) {
				return node[keys[i]], true
			}
		}
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asString renders a scalar field value as a trimmed string.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool, nil:
		return ""
	default:
		return ""
	}
}

// asNumber coerces a scalar field value to a float, tolerating numeric text.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		// "Semestre 3" style values: take the first digit run
		if d := firstDigits(s); d != "" {
			if f, err := strconv.ParseFloat(d, 64); err == nil {
				return f, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func firstDigits(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

// Package match resolves free-text academic-history rows against a
// curriculum index.
package match

import (
	"strconv"
	"strings"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/textnorm"
)

// minFuzzyLen guards fuzzy matching against short abbreviations that would
// substring-match half the plan.
const minFuzzyLen = 6

// Match resolves a history row to a curriculum entry, or nil when nothing
// qualifies. Resolution order, first hit wins:
//
//  1. normalized code lookup
//  2. exact normalized name lookup
//  3. fuzzy name scan: substring containment either direction, skipping
//     candidates whose sequence level (arabic or roman suffix) differs from
//     the record's, so "Taller I" never lands on "Taller II"
//
// The fuzzy scan walks the name index in insertion order, so the winning
// candidate is stable for a given curriculum document.
func Match(code, name string, ix *curriculum.Index) *curriculum.Entry {
	if ix == nil {
		return nil
	}
	if c := textnorm.Normalize(code, true); c != "" {
		if e, ok := ix.ByCode[c]; ok {
			return e
		}
	}
	n := textnorm.Normalize(name, false)
	if n == "" {
		return nil
	}
	if e, ok := ix.ByName[n]; ok {
		return e
	}
	if len([]rune(n)) < minFuzzyLen {
		return nil
	}
	level := levelToken(n)
	for _, key := range ix.NameKeys() {
		if !strings.Contains(n, key) && !strings.Contains(key, n) {
			continue
		}
		if lv := levelToken(key); lv != "" && level != "" && lv != level {
			continue
		}
		return ix.ByName[key]
	}
	return nil
}

var romanLevels = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9, "X": 10,
}

// levelToken extracts the sequence level of a normalized course name
// ("ALGEBRA II", "TALLER 2") as a canonical digit string, or "" when the
// name carries none. The scan runs right to left: levels sit at the tail.
func levelToken(name string) string {
	toks := strings.Fields(name)
	for i := len(toks) - 1; i >= 0; i-- {
		if d := digitRun(toks[i]); d != "" {
			return d
		}
		if v, ok := romanLevels[toks[i]]; ok {
			return strconv.Itoa(v)
		}
	}
	return ""
}

// digitRun returns the first digit run of a token with leading zeros dropped.
func digitRun(tok string) string {
	start := -1
	for i, r := range tok {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	run := strings.TrimLeft(tok[start:end], "0")
	if run == "" {
		run = "0"
	}
	return run
}

package ingest

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/campus-metrics/egreso/internal/indicator"
	"github.com/campus-metrics/egreso/internal/textnorm"
)

// Candidate keys for criticality-table and profile fields.
var (
	critLabel  = []string{"CRITICIDAD", "NIVEL", "CRITICALITY", "LABEL"}
	profGender = []string{"GENERO", "SEXO", "GENDER"}
	profCity   = []string{"CIUDAD", "COMUNA", "CITY"}
	profSchool = []string{"TIPOCOLEGIO", "DEPENDENCIA", "COLEGIO", "SCHOOLTYPE", "SCHOOL"}
)

// pctMarkers tag attempt-indexed failure-percentage columns, e.g.
// "porc_reprobacion_1" or "fail_pct_2". The trailing digit is the attempt.
var pctMarkers = []string{"REPROB", "PORC", "PCT", "FAIL"}

// ParseCurriculum decodes a curriculum document without imposing any schema;
// the indexer copes with whatever shape comes out.
func ParseCurriculum(r io.Reader) (any, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseCriticality accepts either a JSON array of entries or an
// object-of-arrays keyed by anything (faculty, level); the values are
// flattened in key order-independent fashion.
func ParseCriticality(r io.Reader) ([]indicator.CriticalityEntry, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	var out []indicator.CriticalityEntry
	switch t := raw.(type) {
	case []any:
		for _, item := range t {
			if row, ok := item.(map[string]any); ok {
				out = append(out, criticalityFromMap(row))
			}
		}
	case map[string]any:
		for _, v := range t {
			if items, ok := v.([]any); ok {
				for _, item := range items {
					if row, ok := item.(map[string]any); ok {
						out = append(out, criticalityFromMap(row))
					}
				}
			}
		}
	}
	return out, nil
}

func criticalityFromMap(row map[string]any) indicator.CriticalityEntry {
	e := indicator.CriticalityEntry{
		Code:  fieldString(row, colCode),
		Name:  fieldString(row, colName),
		Label: fieldString(row, critLabel),
	}
	for k, v := range row {
		nk := textnorm.Normalize(k, true)
		marked := false
		for _, m := range pctMarkers {
			if strings.Contains(nk, m) {
				marked = true
				break
			}
		}
		if !marked {
			continue
		}
		attempt := trailingDigit(nk)
		if attempt < 1 {
			continue
		}
		pct, ok := v.(float64)
		if !ok {
			if s, isStr := v.(string); isStr {
				pct = parseGrade(s)
				ok = pct > 0
			}
		}
		if !ok {
			continue
		}
		if e.AttemptPct == nil {
			e.AttemptPct = map[int]float64{}
		}
		e.AttemptPct[attempt] = pct
	}
	return e
}

func trailingDigit(s string) int {
	if s == "" {
		return 0
	}
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		return 0
	}
	return int(last - '0')
}

// ParseProfile decodes a flat demographic object; unknown keys are ignored.
func ParseProfile(r io.Reader) (*indicator.Profile, error) {
	var row map[string]any
	if err := json.NewDecoder(r).Decode(&row); err != nil {
		return nil, err
	}
	return profileFromMap(row), nil
}

func profileFromMap(row map[string]any) *indicator.Profile {
	if len(row) == 0 {
		return nil
	}
	p := &indicator.Profile{
		Gender:     fieldString(row, profGender),
		City:       fieldString(row, profCity),
		SchoolType: fieldString(row, profSchool),
	}
	if p.Gender == "" && p.City == "" && p.SchoolType == "" {
		return nil
	}
	return p
}

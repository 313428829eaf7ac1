// Package transcript holds a student's academic-history rows and their
// enrichment against a curriculum index.
package transcript

import "github.com/campus-metrics/egreso/internal/textnorm"

// DefaultPlan is used when a history row carries no curriculum-plan id.
const DefaultPlan = "default"

// RawRecord is one row of a student's academic history as delivered by
// ingestion. Grade uses the 1.0-7.0 scale; Term is 1 or 2; Attempt starts
// at 1. Rows are immutable once parsed.
type RawRecord struct {
	StudentID string  `json:"student_id"`
	Code      string  `json:"code,omitempty"`
	Name      string  `json:"name,omitempty"`
	Grade     float64 `json:"grade"`
	Year      int     `json:"year"`
	Term      int     `json:"term"`
	Attempt   int     `json:"attempt"`
	Plan      string  `json:"plan"`
	Status    string  `json:"status,omitempty"`
}

// EnrichedRecord carries the curriculum-match outcome alongside the raw row.
type EnrichedRecord struct {
	RawRecord
	InCurriculum       bool   `json:"in_curriculum"`
	CurricularSemester int    `json:"curricular_semester,omitempty"`
	CanonicalCode      string `json:"canonical_code,omitempty"`
	CanonicalName      string `json:"canonical_name,omitempty"`
}

// CourseKey identifies a distinct course across repeated attempts: canonical
// code when matched, else canonical name, else the raw name.
func (e EnrichedRecord) CourseKey() string {
	if k := textnorm.Normalize(e.CanonicalCode, true); k != "" {
		return k
	}
	if k := textnorm.Normalize(e.CanonicalName, false); k != "" {
		return k
	}
	return textnorm.Normalize(e.Name, false)
}

// Package dataset persists uploaded academic datasets and the readiness
// reports computed from them.
package dataset

import (
	"github.com/campus-metrics/egreso/internal/indicator"
	"github.com/campus-metrics/egreso/internal/transcript"
)

// Dataset is one student upload: history rows plus the reference documents
// the engine needs. Curriculum keeps the raw decoded-JSON document; it has
// no fixed schema and the indexer copes with whatever shape it holds.
type Dataset struct {
	ID          string                        `json:"id"`
	StudentID   string                        `json:"student_id"`
	Records     []transcript.RawRecord        `json:"records"`
	Curriculum  any                           `json:"curriculum,omitempty"`
	Criticality []indicator.CriticalityEntry  `json:"criticality,omitempty"`
	Profile     *indicator.Profile            `json:"profile,omitempty"`
	CreatedAt   int64                         `json:"created_at,omitempty"`
}

// Report is one computed readiness result for a dataset.
type Report struct {
	ID        string           `json:"id"`
	DatasetID string           `json:"dataset_id"`
	StudentID string           `json:"student_id"`
	Result    indicator.Result `json:"result"`
	CreatedAt int64            `json:"created_at,omitempty"`
}

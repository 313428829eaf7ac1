package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/dataset"
	"github.com/campus-metrics/egreso/internal/transcript"
)

type enrichedRecordsResp struct {
	Records     []transcript.EnrichedRecord `json:"records"`
	Matched     int                         `json:"matched"`
	Unmatched   []string                    `json:"unmatched"`
	CoveragePct float64                     `json:"coverage_pct"`
}

// GetEnrichedRecordsHandler re-runs the matcher over a stored dataset and
// returns the enriched rows with coverage diagnostics. Useful for checking
// why a transcript row did not land on a curriculum entry.
func GetEnrichedRecordsHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "datasetID")
		d, err := store.GetDataset(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		ix := curriculum.BuildIndex(d.Curriculum)
		enriched := transcript.Enrich(d.Records, ix)

		resp := enrichedRecordsResp{Records: enriched, Unmatched: []string{}}
		seen := map[string]bool{}
		for _, rec := range enriched {
			if rec.InCurriculum {
				key := rec.CourseKey()
				if !seen[key] {
					seen[key] = true
					resp.Matched++
				}
				continue
			}
			name := rec.Name
			if name == "" {
				name = rec.Code
			}
			resp.Unmatched = append(resp.Unmatched, name)
		}
		if n := len(ix.Entries); n > 0 {
			resp.CoveragePct = float64(resp.Matched) / float64(n) * 100
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

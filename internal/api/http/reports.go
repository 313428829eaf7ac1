package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/egreso/internal/dataset"
)

// ComputeReportHandler recomputes the readiness report for a dataset and
// persists it. Every call produces a fresh report row.
func ComputeReportHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "datasetID")
		rep, err := store.ComputeReport(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		_ = json.NewEncoder(w).Encode(rep)
	}
}

func GetReportHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "reportID")
		rep, err := store.GetReport(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		_ = json.NewEncoder(w).Encode(rep)
	}
}

func ListStudentReportsHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := chi.URLParam(r, "studentID")
		reps, err := store.ListReportsByStudent(r.Context(), studentID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(reps)
	}
}

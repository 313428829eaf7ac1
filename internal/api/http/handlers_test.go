package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/campus-metrics/egreso/internal/api/http"
	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/dataset"
	"github.com/campus-metrics/egreso/internal/indicator"
	"github.com/campus-metrics/egreso/internal/transcript"
)

/* ---------------- In-memory fake that satisfies dataset.Store ---------------- */

type fakeStore struct {
	datasets map[string]dataset.Dataset
	reports  map[string]dataset.Report
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		datasets: map[string]dataset.Dataset{},
		reports:  map[string]dataset.Report{},
	}
}

func (s *fakeStore) PutDataset(_ context.Context, d dataset.Dataset) (dataset.Dataset, error) {
	if d.ID == "" {
		s.seq++
		d.ID = fmt.Sprintf("ds-%d", s.seq)
	}
	s.datasets[d.ID] = d
	return d, nil
}

func (s *fakeStore) GetDataset(_ context.Context, id string) (dataset.Dataset, error) {
	d, ok := s.datasets[id]
	if !ok {
		return dataset.Dataset{}, dataset.ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) ComputeReport(ctx context.Context, datasetID string) (dataset.Report, error) {
	d, err := s.GetDataset(ctx, datasetID)
	if err != nil {
		return dataset.Report{}, err
	}
	ix := curriculum.BuildIndex(d.Curriculum)
	result := indicator.Calculate(indicator.Input{
		Records:     transcript.Enrich(d.Records, ix),
		Criticality: indicator.NewCriticalityTable(d.Criticality),
		Curriculum:  ix,
		Profile:     d.Profile,
	})
	s.seq++
	rep := dataset.Report{
		ID:        fmt.Sprintf("rep-%d", s.seq),
		DatasetID: d.ID,
		StudentID: d.StudentID,
		Result:    result,
	}
	s.reports[rep.ID] = rep
	return rep, nil
}

func (s *fakeStore) GetReport(_ context.Context, id string) (dataset.Report, error) {
	rep, ok := s.reports[id]
	if !ok {
		return dataset.Report{}, dataset.ErrNotFound
	}
	return rep, nil
}

func (s *fakeStore) ListReportsByStudent(_ context.Context, studentID string) ([]dataset.Report, error) {
	out := []dataset.Report{}
	for _, rep := range s.reports {
		if rep.StudentID == studentID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func router(store dataset.Store) http.Handler {
	r := chi.NewRouter()
	r.Post("/datasets", api.UploadDatasetHandler(store))
	r.Get("/datasets/{datasetID}", api.GetDatasetHandler(store))
	r.Get("/datasets/{datasetID}/records", api.GetEnrichedRecordsHandler(store))
	r.Post("/datasets/{datasetID}/report", api.ComputeReportHandler(store))
	r.Get("/reports/{reportID}", api.GetReportHandler(store))
	r.Get("/students/{studentID}/reports", api.ListStudentReportsHandler(store))
	return r
}

const uploadBody = `{
  "student_id": "stu-1",
  "records": [
    {"CODIGO": "MAT101", "ASIGNATURA": "Cálculo I", "NOTA": 5.5, "ANO": 2022, "SEMESTRE": 1},
    {"CODIGO": "FIS100", "ASIGNATURA": "Física General", "NOTA": 3.2, "ANO": 2022, "SEMESTRE": 2}
  ],
  "curriculum": [
    {"CODIGO": "MAT101", "NOMBRE": "Cálculo I", "SEMESTRE": 1},
    {"CODIGO": "FIS100", "NOMBRE": "Física General", "SEMESTRE": 2}
  ]
}`

func TestUploadThenComputeReport(t *testing.T) {
	store := newFakeStore()
	h := router(store)

	req := httptest.NewRequest("POST", "/datasets", strings.NewReader(uploadBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var d dataset.Dataset
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if d.ID == "" || d.StudentID != "stu-1" || len(d.Records) != 2 {
		t.Fatalf("unexpected dataset: %+v", d)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets/"+d.ID+"/report", nil))
	if rec.Code != 200 {
		t.Fatalf("compute status %d: %s", rec.Code, rec.Body.String())
	}
	var rep dataset.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.StudentID != "stu-1" || rep.Result.Total <= 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/reports/"+rep.ID, nil))
	if rec.Code != 200 {
		t.Fatalf("get report status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/students/stu-1/reports", nil))
	if rec.Code != 200 {
		t.Fatalf("list reports status %d", rec.Code)
	}
	var reps []dataset.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reps); err != nil || len(reps) != 1 {
		t.Fatalf("list reports: err=%v n=%d", err, len(reps))
	}
}

func TestUploadRejectsMissingRecords(t *testing.T) {
	h := router(newFakeStore())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets", strings.NewReader(`{"student_id":"x"}`)))
	if rec.Code != 400 {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestUploadDerivesStudentIDFromRecords(t *testing.T) {
	h := router(newFakeStore())
	body := `{"records":[{"ALUMNO":"stu-9","CODIGO":"MAT101","NOTA":4.0}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets", strings.NewReader(body)))
	if rec.Code != 200 {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var d dataset.Dataset
	_ = json.Unmarshal(rec.Body.Bytes(), &d)
	if d.StudentID != "stu-9" {
		t.Fatalf("student id = %q", d.StudentID)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	h := router(newFakeStore())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/nope", nil))
	if rec.Code != 404 {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestEnrichedRecordsCoverage(t *testing.T) {
	store := newFakeStore()
	h := router(store)

	req := httptest.NewRequest("POST", "/datasets", strings.NewReader(uploadBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var d dataset.Dataset
	_ = json.Unmarshal(rec.Body.Bytes(), &d)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/"+d.ID+"/records", nil))
	if rec.Code != 200 {
		t.Fatalf("records status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Records     []transcript.EnrichedRecord `json:"records"`
		Matched     int                         `json:"matched"`
		Unmatched   []string                    `json:"unmatched"`
		CoveragePct float64                     `json:"coverage_pct"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Matched != 2 || len(resp.Unmatched) != 0 {
		t.Fatalf("matched=%d unmatched=%v", resp.Matched, resp.Unmatched)
	}
	if resp.CoveragePct != 100 {
		t.Fatalf("coverage = %v", resp.CoveragePct)
	}
	for _, r := range resp.Records {
		if !r.InCurriculum {
			t.Fatalf("record not enriched: %+v", r)
		}
	}
}

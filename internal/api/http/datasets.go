package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/egreso/internal/dataset"
	"github.com/campus-metrics/egreso/internal/ingest"
	"github.com/campus-metrics/egreso/internal/transcript"
)

type uploadReq struct {
	StudentID   string          `json:"student_id"`
	Records     json.RawMessage `json:"records"`
	Curriculum  json.RawMessage `json:"curriculum,omitempty"`
	Criticality json.RawMessage `json:"criticality,omitempty"`
	Profile     json.RawMessage `json:"profile,omitempty"`
}

// UploadDatasetHandler accepts either a JSON body with embedded documents or
// a multipart form with one file per document (records=, curriculum=,
// criticality=, profile=). The records file may be CSV or JSON; the sniff is
// the first non-space byte, as in the user bulk upload.
func UploadDatasetHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d dataset.Dataset
		var err error
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			d, err = datasetFromMultipart(r)
		} else {
			d, err = datasetFromJSON(r.Body)
		}
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if d.StudentID == "" && len(d.Records) > 0 {
			d.StudentID = d.Records[0].StudentID
		}
		if d.StudentID == "" {
			http.Error(w, "student_id required", 400)
			return
		}
		if len(d.Records) == 0 {
			http.Error(w, "records required", 400)
			return
		}
		saved, err := store.PutDataset(r.Context(), d)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(saved)
	}
}

func datasetFromJSON(body io.Reader) (dataset.Dataset, error) {
	var req uploadReq
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return dataset.Dataset{}, errors.New("bad json")
	}
	d := dataset.Dataset{StudentID: req.StudentID}
	if len(req.Records) > 0 {
		records, err := ingest.ParseRecordsJSON(bytes.NewReader(req.Records))
		if err != nil {
			return dataset.Dataset{}, errors.New("bad records: " + err.Error())
		}
		d.Records = records
	}
	if len(req.Curriculum) > 0 {
		doc, err := ingest.ParseCurriculum(bytes.NewReader(req.Curriculum))
		if err != nil {
			return dataset.Dataset{}, errors.New("bad curriculum: " + err.Error())
		}
		d.Curriculum = doc
	}
	if len(req.Criticality) > 0 {
		entries, err := ingest.ParseCriticality(bytes.NewReader(req.Criticality))
		if err != nil {
			return dataset.Dataset{}, errors.New("bad criticality: " + err.Error())
		}
		d.Criticality = entries
	}
	if len(req.Profile) > 0 {
		p, err := ingest.ParseProfile(bytes.NewReader(req.Profile))
		if err != nil {
			return dataset.Dataset{}, errors.New("bad profile: " + err.Error())
		}
		d.Profile = p
	}
	return d, nil
}

func datasetFromMultipart(r *http.Request) (dataset.Dataset, error) {
	var d dataset.Dataset
	d.StudentID = r.FormValue("student_id")

	f, _, err := r.FormFile("records")
	if err != nil {
		return dataset.Dataset{}, errors.New("records file required")
	}
	defer f.Close()
	d.Records, err = parseRecordsFile(f)
	if err != nil {
		return dataset.Dataset{}, err
	}

	if f, _, err := r.FormFile("curriculum"); err == nil {
		defer f.Close()
		doc, err := ingest.ParseCurriculum(f)
		if err != nil {
			return dataset.Dataset{}, errors.New("bad curriculum: " + err.Error())
		}
		d.Curriculum = doc
	}
	if f, _, err := r.FormFile("criticality"); err == nil {
		defer f.Close()
		entries, err := ingest.ParseCriticality(f)
		if err != nil {
			return dataset.Dataset{}, errors.New("bad criticality: " + err.Error())
		}
		d.Criticality = entries
	}
	if f, _, err := r.FormFile("profile"); err == nil {
		defer f.Close()
		p, err := ingest.ParseProfile(f)
		if err != nil {
			return dataset.Dataset{}, errors.New("bad profile: " + err.Error())
		}
		d.Profile = p
	}
	return d, nil
}

// parseRecordsFile sniffs CSV vs JSON by the first non-space byte.
func parseRecordsFile(f multipart.File) ([]transcript.RawRecord, error) {
	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		return nil, errors.New("empty records file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if buf[0] == '[' || buf[0] == '{' {
		records, err := ingest.ParseRecordsJSON(f)
		if err != nil {
			return nil, errors.New("bad records json: " + err.Error())
		}
		return records, nil
	}
	records, err := ingest.ParseRecordsCSV(f)
	if err != nil {
		return nil, errors.New("bad records csv: " + err.Error())
	}
	return records, nil
}

func GetDatasetHandler(store dataset.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "datasetID")
		d, err := store.GetDataset(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		_ = json.NewEncoder(w).Encode(d)
	}
}

func statusFor(err error) int {
	if errors.Is(err, dataset.ErrNotFound) {
		return 404
	}
	return 500
}

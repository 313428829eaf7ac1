package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/indicator"
	syncx "github.com/campus-metrics/egreso/internal/sync"
	"github.com/campus-metrics/egreso/internal/transcript"
)

// Store is the persistence surface the HTTP handlers use.
type Store interface {
	PutDataset(ctx context.Context, d Dataset) (Dataset, error)
	GetDataset(ctx context.Context, id string) (Dataset, error)
	ComputeReport(ctx context.Context, datasetID string) (Report, error)
	GetReport(ctx context.Context, id string) (Report, error)
	ListReportsByStudent(ctx context.Context, studentID string) ([]Report, error)
}

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(db *sql.DB, events *syncx.EventRepo) *SQLStore {
	return &SQLStore{db: db, events: events}
}

var ErrNotFound = errors.New("not found")

func (s *SQLStore) PutDataset(ctx context.Context, d Dataset) (Dataset, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().Unix()

	rj, err := json.Marshal(d.Records)
	if err != nil {
		return Dataset{}, err
	}
	cj, err := marshalOrEmpty(d.Curriculum)
	if err != nil {
		return Dataset{}, err
	}
	kj, err := marshalOrEmpty(d.Criticality)
	if err != nil {
		return Dataset{}, err
	}
	var prof any
	if d.Profile != nil {
		prof = d.Profile
	}
	pj, err := marshalOrEmpty(prof)
	if err != nil {
		return Dataset{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id,student_id,records_json,curriculum_json,criticality_json,profile_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET student_id=EXCLUDED.student_id, records_json=EXCLUDED.records_json,
		   curriculum_json=EXCLUDED.curriculum_json, criticality_json=EXCLUDED.criticality_json,
		   profile_json=EXCLUDED.profile_json`,
		d.ID, d.StudentID, string(rj), cj, kj, pj, d.CreatedAt)
	if err != nil {
		return Dataset{}, err
	}

	_ = s.events.Append(ctx, syncx.Event{
		Type: syncx.EventDatasetUploaded,
		Key:  d.ID,
		DataJSON: mustJSON(map[string]any{
			"student_id": d.StudentID,
			"records":    len(d.Records),
		}),
	})
	return d, nil
}

func (s *SQLStore) GetDataset(ctx context.Context, id string) (Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,student_id,records_json,curriculum_json,criticality_json,profile_json,created_at
		 FROM datasets WHERE id=$1`, id)
	var d Dataset
	var rj, cj, kj, pj string
	if err := row.Scan(&d.ID, &d.StudentID, &rj, &cj, &kj, &pj, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dataset{}, ErrNotFound
		}
		return Dataset{}, err
	}
	if err := json.Unmarshal([]byte(rj), &d.Records); err != nil {
		return Dataset{}, err
	}
	if cj != "" {
		_ = json.Unmarshal([]byte(cj), &d.Curriculum)
	}
	if kj != "" {
		_ = json.Unmarshal([]byte(kj), &d.Criticality)
	}
	if pj != "" {
		_ = json.Unmarshal([]byte(pj), &d.Profile)
	}
	return d, nil
}

// ComputeReport runs the whole engine over a stored dataset and persists the
// result: index the curriculum, enrich the rows, calculate the indicators.
// The report is recomputed fully on every call; nothing incremental.
func (s *SQLStore) ComputeReport(ctx context.Context, datasetID string) (Report, error) {
	d, err := s.GetDataset(ctx, datasetID)
	if err != nil {
		return Report{}, err
	}

	ix := curriculum.BuildIndex(d.Curriculum)
	enriched := transcript.Enrich(d.Records, ix)
	result := indicator.Calculate(indicator.Input{
		Records:     enriched,
		Criticality: indicator.NewCriticalityTable(d.Criticality),
		Curriculum:  ix,
		Profile:     d.Profile,
	})

	rep := Report{
		ID:        uuid.NewString(),
		DatasetID: d.ID,
		StudentID: d.StudentID,
		Result:    result,
		CreatedAt: time.Now().Unix(),
	}
	resJSON, err := json.Marshal(rep.Result)
	if err != nil {
		return Report{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id,dataset_id,student_id,result_json,created_at) VALUES ($1,$2,$3,$4,$5)`,
		rep.ID, rep.DatasetID, rep.StudentID, string(resJSON), rep.CreatedAt)
	if err != nil {
		return Report{}, err
	}

	_ = s.events.Append(ctx, syncx.Event{
		Type: syncx.EventReportComputed,
		Key:  rep.ID,
		DataJSON: mustJSON(map[string]any{
			"dataset_id": rep.DatasetID,
			"student_id": rep.StudentID,
			"total":      rep.Result.Total,
			"tier":       rep.Result.Tier,
		}),
	})
	return rep, nil
}

func (s *SQLStore) GetReport(ctx context.Context, id string) (Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,dataset_id,student_id,result_json,created_at FROM reports WHERE id=$1`, id)
	return scanReport(row)
}

func (s *SQLStore) ListReportsByStudent(ctx context.Context, studentID string) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,dataset_id,student_id,result_json,created_at
		 FROM reports WHERE student_id=$1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanReport(row rowScanner) (Report, error) {
	var rep Report
	var resJSON string
	if err := row.Scan(&rep.ID, &rep.DatasetID, &rep.StudentID, &resJSON, &rep.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	if err := json.Unmarshal([]byte(resJSON), &rep.Result); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func marshalOrEmpty(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// Package ingest parses uploaded transcript, criticality and profile data
// into the engine's input structures. Parsing is deliberately forgiving:
// numeric fields are coerced defensively and malformed values fall back to
// documented defaults instead of failing the whole upload.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/campus-metrics/egreso/internal/textnorm"
	"github.com/campus-metrics/egreso/internal/transcript"
)

// Column candidates per record field, normalized form, highest priority
// first. Chilean exports mix Spanish and English headers.
var (
	colStudent = []string{"STUDENTID", "ESTUDIANTE", "RUT", "ALUMNO", "STUDENT"}
	colCode    = []string{"CODIGO", "SIGLA", "COD", "CODE"}
	colName    = []string{"NOMBRE", "ASIGNATURA", "RAMO", "CURSO", "NAME", "COURSE"}
	colGrade   = []string{"NOTA", "CALIFICACION", "GRADE", "PROMEDIO"}
	colYear    = []string{"ANO", "ANIO", "YEAR", "AGNO"}
	colTerm    = []string{"SEMESTRE", "PERIODO", "TERM"}
	colAttempt = []string{"OPORTUNIDAD", "INTENTO", "ATTEMPT"}
	colPlan    = []string{"PLAN", "MALLA"}
	colStatus  = []string{"ESTADO", "SITUACION", "STATUS"}
)

// ParseRecordsJSON decodes a JSON array of history rows with arbitrary
// field naming, applying the same column candidates as the CSV path.
func ParseRecordsJSON(r io.Reader) ([]transcript.RawRecord, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	out := make([]transcript.RawRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordFromMap(row))
	}
	return out, nil
}

// ParseRecordsCSV reads a header-indexed CSV of history rows.
func ParseRecordsCSV(r io.Reader) ([]transcript.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[textnorm.Normalize(h, true)] = i
	}
	col := func(candidates []string) int {
		for _, c := range candidates {
			if i, ok := idx[c]; ok {
				return i
			}
		}
		for _, c := range candidates {
			for k, i := range idx {
				if strings.Contains(k, c) {
					return i
				}
			}
		}
		return -1
	}
	cStudent, cCode, cName := col(colStudent), col(colCode), col(colName)
	cGrade, cYear, cTerm := col(colGrade), col(colYear), col(colTerm)
	cAttempt, cPlan, cStatus := col(colAttempt), col(colPlan), col(colStatus)
	if cCode < 0 && cName < 0 {
		return nil, errors.New("csv has neither a code nor a name column")
	}

	var out []transcript.RawRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		cell := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		out = append(out, normalizeRecord(transcript.RawRecord{
			StudentID: cell(cStudent),
			Code:      cell(cCode),
			Name:      cell(cName),
			Grade:     parseGrade(cell(cGrade)),
			Year:      parseIntLoose(cell(cYear)),
			Term:      parseIntLoose(cell(cTerm)),
			Attempt:   parseIntLoose(cell(cAttempt)),
			Plan:      cell(cPlan),
			Status:    cell(cStatus),
		}))
	}
	return out, nil
}

func recordFromMap(row map[string]any) transcript.RawRecord {
	return normalizeRecord(transcript.RawRecord{
		StudentID: fieldString(row, colStudent),
		Code:      fieldString(row, colCode),
		Name:      fieldString(row, colName),
		Grade:     fieldNumber(row, colGrade),
		Year:      int(fieldNumber(row, colYear)),
		Term:      int(fieldNumber(row, colTerm)),
		Attempt:   int(fieldNumber(row, colAttempt)),
		Plan:      fieldString(row, colPlan),
		Status:    fieldString(row, colStatus),
	})
}

// normalizeRecord applies the ingestion contract: term defaults to 1,
// attempt defaults to 1 when absent or non-positive, plan defaults to
// "default". Grades stay as parsed; a zero grade means "absent".
func normalizeRecord(r transcript.RawRecord) transcript.RawRecord {
	if r.Term <= 0 {
		r.Term = 1
	}
	if r.Attempt <= 0 {
		r.Attempt = 1
	}
	if r.Plan == "" {
		r.Plan = transcript.DefaultPlan
	}
	return r
}

// parseGrade tolerates the comma decimal separator of Chilean exports.
// Non-numeric input coerces to 0 (absent), never to an error.
func parseGrade(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseIntLoose(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}

// fieldString resolves a value from an untyped row by candidate column
// names: exact normalized key first, then substring.
func fieldString(row map[string]any, candidates []string) string {
	v, ok := fieldValue(row, candidates)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func fieldNumber(row map[string]any, candidates []string) float64 {
	v, ok := fieldValue(row, candidates)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseGrade(t)
	default:
		return 0
	}
}

func fieldValue(row map[string]any, candidates []string) (any, bool) {
	normed := make(map[string]any, len(row))
	for k, v := range row {
		nk := textnorm.Normalize(k, true)
		if _, taken := normed[nk]; !taken {
			normed[nk] = v
		}
	}
	for _, c := range candidates {
		if v, ok := normed[c]; ok {
			return v, true
		}
	}
	for _, c := range candidates {
		for nk, v := range normed {
			if strings.Contains(nk, c) {
				return v, true
			}
		}
	}
	return nil, false
}

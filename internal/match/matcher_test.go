package match

import (
	"testing"

	"github.com/campus-metrics/egreso/internal/curriculum"
)

func testIndex(t *testing.T) *curriculum.Index {
	t.Helper()
	doc := []any{
		map[string]any{"codigo": "MAT101", "nombre": "Cálculo I", "semestre": float64(1)},
		map[string]any{"codigo": "MAT201", "nombre": "Cálculo II", "semestre": float64(3)},
		map[string]any{"codigo": "TAL110", "nombre": "Taller de Título I", "semestre": float64(9)},
		map[string]any{"codigo": "TAL210", "nombre": "Taller de Título II", "semestre": float64(10)},
		map[string]any{"codigo": "INF240", "nombre": "Estructuras de Datos y Algoritmos", "semestre": float64(4)},
	}
	return curriculum.BuildIndex(doc)
}

func TestMatchCodeTakesPriority(t *testing.T) {
	ix := testIndex(t)
	// Name normalizes to something entirely different; code still wins.
	e := Match("mat-101", "Nombre Libre Sin Relación", ix)
	if e == nil || e.Code != "MAT101" {
		t.Fatalf("code match must take priority, got %+v", e)
	}
}

func TestMatchExactName(t *testing.T) {
	ix := testIndex(t)
	e := Match("", "  cálculo   ii ", ix)
	if e == nil || e.Code != "MAT201" {
		t.Fatalf("exact normalized name must resolve, got %+v", e)
	}
}

func TestMatchFuzzySubstring(t *testing.T) {
	ix := testIndex(t)
	e := Match("", "Estructuras de Datos", ix)
	if e == nil || e.Code != "INF240" {
		t.Fatalf("substring fuzzy match expected, got %+v", e)
	}
}

func TestMatchLevelGuard(t *testing.T) {
	ix := testIndex(t)
	// "Taller de Título I" is a prefix of "... II": only the level token may
	// decide which one wins, never cross-level containment.
	e := Match("", "Taller de Título II", ix)
	if e == nil || e.Code != "TAL210" {
		t.Fatalf("level II must land on TAL210, got %+v", e)
	}
	e = Match("", "Taller Título I", ix)
	if e != nil && e.Code == "TAL210" {
		t.Fatalf("level I crossed into level II: %+v", e)
	}
}

func TestMatchWorkshopLevelsNeverCross(t *testing.T) {
	ix := curriculum.BuildIndex([]any{
		map[string]any{"codigo": "WRK1", "nombre": "Workshop I"},
		map[string]any{"codigo": "WRK2", "nombre": "Workshop II"},
	})
	// "WORKSHOP I" is a prefix of "WORKSHOP II"; containment alone would
	// cross-match them. The level guard must keep each record on its own
	// level.
	if e := Match("", "Advanced Workshop I", ix); e == nil || e.Code != "WRK1" {
		t.Fatalf("level I record landed on %+v", e)
	}
	if e := Match("", "Advanced Workshop II", ix); e == nil || e.Code != "WRK2" {
		t.Fatalf("level II record landed on %+v", e)
	}
	// "WORKSHOP II EXTENDED" still contains the level-I name as a substring;
	// only the guard keeps it off WRK1.
	if e := Match("", "Workshop II Extended", ix); e == nil || e.Code != "WRK2" {
		t.Fatalf("extended level II record landed on %+v", e)
	}
}

func TestMatchShortNameSkipsFuzzy(t *testing.T) {
	ix := testIndex(t)
	if e := Match("", "Tall", ix); e != nil {
		t.Fatalf("short names must not fuzzy match, got %+v", e)
	}
}

func TestMatchNoHit(t *testing.T) {
	ix := testIndex(t)
	if e := Match("ZZZ999", "Curso Inexistente Completamente", ix); e != nil {
		t.Fatalf("expected nil on no match, got %+v", e)
	}
	if e := Match("", "", ix); e != nil {
		t.Fatalf("expected nil on empty record, got %+v", e)
	}
	if e := Match("MAT101", "Cálculo I", nil); e != nil {
		t.Fatalf("expected nil on nil index, got %+v", e)
	}
}

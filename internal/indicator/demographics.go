package indicator

import (
	"strings"

	"github.com/campus-metrics/egreso/internal/textnorm"
)

// Profile is optional self-reported demographic data, free text as typed.
type Profile struct {
	Gender     string `json:"gender,omitempty"`
	City       string `json:"city,omitempty"`
	SchoolType string `json:"school_type,omitempty"`
}

func (p *Profile) empty() bool {
	return p == nil || (strings.TrimSpace(p.Gender) == "" &&
		strings.TrimSpace(p.City) == "" &&
		strings.TrimSpace(p.SchoolType) == "")
}

var femaleOrOther = map[string]bool{
	"FEMENINO": true, "FEMENINA": true, "MUJER": true, "F": true,
	"FEMALE": true, "OTRO": true, "OTRA": true, "OTHER": true,
	"NO BINARIO": true, "NON BINARY": true,
}

var prioritySchoolTypes = []string{
	"PUBLICO", "MUNICIPAL", "SUBVENCIONADO", "PUBLIC", "SUBSIDIZED",
}

// demographicScore averages three binary factors; 0.5 when no data at all.
func demographicScore(p *Profile) float64 {
	if p.empty() {
		return 0.5
	}
	score := 0.0
	if femaleOrOther[textnorm.Normalize(p.Gender, false)] {
		score++
	}
	if !strings.Contains(textnorm.Normalize(p.City, false), "SANTIAGO") {
		score++
	}
	school := textnorm.Normalize(p.SchoolType, false)
	for _, t := range prioritySchoolTypes {
		if strings.Contains(school, t) {
			score++
			break
		}
	}
	return score / 3
}

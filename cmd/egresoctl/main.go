package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/campus-metrics/egreso/internal/curriculum"
	"github.com/campus-metrics/egreso/internal/indicator"
	"github.com/campus-metrics/egreso/internal/ingest"
	"github.com/campus-metrics/egreso/internal/transcript"
)

// egresoctl runs the whole pipeline offline: read the input files, index the
// curriculum, enrich the history rows, compute the indicators, print JSON.
func main() {
	recordsPath := flag.String("records", "", "academic history file (CSV or JSON), required")
	curriculumPath := flag.String("curriculum", "", "curriculum document (JSON)")
	criticalityPath := flag.String("criticality", "", "course criticality table (JSON)")
	profilePath := flag.String("profile", "", "student demographic profile (JSON)")
	pretty := flag.Bool("pretty", false, "indent the output")
	flag.Parse()

	if *recordsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	records := readRecords(*recordsPath)

	var doc any
	if *curriculumPath != "" {
		f := mustOpen(*curriculumPath)
		var err error
		doc, err = ingest.ParseCurriculum(f)
		f.Close()
		if err != nil {
			log.Fatalf("curriculum: %v", err)
		}
	}

	var crit []indicator.CriticalityEntry
	if *criticalityPath != "" {
		f := mustOpen(*criticalityPath)
		var err error
		crit, err = ingest.ParseCriticality(f)
		f.Close()
		if err != nil {
			log.Fatalf("criticality: %v", err)
		}
	}

	var profile *indicator.Profile
	if *profilePath != "" {
		f := mustOpen(*profilePath)
		var err error
		profile, err = ingest.ParseProfile(f)
		f.Close()
		if err != nil {
			log.Fatalf("profile: %v", err)
		}
	}

	ix := curriculum.BuildIndex(doc)
	enriched := transcript.Enrich(records, ix)
	result := indicator.Calculate(indicator.Input{
		Records:     enriched,
		Criticality: indicator.NewCriticalityTable(crit),
		Curriculum:  ix,
		Profile:     profile,
	})

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func readRecords(path string) []transcript.RawRecord {
	f := mustOpen(path)
	defer f.Close()
	var records []transcript.RawRecord
	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		records, err = ingest.ParseRecordsCSV(f)
	} else {
		records, err = ingest.ParseRecordsJSON(f)
	}
	if err != nil {
		log.Fatalf("records: %v", err)
	}
	return records
}

func mustOpen(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	return f
}

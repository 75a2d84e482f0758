package hai

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"claimtool/internal/export"
	"claimtool/internal/flatfile"
)

// Measure input columns.
const (
	colFacilityID = "Facility ID"
	colMeasure    = "Measure"
	colYear       = "Year"
	colQuarter    = "Quarter Number"
	colObserved   = "Observed_c"
	colExpected   = "Expected_c"
)

func requireColumns(tbl *flatfile.Table, path string, cols ...string) error {
	var errs []error
	for _, c := range cols {
		if tbl.Index(c) < 0 {
			errs = append(errs, fmt.Errorf("%s: %w: %s", path, flatfile.ErrMissingColumn, c))
		}
	}
	return errors.Join(errs...)
}

// wholeNumber renders "2023" and "2023.0" alike. Leading zeros are kept.
func wholeNumber(s string) string {
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		return s[:i]
	}
	return s
}

func parseCount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// LoadMeasures reads the HAI supplemental sheet. Blank observed or expected
// counts read as zero.
func LoadMeasures(path, sheet string) ([]Measure, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(tbl, path, colFacilityID, colMeasure, colYear, colQuarter, colObserved, colExpected); err != nil {
		return nil, err
	}

	out := make([]Measure, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		m := Measure{
			FacilityID: wholeNumber(tbl.Get(i, colFacilityID)),
			Measure:    tbl.Get(i, colMeasure),
			Year:       wholeNumber(tbl.Get(i, colYear)),
			Quarter:    wholeNumber(tbl.Get(i, colQuarter)),
		}
		if m.FacilityID == "" && m.Measure == "" {
			continue
		}
		if m.Observed, err = parseCount(tbl.Get(i, colObserved)); err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", path, i+2, colObserved, err)
		}
		if m.Expected, err = parseCount(tbl.Get(i, colExpected)); err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", path, i+2, colExpected, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Hospital is one facility of the hospital reference.
type Hospital struct {
	MedicareID        string
	Name              string
	Abbreviation      string
	BenchmarkClass    string
	QuartersAvailable string
}

// LoadHospitals reads the hospital reference (Medicare ID or FAC_ID,
// Facility Name, Facility Abbreviation and the optional Benchmark Class and
// Quarters Available).
func LoadHospitals(path, sheet string) ([]Hospital, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	idCol := "Medicare ID"
	if tbl.Index(idCol) < 0 {
		idCol = "FAC_ID"
	}
	if err := requireColumns(tbl, path, idCol, "Facility Name"); err != nil {
		return nil, err
	}
	out := make([]Hospital, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		h := Hospital{
			MedicareID:        wholeNumber(tbl.Get(i, idCol)),
			Name:              tbl.Get(i, "Facility Name"),
			Abbreviation:      tbl.Get(i, "Facility Abbreviation"),
			BenchmarkClass:    tbl.Get(i, "Benchmark Class"),
			QuartersAvailable: wholeNumber(tbl.Get(i, "Quarters Available")),
		}
		if h.MedicareID != "" {
			out = append(out, h)
		}
	}
	return out, nil
}

// LoadBenchmarks reads expected SIR benchmarks keyed by metric code.
func LoadBenchmarks(path, sheet string) (map[string]float64, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(tbl, path, "Metric Code", "Expected SIR"); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(tbl.Rows))
	for i := range tbl.Rows {
		code, v := tbl.Get(i, "Metric Code"), tbl.Get(i, "Expected SIR")
		if code == "" || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: Expected SIR: %w", path, i+2, err)
		}
		out[code] = f
	}
	return out, nil
}

// LoadDescriptions reads metric descriptions keyed by metric code.
func LoadDescriptions(path, sheet string) (map[string]string, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(tbl, path, "Metric Code", "Metric Description"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tbl.Rows))
	for i := range tbl.Rows {
		if code := tbl.Get(i, "Metric Code"); code != "" {
			out[code] = tbl.Get(i, "Metric Description")
		}
	}
	return out, nil
}

// Refs are the lookups joined onto HAI rows. Any may be empty.
type Refs struct {
	Hospitals    []Hospital
	Benchmarks   map[string]float64
	Descriptions map[string]string
}

// DecorateStats counts rows a lookup did not match.
type DecorateStats struct {
	Rows          int
	NoHospital    int
	NoBenchmark   int
	NoDescription int
}

// Decorate joins facility names, metric descriptions and benchmark SIRs onto
// rows in place and sorts them.
func Decorate(rows []Row, refs Refs) DecorateStats {
	hosp := make(map[string]Hospital, len(refs.Hospitals))
	for _, h := range refs.Hospitals {
		hosp[h.MedicareID] = h
	}
	st := DecorateStats{Rows: len(rows)}
	for i := range rows {
		r := &rows[i]
		if h, ok := hosp[r.MedicareID]; ok {
			r.FacilityName, r.FacilityAbbrev = h.Name, h.Abbreviation
		} else {
			st.NoHospital++
		}
		if b, ok := refs.Benchmarks[r.MetricCode]; ok {
			r.ExpectedSIR = &b
		} else {
			st.NoBenchmark++
		}
		if d, ok := refs.Descriptions[r.MetricCode]; ok {
			r.MetricDescription = d
		} else {
			st.NoDescription++
		}
	}
	SortRows(rows)
	return st
}

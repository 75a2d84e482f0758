package hai

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"claimtool/internal/export"
)

// Metric is one row of the clinical metrics workbook: the fac sheet holds
// one row per facility and metric for the whole period, the facqtr sheet
// one row per quarter. Numbers are nil when the cell is blank.
type Metric struct {
	MedicareID        string
	FacilityName      string
	FacilityAbbrev    string
	Benchmark         string
	BenchmarkClass    string
	MetricCode        string
	MetricDescription string
	YearQuarter       string // facqtr only

	Qualified   *float64
	ObservedSrc *float64
	ExpectedSrc *float64
	OERatioSrc  *float64
	Observed    *float64
	Expected    *float64
	OERatio     *float64

	// fac only
	RecentSrc      *float64
	ImprovementSrc *float64
	Recent         *float64
	Improvement    *float64

	// Set by PrepareMetrics.
	AvgObserved *float64
	AvgExpected *float64
}

// metricNumbers binds metric sheet columns to Metric fields.
var metricNumbers = []struct {
	col string
	ptr func(*Metric) **float64
}{
	{"Qualified", func(m *Metric) **float64 { return &m.Qualified }},
	{"Observed_src", func(m *Metric) **float64 { return &m.ObservedSrc }},
	{"Expected_src", func(m *Metric) **float64 { return &m.ExpectedSrc }},
	{"OE_ratio_src", func(m *Metric) **float64 { return &m.OERatioSrc }},
	{"Observed", func(m *Metric) **float64 { return &m.Observed }},
	{"Expected", func(m *Metric) **float64 { return &m.Expected }},
	{"OE_ratio", func(m *Metric) **float64 { return &m.OERatio }},
	{"Recent_src", func(m *Metric) **float64 { return &m.RecentSrc }},
	{"Improvement_src", func(m *Metric) **float64 { return &m.ImprovementSrc }},
	{"Recent", func(m *Metric) **float64 { return &m.Recent }},
	{"Improvement", func(m *Metric) **float64 { return &m.Improvement }},
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadMetrics reads a fac or facqtr sheet. Number columns the sheet lacks
// stay nil.
func LoadMetrics(path, sheet string) ([]Metric, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(tbl, path, "Medicare ID", "Metric Code", "Benchmark"); err != nil {
		return nil, err
	}

	out := make([]Metric, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		m := Metric{
			MedicareID:        wholeNumber(tbl.Get(i, "Medicare ID")),
			FacilityName:      tbl.Get(i, "Facility Name"),
			FacilityAbbrev:    tbl.Get(i, "Facility Abbreviation"),
			Benchmark:         tbl.Get(i, "Benchmark"),
			BenchmarkClass:    tbl.Get(i, "Benchmark Class"),
			MetricCode:        tbl.Get(i, "Metric Code"),
			MetricDescription: tbl.Get(i, "Metric Description"),
			YearQuarter:       normalizeQuarter(tbl.Get(i, "YearQuarter")),
		}
		if m.MedicareID == "" && m.MetricCode == "" {
			continue
		}
		for _, n := range metricNumbers {
			v, err := parseOptional(tbl.Get(i, n.col))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %s: %w", path, i+2, n.col, err)
			}
			*n.ptr(&m) = v
		}
		out = append(out, m)
	}
	return out, nil
}

// Report names for source metric codes.
var metricRenames = map[string]string{
	"M30":  "30D M",
	"R30":  "30D R",
	"RS30": "30D RS",
	"L":    "A",
	"S":    "H",
}

var descriptionRenames = map[string]string{
	"30 Day Mortality - Heart Attack":    "30 Day Mortality - AMI",
	"30 Day Mortality - Heart Failure":   "30 Day Mortality - HF",
	"30 Day Mortality - Pneumonia":       "30 Day Mortality - PN",
	"30 Day Readmit - Heart Attack":      "30 Day Readmit - AMI",
	"30 Day Readmit - Heart Failure":     "30 Day Readmit - HF",
	"30 Day Readmit - Pneumonia":         "30 Day Readmit - PN",
	"30 Day Readmit - Total Joint":       "30 Day Readmit - Joint",
	"SAF 30 Day Readmit - Heart Failure": "SAF 30 Day Readmit - HF",
	"SAF 30 Day Readmit - Pneumonia":     "SAF 30 Day Readmit - PN",
	"SAF 30 Day Readmit - Total Joint":   "SAF 30 Day Readmit - Joint",
}

// PrepareStats counts the metric rows PrepareMetrics dropped or changed.
type PrepareStats struct {
	Read            int
	HAI             int // HAI rows come from the supplemental file instead
	OtherBenchmark  int
	Renamed         int
	DescriptionsSet int
}

// PrepareMetrics keeps the rows compared against comparison, drops HAI
// metrics, renames codes and descriptions to their report names and adds
// the per-case averages.
func PrepareMetrics(rows []Metric, comparison string) ([]Metric, PrepareStats) {
	st := PrepareStats{Read: len(rows)}
	out := make([]Metric, 0, len(rows))
	for _, m := range rows {
		if slices.Contains(Codes, m.MetricCode) {
			st.HAI++
			continue
		}
		if m.Benchmark != comparison {
			st.OtherBenchmark++
			continue
		}
		if c, ok := metricRenames[m.MetricCode]; ok {
			m.MetricCode = c
			st.Renamed++
		}
		if d, ok := descriptionRenames[m.MetricDescription]; ok {
			m.MetricDescription = d
			st.DescriptionsSet++
		}
		m.AvgObserved = perCase(m.ObservedSrc, m.Qualified)
		m.AvgExpected = perCase(m.ExpectedSrc, m.Qualified)
		out = append(out, m)
	}
	return out, st
}

func perCase(v, cases *float64) *float64 {
	if v == nil || cases == nil || *cases == 0 {
		return nil
	}
	avg := *v / *cases
	return &avg
}

// TopBenchmark is one 100 Top comparison value.
type TopBenchmark struct {
	MetricCode     string
	BenchmarkClass string
	Winners        *float64
	NonWinners     *float64
}

// LoadTopBenchmarks reads the 100 Top benchmark sheet (Metric Code,
// Benchmark Class, Winners, Non Winners).
func LoadTopBenchmarks(path, sheet string) ([]TopBenchmark, error) {
	tbl, err := export.ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(tbl, path, "Metric Code", "Benchmark Class", "Winners", "Non Winners"); err != nil {
		return nil, err
	}
	out := make([]TopBenchmark, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		b := TopBenchmark{MetricCode: tbl.Get(i, "Metric Code"), BenchmarkClass: tbl.Get(i, "Benchmark Class")}
		if b.MetricCode == "" {
			continue
		}
		if b.Winners, err = parseOptional(tbl.Get(i, "Winners")); err != nil {
			return nil, fmt.Errorf("%s row %d: Winners: %w", path, i+2, err)
		}
		if b.NonWinners, err = parseOptional(tbl.Get(i, "Non Winners")); err != nil {
			return nil, fmt.Errorf("%s row %d: Non Winners: %w", path, i+2, err)
		}
		out = append(out, b)
	}
	return out, nil
}

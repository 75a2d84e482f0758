// Package hai aggregates quarterly hospital-acquired-infection counts into
// rolling-year standardized infection ratios (SIR) per facility and writes
// one workbook per facility.
package hai

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Codes lists the reported metrics; "I" is the composite.
var Codes = []string{"I", "I-CAUTI", "I-CDIFF", "I-CLABSI", "I-MRSA", "I-SSI-CS", "I-SSI-HY"}

// CompositeCode is the metric code of the composite SIR.
const CompositeCode = "I"

// Cell text for values that cannot be computed.
const (
	ExpectedBelowOne = "Expected < 1"
	NotApplicable    = "N/A"
)

// measureRenames maps source measure names to report names before the "I-"
// prefix is added.
var measureRenames = map[string]string{
	"CDIF":      "CDIFF",
	"SSI Colon": "SSI-CS",
	"SSI Hyst":  "SSI-HY",
}

// MetricCode returns the report code of a source measure name.
func MetricCode(measure string) string {
	m := strings.TrimSpace(measure)
	if r, ok := measureRenames[m]; ok {
		m = r
	}
	return "I-" + m
}

// Measure is one facility-quarter-measure row of the HAI input.
type Measure struct {
	FacilityID string
	Measure    string
	Year       string
	Quarter    string
	Observed   float64
	Expected   float64
}

// YearQuarter is the quarter label, "2023 Q2".
func (m Measure) YearQuarter() string { return m.Year + " Q" + m.Quarter }

// Row is one facility, metric and rolling year of the HAI table.
type Row struct {
	MedicareID        string
	FacilityName      string
	FacilityAbbrev    string
	MetricCode        string
	MetricDescription string
	RollingYear       string
	SIR               *float64 // nil when expected < 1
	ExpectedSIR       *float64
	Observed          *float64 // nil for the composite
	Expected          *float64
}

// ErrBadQuarter reports a quarter label that is not "YYYY Q#".
var ErrBadQuarter = errors.New("bad quarter")

// quarterIndex turns "2023 Q2" into a sequential quarter number.
func quarterIndex(label string) (int, error) {
	f := strings.Fields(strings.ToUpper(label))
	if len(f) != 2 || len(f[1]) != 2 || f[1][0] != 'Q' {
		return 0, fmt.Errorf("%w: %q", ErrBadQuarter, label)
	}
	y, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadQuarter, label)
	}
	q := int(f[1][1] - '0')
	if q < 1 || q > 4 {
		return 0, fmt.Errorf("%w: %q", ErrBadQuarter, label)
	}
	return y*4 + q - 1, nil
}

// normalizeQuarter upper-cases and re-spaces a quarter label.
func normalizeQuarter(label string) string {
	return strings.Join(strings.Fields(strings.ToUpper(label)), " ")
}

// RollingYears assigns each quarter to a rolling year of four consecutive
// quarters. Years are anchored on the latest quarter so the most recent
// year is complete, and numbered from the earliest: with quarters 2019 Q3
// through 2023 Q2, 2019 Q3..2020 Q2 is "Year 1" and 2022 Q3..2023 Q2 is
// "Year 4".
func RollingYears(quarters []string) (map[string]string, error) {
	if len(quarters) == 0 {
		return map[string]string{}, nil
	}
	idx := make(map[string]int, len(quarters))
	first, last := 0, 0
	for i, q := range quarters {
		n, err := quarterIndex(q)
		if err != nil {
			return nil, err
		}
		idx[normalizeQuarter(q)] = n
		if i == 0 || n < first {
			first = n
		}
		if i == 0 || n > last {
			last = n
		}
	}
	years := (last-first)/4 + 1
	out := make(map[string]string, len(idx))
	for q, n := range idx {
		out[q] = "Year " + strconv.Itoa(years-(last-n)/4)
	}
	return out, nil
}

// YearMapping returns override (keys normalized) when it is non-empty and
// otherwise derives rolling years from the quarters present in measures.
func YearMapping(measures []Measure, override map[string]string) (map[string]string, error) {
	if len(override) > 0 {
		out := make(map[string]string, len(override))
		for q, y := range override {
			out[normalizeQuarter(q)] = strings.TrimSpace(y)
		}
		return out, nil
	}
	seen := make(map[string]bool)
	var quarters []string
	for _, m := range measures {
		q := m.YearQuarter()
		if !seen[q] {
			seen[q] = true
			quarters = append(quarters, q)
		}
	}
	return RollingYears(quarters)
}

// AggregateStats reports measures left out of the aggregation.
type AggregateStats struct {
	Measures int
	Unmapped int // quarter has no rolling year
}

type aggKey struct{ facility, metric, year string }

// Aggregate sums observed and expected counts per facility, metric and
// rolling year and computes SIR = observed / expected where expected >= 1.
// Measures whose quarter has no rolling year are skipped.
func Aggregate(measures []Measure, years map[string]string) ([]Row, AggregateStats) {
	st := AggregateStats{Measures: len(measures)}
	sums := make(map[aggKey]*[2]float64)
	var order []aggKey
	for _, m := range measures {
		y, ok := years[normalizeQuarter(m.YearQuarter())]
		if !ok || y == "" {
			st.Unmapped++
			continue
		}
		k := aggKey{facility: m.FacilityID, metric: MetricCode(m.Measure), year: y}
		s, ok := sums[k]
		if !ok {
			s = new([2]float64)
			sums[k] = s
			order = append(order, k)
		}
		s[0] += m.Observed
		s[1] += m.Expected
	}

	rows := make([]Row, 0, len(order))
	for _, k := range order {
		s := sums[k]
		obs, exp := s[0], s[1]
		r := Row{
			MedicareID:  k.facility,
			MetricCode:  k.metric,
			RollingYear: k.year,
			Observed:    &obs,
			Expected:    &exp,
		}
		if exp >= 1 {
			sir := obs / exp
			r.SIR = &sir
		}
		rows = append(rows, r)
	}
	return rows, st
}

// Composite returns one "I" row per facility and rolling year holding the
// mean of the valid SIRs. Facility-years with no valid SIR get no row.
func Composite(rows []Row) []Row {
	type key struct{ facility, year string }
	sums := make(map[key]*[2]float64)
	var order []key
	for _, r := range rows {
		if r.SIR == nil || r.MetricCode == CompositeCode {
			continue
		}
		k := key{r.MedicareID, r.RollingYear}
		s, ok := sums[k]
		if !ok {
			s = new([2]float64)
			sums[k] = s
			order = append(order, k)
		}
		s[0] += *r.SIR
		s[1]++
	}
	out := make([]Row, 0, len(order))
	for _, k := range order {
		mean := sums[k][0] / sums[k][1]
		out = append(out, Row{MedicareID: k.facility, MetricCode: CompositeCode, RollingYear: k.year, SIR: &mean})
	}
	return out
}

// yearNumber orders "Year 2" before "Year 10".
func yearNumber(label string) (int, bool) {
	f := strings.Fields(label)
	if len(f) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(f[len(f)-1])
	return n, err == nil
}

func lessYear(a, b string) bool {
	na, oka := yearNumber(a)
	nb, okb := yearNumber(b)
	if oka && okb && na != nb {
		return na < nb
	}
	return a < b
}

// SortRows orders rows by facility name, metric code and rolling year.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FacilityName != b.FacilityName {
			return a.FacilityName < b.FacilityName
		}
		if a.MedicareID != b.MedicareID {
			return a.MedicareID < b.MedicareID
		}
		if a.MetricCode != b.MetricCode {
			return a.MetricCode < b.MetricCode
		}
		return lessYear(a.RollingYear, b.RollingYear)
	})
}

// Gap is a facility-year reporting fewer metrics than expected.
type Gap struct {
	MedicareID   string
	FacilityName string
	RollingYear  string
	Metrics      int
}

// Incomplete lists facility-years with fewer than want metric rows, the
// composite included. A facility-year whose every expected count is below
// one has no composite and so reports one short.
func Incomplete(rows []Row, want int) []Gap {
	type key struct{ id, year string }
	counts := make(map[key]*Gap)
	var order []key
	for _, r := range rows {
		k := key{r.MedicareID, r.RollingYear}
		g, ok := counts[k]
		if !ok {
			g = &Gap{MedicareID: r.MedicareID, FacilityName: r.FacilityName, RollingYear: r.RollingYear}
			counts[k] = g
			order = append(order, k)
		}
		g.Metrics++
	}
	var out []Gap
	for _, k := range order {
		if g := counts[k]; g.Metrics < want {
			out = append(out, *g)
		}
	}
	return out
}

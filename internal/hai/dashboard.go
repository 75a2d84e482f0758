package hai

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
)

// Metric code groups of the dashboard tables.
var (
	// TwoByTwoCodes are plotted on the 2x2 chart.
	TwoByTwoCodes = []string{"M", "C", "A", "$", "R", "30D M", "30D R", "H", "OM", "O", "MSPB"}
	// TrendCodes get a trend line; the 30-day cohorts are added from their parents.
	TrendCodes = []string{"M", "C", "A", "$", "R", "30D M", "30D R", "30D RS", "H", "OM", "O", "MSPB"}

	currentMainCodes = []string{"M", "C", "A", "$", "R", "30D R", "H", "OM"}
	currentSAFCodes  = []string{"30D M", "30D RS"}
	currentMSPBCodes = []string{"MSPB"}
)

// OverallCode is the overall score, left out of the current-period table.
const OverallCode = "O"

// metricAbbrevs label the 2x2 chart points.
var metricAbbrevs = map[string]string{
	"M":     "RAMI",
	"C":     "ECRI",
	"A":     "LOS",
	"$":     "Costs",
	"R":     "HW Read",
	"30D M": "30D Mort",
	"30D R": "30D Read",
	"H":     "HCAHPS",
	"OM":    "Op Marg",
	"MSPB":  "MSPB",
	"O":     "Overall",
}

// cohort is a 30-day composite whose cohorts share its quarters.
type cohort struct {
	parent string
	prefix string
	codes  []string
}

var cohorts = []cohort{
	{parent: "30D M", prefix: "M30-", codes: []string{"CA", "CO", "HA", "HF", "PN", "ST"}},
	{parent: "30D R", prefix: "R30-", codes: []string{"CA", "CO", "HA", "HF", "PN", "ST", "TJ"}},
	{parent: "30D RS", prefix: "RS30-", codes: []string{"CA", "CO", "HA", "HF", "PN", "TJ"}},
}

// CohortCodes returns the cohort metric codes expanded from parent.
func CohortCodes(parent string) []string {
	for _, c := range cohorts {
		if c.parent == parent {
			out := make([]string, len(c.codes))
			for i, code := range c.codes {
				out[i] = c.prefix + code
			}
			return out
		}
	}
	return nil
}

// TwoByTwoRow is one point of the 2x2 chart.
type TwoByTwoRow struct {
	Metric
	MetricAbbrev string
}

// TrendRow is one facility, metric and quarter of the trend chart. Gap rows
// fill quarters a cohort did not report: their counts and ratios are zero.
type TrendRow struct {
	Metric
	Bench float64
	Gap   bool
}

// CurrentRow is one metric of the current-quarter chart with its 100 Top
// comparison values.
type CurrentRow struct {
	Metric
	Winners    *float64
	NonWinners *float64
}

// CurrentQuarters picks the quarter of each current-quarter group.
type CurrentQuarters struct {
	Main string // empty uses the latest quarter of the data
	SAF  string // empty leaves the group out
	MSPB string // empty leaves the group out
}

// DashboardInput is the prepared metric data behind the dashboard tables.
type DashboardInput struct {
	Fac           []Metric
	Facqtr        []Metric
	TopBenchmarks []TopBenchmark
	Descriptions  map[string]string
	Current       CurrentQuarters
}

// Dashboard holds the dashboard tables for every facility.
type Dashboard struct {
	TwoByTwo     []TwoByTwoRow
	Trend        []TrendRow
	Current4     []Metric
	CurrentQtr   []CurrentRow
	DataQuarters []Metric // quarters with data, from the LOS metric
	Stats        DashboardStats
}

// DashboardStats reports how the tables were filled.
type DashboardStats struct {
	TrendRows      int
	TrendGaps      int
	CurrentQuarter string
	NoTopBenchmark int
}

// TwoByTwo selects the 2x2 metrics of the period rows and labels them.
func TwoByTwo(fac []Metric) []TwoByTwoRow {
	var out []TwoByTwoRow
	for _, m := range fac {
		if slices.Contains(TwoByTwoCodes, m.MetricCode) {
			out = append(out, TwoByTwoRow{Metric: m, MetricAbbrev: metricAbbrevs[m.MetricCode]})
		}
	}
	return out
}

type trendKey struct{ id, code, quarter, benchmark string }

func keyOf(m Metric) trendKey {
	return trendKey{m.MedicareID, m.MetricCode, m.YearQuarter, m.Benchmark}
}

// TrendReference lists every facility, metric and quarter the trend chart
// shows: the quarters each trend metric reported, plus one row per cohort
// for every quarter its parent composite reported.
func TrendReference(facqtr []Metric) []Metric {
	var out []Metric
	for _, m := range facqtr {
		if slices.Contains(TrendCodes, m.MetricCode) {
			out = append(out, refOnly(m, m.MetricCode))
		}
	}
	for _, c := range cohorts {
		var parents []Metric
		for _, m := range facqtr {
			if m.MetricCode == c.parent {
				parents = append(parents, m)
			}
		}
		for _, code := range CohortCodes(c.parent) {
			for _, p := range parents {
				out = append(out, refOnly(p, code))
			}
		}
	}
	return out
}

// refOnly keeps the identifying fields of m under code.
func refOnly(m Metric, code string) Metric {
	return Metric{
		MedicareID:     m.MedicareID,
		FacilityName:   m.FacilityName,
		FacilityAbbrev: m.FacilityAbbrev,
		Benchmark:      m.Benchmark,
		MetricCode:     code,
		YearQuarter:    m.YearQuarter,
	}
}

// Trend joins the quarterly rows onto the trend reference. Reference rows
// with no quarterly data become gap rows with zero counts. Descriptions come
// from descs, falling back to the quarterly row. Quarterly rows outside the
// reference are left out.
func Trend(facqtr []Metric, descs map[string]string) []TrendRow {
	data := make(map[trendKey]Metric, len(facqtr))
	for _, m := range facqtr {
		if _, ok := data[keyOf(m)]; !ok {
			data[keyOf(m)] = m
		}
	}

	ref := TrendReference(facqtr)
	out := make([]TrendRow, 0, len(ref))
	for _, r := range ref {
		row := TrendRow{Bench: 1}
		if m, ok := data[keyOf(r)]; ok {
			row.Metric = m
		} else {
			row.Metric = r
			row.Gap = true
			for _, p := range []**float64{
				&row.ObservedSrc, &row.ExpectedSrc, &row.OERatioSrc,
				&row.Observed, &row.Expected, &row.OERatio,
			} {
				v := 0.0
				*p = &v
			}
		}
		if d, ok := descs[row.MetricCode]; ok {
			row.MetricDescription = d
		}
		out = append(out, row)
	}
	return out
}

// CurrentFourQuarters is the period table beside each trend chart: every
// period row except the overall score.
func CurrentFourQuarters(fac []Metric) []Metric {
	var out []Metric
	for _, m := range fac {
		if m.MetricCode != OverallCode {
			out = append(out, m)
		}
	}
	return out
}

// LatestQuarter returns the latest "YYYY Q#" quarter in rows.
func LatestQuarter(rows []Metric) string {
	latest, best := "", -1
	for _, m := range rows {
		if n, err := quarterIndex(m.YearQuarter); err == nil && n > best {
			latest, best = m.YearQuarter, n
		}
	}
	return latest
}

type topKey struct{ code, class string }

// CurrentQuarter selects each group's metrics in its quarter and joins the
// 100 Top values on metric code and benchmark class. It returns the rows and
// the number without a 100 Top match.
func CurrentQuarter(facqtr []Metric, q CurrentQuarters, top []TopBenchmark) ([]CurrentRow, int) {
	bench := make(map[topKey]TopBenchmark, len(top))
	for _, b := range top {
		bench[topKey{b.MetricCode, b.BenchmarkClass}] = b
	}
	if q.Main == "" {
		q.Main = LatestQuarter(facqtr)
	}

	var out []CurrentRow
	missing := 0
	for _, g := range []struct {
		codes   []string
		quarter string
	}{
		{currentMainCodes, q.Main},
		{currentSAFCodes, q.SAF},
		{currentMSPBCodes, q.MSPB},
	} {
		if g.quarter == "" {
			continue
		}
		quarter := normalizeQuarter(g.quarter)
		for _, m := range facqtr {
			if m.YearQuarter != quarter || !slices.Contains(g.codes, m.MetricCode) {
				continue
			}
			row := CurrentRow{Metric: m}
			if b, ok := bench[topKey{m.MetricCode, m.BenchmarkClass}]; ok {
				row.Winners, row.NonWinners = b.Winners, b.NonWinners
			} else {
				missing++
			}
			out = append(out, row)
		}
	}
	return out, missing
}

// DataQuarters lists the quarters each facility reported, taken from the
// length-of-stay metric.
func DataQuarters(facqtr []Metric) []Metric {
	var out []Metric
	for _, m := range facqtr {
		if m.MetricCode == "A" {
			out = append(out, refOnly(m, m.MetricCode))
		}
	}
	return out
}

// BuildDashboard derives every dashboard table from prepared metric rows.
func BuildDashboard(ctx context.Context, in DashboardInput) *Dashboard {
	d := &Dashboard{
		TwoByTwo:     TwoByTwo(in.Fac),
		Trend:        Trend(in.Facqtr, in.Descriptions),
		Current4:     CurrentFourQuarters(in.Fac),
		DataQuarters: DataQuarters(in.Facqtr),
	}
	current := in.Current
	if current.Main == "" {
		current.Main = LatestQuarter(in.Facqtr)
	}
	d.CurrentQtr, d.Stats.NoTopBenchmark = CurrentQuarter(in.Facqtr, current, in.TopBenchmarks)
	d.Stats.CurrentQuarter = current.Main
	d.Stats.TrendRows = len(d.Trend)
	for _, r := range d.Trend {
		if r.Gap {
			d.Stats.TrendGaps++
		}
	}

	zerolog.Ctx(ctx).Info().
		Int("two_by_two", len(d.TwoByTwo)).
		Int("trend", d.Stats.TrendRows).
		Int("trend_gaps", d.Stats.TrendGaps).
		Int("current_4_qtrs", len(d.Current4)).
		Int("current_qtr", len(d.CurrentQtr)).
		Str("current_quarter", d.Stats.CurrentQuarter).
		Int("no_top_benchmark", d.Stats.NoTopBenchmark).
		Msg("dashboard tables built")
	return d
}

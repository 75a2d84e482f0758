package hai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"claimtool/internal/export"
)

// Input is everything needed to build the HAI table.
type Input struct {
	Measures     []Measure
	RollingYears map[string]string // quarter → rolling year; empty derives them
	Refs         Refs
	MinMetrics   int
}

// Result is the decorated HAI table and what was found building it.
type Result struct {
	Rows      []Row
	Years     map[string]string
	Aggregate AggregateStats
	Decorate  DecorateStats
	Gaps      []Gap
}

// Build aggregates measures into rolling years, adds the composite, joins
// the references and checks each facility-year for missing metrics.
func Build(ctx context.Context, in Input) (*Result, error) {
	log := zerolog.Ctx(ctx)

	years, err := YearMapping(in.Measures, in.RollingYears)
	if err != nil {
		return nil, err
	}
	quarters := make([]string, 0, len(years))
	for q := range years {
		quarters = append(quarters, q)
	}
	sort.Strings(quarters)
	for _, q := range quarters {
		log.Debug().Str("quarter", q).Str("rolling_year", years[q]).Msg("rolling year")
	}

	rows, agg := Aggregate(in.Measures, years)
	if agg.Unmapped > 0 {
		log.Warn().Int("measures", agg.Unmapped).Msg("quarter outside the rolling years; skipped")
	}
	comp := Composite(rows)
	rows = append(rows, comp...)

	dec := Decorate(rows, in.Refs)
	log.Info().
		Int("measures", agg.Measures).
		Int("rows", len(rows)).
		Int("composites", len(comp)).
		Int("no_hospital", dec.NoHospital).
		Int("no_benchmark", dec.NoBenchmark).
		Int("no_description", dec.NoDescription).
		Msg("HAI table built")

	res := &Result{Rows: rows, Years: years, Aggregate: agg, Decorate: dec}
	if in.MinMetrics > 0 {
		res.Gaps = Incomplete(rows, in.MinMetrics)
		for _, g := range res.Gaps {
			log.Warn().Str("facility", g.FacilityName).Str("medicare_id", g.MedicareID).
				Str("rolling_year", g.RollingYear).Int("metrics", g.Metrics).
				Msg("facility-year has fewer metrics than expected")
		}
	}
	return res, nil
}

// Workbook column headers.
var (
	allColumns = []string{
		"Medicare ID", "Facility Name", "Facility Abbreviation", "Metric Code", "Metric Description",
		"Rolling Year", "SIR", "Expected SIR", "Observed_c", "Expected_c",
	}
	codeColumns     = []string{"Metric Code", "Rolling Year", "SIR", "Expected SIR", "Observed_c", "Expected_c"}
	facilityColumns = []string{"Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark Class", "Quarters Available"}
	quarterColumns  = []string{"Facility Abbreviation", "YearQuarter"}
	twoByTwoColumns = []string{
		"LU Key", "Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark", "Metric Code",
		"Recent", "Improvement", "Metric Abbrv",
	}
	current4Columns = []string{
		"LU Key", "Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark", "Metric Code",
		"Metric Description", "Qualified", "Observed_src", "Expected_src", "Recent_src",
		"Average Observed", "Average Expected",
	}
	trendColumns = []string{
		"LU Key", "Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark", "Metric Code",
		"Metric Description", "YearQuarter", "Qualified", "Observed_src", "Expected_src", "OE_ratio_src",
		"Observed", "Expected", "OE_ratio", "Bench", "Average Observed", "Average Expected",
	}
	currentColumns = []string{
		"LU Key", "Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark Class", "YearQuarter",
		"Benchmark", "Metric Code", "Metric Description", "Qualified", "Observed_src", "Expected_src",
		"OE_ratio_src", "Average Observed", "Winners", "Non Winners",
	}
)

// Worksheet names.
const (
	ResultsSheet  = "HAI Table Results"
	FacilitySheet = "Facility"
	QuartersSheet = "Trend Metric Keys"
	TwoByTwoSheet = "2x2"
	Current4Sheet = "Current 4 Qtrs"
	TrendSheet    = "Trend Data"
	CurrentSheet  = "Current Qtr"
)

func sirCell(v *float64) any {
	if v == nil {
		return ExpectedBelowOne
	}
	return *v
}

func optCell(v *float64, missing string) any {
	if v == nil {
		return missing
	}
	return *v
}

func countCell(v *float64) any { return optCell(v, NotApplicable) }

// numCell leaves the cell empty for a nil number.
func numCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Facility is everything written to one facility's workbook.
type Facility struct {
	MedicareID string
	Name       string
	Hospital   *Hospital
	HAI        []Row

	// Dashboard tables; left out when Dashboard is false.
	Dashboard    bool
	DataQuarters []Metric
	TwoByTwo     []TwoByTwoRow
	Current4     []Metric
	Trend        []TrendRow
	CurrentQtr   []CurrentRow
}

// Facilities groups HAI rows and dashboard tables by Medicare ID. dash may
// be nil. The result is sorted by Medicare ID.
func Facilities(rows []Row, dash *Dashboard, hospitals []Hospital) []Facility {
	byID := make(map[string]*Facility)
	get := func(id, name string) *Facility {
		f, ok := byID[id]
		if !ok {
			f = &Facility{MedicareID: id, Dashboard: dash != nil}
			byID[id] = f
		}
		if f.Name == "" {
			f.Name = name
		}
		return f
	}
	for _, r := range rows {
		f := get(r.MedicareID, r.FacilityName)
		f.HAI = append(f.HAI, r)
	}
	if dash != nil {
		for _, m := range dash.DataQuarters {
			f := get(m.MedicareID, m.FacilityName)
			f.DataQuarters = append(f.DataQuarters, m)
		}
		for _, r := range dash.TwoByTwo {
			f := get(r.MedicareID, r.FacilityName)
			f.TwoByTwo = append(f.TwoByTwo, r)
		}
		for _, m := range dash.Current4 {
			f := get(m.MedicareID, m.FacilityName)
			f.Current4 = append(f.Current4, m)
		}
		for _, r := range dash.Trend {
			f := get(r.MedicareID, r.FacilityName)
			f.Trend = append(f.Trend, r)
		}
		for _, r := range dash.CurrentQtr {
			f := get(r.MedicareID, r.FacilityName)
			f.CurrentQtr = append(f.CurrentQtr, r)
		}
	}
	for i := range hospitals {
		if f, ok := byID[hospitals[i].MedicareID]; ok {
			f.Hospital = &hospitals[i]
			if hospitals[i].Name != "" {
				f.Name = hospitals[i].Name
			}
		}
	}

	out := make([]Facility, 0, len(byID))
	for _, f := range byID {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicareID < out[j].MedicareID })
	return out
}

// FacilitySheets lays out one facility's workbook: the hospital reference,
// the dashboard tables, the full HAI table and one sheet per HAI code.
func FacilitySheets(f Facility) []export.Sheet {
	var sheets []export.Sheet
	if h := f.Hospital; h != nil {
		sheets = append(sheets, export.Sheet{
			Name:   FacilitySheet,
			Header: facilityColumns,
			Rows:   [][]any{{h.MedicareID, h.Name, h.Abbreviation, h.BenchmarkClass, h.QuartersAvailable}},
		})
	}
	if f.Dashboard {
		sheets = append(sheets, dashboardSheets(f)...)
	}

	all := export.Sheet{Name: ResultsSheet, Header: allColumns, Widths: map[string]float64{"B": 32, "E": 40}}
	byCode := make(map[string][][]any, len(Codes))
	for _, r := range f.HAI {
		all.Rows = append(all.Rows, []any{
			r.MedicareID, r.FacilityName, r.FacilityAbbrev, r.MetricCode, r.MetricDescription,
			r.RollingYear, sirCell(r.SIR), optCell(r.ExpectedSIR, ""), countCell(r.Observed), countCell(r.Expected),
		})
		byCode[r.MetricCode] = append(byCode[r.MetricCode], []any{
			r.MetricCode, r.RollingYear, sirCell(r.SIR), optCell(r.ExpectedSIR, ""), countCell(r.Observed), countCell(r.Expected),
		})
	}
	sheets = append(sheets, all)
	for _, code := range Codes {
		sheets = append(sheets, export.Sheet{Name: code, Header: codeColumns, Rows: byCode[code]})
	}
	return sheets
}

func dashboardSheets(f Facility) []export.Sheet {
	quarters := export.Sheet{Name: QuartersSheet, Header: quarterColumns}
	for _, m := range f.DataQuarters {
		quarters.Rows = append(quarters.Rows, []any{m.FacilityAbbrev, m.YearQuarter})
	}

	twoByTwo := export.Sheet{Name: TwoByTwoSheet, Header: twoByTwoColumns}
	for _, r := range f.TwoByTwo {
		twoByTwo.Rows = append(twoByTwo.Rows, []any{
			r.MetricCode, r.MedicareID, r.FacilityName, r.FacilityAbbrev, r.Benchmark, r.MetricCode,
			numCell(r.Recent), numCell(r.Improvement), r.MetricAbbrev,
		})
	}

	current4 := export.Sheet{Name: Current4Sheet, Header: current4Columns}
	for _, m := range f.Current4 {
		current4.Rows = append(current4.Rows, []any{
			m.MetricCode, m.MedicareID, m.FacilityName, m.FacilityAbbrev, m.Benchmark, m.MetricCode,
			m.MetricDescription, numCell(m.Qualified), numCell(m.ObservedSrc), numCell(m.ExpectedSrc),
			numCell(m.RecentSrc), numCell(m.AvgObserved), numCell(m.AvgExpected),
		})
	}

	trend := export.Sheet{Name: TrendSheet, Header: trendColumns, Widths: map[string]float64{"G": 40}}
	for _, r := range f.Trend {
		trend.Rows = append(trend.Rows, []any{
			r.MetricCode + r.YearQuarter, r.MedicareID, r.FacilityName, r.FacilityAbbrev, r.Benchmark, r.MetricCode,
			r.MetricDescription, r.YearQuarter, numCell(r.Qualified), numCell(r.ObservedSrc), numCell(r.ExpectedSrc),
			numCell(r.OERatioSrc), numCell(r.Observed), numCell(r.Expected), numCell(r.OERatio), r.Bench,
			numCell(r.AvgObserved), numCell(r.AvgExpected),
		})
	}

	current := export.Sheet{Name: CurrentSheet, Header: currentColumns}
	for _, r := range f.CurrentQtr {
		current.Rows = append(current.Rows, []any{
			r.MetricCode, r.MedicareID, r.FacilityName, r.FacilityAbbrev, r.BenchmarkClass, r.YearQuarter,
			r.Benchmark, r.MetricCode, r.MetricDescription, numCell(r.Qualified), numCell(r.ObservedSrc),
			numCell(r.ExpectedSrc), numCell(r.OERatioSrc), numCell(r.AvgObserved),
			numCell(r.Winners), numCell(r.NonWinners),
		})
	}
	return []export.Sheet{quarters, twoByTwo, current4, trend, current}
}

var fileNameReplacer = strings.NewReplacer("/", "-", `\`, "-", ":", "-", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "-")

// FileName names a facility's workbook "<name> <Medicare ID><suffix>.xlsx",
// or "<Medicare ID><suffix>.xlsx" when the facility has no name.
func FileName(f Facility, suffix string) string {
	label := f.MedicareID
	if f.Name != "" {
		label = f.Name + " " + f.MedicareID
	}
	return fileNameReplacer.Replace(label) + suffix + ".xlsx"
}

// WriteFacilityWorkbooks writes one workbook per facility into dir and
// returns the paths written, in facility order.
func WriteFacilityWorkbooks(ctx context.Context, dir, suffix string, facilities []Facility) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	log := zerolog.Ctx(ctx)

	paths := make([]string, len(facilities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range facilities {
		i, f := i, f
		paths[i] = filepath.Join(dir, FileName(f, suffix))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := export.WriteWorkbook(paths[i], FacilitySheets(f)); err != nil {
				return fmt.Errorf("facility %s: %w", f.MedicareID, err)
			}
			log.Info().Str("medicare_id", f.MedicareID).Str("facility", f.Name).Str("file", paths[i]).
				Int("hai_rows", len(f.HAI)).Int("trend_rows", len(f.Trend)).Msg("facility report written")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

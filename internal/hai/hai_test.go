package hai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtool/internal/export"
	"claimtool/internal/flatfile"
)

func quarters(from, to int) []string {
	var out []string
	for n := from; n <= to; n++ {
		out = append(out, (Measure{Year: strconv.Itoa(n / 4), Quarter: strconv.Itoa(n%4 + 1)}).YearQuarter())
	}
	return out
}

// ── Rolling years ───────────────────────────────────────────────────────

func TestRollingYears(t *testing.T) {
	years, err := RollingYears(quarters(2019*4+2, 2023*4+1))
	require.NoError(t, err)
	assert.Len(t, years, 16)
	assert.Equal(t, "Year 1", years["2019 Q3"])
	assert.Equal(t, "Year 1", years["2020 Q2"])
	assert.Equal(t, "Year 2", years["2020 Q3"])
	assert.Equal(t, "Year 4", years["2022 Q3"])
	assert.Equal(t, "Year 4", years["2023 Q2"])
}

func TestRollingYearsAnchorsOnLatest(t *testing.T) {
	years, err := RollingYears(quarters(2019*4+3, 2023*4+1))
	require.NoError(t, err)
	assert.Equal(t, "Year 1", years["2019 Q4"])
	assert.Equal(t, "Year 2", years["2020 Q3"])
	assert.Equal(t, "Year 4", years["2022 Q3"])
}

func TestRollingYearsBadQuarter(t *testing.T) {
	_, err := RollingYears([]string{"2023 Q5"})
	assert.True(t, errors.Is(err, ErrBadQuarter))
	_, err = RollingYears([]string{"Q1 2023"})
	assert.ErrorIs(t, err, ErrBadQuarter)
}

func TestYearMappingOverride(t *testing.T) {
	years, err := YearMapping(nil, map[string]string{"2023 q1": " Year 1 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2023 Q1": "Year 1"}, years)
}

// ── Aggregation ─────────────────────────────────────────────────────────

func testMeasures() []Measure {
	return []Measure{
		{FacilityID: "010033", Measure: "CAUTI", Year: "2023", Quarter: "1", Observed: 1, Expected: 1.5},
		{FacilityID: "010033", Measure: "CAUTI", Year: "2023", Quarter: "2", Observed: 2, Expected: 1.5},
		{FacilityID: "010033", Measure: "CDIF", Year: "2023", Quarter: "1", Observed: 1, Expected: 0.5},
		{FacilityID: "010033", Measure: "SSI Colon", Year: "2023", Quarter: "2", Observed: 3, Expected: 2},
		{FacilityID: "020001", Measure: "MRSA", Year: "2023", Quarter: "1", Observed: 0, Expected: 0.2},
		{FacilityID: "010033", Measure: "CAUTI", Year: "2019", Quarter: "1", Observed: 9, Expected: 9},
	}
}

func TestMetricCode(t *testing.T) {
	assert.Equal(t, "I-CDIFF", MetricCode("CDIF"))
	assert.Equal(t, "I-SSI-CS", MetricCode("SSI Colon"))
	assert.Equal(t, "I-SSI-HY", MetricCode(" SSI Hyst "))
	assert.Equal(t, "I-CLABSI", MetricCode("CLABSI"))
}

func TestAggregateAndComposite(t *testing.T) {
	years := map[string]string{"2023 Q1": "Year 1", "2023 Q2": "Year 1"}
	rows, st := Aggregate(testMeasures(), years)
	assert.Equal(t, AggregateStats{Measures: 6, Unmapped: 1}, st)
	require.Len(t, rows, 4)

	cauti := rows[0]
	assert.Equal(t, "I-CAUTI", cauti.MetricCode)
	assert.Equal(t, 3.0, *cauti.Observed)
	assert.Equal(t, 3.0, *cauti.Expected)
	assert.Equal(t, 1.0, *cauti.SIR)

	cdiff := rows[1]
	assert.Equal(t, "I-CDIFF", cdiff.MetricCode)
	assert.Nil(t, cdiff.SIR)

	assert.Equal(t, 1.5, *rows[2].SIR)

	comp := Composite(rows)
	require.Len(t, comp, 1)
	assert.Equal(t, "010033", comp[0].MedicareID)
	assert.Equal(t, CompositeCode, comp[0].MetricCode)
	assert.Equal(t, 1.25, *comp[0].SIR)
	assert.Nil(t, comp[0].Observed)
}

func TestDecorateAndIncomplete(t *testing.T) {
	years := map[string]string{"2023 Q1": "Year 1", "2023 Q2": "Year 1"}
	rows, _ := Aggregate(testMeasures(), years)
	rows = append(rows, Composite(rows)...)

	st := Decorate(rows, Refs{
		Hospitals: []Hospital{
			{MedicareID: "010033", Name: "Zeta General", Abbreviation: "ZG"},
			{MedicareID: "020001", Name: "Alpha Regional", Abbreviation: "AR"},
		},
		Benchmarks:   map[string]float64{"I": 0.8, "I-CAUTI": 0.9},
		Descriptions: map[string]string{"I-CAUTI": "Catheter-associated UTI"},
	})
	assert.Equal(t, 5, st.Rows)
	assert.Equal(t, 0, st.NoHospital)
	assert.Equal(t, 3, st.NoBenchmark)
	assert.Equal(t, 4, st.NoDescription)

	assert.Equal(t, "Alpha Regional", rows[0].FacilityName)
	assert.Equal(t, "I-MRSA", rows[0].MetricCode)
	assert.Equal(t, "I", rows[1].MetricCode)
	assert.Equal(t, 0.8, *rows[1].ExpectedSIR)
	assert.Equal(t, "I-CAUTI", rows[2].MetricCode)
	assert.Equal(t, "Catheter-associated UTI", rows[2].MetricDescription)

	gaps := Incomplete(rows, 7)
	require.Len(t, gaps, 2)
	assert.Equal(t, Gap{MedicareID: "020001", FacilityName: "Alpha Regional", RollingYear: "Year 1", Metrics: 1}, gaps[0])
	assert.Equal(t, 4, gaps[1].Metrics)
}

func TestSortRowsYearNumber(t *testing.T) {
	rows := []Row{{RollingYear: "Year 10"}, {RollingYear: "Year 2"}}
	SortRows(rows)
	assert.Equal(t, "Year 2", rows[0].RollingYear)
}

// ── Files ───────────────────────────────────────────────────────────────

func writeInputs(t *testing.T, dir string) (measures, hospitals, bench, desc string) {
	t.Helper()
	measures = filepath.Join(dir, "hai.xlsx")
	require.NoError(t, export.WriteWorkbook(measures, []export.Sheet{{
		Name:   "HAIs",
		Header: []string{"Facility ID", "Measure", "Year", "Quarter Number", "Observed_c", "Expected_c"},
		Rows: [][]any{
			{"010033", "CAUTI", 2023, 1, 1, 1.5},
			{"010033", "CAUTI", 2023, 2, 2, 1.5},
			{"010033", "CDIF", 2023, 2, nil, 0.5},
		},
	}}))
	hospitals = filepath.Join(dir, "hosp.xlsx")
	require.NoError(t, export.WriteWorkbook(hospitals, []export.Sheet{{
		Name:   "Facilities",
		Header: []string{"FAC_ID", "Facility Name", "Facility Abbreviation"},
		Rows:   [][]any{{"010033", "Zeta General", "ZG"}},
	}}))
	bench = filepath.Join(dir, "bench.xlsx")
	require.NoError(t, export.WriteWorkbook(bench, []export.Sheet{{
		Name:   "Sheet1",
		Header: []string{"Metric Code", "Expected SIR"},
		Rows:   [][]any{{"I-CAUTI", 0.9}, {"I", nil}},
	}}))
	desc = filepath.Join(dir, "metrics.xlsx")
	require.NoError(t, export.WriteWorkbook(desc, []export.Sheet{{
		Name:   "Sheet1",
		Header: []string{"Metric Code", "Metric Description"},
		Rows:   [][]any{{"I-CAUTI", "Catheter-associated UTI"}},
	}}))
	return
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	mPath, hPath, bPath, dPath := writeInputs(t, dir)

	ms, err := LoadMeasures(mPath, "HAIs")
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, Measure{FacilityID: "010033", Measure: "CAUTI", Year: "2023", Quarter: "1", Observed: 1, Expected: 1.5}, ms[0])
	assert.Equal(t, 0.0, ms[2].Observed)

	hosp, err := LoadHospitals(hPath, "")
	require.NoError(t, err)
	assert.Equal(t, []Hospital{{MedicareID: "010033", Name: "Zeta General", Abbreviation: "ZG"}}, hosp)

	bench, err := LoadBenchmarks(bPath, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"I-CAUTI": 0.9}, bench)

	desc, err := LoadDescriptions(dPath, "")
	require.NoError(t, err)
	assert.Equal(t, "Catheter-associated UTI", desc["I-CAUTI"])

	_, err = LoadMeasures(hPath, "")
	assert.ErrorIs(t, err, flatfile.ErrMissingColumn)
}

func TestWholeNumber(t *testing.T) {
	assert.Equal(t, "2023", wholeNumber("2023.0"))
	assert.Equal(t, "010033", wholeNumber("010033"))
	assert.Equal(t, "1.5", wholeNumber("1.5"))
}

func TestBuildAndWrite(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())
	dir := t.TempDir()
	mPath, hPath, bPath, dPath := writeInputs(t, dir)

	ms, err := LoadMeasures(mPath, "HAIs")
	require.NoError(t, err)
	hosp, err := LoadHospitals(hPath, "")
	require.NoError(t, err)
	bench, err := LoadBenchmarks(bPath, "")
	require.NoError(t, err)
	desc, err := LoadDescriptions(dPath, "")
	require.NoError(t, err)

	res, err := Build(ctx, Input{
		Measures:   ms,
		Refs:       Refs{Hospitals: hosp, Benchmarks: bench, Descriptions: desc},
		MinMetrics: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2023 Q1": "Year 1", "2023 Q2": "Year 1"}, res.Years)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "I", res.Rows[0].MetricCode)
	assert.Len(t, res.Gaps, 1)

	facs := Facilities(res.Rows, nil, hosp)
	require.Len(t, facs, 1)
	assert.Equal(t, "010033", facs[0].MedicareID)
	assert.False(t, facs[0].Dashboard)

	out := filepath.Join(dir, "reports")
	paths, err := WriteFacilityWorkbooks(ctx, out, " HAI Report", facs)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "Zeta General 010033 HAI Report.xlsx")}, paths)
	_, err = os.Stat(paths[0])
	require.NoError(t, err)

	fac, err := export.ReadSheet(paths[0], FacilitySheet)
	require.NoError(t, err)
	require.Len(t, fac.Rows, 1)
	assert.Equal(t, "010033", fac.Get(0, "Medicare ID"))

	_, err = export.ReadSheet(paths[0], TrendSheet)
	assert.ErrorIs(t, err, export.ErrSheetNotFound)

	all, err := export.ReadSheet(paths[0], ResultsSheet)
	require.NoError(t, err)
	require.Len(t, all.Rows, 3)
	assert.Equal(t, "Zeta General", all.Get(0, "Facility Name"))
	assert.Equal(t, NotApplicable, all.Get(0, "Observed_c"))
	assert.Equal(t, "1", all.Get(0, "SIR"))

	cdiff, err := export.ReadSheet(paths[0], "I-CDIFF")
	require.NoError(t, err)
	require.Len(t, cdiff.Rows, 1)
	assert.Equal(t, ExpectedBelowOne, cdiff.Get(0, "SIR"))

	mrsa, err := export.ReadSheet(paths[0], "I-MRSA")
	require.NoError(t, err)
	assert.Empty(t, mrsa.Rows)
}

func TestFacilitiesGroupByMedicareID(t *testing.T) {
	sir := 1.0
	rows := []Row{
		{MedicareID: "020001", FacilityName: "Same Name", MetricCode: "I", RollingYear: "Year 1", SIR: &sir},
		{MedicareID: "010033", FacilityName: "Same Name", MetricCode: "I", RollingYear: "Year 1", SIR: &sir},
		{MedicareID: "030002", MetricCode: "I", RollingYear: "Year 1", SIR: &sir},
	}
	facs := Facilities(rows, nil, nil)
	require.Len(t, facs, 3)
	assert.Equal(t, "010033", facs[0].MedicareID)
	assert.Equal(t, "020001", facs[1].MedicareID)

	assert.Equal(t, "Same Name 010033 HAI Report.xlsx", FileName(facs[0], " HAI Report"))
	assert.Equal(t, "Same Name 020001 HAI Report.xlsx", FileName(facs[1], " HAI Report"))
	assert.Equal(t, "030002 HAI Report.xlsx", FileName(facs[2], " HAI Report"))
	assert.Equal(t, "A-B 1.xlsx", FileName(Facility{MedicareID: "1", Name: "A/B"}, ""))
}

// ── Dashboard ───────────────────────────────────────────────────────────

var (
	facHeader    = []string{"Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark", "Metric Code", "Metric Description", "Qualified", "Observed_src", "Expected_src", "Recent_src", "Recent", "Improvement"}
	facqtrHeader = []string{"Medicare ID", "Facility Name", "Facility Abbreviation", "Benchmark", "Benchmark Class", "Metric Code", "Metric Description", "YearQuarter", "Qualified", "Observed_src", "Expected_src", "OE_ratio_src"}
)

func writeMetrics(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "metrics.xlsx")
	err := export.WriteWorkbook(path, []export.Sheet{
		{
			Name:   "fac",
			Header: facHeader,
			Rows: [][]any{
				{"010033", "Zeta General", "ZG", "Top Decile", "L", "Length of Stay", 30, 100, 120, 5, 0.9, 0.1},
				{"010033", "Zeta General", "ZG", "Top Decile", "O", "Overall", nil, nil, nil, nil, 50, 2},
				{"010033", "Zeta General", "ZG", "Top Decile", "M30", "30 Day Mortality - Heart Attack", 10, 1, 2, nil, 1.1, nil},
				{"010033", "Zeta General", "ZG", "Top Decile", "I-CAUTI", "CAUTI", nil, nil, nil, nil, nil, nil},
				{"010033", "Zeta General", "ZG", "Median", "L", "Length of Stay", 30, 100, 110, 5, 0.8, 0.2},
			},
		},
		{
			Name:   "facqtr",
			Header: facqtrHeader,
			Rows: [][]any{
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "L", "Length of Stay", "2023 Q1", 10, 40, 50, 0.8},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "L", "Length of Stay", "2023 Q2", 20, 60, 60, 1},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "R30", "30 Day Readmit", "2023 Q1", 8, 2, 4, 0.5},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "R30", "30 Day Readmit", "2023 Q2", 9, 3, 3, 1},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "R30-HF", "30 Day Readmit - Heart Failure", "2023 Q1", 2, 1, 1, 1},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "R30-HF", "30 Day Readmit - Heart Failure", "2022 Q4", 2, 1, 1, 1},
				{"010033", "Zeta General", "ZG", "Top Decile", "Teaching", "I-CAUTI", "CAUTI", "2023 Q1", nil, 1, 1, 1},
				{"010033", "Zeta General", "ZG", "Median", "Teaching", "L", "Length of Stay", "2023 Q1", 10, 40, 45, 0.9},
			},
		},
	})
	if err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	return path
}

func loadDashboardInput(t *testing.T, dir string) DashboardInput {
	t.Helper()
	path := writeMetrics(t, dir)
	fac, err := LoadMetrics(path, "fac")
	require.NoError(t, err)
	facqtr, err := LoadMetrics(path, "facqtr")
	require.NoError(t, err)

	in := DashboardInput{Descriptions: map[string]string{"R30-HF": "30 Day Readmit - HF"}}
	var st PrepareStats
	in.Fac, st = PrepareMetrics(fac, "Top Decile")
	assert.Equal(t, PrepareStats{Read: 5, HAI: 1, OtherBenchmark: 1, Renamed: 2, DescriptionsSet: 1}, st)
	in.Facqtr, st = PrepareMetrics(facqtr, "Top Decile")
	assert.Equal(t, PrepareStats{Read: 8, HAI: 1, OtherBenchmark: 1, Renamed: 4, DescriptionsSet: 2}, st)
	return in
}

func TestPrepareMetrics(t *testing.T) {
	in := loadDashboardInput(t, t.TempDir())
	require.Len(t, in.Fac, 3)

	los := in.Fac[0]
	assert.Equal(t, "A", los.MetricCode)
	assert.Equal(t, 0.9, *los.Recent)
	assert.InDelta(t, 100.0/30, *los.AvgObserved, 1e-9)
	assert.InDelta(t, 4.0, *los.AvgExpected, 1e-9)

	assert.Nil(t, in.Fac[1].AvgObserved)
	assert.Equal(t, "30D M", in.Fac[2].MetricCode)
	assert.Equal(t, "30 Day Mortality - AMI", in.Fac[2].MetricDescription)
	assert.Nil(t, in.Fac[2].Improvement)

	require.Len(t, in.Facqtr, 6)
	assert.Equal(t, "2023 Q1", in.Facqtr[0].YearQuarter)
	assert.Equal(t, "Teaching", in.Facqtr[0].BenchmarkClass)
	assert.Equal(t, "30D R", in.Facqtr[2].MetricCode)
	assert.Equal(t, "R30-HF", in.Facqtr[4].MetricCode)
}

func TestLoadMetricsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, export.WriteWorkbook(path, []export.Sheet{{Name: "fac", Header: []string{"Facility Name"}}}))
	_, err := LoadMetrics(path, "fac")
	require.ErrorIs(t, err, flatfile.ErrMissingColumn)
	assert.ErrorContains(t, err, "Medicare ID")
	assert.ErrorContains(t, err, "Benchmark")
}

func TestTwoByTwoAndCurrentFourQuarters(t *testing.T) {
	in := loadDashboardInput(t, t.TempDir())

	pts := TwoByTwo(in.Fac)
	require.Len(t, pts, 3)
	assert.Equal(t, "LOS", pts[0].MetricAbbrev)
	assert.Equal(t, "Overall", pts[1].MetricAbbrev)
	assert.Equal(t, "30D Mort", pts[2].MetricAbbrev)

	cur := CurrentFourQuarters(in.Fac)
	require.Len(t, cur, 2)
	for _, m := range cur {
		assert.NotEqual(t, OverallCode, m.MetricCode)
	}
}

func TestCohortCodes(t *testing.T) {
	assert.Equal(t, []string{"M30-CA", "M30-CO", "M30-HA", "M30-HF", "M30-PN", "M30-ST"}, CohortCodes("30D M"))
	assert.Len(t, CohortCodes("30D R"), 7)
	assert.Contains(t, CohortCodes("30D RS"), "RS30-TJ")
	assert.Nil(t, CohortCodes("A"))
}

func TestTrendFillsCohortGaps(t *testing.T) {
	in := loadDashboardInput(t, t.TempDir())

	trend := Trend(in.Facqtr, in.Descriptions)
	// 2 LOS + 2 30D R quarters, then 7 readmit cohorts x 2 quarters.
	require.Len(t, trend, 18)

	gaps := 0
	for _, r := range trend {
		assert.Equal(t, 1.0, r.Bench)
		assert.NotEqual(t, "2022 Q4", r.YearQuarter)
		if r.Gap {
			gaps++
		}
	}
	assert.Equal(t, 13, gaps)

	assert.Equal(t, "A", trend[0].MetricCode)
	assert.False(t, trend[0].Gap)
	assert.Equal(t, 10.0, *trend[0].Qualified)

	assert.Equal(t, "R30-CA", trend[4].MetricCode)
	assert.Equal(t, "2023 Q1", trend[4].YearQuarter)

	hf1, hf2 := trend[10], trend[11]
	assert.Equal(t, "R30-HF", hf1.MetricCode)
	assert.False(t, hf1.Gap)
	assert.Equal(t, 1.0, *hf1.ObservedSrc)
	assert.Equal(t, "30 Day Readmit - HF", hf1.MetricDescription)

	assert.Equal(t, "R30-HF", hf2.MetricCode)
	assert.Equal(t, "2023 Q2", hf2.YearQuarter)
	assert.True(t, hf2.Gap)
	assert.Equal(t, 0.0, *hf2.ObservedSrc)
	assert.Equal(t, 0.0, *hf2.OERatio)
	assert.Nil(t, hf2.Qualified)
	assert.Equal(t, "Zeta General", hf2.FacilityName)
	assert.Equal(t, "30 Day Readmit - HF", hf2.MetricDescription)
}

func TestCurrentQuarter(t *testing.T) {
	in := loadDashboardInput(t, t.TempDir())
	assert.Equal(t, "2023 Q2", LatestQuarter(in.Facqtr))

	winners, non := 4.5, 5.1
	top := []TopBenchmark{{MetricCode: "A", BenchmarkClass: "Teaching", Winners: &winners, NonWinners: &non}}

	rows, missing := CurrentQuarter(in.Facqtr, CurrentQuarters{}, top)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, missing)
	assert.Equal(t, "A", rows[0].MetricCode)
	assert.Equal(t, "2023 Q2", rows[0].YearQuarter)
	assert.Equal(t, 4.5, *rows[0].Winners)
	assert.Equal(t, "30D R", rows[1].MetricCode)
	assert.Nil(t, rows[1].Winners)

	rows, _ = CurrentQuarter(in.Facqtr, CurrentQuarters{Main: "2023 q1", SAF: "2023 Q1"}, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023 Q1", rows[0].YearQuarter)
}

func TestDashboardWorkbook(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())
	dir := t.TempDir()
	in := loadDashboardInput(t, dir)

	dash := BuildDashboard(ctx, in)
	assert.Equal(t, DashboardStats{TrendRows: 18, TrendGaps: 13, CurrentQuarter: "2023 Q2", NoTopBenchmark: 2}, dash.Stats)
	require.Len(t, dash.DataQuarters, 2)

	sir := 1.0
	rows := []Row{
		{MedicareID: "010033", FacilityName: "Zeta General", MetricCode: "I", RollingYear: "Year 1", SIR: &sir},
		{MedicareID: "020001", MetricCode: "I", RollingYear: "Year 1", SIR: &sir},
	}
	hospitals := []Hospital{{MedicareID: "010033", Name: "Zeta General", Abbreviation: "ZG", BenchmarkClass: "Teaching", QuartersAvailable: "2"}}
	facs := Facilities(rows, dash, hospitals)
	require.Len(t, facs, 2)
	assert.Len(t, facs[0].Trend, 18)
	assert.Len(t, facs[0].HAI, 1)
	assert.Empty(t, facs[1].Trend)

	paths, err := WriteFacilityWorkbooks(ctx, filepath.Join(dir, "out"), "_2023q2", facs)
	require.NoError(t, err)
	assert.Equal(t, "Zeta General 010033_2023q2.xlsx", filepath.Base(paths[0]))
	assert.Equal(t, "020001_2023q2.xlsx", filepath.Base(paths[1]))

	fac, err := export.ReadSheet(paths[0], FacilitySheet)
	require.NoError(t, err)
	assert.Equal(t, "Teaching", fac.Get(0, "Benchmark Class"))
	assert.Equal(t, "2", fac.Get(0, "Quarters Available"))

	keys, err := export.ReadSheet(paths[0], QuartersSheet)
	require.NoError(t, err)
	require.Len(t, keys.Rows, 2)
	assert.Equal(t, "2023 Q2", keys.Get(1, "YearQuarter"))

	pts, err := export.ReadSheet(paths[0], TwoByTwoSheet)
	require.NoError(t, err)
	require.Len(t, pts.Rows, 3)
	assert.Equal(t, "LOS", pts.Get(0, "Metric Abbrv"))

	trend, err := export.ReadSheet(paths[0], TrendSheet)
	require.NoError(t, err)
	require.Len(t, trend.Rows, 18)
	assert.Equal(t, "A2023 Q1", trend.Get(0, "LU Key"))
	assert.Equal(t, "0", trend.Get(11, "Observed_src"))
	assert.Equal(t, "", trend.Get(11, "Qualified"))

	cur4, err := export.ReadSheet(paths[0], Current4Sheet)
	require.NoError(t, err)
	assert.Len(t, cur4.Rows, 2)

	cur, err := export.ReadSheet(paths[0], CurrentSheet)
	require.NoError(t, err)
	require.Len(t, cur.Rows, 2)
	assert.Equal(t, "Teaching", cur.Get(0, "Benchmark Class"))

	// No hospital reference row for the second facility.
	_, err = export.ReadSheet(paths[1], FacilitySheet)
	assert.ErrorIs(t, err, export.ErrSheetNotFound)
	empty, err := export.ReadSheet(paths[1], TrendSheet)
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
}

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"claimtool/internal/dqr"
	"claimtool/internal/qa"
)

// Parquet file names written by WriteDataset.
const (
	DischargesFile = "disch.parquet"
	DiagnosesFile  = "dx.parquet"
	ProceduresFile = "px.parquet"
	AttributesFile = "std_attributes.parquet"
	PhysiciansFile = "r_phy.parquet"
)

// WriteDataset writes each DQR table to its own Parquet file in dir, batch
// rows per write, and returns the rows written per file.
func WriteDataset(ctx context.Context, dir string, ds *dqr.Dataset, batch int) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	log := zerolog.Ctx(ctx)
	out := make(map[string]int, 5)

	steps := []struct {
		name  string
		write func(path string) (int, error)
	}{
		{DischargesFile, func(p string) (int, error) { return WriteParquet(p, ds.Discharges, batch) }},
		{DiagnosesFile, func(p string) (int, error) { return WriteParquet(p, ds.Diagnoses, batch) }},
		{ProceduresFile, func(p string) (int, error) { return WriteParquet(p, ds.Procedures, batch) }},
		{AttributesFile, func(p string) (int, error) { return WriteParquet(p, ds.Attributes, batch) }},
		{PhysiciansFile, func(p string) (int, error) { return WriteParquet(p, ds.Physicians, batch) }},
	}
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		n, err := s.write(path)
		if err != nil {
			return out, err
		}
		out[s.name] = n
		log.Info().Str("file", path).Int("rows", n).Msg("parquet written")
	}
	return out, nil
}

// DQRSheets lays the dataset out as workbook sheets: a summary, the
// attribute table, the DX and PX sequence distributions and the physician
// reference.
func DQRSheets(ds *dqr.Dataset) []Sheet {
	st := ds.DischargeStats
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Measure", "Value"},
		Rows: [][]any{
			{"Encounters", ds.Encounters},
			{"Duplicate PROVNUM/PCN dropped", ds.Dupes},
			{"POA E changed to 1", ds.POAChanged},
			{"Same-day stays (LOS set to 1)", st.SameDayStays},
			{"TOTALCLM not numeric", st.BadTotalCharges},
			{"DOB after admit", st.DOBAfterAdmit},
			{"Admit after discharge", st.AdmitAfterDisch},
			{"Died", st.Died},
			{"Diagnosis rows", len(ds.Diagnoses)},
			{"Procedure rows", len(ds.Procedures)},
			{"Procedure dates from admit", ds.PXDatesFilled},
			{"Physicians", len(ds.Physicians)},
		},
		Widths: map[string]float64{"A": 34, "B": 12},
	}

	attrs := Sheet{
		Name:   "Attributes",
		Header: []string{"Facility", "Attribute", "Code", "Description", "Cases", "Percent of Cases"},
		Widths: map[string]float64{"A": 24, "B": 18, "D": 36},
	}
	for _, a := range ds.Attributes {
		attrs.Rows = append(attrs.Rows, []any{a.Facility, a.Attribute, a.Code, a.Description, a.Cases, a.PercentOfCases})
	}

	phy := Sheet{
		Name:   "Physicians",
		Header: []string{"Code", "Name", "Specialty"},
		Widths: map[string]float64{"B": 30, "C": 24},
	}
	for _, p := range ds.Physicians {
		phy.Rows = append(phy.Rows, []any{p.Code, p.Name, p.Specialty})
	}

	return []Sheet{
		summary,
		attrs,
		distributionSheet(qa.SeqCounts("DX Seq", dqr.DiagnosisSeqs(ds.Diagnoses))),
		distributionSheet(qa.SeqCounts("PX Seq", dqr.ProcedureSeqs(ds.Procedures))),
		phy,
	}
}

func distributionSheet(d qa.Distribution) Sheet {
	s := Sheet{Name: d.Name, Header: []string{d.Name, "Count", "Percent"}}
	for _, c := range d.Counts {
		s.Rows = append(s.Rows, []any{c.Value, c.N, c.Percent})
	}
	return s
}

// WriteDQRWorkbook writes the DQR sheets to path.
func WriteDQRWorkbook(path string, ds *dqr.Dataset) error {
	return WriteWorkbook(path, DQRSheets(ds))
}

package dqr

import (
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// Diagnoses melts encounters into the long diagnosis table.
func Diagnoses(encs []*record.Encounter) []DiagnosisRow {
	rows, _ := reshape.MeltDX(encs)
	out := make([]DiagnosisRow, len(rows))
	for i, r := range rows {
		out[i] = DiagnosisRow{
			ProvNum:   r.ProvNum,
			PCN:       r.PCN,
			DischDate: datePtr(r.DisDate),
			Seq:       int32(r.Seq),
			DX:        r.Code,
			POA:       r.POA,
		}
	}
	return out
}

// Procedures melts encounters into the long procedure table. A procedure
// without a date takes the admit date; the number of such fills is returned.
func Procedures(encs []*record.Encounter) ([]ProcedureRow, int) {
	rows, st := reshape.MeltPX(encs)
	out := make([]ProcedureRow, len(rows))
	for i, r := range rows {
		out[i] = ProcedureRow{
			ProvNum:   r.ProvNum,
			PCN:       r.PCN,
			DischDate: datePtr(r.DisDate),
			AdmitDate: datePtr(r.AdmDate),
			Seq:       int32(r.Seq),
			PX:        r.Code,
			PXDate:    datePtr(r.Date),
		}
	}
	return out, st.DatesFilled
}

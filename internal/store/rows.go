package store

import (
	"github.com/google/uuid"

	"claimtool/internal/dqr"
)

var dischargeColumns = []string{
	"run_id", "provnum", "pcn", "mrn", "admdate", "disdate", "dob", "totalclm",
	"pdx", "ppx", "sex", "race", "admtype", "admsrc", "status", "payer", "attmd", "opermd",
	"disch_year", "disch_qtr", "disch_month", "discharges", "cases_w_pdx", "cases_w_ppx",
	"los", "age_in_days", "age_in_years",
	"dob_gt_admdt", "admdt_gt_dischdt", "dob_null", "admit_date_null", "disch_date_null", "died",
}

func dischargeRow(runID uuid.UUID, d *dqr.Discharge) []any {
	return []any{
		runID, d.ProvNum, d.PCN, d.MRN, d.AdmDate, d.DisDate, d.DOB, d.TotalClm,
		d.PDX, d.PPX, d.Sex, d.Race, d.AdmType, d.AdmSrc, d.Status, d.Payer, d.AttMD, d.OperMD,
		d.DischYear, d.DischQtr, d.DischMonth, d.Discharges, d.CasesWithPDX, d.CasesWithPPX,
		d.LOS, d.AgeInDays, d.AgeInYears,
		d.DOBAfterAdmit, d.AdmitAfterDischarge, d.DOBNull, d.AdmitDateNull, d.DischDateNull, d.Died,
	}
}

var diagnosisColumns = []string{"run_id", "provnum", "pcn", "disch_date", "seq", "dx", "poa"}

func diagnosisRow(runID uuid.UUID, r *dqr.DiagnosisRow) []any {
	return []any{runID, r.ProvNum, r.PCN, r.DischDate, r.Seq, r.DX, r.POA}
}

var procedureColumns = []string{"run_id", "provnum", "pcn", "disch_date", "admit_date", "seq", "px", "px_date"}

func procedureRow(runID uuid.UUID, r *dqr.ProcedureRow) []any {
	return []any{runID, r.ProvNum, r.PCN, r.DischDate, r.AdmitDate, r.Seq, r.PX, r.PXDate}
}

var physicianColumns = []string{"run_id", "code", "name", "specialty"}

func physicianRow(runID uuid.UUID, p *dqr.Physician) []any {
	return []any{runID, p.Code, p.Name, p.Specialty}
}

var attributeColumns = []string{"run_id", "facility", "code", "code_description", "cases", "percent_of_cases", "attribute"}

func attributeRow(runID uuid.UUID, a *dqr.AttributeRow) []any {
	return []any{runID, a.Facility, a.Code, a.Description, a.Cases, a.PercentOfCases, a.Attribute}
}

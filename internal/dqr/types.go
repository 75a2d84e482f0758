// Package dqr derives the data-quality-review tables from a 4800 file: one
// discharge row per encounter with derived measures, long diagnosis and
// procedure tables, a patient-attribute summary and the physician reference.
package dqr

import "time"

// Discharge is one encounter of the discharge table. Dates are nil when the
// source value is blank or not a valid MMDDYYYY date; derived measures that
// depend on a missing date are nil as well.
type Discharge struct {
	// ── Identifiers ───────────────────────────────────────────────────
	ProvNum string `parquet:"provnum,dict"`
	PCN     string `parquet:"pcn"`
	MRN     string `parquet:"mrn"`

	// ── Dates ─────────────────────────────────────────────────────────
	AdmDate *time.Time `parquet:"admdate,optional"`
	DisDate *time.Time `parquet:"disdate,optional"`
	DOB     *time.Time `parquet:"dob,optional"`

	TotalClm *float64 `parquet:"totalclm,optional"`

	// ── Codes ─────────────────────────────────────────────────────────
	PDX     string `parquet:"pdx"`
	PPX     string `parquet:"ppx"`
	Sex     string `parquet:"sex,dict"`
	Race    string `parquet:"race,dict"`
	AdmType string `parquet:"admtype,dict"`
	AdmSrc  string `parquet:"admsrc,dict"`
	Status  string `parquet:"status,dict"`
	Payer   string `parquet:"payer,dict"`
	AttMD   string `parquet:"attmd"`
	OperMD  string `parquet:"opermd"`

	// ── Derived ───────────────────────────────────────────────────────
	DischYear  *int32 `parquet:"disch_year,optional"`
	DischQtr   *int32 `parquet:"disch_qtr,optional"`
	DischMonth *int32 `parquet:"disch_month,optional"`

	Discharges   int32 `parquet:"discharges"`
	CasesWithPDX int32 `parquet:"cases_w_pdx"`
	CasesWithPPX int32 `parquet:"cases_w_ppx"`

	LOS        *int32 `parquet:"los,optional"` // same-day stays count as 1
	AgeInDays  *int32 `parquet:"age_in_days,optional"`
	AgeInYears *int32 `parquet:"age_in_years,optional"`

	// 0/1 flags
	DOBAfterAdmit       int32 `parquet:"dob_gt_admdt"`
	AdmitAfterDischarge int32 `parquet:"admdt_gt_dischdt"`
	DOBNull             int32 `parquet:"dob_null"`
	AdmitDateNull       int32 `parquet:"admit_date_null"`
	DischDateNull       int32 `parquet:"disch_date_null"`
	Died                int32 `parquet:"died"`
}

// DiagnosisRow is one row of the long diagnosis table. Seq 0 is the
// principal diagnosis.
type DiagnosisRow struct {
	ProvNum   string     `parquet:"provnum,dict"`
	PCN       string     `parquet:"pcn"`
	DischDate *time.Time `parquet:"disch_date,optional"`
	Seq       int32      `parquet:"seq"`
	DX        string     `parquet:"dx"`
	POA       string     `parquet:"poa,dict"`
}

// ProcedureRow is one row of the long procedure table. Seq 0 is the
// principal procedure.
type ProcedureRow struct {
	ProvNum   string     `parquet:"provnum,dict"`
	PCN       string     `parquet:"pcn"`
	DischDate *time.Time `parquet:"disch_date,optional"`
	AdmitDate *time.Time `parquet:"admit_date,optional"`
	Seq       int32      `parquet:"seq"`
	PX        string     `parquet:"px"`
	PXDate    *time.Time `parquet:"px_date,optional"`
}

// AttributeRow is one code of one patient attribute for one facility.
type AttributeRow struct {
	Facility       string  `parquet:"facility"`
	Code           string  `parquet:"code"`
	Description    string  `parquet:"code_description"`
	Cases          int64   `parquet:"cases"`
	PercentOfCases float64 `parquet:"percent_of_cases"`
	Attribute      string  `parquet:"attribute,dict"`
}

// Physician is one row of the client physician reference.
type Physician struct {
	Code      string `parquet:"code"`
	Name      string `parquet:"name"`
	Specialty string `parquet:"specialty"`
}

package dqr

import (
	"math"
	"strconv"
	"time"

	"claimtool/internal/record"
)

// DischargeStats counts conditions found while deriving discharges.
type DischargeStats struct {
	Rows            int
	SameDayStays    int // LOS of 0 raised to 1
	BadTotalCharges int // TOTALCLM present but not a number
	DOBAfterAdmit   int
	AdmitAfterDisch int
	Died            int
}

// NormalizePOA rewrites POA value "E" (exempt) as "1" in every DX slot and
// returns how many values changed. Encounters are modified in place.
func NormalizePOA(encs []*record.Encounter) int {
	n := 0
	for _, e := range encs {
		for i := range e.DX {
			if e.DX[i].POA == "E" {
				e.DX[i].POA = "1"
				n++
			}
		}
	}
	return n
}

func datePtr(s string) *time.Time {
	t, ok := record.ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}

func i32(v int) *int32 {
	n := int32(v)
	return &n
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// days returns the whole days from a to b.
func days(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// BuildDischarge derives the discharge row of one encounter.
func BuildDischarge(e *record.Encounter) (Discharge, DischargeStats) {
	var st DischargeStats
	d := Discharge{
		ProvNum:    e.ProvNum,
		PCN:        e.PCN,
		MRN:        e.MRN,
		AdmDate:    datePtr(e.AdmDate),
		DisDate:    datePtr(e.DisDate),
		DOB:        datePtr(e.DOB),
		PDX:        e.DX[0].Code,
		PPX:        e.PX[0].Code,
		Sex:        e.Sex,
		Race:       e.Race,
		AdmType:    e.AdmType,
		AdmSrc:     e.AdmSrc,
		Status:     e.Status,
		Payer:      e.PayCode1,
		AttMD:      e.AttMD,
		OperMD:     e.OperMD,
		Discharges: 1,
	}

	if e.TotalClm != "" {
		if f, err := strconv.ParseFloat(e.TotalClm, 64); err == nil {
			d.TotalClm = &f
		} else {
			st.BadTotalCharges++
		}
	}

	d.CasesWithPDX = flag(d.PDX != "")
	d.CasesWithPPX = flag(d.PPX != "")

	if d.DisDate != nil {
		d.DischYear = i32(d.DisDate.Year())
		d.DischMonth = i32(int(d.DisDate.Month()))
		d.DischQtr = i32((int(d.DisDate.Month())-1)/3 + 1)
	}

	if d.AdmDate != nil && d.DisDate != nil {
		los := days(*d.AdmDate, *d.DisDate)
		if los == 0 {
			los = 1
			st.SameDayStays++
		}
		d.LOS = i32(los)
		d.AdmitAfterDischarge = flag(d.AdmDate.After(*d.DisDate))
	}

	if d.AdmDate != nil && d.DOB != nil {
		age := days(*d.DOB, *d.AdmDate)
		d.AgeInDays = i32(age)
		d.AgeInYears = i32(int(math.RoundToEven(float64(age) / 365.25)))
		d.DOBAfterAdmit = flag(d.DOB.After(*d.AdmDate))
	}

	d.DOBNull = flag(d.DOB == nil)
	d.AdmitDateNull = flag(d.AdmDate == nil)
	d.DischDateNull = flag(d.DisDate == nil)
	d.Died = flag(e.Status == "20")

	st.Rows = 1
	st.DOBAfterAdmit = int(d.DOBAfterAdmit)
	st.AdmitAfterDisch = int(d.AdmitAfterDischarge)
	st.Died = int(d.Died)
	return d, st
}

// BuildDischarges derives one discharge row per encounter, in input order.
func BuildDischarges(encs []*record.Encounter) ([]Discharge, DischargeStats) {
	out := make([]Discharge, len(encs))
	var total DischargeStats
	for i, e := range encs {
		d, st := BuildDischarge(e)
		out[i] = d
		total.Rows += st.Rows
		total.SameDayStays += st.SameDayStays
		total.BadTotalCharges += st.BadTotalCharges
		total.DOBAfterAdmit += st.DOBAfterAdmit
		total.AdmitAfterDisch += st.AdmitAfterDisch
		total.Died += st.Died
	}
	return out, total
}

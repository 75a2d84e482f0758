// Package record defines the 4800 claims encounter layout: one pipe-delimited
// row per inpatient stay, keyed by (PROVNUM, PCN), with fixed-width arrays of
// diagnosis, procedure and revenue-code slots.
package record

import (
	"fmt"
	"strings"
	"time"
)

// Slot counts of the 4800 layout. Slot 0 of DX and PX is the principal code
// (PRDIAG / PRPROC); slots 1..N-1 are the secondary codes.
const (
	DXSlots     = 41
	PXSlots     = 31
	ChargeSlots = 50
)

// DateLayout is the MMDDYYYY format used by every date field in 4800 files.
const DateLayout = "01022006"

// Key identifies one encounter: provider number plus patient control number.
type Key struct {
	ProvNum string
	PCN     string
}

// String renders the key the way the join column of the split files does
// ("PROVNUM_PCN").
func (k Key) String() string { return k.ProvNum + "_" + k.PCN }

// Diagnosis is one DX slot: ICD-10-CM code and present-on-admission flag.
type Diagnosis struct {
	Code string
	POA  string
}

// Procedure is one PX slot: ICD-10-PCS code and procedure date (MMDDYYYY).
type Procedure struct {
	Code string
	Date string
}

// Charge is one revenue-code slot.
type Charge struct {
	RevCode string
	Amount  string
}

// Encounter is one 4800 row. All values are kept as the raw strings found in
// the file; typed derivations happen downstream.
type Encounter struct {
	// ── Header fields ─────────────────────────────────────────────────
	ProvNum  string
	PCN      string
	MRN      string
	SptType  string
	AdmDate  string
	DisDate  string
	TotalClm string
	Zip      string
	DOB      string
	Sex      string
	Race     string
	AdmType  string
	AdmSrc   string
	Status   string
	AttMD    string
	OperMD   string
	ConMD1   string
	ConMD2   string
	ConMD3   string
	PayCode1 string

	// ── Coded slots ───────────────────────────────────────────────────
	DX      [DXSlots]Diagnosis
	PX      [PXSlots]Procedure
	Charges [ChargeSlots]Charge
}

// Key returns the (PROVNUM, PCN) key of e.
func (e *Encounter) Key() Key { return Key{ProvNum: e.ProvNum, PCN: e.PCN} }

// headerNames lists the header fields in file order.
var headerNames = []string{
	"PROVNUM", "PCN", "MRN", "SPTTYPE", "ADMDATE", "DISDATE", "TOTALCLM",
	"ZIP", "DOB", "SEX", "RACE", "ADMTYPE", "ADMSRC", "STATUS",
	"ATTMD", "OPERMD", "CONMD1", "CONMD2", "CONMD3", "PAYCODE1",
}

func (e *Encounter) header(i int) *string {
	switch i {
	case 0:
		return &e.ProvNum
	case 1:
		return &e.PCN
	case 2:
		return &e.MRN
	case 3:
		return &e.SptType
	case 4:
		return &e.AdmDate
	case 5:
		return &e.DisDate
	case 6:
		return &e.TotalClm
	case 7:
		return &e.Zip
	case 8:
		return &e.DOB
	case 9:
		return &e.Sex
	case 10:
		return &e.Race
	case 11:
		return &e.AdmType
	case 12:
		return &e.AdmSrc
	case 13:
		return &e.Status
	case 14:
		return &e.AttMD
	case 15:
		return &e.OperMD
	case 16:
		return &e.ConMD1
	case 17:
		return &e.ConMD2
	case 18:
		return &e.ConMD3
	case 19:
		return &e.PayCode1
	}
	panic(fmt.Sprintf("record: header index %d out of range", i))
}

// Kind classifies a 4800 column.
type Kind int

const (
	KindHeader Kind = iota
	KindDX
	KindPOA
	KindPX
	KindPXDate
	KindRevCode
	KindCharge
)

type colRef struct {
	kind Kind
	slot int // header index for KindHeader
}

var (
	columns []string
	colIdx  map[string]colRef // upper-case name → ref
)

func init() {
	colIdx = make(map[string]colRef)
	add := func(name string, ref colRef) {
		columns = append(columns, name)
		colIdx[name] = ref
	}
	for i, h := range headerNames {
		add(h, colRef{KindHeader, i})
	}
	for i := 0; i < DXSlots; i++ {
		add(DXColumn(i), colRef{KindDX, i})
		add(POAColumn(i), colRef{KindPOA, i})
	}
	for i := 0; i < PXSlots; i++ {
		add(PXColumn(i), colRef{KindPX, i})
		add(PXDateColumn(i), colRef{KindPXDate, i})
	}
	for i := 0; i < ChargeSlots; i++ {
		add(RevCodeColumn(i), colRef{KindRevCode, i})
		add(ChargeColumn(i), colRef{KindCharge, i})
	}
}

// Columns returns the 4800 header in canonical order. The returned slice
// must not be modified.
func Columns() []string { return columns }

// HeaderColumns returns the non-slot columns in canonical order.
func HeaderColumns() []string { return headerNames }

// DXColumn names DX code slot i (0 = PRDIAG).
func DXColumn(i int) string {
	if i == 0 {
		return "PRDIAG"
	}
	return fmt.Sprintf("SECDX%d", i)
}

// POAColumn names the POA flag of DX slot i.
func POAColumn(i int) string {
	if i == 0 {
		return "PRDIAGPOA"
	}
	return fmt.Sprintf("SECDX%dPOA", i)
}

// PXColumn names PX code slot i (0 = PRPROC).
func PXColumn(i int) string {
	if i == 0 {
		return "PRPROC"
	}
	return fmt.Sprintf("SECPRC%d", i)
}

// PXDateColumn names the date of PX slot i.
func PXDateColumn(i int) string {
	if i == 0 {
		return "PRPRDATE"
	}
	return fmt.Sprintf("SECDAT%d", i)
}

// RevCodeColumn names revenue-code slot i (0 = REVCOD1).
func RevCodeColumn(i int) string { return fmt.Sprintf("REVCOD%d", i+1) }

// ChargeColumn names charge slot i (0 = CHARGE1).
func ChargeColumn(i int) string { return fmt.Sprintf("CHARGE%d", i+1) }

// Lookup resolves a column name (case-insensitive, surrounding space ignored)
// to its kind and slot. For KindHeader the slot is the header position.
func Lookup(col string) (Kind, int, bool) {
	ref, ok := colIdx[strings.ToUpper(strings.TrimSpace(col))]
	return ref.kind, ref.slot, ok
}

func (e *Encounter) field(ref colRef) *string {
	switch ref.kind {
	case KindHeader:
		return e.header(ref.slot)
	case KindDX:
		return &e.DX[ref.slot].Code
	case KindPOA:
		return &e.DX[ref.slot].POA
	case KindPX:
		return &e.PX[ref.slot].Code
	case KindPXDate:
		return &e.PX[ref.slot].Date
	case KindRevCode:
		return &e.Charges[ref.slot].RevCode
	case KindCharge:
		return &e.Charges[ref.slot].Amount
	}
	return nil
}

// Get returns the value of the named column.
func (e *Encounter) Get(col string) (string, bool) {
	ref, ok := colIdx[strings.ToUpper(strings.TrimSpace(col))]
	if !ok {
		return "", false
	}
	return *e.field(ref), true
}

// Set assigns the named column. It reports false for names outside the
// 4800 layout.
func (e *Encounter) Set(col, v string) bool {
	ref, ok := colIdx[strings.ToUpper(strings.TrimSpace(col))]
	if !ok {
		return false
	}
	*e.field(ref) = v
	return true
}

// Values returns every field of e in Columns() order.
func (e *Encounter) Values() []string {
	out := make([]string, 0, len(columns))
	for i := range headerNames {
		out = append(out, *e.header(i))
	}
	for _, d := range e.DX {
		out = append(out, d.Code, d.POA)
	}
	for _, p := range e.PX {
		out = append(out, p.Code, p.Date)
	}
	for _, c := range e.Charges {
		out = append(out, c.RevCode, c.Amount)
	}
	return out
}

// Clone returns a copy of e. Encounters hold only values, so a shallow copy
// is a deep one.
func (e *Encounter) Clone() *Encounter {
	c := *e
	return &c
}

// ParseDate parses a MMDDYYYY value. Blank and malformed values report false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

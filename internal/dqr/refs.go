package dqr

import (
	"fmt"
	"path/filepath"
	"sort"

	"claimtool/internal/flatfile"
	"claimtool/internal/qa"
	"claimtool/internal/record"
)

// Attribute names one patient attribute summarized in the DQR.
type Attribute struct {
	Name   string // "Admit Source"
	Column string // 4800 column, "ADMSRC"
}

// StandardAttributes lists the summarized attributes in report order.
var StandardAttributes = []Attribute{
	{"Admit Source", "ADMSRC"},
	{"Admit Type", "ADMTYPE"},
	{"Payer", "PAYCODE1"},
	{"Discharge Status", "STATUS"},
	{"Sex", "SEX"},
	{"Race", "RACE"},
}

// SexDescriptions is the built-in SEX lookup.
var SexDescriptions = map[string]string{
	"M": "Male",
	"F": "Female",
	"U": "Unknown",
}

// Refs holds code descriptions keyed by 4800 column, then code.
type Refs struct {
	byColumn map[string]map[string]string
}

// NewRefs returns a lookup holding only the built-in SEX descriptions.
func NewRefs() *Refs {
	r := &Refs{byColumn: make(map[string]map[string]string)}
	r.Add("SEX", SexDescriptions)
	return r
}

// Add merges descriptions for a column.
func (r *Refs) Add(column string, desc map[string]string) {
	m, ok := r.byColumn[column]
	if !ok {
		m = make(map[string]string, len(desc))
		r.byColumn[column] = m
	}
	for k, v := range desc {
		m[k] = v
	}
}

// Describe returns the description of code in column, "" when unknown.
func (r *Refs) Describe(column, code string) (string, bool) {
	d, ok := r.byColumn[column][code]
	return d, ok
}

// LoadRefs reads reference files from dir. files maps a 4800 column to a
// pipe-delimited file whose first column (or the column of the same name)
// holds the code and whose next column holds the description. Empty file
// names are skipped.
func LoadRefs(dir string, files map[string]string) (*Refs, error) {
	r := NewRefs()
	for col, name := range files {
		if name == "" {
			continue
		}
		path := name
		if dir != "" && !filepath.IsAbs(name) {
			path = filepath.Join(dir, name)
		}
		tbl, err := flatfile.ReadTable(path, flatfile.Options{})
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", col, err)
		}
		if len(tbl.Columns) < 2 {
			return nil, fmt.Errorf("reference %s: %s needs a code and a description column", col, path)
		}
		codeIdx := tbl.Index(col)
		if codeIdx < 0 {
			codeIdx = 0
		}
		descIdx := 0
		if codeIdx == 0 {
			descIdx = 1
		}
		desc := make(map[string]string, len(tbl.Rows))
		for i := range tbl.Rows {
			desc[tbl.Get(i, tbl.Columns[codeIdx])] = tbl.Get(i, tbl.Columns[descIdx])
		}
		r.Add(col, desc)
	}
	return r, nil
}

// Dropped counts encounters an attribute summary left out, per attribute.
type Dropped struct {
	Attribute string
	Blank     int // blank code
	Unmatched int // code missing from the reference
}

// Summarize counts encounters per code of each standard attribute. Blank
// codes and codes the reference does not describe are left out and
// reported in the returned Dropped entries; percentages are of the
// encounters that were summarized for that attribute.
func Summarize(encs []*record.Encounter, facility string, refs *Refs) ([]AttributeRow, []Dropped) {
	if refs == nil {
		refs = NewRefs()
	}
	var (
		out     []AttributeRow
		dropped []Dropped
	)
	for _, a := range StandardAttributes {
		counts := make(map[string]int64)
		drop := Dropped{Attribute: a.Name}
		var total int64
		for _, e := range encs {
			v, _ := e.Get(a.Column)
			switch _, ok := refs.Describe(a.Column, v); {
			case v == "":
				drop.Blank++
			case !ok:
				drop.Unmatched++
			default:
				counts[v]++
				total++
			}
		}
		if drop.Blank > 0 || drop.Unmatched > 0 {
			dropped = append(dropped, drop)
		}

		codes := make([]string, 0, len(counts))
		for c := range counts {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			desc, _ := refs.Describe(a.Column, c)
			out = append(out, AttributeRow{
				Facility:       facility,
				Code:           c,
				Description:    desc,
				Cases:          counts[c],
				PercentOfCases: qa.Percent(int(counts[c]), int(total)),
				Attribute:      a.Name,
			})
		}
	}
	return out, dropped
}

// LoadPhysicians reads the client physician reference. Columns are matched
// by name (code/phy_code/physician id, name, specialty) and otherwise taken
// by position.
func LoadPhysicians(path string) ([]Physician, error) {
	tbl, err := flatfile.ReadTable(path, flatfile.Options{})
	if err != nil {
		return nil, fmt.Errorf("physicians: %w", err)
	}
	pick := func(pos int, names ...string) string {
		for _, n := range names {
			if tbl.Index(n) >= 0 {
				return n
			}
		}
		if pos < len(tbl.Columns) {
			return tbl.Columns[pos]
		}
		return ""
	}
	codeCol := pick(0, "CODE", "PHY_CODE", "PHYCODE", "PHYSICIAN_ID", "NPI")
	nameCol := pick(1, "NAME", "PHY_NAME", "PHYSICIAN_NAME")
	specCol := pick(2, "SPECIALTY", "SPEC", "PHY_SPEC")

	out := make([]Physician, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		out = append(out, Physician{
			Code:      tbl.Get(i, codeCol),
			Name:      tbl.Get(i, nameCol),
			Specialty: tbl.Get(i, specCol),
		})
	}
	return out, nil
}

package flatfile

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"claimtool/internal/record"
)

// Slot columns past the end of the 4800 layout (SECDX41, SECPRC31, ...).
var extraSlotRe = regexp.MustCompile(`^(?i)(SECDX(\d+)(POA)?|SECPRC(\d+)|SECDAT(\d+)|REVCOD(\d+)|CHARGE(\d+))$`)

type fieldMap struct {
	srcIdx int
	col    string
}

// EncounterReader maps rows of a delimited file onto 4800 encounters.
// Columns outside the 4800 layout are ignored; missing columns are blank.
type EncounterReader struct {
	r         *Reader
	fields    []fieldMap
	ignored    []string
	truncated  []string
	duplicates []string
}

// OpenEncounters opens a headed 4800-style file. Any subset and order of
// 4800 columns is accepted; column names are matched case-insensitively.
// When a column appears twice (PRDIAG and prdiag) the first one is read.
func OpenEncounters(path string, opts Options) (*EncounterReader, error) {
	opts.NoHeader = false
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	er := &EncounterReader{r: r}
	type slot struct {
		kind record.Kind
		idx  int
	}
	seen := make(map[slot]bool)
	for i, col := range r.Columns() {
		if kind, idx, ok := record.Lookup(col); ok {
			if seen[slot{kind, idx}] {
				er.duplicates = append(er.duplicates, col)
				continue
			}
			seen[slot{kind, idx}] = true
			er.fields = append(er.fields, fieldMap{srcIdx: i, col: col})
			continue
		}
		if extraSlotRe.MatchString(col) {
			er.truncated = append(er.truncated, col)
			continue
		}
		er.ignored = append(er.ignored, col)
	}
	if len(er.fields) == 0 {
		r.Close()
		return nil, fmt.Errorf("%s: no 4800 columns in header", path)
	}
	return er, nil
}

// OpenPositional opens a headerless file and maps source positions onto 4800
// columns. Every target name must belong to the 4800 layout.
func OpenPositional(path string, layout map[int]string, opts Options) (*EncounterReader, error) {
	fields := make([]fieldMap, 0, len(layout))
	for idx, col := range layout {
		if _, _, ok := record.Lookup(col); !ok {
			return nil, fmt.Errorf("positional layout: column %d maps to unknown field %q", idx, col)
		}
		fields = append(fields, fieldMap{srcIdx: idx, col: col})
	}
	opts.NoHeader = true
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &EncounterReader{r: r, fields: fields}, nil
}

// Next returns the next encounter or io.EOF.
func (er *EncounterReader) Next() (*record.Encounter, error) {
	row, err := er.r.Next()
	if err != nil {
		return nil, err
	}
	e := &record.Encounter{}
	for _, f := range er.fields {
		e.Set(f.col, valAt(row, f.srcIdx))
	}
	return e, nil
}

// ReadAll drains the reader.
func (er *EncounterReader) ReadAll() ([]*record.Encounter, error) {
	var out []*record.Encounter
	for {
		e, err := er.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

// Ignored lists header columns that are not part of the 4800 layout.
func (er *EncounterReader) Ignored() []string { return er.ignored }

// Truncated lists slot columns beyond the 41 DX / 31 PX / 50 charge slots.
// Their values are dropped.
func (er *EncounterReader) Truncated() []string { return er.truncated }

// Duplicates lists header columns naming a 4800 field already mapped by an
// earlier column. Their values are dropped.
func (er *EncounterReader) Duplicates() []string { return er.duplicates }

// RowNum returns the line number of the last row read.
func (er *EncounterReader) RowNum() int64 { return er.r.RowNum() }

// Close releases the underlying file.
func (er *EncounterReader) Close() error { return er.r.Close() }

// ReadEncounters reads a whole headed 4800 file.
func ReadEncounters(path string, opts Options) ([]*record.Encounter, error) {
	er, err := OpenEncounters(path, opts)
	if err != nil {
		return nil, err
	}
	defer er.Close()
	encs, err := er.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return encs, nil
}

// Layout5200 maps the source positions of the 5200 extract that carry 4800
// content. The 5200 file holds 30 secondary diagnoses; SECDX31..40 stay
// blank.
func Layout5200() map[int]string {
	m := map[int]string{
		1:  "PCN",
		3:  "PROVNUM",
		7:  "DOB",
		8:  "ADMDATE",
		9:  "MRN",
		11: "ZIP",
		13: "SEX",
		14: "RACE",
		16: "ADMTYPE",
		17: "ADMSRC",
		18: "STATUS",
		19: "DISDATE",
		30: "TOTALCLM",
	}
	// Diagnosis code/POA pairs, positions 336..397.
	for i := 0; i <= 30; i++ {
		m[336+2*i] = record.DXColumn(i)
		m[337+2*i] = record.POAColumn(i)
	}
	// Procedure code/date pairs start at 411 with a stride of 3.
	for i := 0; i <= 30; i++ {
		m[411+3*i] = record.PXColumn(i)
		m[412+3*i] = record.PXDateColumn(i)
	}
	m[505] = "ATTMD"
	m[507] = "OPERMD"
	m[509] = "CONMD1"
	m[510] = "CONMD2"
	m[511] = "CONMD3"
	m[520] = "PAYCODE1"
	return m
}

// ParseLayout converts a config-supplied layout with string keys ("336")
// into a positional map.
func ParseLayout(in map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(in))
	for k, v := range in {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("layout position %q: not a non-negative integer", k)
		}
		out[idx] = v
	}
	return out, nil
}

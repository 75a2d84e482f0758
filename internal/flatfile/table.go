package flatfile

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"claimtool/internal/record"
)

// Table is a small delimited file held in memory, used for reference and
// lookup files.
type Table struct {
	Columns []string
	Rows    [][]string
	idx     map[string]int
}

// NewTable builds a table from columns and rows. Rows are used as given.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows, idx: make(map[string]int, len(columns))}
	for i, c := range columns {
		key := strings.ToUpper(strings.TrimSpace(c))
		if _, ok := t.idx[key]; !ok {
			t.idx[key] = i
		}
	}
	return t
}

// Index returns the position of col (case-insensitive) or -1.
func (t *Table) Index(col string) int {
	if i, ok := t.idx[strings.ToUpper(strings.TrimSpace(col))]; ok {
		return i
	}
	return -1
}

// Get returns the trimmed value of col in row, "" when either is missing.
func (t *Table) Get(row int, col string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return valAt(t.Rows[row], t.Index(col))
}

// ReadTable reads an entire headed delimited file.
func ReadTable(path string, opts Options) (*Table, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var rows [][]string
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return NewTable(r.Columns(), rows), nil
}

// requireColumns returns the position of each col or an error naming every
// missing one.
func requireColumns(r *Reader, path string, cols ...string) ([]int, error) {
	out := make([]int, len(cols))
	var errs []error
	for i, c := range cols {
		out[i] = r.Index(c)
		if out[i] < 0 {
			errs = append(errs, fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, c))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// ErrMissingColumn reports a required input column absent from a header.
var ErrMissingColumn = errors.New("missing column")

// ReadSplitDX reads a long diagnosis file with columns PROVNUM, PCN, DXSQN,
// DX and DXPOA.
func ReadSplitDX(path string, opts Options) ([]record.SplitDX, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx, err := requireColumns(r, path, "PROVNUM", "PCN", "DXSQN", "DX", "DXPOA")
	if err != nil {
		return nil, err
	}

	var out []record.SplitDX
	for {
		row, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		seq, err := parseSeq(valAt(row, idx[2]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: DXSQN: %w", path, r.RowNum(), err)
		}
		out = append(out, record.SplitDX{
			ProvNum: valAt(row, idx[0]),
			PCN:     valAt(row, idx[1]),
			Seq:     seq,
			Code:    valAt(row, idx[3]),
			POA:     valAt(row, idx[4]),
		})
	}
}

// ReadSplitPX reads a long procedure file with columns PROVNUM, PCN, PRCSQN,
// PROC and PRCDATE.
func ReadSplitPX(path string, opts Options) ([]record.SplitPX, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx, err := requireColumns(r, path, "PROVNUM", "PCN", "PRCSQN", "PROC", "PRCDATE")
	if err != nil {
		return nil, err
	}

	var out []record.SplitPX
	for {
		row, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		seq, err := parseSeq(valAt(row, idx[2]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: PRCSQN: %w", path, r.RowNum(), err)
		}
		out = append(out, record.SplitPX{
			ProvNum: valAt(row, idx[0]),
			PCN:     valAt(row, idx[1]),
			Seq:     seq,
			Code:    valAt(row, idx[3]),
			Date:    valAt(row, idx[4]),
		})
	}
}

// parseSeq accepts integer sequence numbers, including float-formatted
// whole numbers ("3.0") produced by spreadsheet exports.
func parseSeq(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid sequence number %q", s)
	}
	return int(f), nil
}

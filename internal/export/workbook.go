package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"claimtool/internal/flatfile"
)

// Sheet is one worksheet: a bold, frozen header row followed by data rows.
// Cell values may be strings, numbers or nil for an empty cell.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
	Widths map[string]float64 // column letter → width
}

// ErrNoSheets is returned when a workbook would have no worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrSheetNotFound reports a sheet name absent from a workbook.
var ErrSheetNotFound = errors.New("sheet not found")

var sheetNameReplacer = strings.NewReplacer(":", "-", `\`, "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

// SheetName makes s a legal worksheet name.
func SheetName(s string) string {
	s = strings.TrimSpace(sheetNameReplacer.Replace(s))
	if s == "" {
		return "Sheet"
	}
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}

// WriteWorkbook writes sheets, in order, to an .xlsx file at path.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, s := range sheets {
		name := SheetName(s.Name)
		if i == 0 {
			if first := f.GetSheetName(0); first != name {
				if err := f.SetSheetName(first, name); err != nil {
					return fmt.Errorf("sheet %q: %w", name, err)
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		if err := fillSheet(f, name, s, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func fillSheet(f *excelize.File, name string, s Sheet, headerStyle int) error {
	row := 1
	if len(s.Header) > 0 {
		header := make([]any, len(s.Header))
		for i, h := range s.Header {
			header[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
			return err
		}
		if err := f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
		row++
	}
	for _, r := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return err
		}
		row++
	}
	for col, w := range s.Widths {
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// ReadSheet reads a worksheet into a table whose first row is the header.
// An empty sheet name selects the first sheet. Cell values are read raw, so
// numbers come back unformatted.
func ReadSheet(path, sheet string) (*flatfile.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return flatfile.NewTable(nil, nil), nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return flatfile.NewTable(header, rows[1:]), nil
}

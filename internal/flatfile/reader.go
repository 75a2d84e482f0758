// Package flatfile reads and writes the pipe-delimited flat files exchanged
// with clients: 4800 encounter files, long DX/PX split files, headerless 5200
// extracts and small reference tables.
package flatfile

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// Options controls how a flat file is parsed.
type Options struct {
	Delimiter rune   // default '|'
	Encoding  string // "" or EncodingUTF8, EncodingWindows1252
	NoHeader  bool   // first row is data; columns are addressed by position
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return '|'
	}
	return o.Delimiter
}

// Reader streams rows of a delimited file. Files ending in .gz are
// decompressed transparently.
type Reader struct {
	closers []io.Closer
	csv     *csv.Reader
	rowNum  int64
	columns []string       // trimmed header, original case; nil when NoHeader
	colIdx  map[string]int // upper-case column → index
}

// Open opens path and, unless opts.NoHeader is set, consumes the header row.
func Open(path string, opts Options) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := &Reader{closers: []io.Closer{file}, colIdx: make(map[string]int)}

	var src io.Reader = file
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(bufio.NewReaderSize(file, 256*1024))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		r.closers = append(r.closers, gz)
		src = gz
	}

	switch strings.ToLower(opts.Encoding) {
	case "", EncodingUTF8, "utf8":
	case EncodingWindows1252, "cp1252":
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	default:
		r.Close()
		return nil, fmt.Errorf("unsupported encoding %q", opts.Encoding)
	}

	bufReader := bufio.NewReaderSize(src, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.Comma = opts.delimiter()
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	r.csv = reader

	if !opts.NoHeader {
		if err := r.readHeader(); err != nil {
			r.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err == io.EOF {
		return fmt.Errorf("empty file, no header row")
	}
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++
	r.columns = make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		r.columns[i] = h
		if _, dup := r.colIdx[strings.ToUpper(h)]; !dup {
			r.colIdx[strings.ToUpper(h)] = i
		}
	}
	return nil
}

// Columns returns the header row, or nil for headerless files.
func (r *Reader) Columns() []string { return r.columns }

// Index returns the position of col (case-insensitive) or -1.
func (r *Reader) Index(col string) int {
	if i, ok := r.colIdx[strings.ToUpper(strings.TrimSpace(col))]; ok {
		return i
	}
	return -1
}

// Next returns the next data row. It returns io.EOF when the file is
// exhausted.
func (r *Reader) Next() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("row %d: %w", r.rowNum+1, err)
	}
	r.rowNum++
	return row, nil
}

// RowNum returns the 1-based line number of the last row read, header
// included.
func (r *Reader) RowNum() int64 { return r.rowNum }

// Close releases the underlying file.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// valAt returns the trimmed value at idx, "" when idx is out of range.
func valAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.ToValidUTF8(strings.TrimSpace(row[idx]), "\uFFFD")
}

package flatfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"claimtool/internal/record"
)

// Writer writes 4800 encounters as a pipe-delimited file with a header row.
// Values are written verbatim; a value containing the delimiter is an error
// since 4800 consumers do not honor quoting.
type Writer struct {
	file  *os.File
	buf   *bufio.Writer
	count int
}

// Create opens path for writing and emits the 4800 header.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := &Writer{file: file, buf: bufio.NewWriterSize(file, 256*1024)}
	if err := w.writeLine(record.Columns()); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeLine(vals []string) error {
	for i, v := range vals {
		if strings.ContainsAny(v, "|\n\r") {
			return fmt.Errorf("value %q of column %s contains a delimiter", v, record.Columns()[i])
		}
	}
	for i, v := range vals {
		if i > 0 {
			w.buf.WriteByte('|')
		}
		w.buf.WriteString(v)
	}
	_, err := w.buf.WriteString("\n")
	return err
}

// Write appends one encounter.
func (w *Writer) Write(e *record.Encounter) error {
	if err := w.writeLine(e.Values()); err != nil {
		return fmt.Errorf("write %s: %w", e.Key(), err)
	}
	w.count++
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return w.file.Close()
}

// Count returns the number of encounters written.
func (w *Writer) Count() int { return w.count }

// WriteEncounters writes encs to path and returns the number of lines in the
// finished file, header included. Rows go to path+".partial" first, which
// is renamed over path only once every row is written; on error nothing is
// left at either name.
func WriteEncounters(path string, encs []*record.Encounter) (int, error) {
	tmp := path + ".partial"
	w, err := Create(tmp)
	if err != nil {
		return 0, err
	}
	for _, e := range encs {
		if err := w.Write(e); err != nil {
			w.Close()
			os.Remove(tmp)
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return CountLines(path)
}

// CountLines counts newline-terminated lines in path. A final line without a
// trailing newline is counted too.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	var (
		n    int
		last byte = '\n'
	)
	for {
		c, err := f.Read(buf)
		if c > 0 {
			n += bytes.Count(buf[:c], []byte{'\n'})
			last = buf[c-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if last != '\n' {
		n++
	}
	return n, nil
}

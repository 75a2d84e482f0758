// Package export writes DQR and HAI results as Parquet files and Excel
// workbooks.
package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Writer writes rows of T to a Parquet file.
//
// Files are zstd-compressed with 8KB pages and page statistics so query
// engines can skip pages on provnum, pcn and date predicates.
type Writer[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
	count  int
}

// Create opens a Parquet writer on path.
func Create[T any](path string) (*Writer[T], error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.PageBufferSize(8*1024),
		parquet.WriteBufferSize(64*1024*1024),
		parquet.DataPageStatistics(true),
		parquet.CreatedBy("claimtool", "1.0", ""),
	)
	return &Writer[T]{file: file, writer: writer}, nil
}

// Write appends a batch of rows.
func (w *Writer[T]) Write(rows []T) (int, error) {
	n, err := w.writer.Write(rows)
	w.count += n
	if err != nil {
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	return n, nil
}

// Close flushes the final row group and closes the file.
func (w *Writer[T]) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

// Count returns the rows written so far.
func (w *Writer[T]) Count() int { return w.count }

// DefaultBatch is the number of rows handed to the writer per call when
// the caller does not set one.
const DefaultBatch = 10000

// WriteParquet writes rows to path in batches of batch rows and returns the
// row count. batch <= 0 uses DefaultBatch.
func WriteParquet[T any](path string, rows []T, batch int) (int, error) {
	if batch <= 0 {
		batch = DefaultBatch
	}
	w, err := Create[T](path)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		if _, err := w.Write(rows[start:end]); err != nil {
			w.Close()
			return w.Count(), fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return w.Count(), fmt.Errorf("%s: %w", path, err)
	}
	return w.Count(), nil
}

// ReadParquet reads every row of a file written by WriteParquet.
func ReadParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

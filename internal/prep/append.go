package prep

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"claimtool/internal/flatfile"
	"claimtool/internal/qa"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// ErrAppendMismatch is returned when an append step does not reconcile.
var ErrAppendMismatch = errors.New("append count mismatch")

// Append combines 4800 files in order. After each file is added, repeated
// PROVNUM/PCN keys keep the most recent occurrence, so later deliveries
// replace earlier ones. The result is sorted by discharge date.
//
// Each step is reconciled against the data lines on disk rather than the
// parsed row count, so rows the reader merges or skips fail the check.
func Append(ctx context.Context, files []string, opts flatfile.Options) ([]*record.Encounter, []qa.AppendCheck, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("append: no input files")
	}
	log := zerolog.Ctx(ctx)

	combined, err := readEncounters(ctx, files[0], opts)
	if err != nil {
		return nil, nil, err
	}
	first, err := dataLines(files[0])
	if err != nil {
		return nil, nil, err
	}
	if first != len(combined) {
		return nil, nil, fmt.Errorf("%w: %s: %d data lines, %d rows read", ErrAppendMismatch, files[0], first, len(combined))
	}
	qa.Dates(combined, "DISDATE").Log(*log)

	var checks []qa.AppendCheck
	for _, path := range files[1:] {
		next, err := readEncounters(ctx, path, opts)
		if err != nil {
			return nil, nil, err
		}
		qa.Dates(next, "DISDATE").Log(log.With().Str("file", path).Logger())

		lines, err := dataLines(path)
		if err != nil {
			return nil, nil, err
		}
		check := qa.AppendCheck{File: path, Previous: len(combined), New: lines, Parsed: len(next)}
		combined = append(combined, next...)
		combined, check.Dupes = reshape.DedupByKey(combined, reshape.KeepLast)
		check.Final = len(combined)
		check.Log(*log)
		checks = append(checks, check)
		if !check.Passed() {
			return nil, checks, fmt.Errorf("%w: %s: final %d, expected %d", ErrAppendMismatch, path, check.Final, check.Expected())
		}
	}

	qa.Dates(combined, "DISDATE").Log(*log)
	reshape.SortByDischarge(combined)
	return combined, checks, nil
}

// dataLines counts the lines of path after the header.
func dataLines(path string) (int, error) {
	n, err := flatfile.CountLines(path)
	if err != nil {
		return 0, err
	}
	return max(n-1, 0), nil
}

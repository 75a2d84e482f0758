// Package prep holds the preprocessing jobs that turn client submissions into
// a single 4800 file: split-file assembly, 5200 conversion and appending
// successive deliveries.
package prep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"claimtool/internal/flatfile"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// ErrLineCount is returned when a written 4800 file does not hold one line
// per encounter plus the header.
var ErrLineCount = errors.New("output line count mismatch")

// encounterSource is satisfied by flatfile.EncounterReader.
type encounterSource interface {
	Next() (*record.Encounter, error)
	RowNum() int64
}

// drain reads every encounter from src, logging progress every 5 seconds.
func drain(ctx context.Context, src encounterSource, label string) ([]*record.Encounter, error) {
	log := zerolog.Ctx(ctx)
	start := time.Now()
	lastLog := start

	var out []*record.Encounter
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", label, src.RowNum()+1, err)
		}
		out = append(out, e)

		if time.Since(lastLog) >= 5*time.Second {
			log.Info().
				Str("file", label).
				Int("rows", len(out)).
				Float64("rows_per_sec", float64(len(out))/time.Since(start).Seconds()).
				Msg("progress")
			lastLog = time.Now()
		}
	}
	log.Info().Str("file", label).Int("rows", len(out)).Dur("elapsed", time.Since(start)).Msg("read complete")
	return out, nil
}

// readEncounters opens and drains a headed 4800-style file.
func readEncounters(ctx context.Context, path string, opts flatfile.Options) ([]*record.Encounter, error) {
	er, err := flatfile.OpenEncounters(path, opts)
	if err != nil {
		return nil, err
	}
	defer er.Close()

	log := zerolog.Ctx(ctx)
	if cols := er.Ignored(); len(cols) > 0 {
		log.Debug().Str("file", path).Strs("columns", cols).Msg("ignoring non-4800 columns")
	}
	if cols := er.Truncated(); len(cols) > 0 {
		log.Warn().Str("file", path).Strs("columns", cols).Msg("slot columns beyond the 4800 layout dropped")
	}
	if cols := er.Duplicates(); len(cols) > 0 {
		log.Warn().Str("file", path).Strs("columns", cols).Msg("repeated 4800 columns; first kept")
	}
	return drain(ctx, er, path)
}

// Write4800 writes encs to path and checks the line count of the result.
// Repeated PROVNUM/PCN keys are written as given and logged.
func Write4800(ctx context.Context, path string, encs []*record.Encounter) (int, error) {
	if n := reshape.DuplicateKeys(encs); n > 0 {
		zerolog.Ctx(ctx).Warn().Str("file", path).Int("encounters", n).Msg("repeated PROVNUM/PCN keys in 4800 output")
	}
	lines, err := flatfile.WriteEncounters(path, encs)
	if err != nil {
		return 0, fmt.Errorf("write 4800: %w", err)
	}
	if lines != len(encs)+1 {
		return lines, fmt.Errorf("%w: %s has %d lines, want %d", ErrLineCount, path, lines, len(encs)+1)
	}
	zerolog.Ctx(ctx).Info().Str("file", path).Int("records", len(encs)).Int("lines", lines).Msg("4800 file written")
	return lines, nil
}

// ApplyDefaults fills blank values of the named columns and returns how many
// were filled per column.
func ApplyDefaults(encs []*record.Encounter, defaults map[string]string) map[string]int {
	filled := make(map[string]int, len(defaults))
	for col, def := range defaults {
		for _, e := range encs {
			if v, ok := e.Get(col); ok && v == "" {
				e.Set(col, def)
				filled[col]++
			}
		}
	}
	return filled
}

package prep

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"claimtool/internal/flatfile"
	"claimtool/internal/qa"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// ConvertInput describes a headerless 5200 extract.
type ConvertInput struct {
	Path     string
	Encoding string         // default windows-1252
	Layout   map[int]string // nil uses flatfile.Layout5200

	// ProvnumRemap replaces whole PROVNUM values (e.g. a tax ID with the
	// Medicare provider number).
	ProvnumRemap map[string]string

	// SexDecode maps spelled-out sex values to 4800 codes. Keys match
	// case-insensitively.
	SexDecode map[string]string
}

// ConvertReport summarizes a 5200 conversion.
type ConvertReport struct {
	Read         int
	Remapped     int
	SexDecoded   int
	RaceDefaults int
	FullDupes    int
	KeyDupes     int
	Records      int
	Subfacility  qa.Distribution // by the first two characters of PCN
	Months       qa.Distribution // by discharge month
}

// Convert5200 reads a 5200 extract and applies the 4800 edits: PROVNUM
// remap, SEX decode, 5-digit ZIP, RACE 6/blank → 9 and SPTTYPE 1. Full
// duplicates are dropped, then any remaining repeated PROVNUM/PCN keeps its
// first occurrence. The result is sorted by discharge date.
func Convert5200(ctx context.Context, in ConvertInput) ([]*record.Encounter, *ConvertReport, error) {
	log := zerolog.Ctx(ctx)

	layout := in.Layout
	if layout == nil {
		layout = flatfile.Layout5200()
	}
	enc := in.Encoding
	if enc == "" {
		enc = flatfile.EncodingWindows1252
	}

	er, err := flatfile.OpenPositional(in.Path, layout, flatfile.Options{Encoding: enc})
	if err != nil {
		return nil, nil, err
	}
	defer er.Close()

	encs, err := drain(ctx, er, in.Path)
	if err != nil {
		return nil, nil, err
	}
	rep := &ConvertReport{Read: len(encs)}

	sex := make(map[string]string, len(in.SexDecode))
	for k, v := range in.SexDecode {
		sex[strings.ToLower(k)] = v
	}

	for _, e := range encs {
		if to, ok := in.ProvnumRemap[e.ProvNum]; ok {
			e.ProvNum = to
			rep.Remapped++
		}
		if to, ok := sex[strings.ToLower(e.Sex)]; ok && e.Sex != "" {
			e.Sex = to
			rep.SexDecoded++
		}
		if len(e.Zip) > 5 {
			e.Zip = e.Zip[:5]
		}
		if e.Race == "" || e.Race == "6" {
			e.Race = "9"
			rep.RaceDefaults++
		}
		e.SptType = "1"
	}
	log.Info().Int("provnum_remapped", rep.Remapped).Int("sex_decoded", rep.SexDecoded).
		Int("race_defaulted", rep.RaceDefaults).Msg("4800 edits applied")

	encs, rep.FullDupes = reshape.DedupFull(encs)
	if conflicts := reshape.KeyConflicts(encs); len(conflicts) > 0 {
		log.Warn().Int("keys", len(conflicts)).Str("first", conflicts[0].String()).
			Msg("PROVNUM/PCN repeated with different values; keeping first")
	}
	encs, rep.KeyDupes = reshape.DedupByKey(encs, reshape.KeepFirst)
	rep.Records = len(encs)
	log.Info().Int("full_dupes", rep.FullDupes).Int("key_dupes", rep.KeyDupes).Int("records", rep.Records).
		Msg("duplicates removed")

	rep.Subfacility = qa.CountBy("subfacility", encs, func(e *record.Encounter) string { return prefix(e.PCN, 2) })
	rep.Months = qa.CountBy("discharge month", encs, func(e *record.Encounter) string { return prefix(e.DisDate, 2) })
	rep.Subfacility.Log(*log)
	rep.Months.Log(*log)
	for _, col := range []string{"SEX", "RACE", "ADMTYPE", "ADMSRC", "STATUS", "PAYCODE1"} {
		qa.ValueCounts(encs, col).Log(*log)
	}

	reshape.SortByDischarge(encs)
	return encs, rep, nil
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// ParseRemap validates a PROVNUM remap: neither side may be blank.
func ParseRemap(m map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for from, to := range m {
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if from == "" || to == "" {
			return nil, fmt.Errorf("provnum remap %q → %q: blank value", from, to)
		}
		out[from] = to
	}
	return out, nil
}

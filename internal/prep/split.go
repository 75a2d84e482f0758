package prep

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"claimtool/internal/flatfile"
	"claimtool/internal/qa"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// DischargeDefaults are the "information not available" codes written into
// blank ADMSRC, ADMTYPE and PAYCODE1 values of a discharge file.
var DischargeDefaults = map[string]string{
	"ADMSRC":   "9",
	"ADMTYPE":  "9",
	"PAYCODE1": "90",
}

// SplitInput locates the three files of a split submission.
type SplitInput struct {
	Disch string
	DX    string
	PX    string

	// StrictSequences rejects a submission in which one (PROVNUM, PCN, seq)
	// carries two different codes, instead of keeping the first.
	StrictSequences bool

	Options flatfile.Options
}

// SplitReport summarizes a split-file assembly.
type SplitReport struct {
	Disch          int
	DischDupes     int
	DefaultsFilled map[string]int

	DXRows  int
	DXDedup reshape.SplitDedupStats
	DXPivot reshape.PivotStats

	PXRows  int
	PXDedup reshape.SplitDedupStats
	PXPivot reshape.PivotStats

	Merge      reshape.MergeStats
	FinalDupes int
	Records    int
}

// BuildFromSplit assembles 4800 encounters from a discharge file plus long
// DX and PX files. Encounters come back in discharge-file order.
func BuildFromSplit(ctx context.Context, in SplitInput) ([]*record.Encounter, *SplitReport, error) {
	log := zerolog.Ctx(ctx)
	rep := &SplitReport{}

	// ── Discharges ──
	disch, err := readEncounters(ctx, in.Disch, in.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("discharges: %w", err)
	}
	rep.Disch = len(disch)
	if conflicts := reshape.KeyConflicts(disch); len(conflicts) > 0 {
		log.Warn().Int("keys", len(conflicts)).Str("first", conflicts[0].String()).
			Msg("discharge file repeats PROVNUM/PCN with different values; keeping first")
	}
	disch, rep.DischDupes = reshape.DedupByKey(disch, reshape.KeepFirst)
	log.Info().Int("records", len(disch)).Int("dupes", rep.DischDupes).Msg("discharges deduplicated")

	qa.LogNulls(*log, qa.NullCounts(disch, record.HeaderColumns()))
	rep.DefaultsFilled = ApplyDefaults(disch, DischargeDefaults)
	for col, n := range rep.DefaultsFilled {
		log.Info().Str("field", col).Int("filled", n).Str("value", DischargeDefaults[col]).Msg("blank values defaulted")
	}
	for _, col := range []string{"ADMSRC", "ADMTYPE", "STATUS", "RACE", "PAYCODE1", "SEX"} {
		qa.ValueCounts(disch, col).Log(*log)
	}

	// ── Diagnoses ──
	dxRows, err := flatfile.ReadSplitDX(in.DX, in.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("diagnoses: %w", err)
	}
	rep.DXRows = len(dxRows)
	if !in.StrictSequences {
		dxRows, rep.DXDedup = reshape.DedupSplitDX(dxRows)
		logSplitDedup(log, "dx", rep.DXDedup)
	}
	seqs := make([]int, len(dxRows))
	for i, r := range dxRows {
		seqs[i] = r.Seq
	}
	qa.SeqCounts("DXSQN", seqs).Log(*log)

	dx, st, err := reshape.PivotDX(dxRows)
	if err != nil {
		return nil, nil, fmt.Errorf("pivot diagnoses: %w", err)
	}
	rep.DXPivot = st
	logPivot(log, "dx", st, record.DXSlots)

	// ── Procedures ──
	pxRows, err := flatfile.ReadSplitPX(in.PX, in.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("procedures: %w", err)
	}
	rep.PXRows = len(pxRows)
	if !in.StrictSequences {
		pxRows, rep.PXDedup = reshape.DedupSplitPX(pxRows)
		logSplitDedup(log, "px", rep.PXDedup)
	}
	seqs = seqs[:0]
	for _, r := range pxRows {
		seqs = append(seqs, r.Seq)
	}
	qa.SeqCounts("PRCSQN", seqs).Log(*log)

	px, st, err := reshape.PivotPX(pxRows)
	if err != nil {
		return nil, nil, fmt.Errorf("pivot procedures: %w", err)
	}
	rep.PXPivot = st
	logPivot(log, "px", st, record.PXSlots)

	// ── Merge ──
	encs, ms := reshape.Assemble(disch, dx, px)
	rep.Merge = ms
	log.Info().
		Int("discharges", ms.Left).
		Int("dx_matched", ms.DXMatched).
		Float64("dx_fill_pct", ms.DXFillRate()).
		Int("px_matched", ms.PXMatched).
		Float64("px_fill_pct", ms.PXFillRate()).
		Msg("dx/px merged onto discharges")
	if ms.DXOrphans > 0 || ms.PXOrphans > 0 {
		log.Warn().Int("dx_orphans", ms.DXOrphans).Int("px_orphans", ms.PXOrphans).
			Msg("dx/px encounters without a discharge record dropped")
	}

	encs, rep.FinalDupes = reshape.DedupByKey(encs, reshape.KeepFirst)
	rep.Records = len(encs)
	return encs, rep, nil
}

func logSplitDedup(log *zerolog.Logger, kind string, st reshape.SplitDedupStats) {
	if st.Dropped == 0 {
		return
	}
	level := zerolog.InfoLevel
	if st.Conflicts > 0 {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).Str("kind", kind).Int("dropped", st.Dropped).Int("conflicts", st.Conflicts).
		Msg("duplicate sequence rows removed")
}

func logPivot(log *zerolog.Logger, kind string, st reshape.PivotStats, slots int) {
	log.Info().Str("kind", kind).Int("rows", st.Rows).Int("encounters", st.Keys).Int("max_seq", st.MaxSeq).
		Msg("pivoted to 4800 slots")
	if st.Truncated > 0 {
		log.Warn().Str("kind", kind).Int("max_seq", st.MaxSeq).Int("slots", slots).Int("dropped", st.Truncated).
			Msg("sequence numbers beyond the 4800 layout dropped")
	}
	if st.Invalid > 0 {
		log.Warn().Str("kind", kind).Int("dropped", st.Invalid).Msg("sequence numbers below 1 dropped")
	}
}

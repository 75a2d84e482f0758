package dqr

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"claimtool/internal/qa"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

// Inputs carries the reference data joined into a DQR build.
type Inputs struct {
	Facility   string
	Refs       *Refs
	Physicians []Physician
}

// Dataset is every DQR table derived from one 4800 file.
type Dataset struct {
	Encounters     int
	Dupes          int
	POAChanged     int
	Discharges     []Discharge
	DischargeStats DischargeStats
	Diagnoses      []DiagnosisRow
	Procedures     []ProcedureRow
	PXDatesFilled  int
	Attributes     []AttributeRow
	// AttributesDropped counts encounters left out of the attribute
	// summary for a blank or unreferenced code.
	AttributesDropped []Dropped
	Physicians     []Physician
}

// Build derives the DQR tables. Encounters are deduplicated on
// PROVNUM/PCN (first kept) and their POA values normalized in place; the
// tables are then derived concurrently.
func Build(ctx context.Context, encs []*record.Encounter, in Inputs) (*Dataset, error) {
	log := zerolog.Ctx(ctx)
	ds := &Dataset{Physicians: in.Physicians}

	if conflicts := reshape.KeyConflicts(encs); len(conflicts) > 0 {
		log.Warn().Int("keys", len(conflicts)).Str("first", conflicts[0].String()).
			Msg("PROVNUM/PCN repeated with different values; keeping first")
	}
	encs, ds.Dupes = reshape.DedupByKey(encs, reshape.KeepFirst)
	ds.Encounters = len(encs)
	ds.POAChanged = NormalizePOA(encs)
	log.Info().Int("encounters", ds.Encounters).Int("dupes", ds.Dupes).Int("poa_e_to_1", ds.POAChanged).
		Msg("4800 prepared")

	qa.Dates(encs, "DISDATE").Log(*log)
	qa.CountBy("provnum", encs, func(e *record.Encounter) string { return e.ProvNum }).Log(*log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds.Discharges, ds.DischargeStats = BuildDischarges(encs)
		return gctx.Err()
	})
	g.Go(func() error {
		ds.Diagnoses = Diagnoses(encs)
		return gctx.Err()
	})
	g.Go(func() error {
		ds.Procedures, ds.PXDatesFilled = Procedures(encs)
		return gctx.Err()
	})
	g.Go(func() error {
		ds.Attributes, ds.AttributesDropped = Summarize(encs, in.Facility, in.Refs)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := ds.DischargeStats
	log.Info().
		Int("discharges", len(ds.Discharges)).
		Int("same_day_stays", st.SameDayStays).
		Int("dob_after_admit", st.DOBAfterAdmit).
		Int("admit_after_discharge", st.AdmitAfterDisch).
		Int("died", st.Died).
		Msg("discharge table built")
	if st.BadTotalCharges > 0 {
		log.Warn().Int("rows", st.BadTotalCharges).Msg("TOTALCLM not numeric; left null")
	}
	log.Info().Int("rows", len(ds.Diagnoses)).Msg("diagnosis table built")
	log.Info().Int("rows", len(ds.Procedures)).Int("dates_from_admit", ds.PXDatesFilled).Msg("procedure table built")

	for _, d := range ds.AttributesDropped {
		log.Warn().Str("attribute", d.Attribute).Int("blank", d.Blank).Int("unmatched", d.Unmatched).
			Msg("encounters left out of the attribute summary")
	}

	qa.SeqCounts("DX Seq", DiagnosisSeqs(ds.Diagnoses)).Log(*log)
	qa.SeqCounts("PX Seq", ProcedureSeqs(ds.Procedures)).Log(*log)
	return ds, nil
}

// DiagnosisSeqs lists the sequence number of each diagnosis row.
func DiagnosisSeqs(rows []DiagnosisRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = int(r.Seq)
	}
	return out
}

// ProcedureSeqs lists the sequence number of each procedure row.
func ProcedureSeqs(rows []ProcedureRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = int(r.Seq)
	}
	return out
}

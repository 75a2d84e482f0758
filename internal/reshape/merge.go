package reshape

import (
	"sort"
	"time"

	"claimtool/internal/record"
)

// MergeStats reports the outcome of attaching pivoted DX/PX slots to
// discharge records. Orphans are keys present in the DX or PX input that
// have no discharge record; they are not carried into the output.
type MergeStats struct {
	Left      int
	DXMatched int
	PXMatched int
	DXOrphans int
	PXOrphans int
}

// DXFillRate is the percentage of discharges that received diagnoses.
func (s MergeStats) DXFillRate() float64 { return percent(s.DXMatched, s.Left) }

// PXFillRate is the percentage of discharges that received procedures.
func (s MergeStats) PXFillRate() float64 { return percent(s.PXMatched, s.Left) }

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Assemble left-joins pivoted diagnoses and procedures onto discharge
// records by (PROVNUM, PCN). The discharge records are copied, never
// modified. Discharges with no match keep blank slots.
func Assemble(
	disch []*record.Encounter,
	dx map[record.Key]*[record.DXSlots]record.Diagnosis,
	px map[record.Key]*[record.PXSlots]record.Procedure,
) ([]*record.Encounter, MergeStats) {
	st := MergeStats{Left: len(disch)}
	used := make(map[record.Key]bool, len(disch))
	out := make([]*record.Encounter, 0, len(disch))

	for _, d := range disch {
		e := d.Clone()
		k := e.Key()
		used[k] = true
		if slots, ok := dx[k]; ok {
			e.DX = *slots
			st.DXMatched++
		}
		if slots, ok := px[k]; ok {
			e.PX = *slots
			st.PXMatched++
		}
		out = append(out, e)
	}

	for k := range dx {
		if !used[k] {
			st.DXOrphans++
		}
	}
	for k := range px {
		if !used[k] {
			st.PXOrphans++
		}
	}
	return out, st
}

// SortByDischarge orders encounters by DISDATE, oldest first. Blank or
// malformed dates sort last; ties keep their input order.
func SortByDischarge(encs []*record.Encounter) {
	type dated struct {
		t  time.Time
		ok bool
	}
	keys := make(map[*record.Encounter]dated, len(encs))
	for _, e := range encs {
		t, ok := record.ParseDate(e.DisDate)
		keys[e] = dated{t, ok}
	}
	sort.SliceStable(encs, func(i, j int) bool {
		a, b := keys[encs[i]], keys[encs[j]]
		if a.ok != b.ok {
			return a.ok
		}
		return a.t.Before(b.t)
	})
}

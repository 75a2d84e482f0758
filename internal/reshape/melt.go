// Package reshape converts encounters between the fixed-slot 4800 layout and
// long one-row-per-code tables, and provides the dedup, merge and ordering
// steps shared by the preprocessing jobs.
package reshape

import "claimtool/internal/record"

// MeltStats summarizes a melt.
type MeltStats struct {
	Encounters  int
	Rows        int
	DatesFilled int // PX rows whose missing date was replaced by ADMDATE
	Orphans     int // POA or date values in slots with no code, dropped
}

// MeltDX returns one row per non-blank diagnosis code. Slot 0 (PRDIAG)
// becomes Seq 0. A blank POA stays blank.
func MeltDX(encs []*record.Encounter) ([]record.DXRow, MeltStats) {
	var st MeltStats
	out := make([]record.DXRow, 0, len(encs)*4)
	for _, e := range encs {
		st.Encounters++
		for i, d := range e.DX {
			if d.Code == "" {
				if d.POA != "" {
					st.Orphans++
				}
				continue
			}
			out = append(out, record.DXRow{
				ProvNum: e.ProvNum,
				PCN:     e.PCN,
				DisDate: e.DisDate,
				Seq:     i,
				Code:    d.Code,
				POA:     d.POA,
			})
		}
	}
	st.Rows = len(out)
	return out, st
}

// MeltPX returns one row per non-blank procedure code. A procedure without a
// date takes the encounter's ADMDATE.
func MeltPX(encs []*record.Encounter) ([]record.PXRow, MeltStats) {
	var st MeltStats
	out := make([]record.PXRow, 0, len(encs))
	for _, e := range encs {
		st.Encounters++
		for i, p := range e.PX {
			if p.Code == "" {
				if p.Date != "" {
					st.Orphans++
				}
				continue
			}
			date := p.Date
			if date == "" {
				date = e.AdmDate
				st.DatesFilled++
			}
			out = append(out, record.PXRow{
				ProvNum: e.ProvNum,
				PCN:     e.PCN,
				DisDate: e.DisDate,
				AdmDate: e.AdmDate,
				Seq:     i,
				Code:    p.Code,
				Date:    date,
			})
		}
	}
	st.Rows = len(out)
	return out, st
}

package reshape

import (
	"errors"
	"fmt"

	"claimtool/internal/record"
)

// ErrDuplicateSlot is returned when two different values claim the same
// (key, sequence) slot.
var ErrDuplicateSlot = errors.New("conflicting values for one sequence slot")

// PivotStats summarizes a long-to-wide pivot.
type PivotStats struct {
	Rows       int // input rows
	Keys       int // distinct encounters produced
	MaxSeq     int // largest sequence number seen, before truncation
	Truncated  int // rows beyond the slot count, dropped
	Invalid    int // rows with sequence < 1, dropped
	Duplicates int // exact repeats of a filled slot, collapsed
}

// pivot places each row's value at slot seq-1 of its key's slot slice.
func pivot[R any, V comparable](rows []R, slots int, split func(R) (record.Key, int, V)) (map[record.Key][]V, PivotStats, error) {
	st := PivotStats{Rows: len(rows)}
	out := make(map[record.Key][]V)
	filled := make(map[record.Key][]bool)

	for _, r := range rows {
		key, seq, val := split(r)
		if seq > st.MaxSeq {
			st.MaxSeq = seq
		}
		if seq < 1 {
			st.Invalid++
			continue
		}
		if seq > slots {
			st.Truncated++
			continue
		}
		vals, ok := out[key]
		if !ok {
			vals = make([]V, slots)
			out[key] = vals
			filled[key] = make([]bool, slots)
		}
		slot := seq - 1
		if filled[key][slot] {
			if vals[slot] == val {
				st.Duplicates++
				continue
			}
			return nil, st, fmt.Errorf("%w: %s seq %d: %v vs %v", ErrDuplicateSlot, key, seq, vals[slot], val)
		}
		vals[slot] = val
		filled[key][slot] = true
	}
	st.Keys = len(out)
	return out, st, nil
}

// PivotDX folds long DX rows into 41-slot arrays keyed by encounter.
// DXSQN 1 lands in PRDIAG, DXSQN n in SECDX(n-1). Empty slots stay blank.
func PivotDX(rows []record.SplitDX) (map[record.Key]*[record.DXSlots]record.Diagnosis, PivotStats, error) {
	m, st, err := pivot(rows, record.DXSlots, func(r record.SplitDX) (record.Key, int, record.Diagnosis) {
		return r.Key(), r.Seq, record.Diagnosis{Code: r.Code, POA: r.POA}
	})
	if err != nil {
		return nil, st, err
	}
	out := make(map[record.Key]*[record.DXSlots]record.Diagnosis, len(m))
	for k, v := range m {
		out[k] = (*[record.DXSlots]record.Diagnosis)(v)
	}
	return out, st, nil
}

// PivotPX folds long PX rows into 31-slot arrays keyed by encounter.
// PRCSQN 1 lands in PRPROC, PRCSQN n in SECPRC(n-1).
func PivotPX(rows []record.SplitPX) (map[record.Key]*[record.PXSlots]record.Procedure, PivotStats, error) {
	m, st, err := pivot(rows, record.PXSlots, func(r record.SplitPX) (record.Key, int, record.Procedure) {
		return r.Key(), r.Seq, record.Procedure{Code: r.Code, Date: r.Date}
	})
	if err != nil {
		return nil, st, err
	}
	out := make(map[record.Key]*[record.PXSlots]record.Procedure, len(m))
	for k, v := range m {
		out[k] = (*[record.PXSlots]record.Procedure)(v)
	}
	return out, st, nil
}

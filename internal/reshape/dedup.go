package reshape

import "claimtool/internal/record"

// Keep selects which occurrence of a duplicated key survives.
type Keep int

const (
	KeepFirst Keep = iota
	KeepLast
)

// DedupByKey drops encounters whose (PROVNUM, PCN) was already seen. The
// surviving occurrence stays at its original position. It returns the
// survivors and the number of rows dropped.
func DedupByKey(encs []*record.Encounter, keep Keep) ([]*record.Encounter, int) {
	out := make([]*record.Encounter, 0, len(encs))
	switch keep {
	case KeepLast:
		last := make(map[record.Key]int, len(encs))
		for i, e := range encs {
			last[e.Key()] = i
		}
		for i, e := range encs {
			if last[e.Key()] == i {
				out = append(out, e)
			}
		}
	default:
		seen := make(map[record.Key]struct{}, len(encs))
		for _, e := range encs {
			if _, ok := seen[e.Key()]; ok {
				continue
			}
			seen[e.Key()] = struct{}{}
			out = append(out, e)
		}
	}
	return out, len(encs) - len(out)
}

// DedupFull drops encounters identical in every field to an earlier one.
func DedupFull(encs []*record.Encounter) ([]*record.Encounter, int) {
	seen := make(map[record.Encounter]struct{}, len(encs))
	out := make([]*record.Encounter, 0, len(encs))
	for _, e := range encs {
		if _, ok := seen[*e]; ok {
			continue
		}
		seen[*e] = struct{}{}
		out = append(out, e)
	}
	return out, len(encs) - len(out)
}

// DuplicateKeys counts encounters whose key appeared earlier in encs.
func DuplicateKeys(encs []*record.Encounter) int {
	seen := make(map[record.Key]struct{}, len(encs))
	n := 0
	for _, e := range encs {
		if _, ok := seen[e.Key()]; ok {
			n++
			continue
		}
		seen[e.Key()] = struct{}{}
	}
	return n
}

// KeyConflicts lists keys carried by two or more encounters that differ in
// some field, in first-seen order.
func KeyConflicts(encs []*record.Encounter) []record.Key {
	first := make(map[record.Key]*record.Encounter, len(encs))
	flagged := make(map[record.Key]bool)
	var out []record.Key
	for _, e := range encs {
		k := e.Key()
		prev, ok := first[k]
		if !ok {
			first[k] = e
			continue
		}
		if *prev != *e && !flagged[k] {
			flagged[k] = true
			out = append(out, k)
		}
	}
	return out
}

// SplitDedupStats reports what a split-row dedup removed.
type SplitDedupStats struct {
	Dropped   int // rows removed
	Conflicts int // removed rows whose value differed from the kept one
}

func dedupSplit[R any, V comparable](rows []R, split func(R) (record.Key, int, V)) ([]R, SplitDedupStats) {
	type id struct {
		key record.Key
		seq int
	}
	var st SplitDedupStats
	kept := make(map[id]V, len(rows))
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		key, seq, val := split(r)
		if prev, ok := kept[id{key, seq}]; ok {
			st.Dropped++
			if prev != val {
				st.Conflicts++
			}
			continue
		}
		kept[id{key, seq}] = val
		out = append(out, r)
	}
	return out, st
}

// DedupSplitDX drops repeated (PROVNUM, PCN, DXSQN) rows, keeping the first.
func DedupSplitDX(rows []record.SplitDX) ([]record.SplitDX, SplitDedupStats) {
	return dedupSplit(rows, func(r record.SplitDX) (record.Key, int, record.Diagnosis) {
		return r.Key(), r.Seq, record.Diagnosis{Code: r.Code, POA: r.POA}
	})
}

// DedupSplitPX drops repeated (PROVNUM, PCN, PRCSQN) rows, keeping the first.
func DedupSplitPX(rows []record.SplitPX) ([]record.SplitPX, SplitDedupStats) {
	return dedupSplit(rows, func(r record.SplitPX) (record.Key, int, record.Procedure) {
		return r.Key(), r.Seq, record.Procedure{Code: r.Code, Date: r.Date}
	})
}

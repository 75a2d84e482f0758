// Package qa computes the data-quality reports logged by every job:
// value distributions, null counts, date ranges and append reconciliation.
package qa

import (
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"claimtool/internal/record"
)

// Count is the frequency of one value.
type Count struct {
	Value   string
	N       int
	Percent float64
}

// Distribution is the value frequency of one column or derived grouping.
type Distribution struct {
	Name   string
	Total  int
	Counts []Count // sorted by Value; blank values report as ""
}

// CountBy groups encounters by fn.
func CountBy(name string, encs []*record.Encounter, fn func(*record.Encounter) string) Distribution {
	m := make(map[string]int)
	for _, e := range encs {
		m[fn(e)]++
	}
	return newDistribution(name, m, len(encs))
}

// ValueCounts is the distribution of a 4800 column.
func ValueCounts(encs []*record.Encounter, col string) Distribution {
	return CountBy(col, encs, func(e *record.Encounter) string {
		v, _ := e.Get(col)
		return v
	})
}

// SeqCounts is the distribution of DX or PX sequence numbers. Counts fall
// as the sequence number rises in well-formed data.
func SeqCounts(name string, seqs []int) Distribution {
	m := make(map[int]int)
	for _, s := range seqs {
		m[s]++
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	d := Distribution{Name: name, Total: len(seqs)}
	for _, k := range keys {
		d.Counts = append(d.Counts, Count{Value: strconv.Itoa(k), N: m[k], Percent: pct(m[k], len(seqs))})
	}
	return d
}

func newDistribution(name string, m map[string]int, total int) Distribution {
	d := Distribution{Name: name, Total: total}
	for v, n := range m {
		d.Counts = append(d.Counts, Count{Value: v, N: n, Percent: pct(n, total)})
	}
	sort.Slice(d.Counts, func(i, j int) bool { return d.Counts[i].Value < d.Counts[j].Value })
	return d
}

// Get returns the count of v.
func (d Distribution) Get(v string) int {
	for _, c := range d.Counts {
		if c.Value == v {
			return c.N
		}
	}
	return 0
}

// Log writes the distribution as one event.
func (d Distribution) Log(l zerolog.Logger) {
	arr := zerolog.Arr()
	for _, c := range d.Counts {
		arr.Dict(zerolog.Dict().Str("value", c.Value).Int("n", c.N).Float64("pct", round2(c.Percent)))
	}
	l.Info().Str("field", d.Name).Int("total", d.Total).Array("counts", arr).Msg("distribution")
}

// NullCount is the number of blank values in one column.
type NullCount struct {
	Column string
	Nulls  int
}

// NullCounts counts blank values per column.
func NullCounts(encs []*record.Encounter, cols []string) []NullCount {
	out := make([]NullCount, len(cols))
	for i, c := range cols {
		out[i].Column = c
		for _, e := range encs {
			if v, _ := e.Get(c); v == "" {
				out[i].Nulls++
			}
		}
	}
	return out
}

// LogNulls writes columns with at least one blank value.
func LogNulls(l zerolog.Logger, counts []NullCount) {
	d := zerolog.Dict()
	for _, c := range counts {
		if c.Nulls > 0 {
			d.Int(c.Column, c.Nulls)
		}
	}
	l.Info().Dict("nulls", d).Msg("null counts")
}

// DateSummary describes a column of MMDDYYYY dates.
type DateSummary struct {
	Name    string
	Count   int
	Blank   int
	Invalid int
	Min     time.Time
	Max     time.Time
}

// Valid is the number of parseable dates.
func (s DateSummary) Valid() int { return s.Count - s.Blank - s.Invalid }

// Dates summarizes a 4800 date column.
func Dates(encs []*record.Encounter, col string) DateSummary {
	s := DateSummary{Name: col}
	for _, e := range encs {
		v, _ := e.Get(col)
		s.Count++
		if v == "" {
			s.Blank++
			continue
		}
		t, ok := record.ParseDate(v)
		if !ok {
			s.Invalid++
			continue
		}
		if s.Min.IsZero() || t.Before(s.Min) {
			s.Min = t
		}
		if t.After(s.Max) {
			s.Max = t
		}
	}
	return s
}

// Log writes the summary as one event.
func (s DateSummary) Log(l zerolog.Logger) {
	ev := l.Info().Str("field", s.Name).Int("count", s.Count).Int("blank", s.Blank).Int("invalid", s.Invalid)
	if s.Valid() > 0 {
		ev = ev.Str("min", s.Min.Format("2006-01-02")).Str("max", s.Max.Format("2006-01-02"))
	}
	ev.Msg("date range")
}

// AppendCheck reconciles one append step: the combined file must hold the
// previous rows plus the new rows less the duplicates removed. New is the
// data line count of the file on disk; Parsed is what the reader returned.
type AppendCheck struct {
	File     string
	Previous int
	New      int
	Parsed   int
	Dupes    int
	Final    int
}

// Expected is the row count the combined file should have.
func (c AppendCheck) Expected() int { return c.Previous + c.New - c.Dupes }

// Passed reports whether the final count reconciles.
func (c AppendCheck) Passed() bool { return c.Final == c.Expected() }

// Log writes the check, at warn level when it fails.
func (c AppendCheck) Log(l zerolog.Logger) {
	level := zerolog.InfoLevel
	if !c.Passed() {
		level = zerolog.WarnLevel
	}
	l.WithLevel(level).
		Str("file", c.File).
		Int("previous", c.Previous).
		Int("new", c.New).
		Int("parsed", c.Parsed).
		Int("dupes", c.Dupes).
		Int("final", c.Final).
		Int("expected", c.Expected()).
		Bool("passed", c.Passed()).
		Msg("append check")
}

// Percent returns part as a percentage of whole, 0 when whole is 0.
func Percent(part, whole int) float64 { return pct(part, whole) }

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

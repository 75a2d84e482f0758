package prep

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtool/internal/flatfile"
	"claimtool/internal/record"
	"claimtool/internal/reshape"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuildFromSplit(t *testing.T) {
	dir := t.TempDir()
	disch := writeFile(t, dir, "disch.txt",
		"PROVNUM|PCN|MRN|ADMDATE|DISDATE|ADMSRC|ADMTYPE|PAYCODE1|SEX\n"+
			"340115|A1|M1|01012024|01052024|1||12|F\n"+
			"340115|A2|M2|01032024|01042024||1||M\n"+
			"340115|A1|M1|01012024|01052024|1||12|F\n")

	var dx strings.Builder
	dx.WriteString("PROVNUM|PCN|DXSQN|DX|DXPOA\n")
	dx.WriteString("340115|A1|1|I10|Y\n")
	dx.WriteString("340115|A1|2|E119|N\n")
	dx.WriteString("340115|A1|2|E119|N\n")
	dx.WriteString("340115|A1|42|Z999|Y\n")
	dx.WriteString("340115|ZZ|1|R69|Y\n")
	dxPath := writeFile(t, dir, "dx.txt", dx.String())

	pxPath := writeFile(t, dir, "px.txt",
		"PROVNUM|PCN|PRCSQN|PROC|PRCDATE\n"+
			"340115|A2|1|0DTJ4ZZ|01032024\n"+
			"340115|A2|31|0DB60ZZ|01032024\n")

	encs, rep, err := BuildFromSplit(context.Background(), SplitInput{Disch: disch, DX: dxPath, PX: pxPath})
	require.NoError(t, err)
	require.Len(t, encs, 2)

	a1, a2 := encs[0], encs[1]
	assert.Equal(t, "A1", a1.PCN)
	assert.Equal(t, record.Diagnosis{Code: "I10", POA: "Y"}, a1.DX[0])
	assert.Equal(t, record.Diagnosis{Code: "E119", POA: "N"}, a1.DX[1])
	assert.Equal(t, "", a1.DX[40].Code)
	assert.Equal(t, "9", a1.AdmType)
	assert.Equal(t, "12", a1.PayCode1)

	assert.Equal(t, "9", a2.AdmSrc)
	assert.Equal(t, "90", a2.PayCode1)
	assert.Equal(t, "0DTJ4ZZ", a2.PX[0].Code)
	assert.Equal(t, "0DB60ZZ", a2.PX[30].Code)

	assert.Equal(t, 3, rep.Disch)
	assert.Equal(t, 1, rep.DischDupes)
	assert.Equal(t, map[string]int{"ADMSRC": 1, "ADMTYPE": 1, "PAYCODE1": 1}, rep.DefaultsFilled)
	assert.Equal(t, 1, rep.DXDedup.Dropped)
	assert.Equal(t, 1, rep.DXPivot.Truncated)
	assert.Equal(t, 42, rep.DXPivot.MaxSeq)
	assert.Equal(t, reshape.MergeStats{Left: 2, DXMatched: 1, PXMatched: 1, DXOrphans: 1}, rep.Merge)
	assert.Equal(t, 2, rep.Records)

	out := filepath.Join(dir, "4800.txt")
	lines, err := Write4800(context.Background(), out, encs)
	require.NoError(t, err)
	assert.Equal(t, 3, lines)
}

func TestWrite4800WarnsOnRepeatedKeys(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	encs := []*record.Encounter{
		{ProvNum: "1", PCN: "A"},
		{ProvNum: "1", PCN: "A", MRN: "again"},
	}

	lines, err := Write4800(ctx, filepath.Join(t.TempDir(), "4800.txt"), encs)
	require.NoError(t, err)
	assert.Equal(t, 3, lines)
	assert.Contains(t, buf.String(), `"encounters":1`)
	assert.Contains(t, buf.String(), "repeated PROVNUM/PCN keys")
}

func TestBuildFromSplitStrictConflict(t *testing.T) {
	dir := t.TempDir()
	disch := writeFile(t, dir, "disch.txt", "PROVNUM|PCN\n1|A\n")
	dx := writeFile(t, dir, "dx.txt", "PROVNUM|PCN|DXSQN|DX|DXPOA\n1|A|1|I10|Y\n1|A|1|E119|Y\n")
	px := writeFile(t, dir, "px.txt", "PROVNUM|PCN|PRCSQN|PROC|PRCDATE\n")

	_, _, err := BuildFromSplit(context.Background(), SplitInput{Disch: disch, DX: dx, PX: px, StrictSequences: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, reshape.ErrDuplicateSlot))

	encs, rep, err := BuildFromSplit(context.Background(), SplitInput{Disch: disch, DX: dx, PX: px})
	require.NoError(t, err)
	assert.Equal(t, "I10", encs[0].DX[0].Code)
	assert.Equal(t, 1, rep.DXDedup.Conflicts)
}

func TestBuildFromSplitMissingFile(t *testing.T) {
	_, _, err := BuildFromSplit(context.Background(), SplitInput{Disch: filepath.Join(t.TempDir(), "none.txt")})
	assert.Error(t, err)
}

// row5200 builds one headerless 5200 line with the given positions set.
func row5200(vals map[int]string) string {
	row := make([]string, 530)
	for i, v := range vals {
		row[i] = v
	}
	return strings.Join(row, "|")
}

func TestConvert5200(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		row5200(map[int]string{1: "01P1", 3: "561936354", 13: "Female", 14: "6", 11: "275141234", 19: "03102024", 336: "I10", 337: "Y"}),
		row5200(map[int]string{1: "02P2", 3: "561936354", 13: "male", 14: "", 11: "27514", 19: "01052024"}),
		row5200(map[int]string{1: "02P2", 3: "561936354", 13: "male", 14: "", 11: "27514", 19: "01052024"}),
		row5200(map[int]string{1: "01P3", 3: "340999", 13: "U", 14: "1", 19: "02012024"}),
	}
	path := writeFile(t, dir, "5200.txt", strings.Join(lines, "\r\n")+"\r\n")

	encs, rep, err := Convert5200(context.Background(), ConvertInput{
		Path:         path,
		ProvnumRemap: map[string]string{"561936354": "340115"},
		SexDecode:    map[string]string{"female": "F", "Male": "M", "unknown": "U"},
	})
	require.NoError(t, err)
	require.Len(t, encs, 3)

	// sorted by discharge date
	assert.Equal(t, []string{"02P2", "01P3", "01P1"}, []string{encs[0].PCN, encs[1].PCN, encs[2].PCN})

	p1 := encs[2]
	assert.Equal(t, "340115", p1.ProvNum)
	assert.Equal(t, "F", p1.Sex)
	assert.Equal(t, "9", p1.Race)
	assert.Equal(t, "27514", p1.Zip)
	assert.Equal(t, "1", p1.SptType)
	assert.Equal(t, record.Diagnosis{Code: "I10", POA: "Y"}, p1.DX[0])

	assert.Equal(t, "M", encs[0].Sex)
	assert.Equal(t, "9", encs[0].Race)
	assert.Equal(t, "340999", encs[1].ProvNum)
	assert.Equal(t, "U", encs[1].Sex)
	assert.Equal(t, "1", encs[1].Race)

	assert.Equal(t, 4, rep.Read)
	assert.Equal(t, 3, rep.Remapped)
	assert.Equal(t, 1, rep.FullDupes)
	assert.Equal(t, 0, rep.KeyDupes)
	assert.Equal(t, 2, rep.Subfacility.Get("01"))
	assert.Equal(t, 1, rep.Months.Get("03"))
}

func TestParseRemap(t *testing.T) {
	m, err := ParseRemap(map[string]string{" 561936354 ": "340115"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"561936354": "340115"}, m)

	_, err = ParseRemap(map[string]string{"561936354": ""})
	assert.Error(t, err)
}

func TestAppend(t *testing.T) {
	dir := t.TempDir()
	header := "PROVNUM|PCN|MRN|DISDATE\n"
	f1 := writeFile(t, dir, "q1.txt", header+"1|A|old|03012024\n1|B|b|01012024\n")
	f2 := writeFile(t, dir, "q2.txt", header+"1|A|new|03012024\n1|C|c|02012024\n")
	f3 := writeFile(t, dir, "q3.txt", header+"2|A|d|04012024\n")

	encs, checks, err := Append(context.Background(), []string{f1, f2, f3}, flatfile.Options{})
	require.NoError(t, err)
	require.Len(t, encs, 4)

	var got []string
	for _, e := range encs {
		got = append(got, e.Key().String()+":"+e.MRN)
	}
	assert.Equal(t, []string{"1_B:b", "1_C:c", "1_A:new", "2_A:d"}, got)

	require.Len(t, checks, 2)
	assert.Equal(t, 2, checks[0].Previous)
	assert.Equal(t, 2, checks[0].New)
	assert.Equal(t, 2, checks[0].Parsed)
	assert.Equal(t, 1, checks[0].Dupes)
	assert.Equal(t, 3, checks[0].Final)
	assert.True(t, checks[1].Passed())
}

func TestAppendFailsWhenRowsAreLost(t *testing.T) {
	dir := t.TempDir()
	header := "PROVNUM|PCN|MRN|DISDATE\n"
	f1 := writeFile(t, dir, "q1.txt", header+"1|A|a|01012024\n")
	// The reader skips the blank line, so one data line never becomes a row.
	f2 := writeFile(t, dir, "q2.txt", header+"1|B|b|02012024\n\n1|C|c|03012024\n")

	_, checks, err := Append(context.Background(), []string{f1, f2}, flatfile.Options{})
	require.ErrorIs(t, err, ErrAppendMismatch)
	require.Len(t, checks, 1)
	assert.Equal(t, 3, checks[0].New)
	assert.Equal(t, 2, checks[0].Parsed)
	assert.False(t, checks[0].Passed())
}

func TestAppendChecksFirstFile(t *testing.T) {
	dir := t.TempDir()
	header := "PROVNUM|PCN|MRN|DISDATE\n"
	f1 := writeFile(t, dir, "q1.txt", header+"1|A|a|01012024\n\n")
	f2 := writeFile(t, dir, "q2.txt", header+"1|B|b|02012024\n")

	_, checks, err := Append(context.Background(), []string{f1, f2}, flatfile.Options{})
	require.ErrorIs(t, err, ErrAppendMismatch)
	assert.Empty(t, checks)
}

func TestAppendNoFiles(t *testing.T) {
	_, _, err := Append(context.Background(), nil, flatfile.Options{})
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	encs := []*record.Encounter{{AdmSrc: ""}, {AdmSrc: "1"}}
	filled := ApplyDefaults(encs, map[string]string{"ADMSRC": "9", "NOTACOLUMN": "x"})
	assert.Equal(t, 1, filled["ADMSRC"])
	assert.Equal(t, "9", encs[0].AdmSrc)
	assert.Equal(t, "1", encs[1].AdmSrc)
	assert.Zero(t, filled["NOTACOLUMN"])
}

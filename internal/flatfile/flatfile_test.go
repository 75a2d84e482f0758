package flatfile

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"claimtool/internal/record"
)

// writeTestFile writes content to a file in a temp dir and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestReaderBOMAndHeader(t *testing.T) {
	path := writeTestFile(t, "ref.txt", "\xEF\xBB\xBFADMSRC| admit source description \n1|Physician Referral\n2|Clinic\n")

	r, err := Open(path, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"ADMSRC", "admit source description"}, r.Columns())
	assert.Equal(t, 1, r.Index("Admit Source Description"))

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Physician Referral"}, row)
	assert.EqualValues(t, 2, r.RowNum())
}

func TestReaderGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disch.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("PROVNUM|PCN\n340115|A1\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	tbl, err := ReadTable(path, Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "A1", tbl.Get(0, "pcn"))
}

func TestReaderWindows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("A1|x|José\n")
	require.NoError(t, err)
	path := writeTestFile(t, "claims.txt", raw)

	r, err := Open(path, Options{NoHeader: true, Encoding: EncodingWindows1252})
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "José", row[2])
}

func TestOpenUnsupportedEncoding(t *testing.T) {
	path := writeTestFile(t, "x.txt", "A|B\n")
	_, err := Open(path, Options{Encoding: "ebcdic"})
	assert.Error(t, err)
}

func TestOpenEncounters(t *testing.T) {
	content := "pcn|PROVNUM|Facility Name|PRDIAG|SECDX3POA|SECDX41|SECPRC1\n" +
		"A1 |340115|Mercy|I10||R69|0DB60ZZ\n"
	path := writeTestFile(t, "4800.txt", content)

	er, err := OpenEncounters(path, Options{})
	require.NoError(t, err)
	defer er.Close()

	assert.Equal(t, []string{"Facility Name"}, er.Ignored())
	assert.Equal(t, []string{"SECDX41"}, er.Truncated())

	encs, err := er.ReadAll()
	require.NoError(t, err)
	require.Len(t, encs, 1)
	e := encs[0]
	assert.Equal(t, record.Key{ProvNum: "340115", PCN: "A1"}, e.Key())
	assert.Equal(t, "I10", e.DX[0].Code)
	assert.Equal(t, "0DB60ZZ", e.PX[1].Code)
}

func TestOpenEncountersNoLayoutColumns(t *testing.T) {
	path := writeTestFile(t, "bad.txt", "A|B\n1|2\n")
	_, err := OpenEncounters(path, Options{})
	assert.Error(t, err)
}

func TestOpenEncountersRepeatedColumn(t *testing.T) {
	path := writeTestFile(t, "dup.txt", "PROVNUM|PCN|PRDIAG|prdiag\n1|A|I10|\n")
	er, err := OpenEncounters(path, Options{})
	require.NoError(t, err)
	defer er.Close()

	assert.Equal(t, []string{"prdiag"}, er.Duplicates())
	e, err := er.Next()
	require.NoError(t, err)
	assert.Equal(t, "I10", e.DX[0].Code)
}

func TestPositionalLayout5200(t *testing.T) {
	layout := Layout5200()
	assert.Len(t, layout, 13+31*2+31*2+6)
	assert.Equal(t, "PRDIAG", layout[336])
	assert.Equal(t, "SECDX30POA", layout[397])
	assert.Equal(t, "PRPROC", layout[411])
	assert.Equal(t, "SECDAT1", layout[415])
	assert.Equal(t, "SECDAT30", layout[502])
	assert.Equal(t, "PAYCODE1", layout[520])

	row := make([]string, 521)
	row[1] = "PCN9"
	row[3] = "561936354"
	row[336] = "A419"
	row[337] = "Y"
	row[414] = "0DTJ4ZZ"
	row[520] = "12"
	path := writeTestFile(t, "5200.txt", strings.Join(row, "|")+"\n")

	er, err := OpenPositional(path, layout, Options{})
	require.NoError(t, err)
	defer er.Close()
	encs, err := er.ReadAll()
	require.NoError(t, err)
	require.Len(t, encs, 1)
	e := encs[0]
	assert.Equal(t, "PCN9", e.PCN)
	assert.Equal(t, "561936354", e.ProvNum)
	assert.Equal(t, record.Diagnosis{Code: "A419", POA: "Y"}, e.DX[0])
	assert.Equal(t, "0DTJ4ZZ", e.PX[1].Code)
	assert.Equal(t, "12", e.PayCode1)
}

func TestOpenPositionalUnknownField(t *testing.T) {
	path := writeTestFile(t, "x.txt", "a|b\n")
	_, err := OpenPositional(path, map[int]string{0: "NOPE"}, Options{})
	assert.Error(t, err)
}

func TestParseLayout(t *testing.T) {
	got, err := ParseLayout(map[string]string{"1": "PCN", "3": "PROVNUM"})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "PCN", 3: "PROVNUM"}, got)

	_, err = ParseLayout(map[string]string{"x": "PCN"})
	assert.Error(t, err)
}

func TestReadSplitDX(t *testing.T) {
	path := writeTestFile(t, "dx.txt",
		"PROVNUM|PCN|DXSQN|DX|DXPOA\n340115|A1|1|I10|Y\n340115|A1|2.0|E119|\n")
	rows, err := ReadSplitDX(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, record.SplitDX{ProvNum: "340115", PCN: "A1", Seq: 2, Code: "E119"}, rows[1])
}

func TestReadSplitDXErrors(t *testing.T) {
	missing := writeTestFile(t, "dx.txt", "PROVNUM|PCN|DX|DXPOA\n")
	_, err := ReadSplitDX(missing, Options{})
	assert.True(t, errors.Is(err, ErrMissingColumn))

	twoMissing := writeTestFile(t, "dx.txt", "PROVNUM|PCN|DX\n")
	_, err = ReadSplitDX(twoMissing, Options{})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "DXSQN")
	assert.Contains(t, err.Error(), "DXPOA")

	badSeq := writeTestFile(t, "dx.txt", "PROVNUM|PCN|DXSQN|DX|DXPOA\n1|A|two|I10|Y\n")
	_, err = ReadSplitDX(badSeq, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadSplitPX(t *testing.T) {
	path := writeTestFile(t, "px.txt",
		"PROVNUM|PCN|PRCSQN|PROC|PRCDATE\n340115|A1|1|0DTJ4ZZ|01052024\n")
	rows, err := ReadSplitPX(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, record.SplitPX{ProvNum: "340115", PCN: "A1", Seq: 1, Code: "0DTJ4ZZ", Date: "01052024"}, rows[0])
}

func TestWriteEncountersRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	e1 := &record.Encounter{ProvNum: "340115", PCN: "A1", DisDate: "01312024"}
	e1.DX[0] = record.Diagnosis{Code: "I10", POA: "Y"}
	e1.PX[30] = record.Procedure{Code: "0DTJ4ZZ", Date: "01052024"}
	e2 := &record.Encounter{ProvNum: "340115", PCN: "A2"}

	lines, err := WriteEncounters(path, []*record.Encounter{e1, e2})
	require.NoError(t, err)
	assert.Equal(t, 3, lines)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, len(record.Columns()), strings.Count(header, "|")+1)

	got, err := ReadEncounters(path, Options{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *e1, *got[0])
	assert.Equal(t, *e2, *got[1])
}

func TestWriterRejectsDelimiter(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer w.Close()
	err = w.Write(&record.Encounter{ProvNum: "34|0115"})
	assert.Error(t, err)
	assert.Equal(t, 0, w.Count())
}

func TestWriteEncountersLeavesNothingOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	_, err := WriteEncounters(path, []*record.Encounter{
		{ProvNum: "340115", PCN: "A1"},
		{ProvNum: "340115", PCN: "A|2"},
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
	}
	for _, tt := range tests {
		path := writeTestFile(t, "c.txt", tt.content)
		got, err := CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.content)
	}
}

package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsLayout(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, 20+DXSlots*2+PXSlots*2+ChargeSlots*2)

	assert.Equal(t, "PROVNUM", cols[0])
	assert.Equal(t, "PAYCODE1", cols[19])
	assert.Equal(t, "PRDIAG", cols[20])
	assert.Equal(t, "PRDIAGPOA", cols[21])
	assert.Equal(t, "SECDX1", cols[22])
	assert.Equal(t, "SECDX40POA", cols[20+DXSlots*2-1])

	px := 20 + DXSlots*2
	assert.Equal(t, "PRPROC", cols[px])
	assert.Equal(t, "PRPRDATE", cols[px+1])
	assert.Equal(t, "SECPRC30", cols[px+PXSlots*2-2])
	assert.Equal(t, "SECDAT30", cols[px+PXSlots*2-1])

	assert.Equal(t, "REVCOD1", cols[px+PXSlots*2])
	assert.Equal(t, "CHARGE50", cols[len(cols)-1])
}

func TestGetSet(t *testing.T) {
	var e Encounter
	require.True(t, e.Set("provnum", "340115"))
	require.True(t, e.Set(" SecDx12POA ", "Y"))
	require.True(t, e.Set("PRPRDATE", "01022024"))
	require.True(t, e.Set("CHARGE3", "10.50"))
	assert.False(t, e.Set("SECDX41", "A01"))

	assert.Equal(t, "340115", e.ProvNum)
	assert.Equal(t, "Y", e.DX[12].POA)
	assert.Equal(t, "01022024", e.PX[0].Date)
	assert.Equal(t, "10.50", e.Charges[2].Amount)

	v, ok := e.Get("secdx12poa")
	assert.True(t, ok)
	assert.Equal(t, "Y", v)

	_, ok = e.Get("Facility Name")
	assert.False(t, ok)
}

func TestValuesMatchColumns(t *testing.T) {
	var e Encounter
	for _, c := range Columns() {
		e.Set(c, c+"-v")
	}
	vals := e.Values()
	require.Len(t, vals, len(Columns()))
	for i, c := range Columns() {
		if vals[i] != c+"-v" {
			t.Fatalf("value %d = %q, want %q", i, vals[i], c+"-v")
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		col  string
		kind Kind
		slot int
	}{
		{"PRDIAG", KindDX, 0},
		{"SECDX40", KindDX, 40},
		{"SECDX7POA", KindPOA, 7},
		{"SECPRC30", KindPX, 30},
		{"SECDAT1", KindPXDate, 1},
		{"REVCOD1", KindRevCode, 0},
		{"STATUS", KindHeader, 13},
	}
	for _, tt := range tests {
		kind, slot, ok := Lookup(tt.col)
		require.True(t, ok, tt.col)
		assert.Equal(t, tt.kind, kind, tt.col)
		assert.Equal(t, tt.slot, slot, tt.col)
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("03152024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", d.Format("2006-01-02"))

	for _, bad := range []string{"", "3152024", "13152024", "2024-03-15"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestKeyString(t *testing.T) {
	e := Encounter{ProvNum: "340115", PCN: "A1"}
	assert.Equal(t, "340115_A1", e.Key().String())
}

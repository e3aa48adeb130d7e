package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullUintString(t *testing.T) {
	assert.Equal(t, "", NullUint{}.String())
	assert.Equal(t, "0", SomeUint(0).String())
	assert.Equal(t, "43707", SomeUint(43707).String())
}

func TestLineKindString(t *testing.T) {
	tests := map[LineKind]string{
		KindOther:      "other",
		KindMcs:        "mcs",
		KindFlowHeader: "flow_header",
		KindHexRow:     "hex_row",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}

func TestHexRowLen(t *testing.T) {
	assert.Equal(t, 0, HexRow{}.Len())
	assert.Equal(t, 2, HexRow{Data: "aabb"}.Len())
	// a trailing half byte does not count
	assert.Equal(t, 2, HexRow{Data: "aabbc"}.Len())
}

func TestFieldsGetMissing(t *testing.T) {
	var f Fields
	assert.True(t, f.Get(FieldIPID).Empty())

	f = Fields{FieldIPID: {Hex: "aa bb", Dec: SomeUint(43707)}}
	assert.False(t, f.Get(FieldIPID).Empty())
	assert.True(t, f.Get(FieldUDPChecksum).Empty())
}

func TestClassicRow(t *testing.T) {
	rec := &OutputRecord{
		Flow: FlowHeader{
			LogTimestamp: "12:00:01.500",
			SrcIP:        "10.0.0.1",
			SrcPort:      "5201",
			DstIP:        "10.0.0.2",
			DstPort:      "40000",
		},
		MCS: SomeUint(9),
		Fields: Fields{
			FieldIPID: {Hex: "aa bb", Dec: SomeUint(43707)},
		},
	}

	row := Row(ClassicColumns, rec)
	assert.Len(t, row, 16)
	assert.Equal(t, []string{
		"12:00:01.500", "10.0.0.1", "10.0.0.2",
		"aa bb", "43707", "", "",
		"5201", "40000", "", "",
		"9", "", "", "", "",
	}, row)
}

func TestLayoutInspect(t *testing.T) {
	assert.Equal(t, len(ClassicColumns), len(Layout(false)))
	cols := Layout(true)
	assert.Equal(t, len(ClassicColumns)+len(InspectionColumns), len(cols))
	assert.Equal(t, "IP_Version", Headers(cols)[len(ClassicColumns)])

	// no inspection attached renders empty cells
	row := Row(cols, &OutputRecord{})
	for _, cell := range row[len(ClassicColumns):] {
		assert.Empty(t, cell)
	}
}

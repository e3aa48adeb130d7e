// Package decoder reads fixed-offset packet fields out of hex dump blocks.
//
// Fields are described by data (FieldSpec), not code: each spec names the
// row it reads from, by declared offset, and a byte range inside that row.
// A field whose row is missing, or too short for the range, is left empty.
package decoder

import (
	"strconv"
	"strings"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Selector picks the row a field is read from.
type Selector struct {
	Offset uint16
	// AtLeast selects the first row whose offset is >= Offset and that
	// holds at least MinBytes bytes. Otherwise the row offset must equal
	// Offset, and the last such row in the block wins.
	AtLeast  bool
	MinBytes int
}

// Exact selects the row declared at offset.
func Exact(offset uint16) Selector {
	return Selector{Offset: offset}
}

// FirstFrom selects the first row at or after offset holding minBytes bytes.
func FirstFrom(offset uint16, minBytes int) Selector {
	return Selector{Offset: offset, AtLeast: true, MinBytes: minBytes}
}

func (s Selector) pick(block core.HexBlock) (core.HexRow, bool) {
	var (
		found core.HexRow
		ok    bool
	)
	for _, row := range block {
		if s.AtLeast {
			if row.Offset >= s.Offset && row.Len() >= s.MinBytes {
				return row, true
			}
			continue
		}
		if row.Offset == s.Offset {
			found, ok = row, true
		}
	}
	return found, ok
}

// FieldSpec locates one field: Start and Length are in bytes, counted from
// the selected row's declared offset.
type FieldSpec struct {
	Name     string
	Selector Selector
	Start    int
	Length   int
}

// DefaultFields assumes a 20 byte IPv4 header followed by an 8 byte UDP
// header, so the application header starts in the first row at or past
// 0x20. IP options are not accounted for.
var DefaultFields = []FieldSpec{
	{Name: core.FieldIPID, Selector: Exact(0x0000), Start: 4, Length: 2},
	{Name: core.FieldIPChecksum, Selector: Exact(0x0000), Start: 10, Length: 2},
	// UDP header occupies bytes 4..11 of the 0x0010 row; checksum is its last word.
	{Name: core.FieldUDPChecksum, Selector: Exact(0x0010), Start: 10, Length: 2},
	{Name: core.FieldAppTimestamp, Selector: FirstFrom(0x0020, 8), Start: 0, Length: 4},
	{Name: core.FieldAppSequence, Selector: FirstFrom(0x0020, 8), Start: 4, Length: 4},
}

// Decoder decodes hex blocks against a field table.
type Decoder struct {
	fields []FieldSpec
}

// New creates a decoder. A nil table means DefaultFields.
func New(fields []FieldSpec) *Decoder {
	if fields == nil {
		fields = DefaultFields
	}
	return &Decoder{fields: fields}
}

// Fields returns the decoder's table.
func (d *Decoder) Fields() []FieldSpec {
	return d.fields
}

// Decode computes every field of the table. Every name in the table is
// present in the result, possibly with an empty value.
func (d *Decoder) Decode(block core.HexBlock) core.Fields {
	out := make(core.Fields, len(d.fields))
	for _, spec := range d.fields {
		out[spec.Name] = decodeField(block, spec)
	}
	return out
}

func decodeField(block core.HexBlock, spec FieldSpec) core.FieldValue {
	row, ok := spec.Selector.pick(block)
	if !ok {
		return core.FieldValue{}
	}
	from, to := 2*spec.Start, 2*(spec.Start+spec.Length)
	if spec.Length <= 0 || len(row.Data) < to {
		return core.FieldValue{}
	}
	return valueOf(row.Data[from:to])
}

// valueOf renders hex digits as a FieldValue. Digits that do not parse keep
// their hex form and get no decimal value.
func valueOf(digits string) core.FieldValue {
	v := core.FieldValue{Hex: FormatBytes(digits)}
	if n, err := strconv.ParseUint(digits, 16, 64); err == nil {
		v.Dec = core.SomeUint(n)
	}
	return v
}

// FormatBytes splits hex digits into space separated pairs: "aabb" -> "aa bb".
func FormatBytes(digits string) string {
	if len(digits) <= 2 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 2
		if end > len(digits) {
			end = len(digits)
		}
		b.WriteString(digits[i:end])
	}
	return b.String()
}

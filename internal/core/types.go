// Package core defines core types with zero external dependencies.
package core

import "strconv"

// LineKind tags a classified log line.
type LineKind uint8

const (
	KindOther LineKind = iota
	KindMcs
	KindFlowHeader
	KindHexRow
)

func (k LineKind) String() string {
	switch k {
	case KindMcs:
		return "mcs"
	case KindFlowHeader:
		return "flow_header"
	case KindHexRow:
		return "hex_row"
	default:
		return "other"
	}
}

// NullUint is an unsigned value that may be absent.
// Absent is "unknown" and renders as an empty cell, never as zero.
type NullUint struct {
	Value uint64
	Valid bool
}

// SomeUint returns a present NullUint.
func SomeUint(v uint64) NullUint {
	return NullUint{Value: v, Valid: true}
}

// String returns the decimal form, or "" when absent.
func (n NullUint) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatUint(n.Value, 10)
}

// FlowHeader is the addressing tuple announced by an [IP] log line.
// Addresses and ports are kept verbatim; they are not validated.
type FlowHeader struct {
	LogTimestamp string // HH:MM:SS.mmm
	SrcIP        string
	SrcPort      string
	DstIP        string
	DstPort      string
}

// HexRow is one row of a hex memory dump.
type HexRow struct {
	Offset uint16
	Data   string // hex text with all whitespace removed, original casing
}

// Len returns the number of complete bytes (hex digit pairs) in the row.
func (r HexRow) Len() int {
	return len(r.Data) / 2
}

// HexBlock is the ordered run of rows that follows one flow header.
type HexBlock []HexRow

// Line is the tagged result of classifying one log line.
// Only the member matching Kind is populated.
type Line struct {
	Number int // 1-based position in the input
	Kind   LineKind
	Mcs    uint64
	Flow   FlowHeader
	Row    HexRow
}

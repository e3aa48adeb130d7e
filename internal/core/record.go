package core

// Decoded field names.
const (
	FieldIPID         = "ip_id"
	FieldIPChecksum   = "ip_checksum"
	FieldUDPChecksum  = "udp_checksum"
	FieldAppTimestamp = "app_timestamp"
	FieldAppSequence  = "app_sequence"
)

// FieldValue is one decoded numeric field, reported twice.
type FieldValue struct {
	Hex string   // bytes as space-separated hex pairs, e.g. "aa bb"
	Dec NullUint // unsigned big-endian interpretation of Hex
}

// Empty reports whether nothing could be decoded for the field.
func (v FieldValue) Empty() bool {
	return v.Hex == ""
}

// Fields maps field names to decoded values. Missing names are empty.
type Fields map[string]FieldValue

// Get returns the value for name, or the empty value.
func (f Fields) Get(name string) FieldValue {
	if f == nil {
		return FieldValue{}
	}
	return f[name]
}

// Inspection holds header values read back from the reconstructed datagram.
// Informational only; nothing here is validated.
type Inspection struct {
	Version     NullUint
	TotalLength NullUint
	TTL         NullUint
	Protocol    NullUint
	UDPLength   NullUint
}

// OutputRecord is one row of the result table, emitted per flow header.
type OutputRecord struct {
	Line       int // line number of the flow header
	Flow       FlowHeader
	MCS        NullUint
	Fields     Fields
	Inspection *Inspection
}

package core

// Column is one output column: its header text and how to render a record.
type Column struct {
	Header string
	Value  func(r *OutputRecord) string
}

func hexOf(name string) func(*OutputRecord) string {
	return func(r *OutputRecord) string { return r.Fields.Get(name).Hex }
}

func decOf(name string) func(*OutputRecord) string {
	return func(r *OutputRecord) string { return r.Fields.Get(name).Dec.String() }
}

// ClassicColumns is the fixed layout consumed by the throughput tooling.
var ClassicColumns = []Column{
	{"Timestamp_log", func(r *OutputRecord) string { return r.Flow.LogTimestamp }},
	{"Source IP", func(r *OutputRecord) string { return r.Flow.SrcIP }},
	{"Destination IP", func(r *OutputRecord) string { return r.Flow.DstIP }},
	{"IP_ID_hex", hexOf(FieldIPID)},
	{"IP_ID_dec", decOf(FieldIPID)},
	{"IP_Checksum_hex", hexOf(FieldIPChecksum)},
	{"IP_Checksum_dec", decOf(FieldIPChecksum)},
	{"Source Port", func(r *OutputRecord) string { return r.Flow.SrcPort }},
	{"Destination Port", func(r *OutputRecord) string { return r.Flow.DstPort }},
	{"UDP_Checksum_hex", hexOf(FieldUDPChecksum)},
	{"UDP_Checksum_dec", decOf(FieldUDPChecksum)},
	{"MCS", func(r *OutputRecord) string { return r.MCS.String() }},
	{"Timestamp_iperf", decOf(FieldAppTimestamp)},
	{"Timestamp_iperf_hex", hexOf(FieldAppTimestamp)},
	{"Sequence_num_iperf", decOf(FieldAppSequence)},
	{"Sequence_num_iperf_hex", hexOf(FieldAppSequence)},
}

func inspected(get func(*Inspection) NullUint) func(*OutputRecord) string {
	return func(r *OutputRecord) string {
		if r.Inspection == nil {
			return ""
		}
		return get(r.Inspection).String()
	}
}

// InspectionColumns are appended when datagram inspection is enabled.
var InspectionColumns = []Column{
	{"IP_Version", inspected(func(i *Inspection) NullUint { return i.Version })},
	{"IP_Total_Length", inspected(func(i *Inspection) NullUint { return i.TotalLength })},
	{"IP_TTL", inspected(func(i *Inspection) NullUint { return i.TTL })},
	{"IP_Protocol", inspected(func(i *Inspection) NullUint { return i.Protocol })},
	{"UDP_Length", inspected(func(i *Inspection) NullUint { return i.UDPLength })},
}

// Layout returns the column set for a run.
func Layout(inspect bool) []Column {
	if !inspect {
		return ClassicColumns
	}
	cols := make([]Column, 0, len(ClassicColumns)+len(InspectionColumns))
	cols = append(cols, ClassicColumns...)
	return append(cols, InspectionColumns...)
}

// Headers returns the header row for cols.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Row renders r against cols.
func Row(cols []Column, r *OutputRecord) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Value(r)
	}
	return out
}

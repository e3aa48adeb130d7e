package pipeline

import (
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Stats counts what one run saw and emitted.
type Stats struct {
	Lines       uint64
	Mcs         uint64
	FlowHeaders uint64
	HexRows     uint64
	Other       uint64
	Records     uint64
	EmptyFields map[string]uint64
}

func newStats() Stats {
	return Stats{EmptyFields: make(map[string]uint64)}
}

func (s *Stats) countLine(kind core.LineKind) {
	s.Lines++
	switch kind {
	case core.KindMcs:
		s.Mcs++
	case core.KindFlowHeader:
		s.FlowHeaders++
	case core.KindHexRow:
		s.HexRows++
	default:
		s.Other++
	}
}

// Observer receives per-line and per-record events, e.g. for metrics export.
type Observer interface {
	ObserveLine(kind core.LineKind)
	ObserveRecord(rec *core.OutputRecord)
}

// Package pipeline implements the single-pass log extraction engine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/classifier"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/decoder"
)

// RecordWriter receives records in encounter order.
type RecordWriter interface {
	Write(ctx context.Context, rec *core.OutputRecord) error
}

// Config contains pipeline configuration.
type Config struct {
	Decoder       *decoder.Decoder // nil = default field table
	Inspect       bool             // attach gopacket header inspection
	ProgressEvery int              // log progress every N records, 0 = off
	Observer      Observer         // optional
}

// Pipeline extracts one record per flow header line of a log.
type Pipeline struct {
	decoder       *decoder.Decoder
	inspect       bool
	progressEvery int
	observer      Observer
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Decoder == nil {
		cfg.Decoder = decoder.New(nil)
	}
	return &Pipeline{
		decoder:       cfg.Decoder,
		inspect:       cfg.Inspect,
		progressEvery: cfg.ProgressEvery,
		observer:      cfg.Observer,
	}
}

// Run folds over every line of src, writing records to w as they complete.
// The MCS value lives only for the duration of the call. Cancellation is
// checked between records.
func (p *Pipeline) Run(ctx context.Context, src LineSource, w RecordWriter) (Stats, error) {
	stats := newStats()
	in := &lineStream{src: src, onLine: func(l core.Line) {
		stats.countLine(l.Kind)
		if p.observer != nil {
			p.observer.ObserveLine(l.Kind)
		}
	}}

	var mcs core.NullUint
	for {
		line, ok := in.next()
		if !ok {
			break
		}

		switch line.Kind {
		case core.KindMcs:
			mcs = core.SomeUint(line.Mcs)

		case core.KindFlowHeader:
			block := in.block()
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			rec := p.assemble(line, block, mcs)
			if err := w.Write(ctx, rec); err != nil {
				return stats, fmt.Errorf("write record for line %d: %w", line.Number, err)
			}
			p.recordEmitted(&stats, rec)
		}
	}

	if err := src.Err(); err != nil {
		return stats, fmt.Errorf("%w: line %d: %w", core.ErrInputUnreadable, in.number+1, err)
	}
	return stats, nil
}

func (p *Pipeline) assemble(header core.Line, block core.HexBlock, mcs core.NullUint) *core.OutputRecord {
	rec := &core.OutputRecord{
		Line:   header.Number,
		Flow:   header.Flow,
		MCS:    mcs,
		Fields: p.decoder.Decode(block),
	}
	if p.inspect {
		rec.Inspection = decoder.Inspect(block)
	}
	return rec
}

func (p *Pipeline) recordEmitted(stats *Stats, rec *core.OutputRecord) {
	stats.Records++
	for name, v := range rec.Fields {
		if v.Empty() {
			stats.EmptyFields[name]++
		}
	}
	if p.observer != nil {
		p.observer.ObserveRecord(rec)
	}
	if p.progressEvery > 0 && stats.Records%uint64(p.progressEvery) == 0 {
		slog.Info("extraction progress", "line", rec.Line, "records", stats.Records)
	}
}

// lineStream classifies lines as they are read and can hold back one
// already classified line, so a hex block can end without re-reading.
type lineStream struct {
	src    LineSource
	number int
	held   *core.Line
	onLine func(core.Line)
}

func (s *lineStream) next() (core.Line, bool) {
	if s.held != nil {
		l := *s.held
		s.held = nil
		return l, true
	}
	if !s.src.Scan() {
		return core.Line{}, false
	}
	s.number++
	l := classifier.Classify(s.src.Text())
	l.Number = s.number
	if s.onLine != nil {
		s.onLine(l)
	}
	return l, true
}

// block consumes the hex rows directly after a flow header. The first line
// that is not a hex row is held for the caller.
func (s *lineStream) block() core.HexBlock {
	var rows core.HexBlock
	for {
		l, ok := s.next()
		if !ok {
			return rows
		}
		if l.Kind != core.KindHexRow {
			s.held = &l
			return rows
		}
		rows = append(rows, l.Row)
	}
}

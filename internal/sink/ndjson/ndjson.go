// Package ndjson writes one JSON object per record, one file per experiment.
package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

// Name is the registry name.
const Name = "ndjson"

func init() {
	sink.Register(Name, func(opts sink.Options) (sink.Sink, error) {
		return New(opts), nil
	})
}

// Sink writes <dir>/<id>.ndjson. Keys are the CSV column headers; empty
// cells are omitted.
type Sink struct {
	path    string
	dir     string
	columns []core.Column

	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// New creates an NDJSON sink.
func New(opts sink.Options) *Sink {
	return &Sink{
		path:    filepath.Join(opts.Dir, opts.ID+".ndjson"),
		dir:     opts.Dir,
		columns: opts.Columns(),
	}
}

func (s *Sink) Name() string { return Name }

// Path returns the output file.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Open(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	s.file = f
	s.buf = bufio.NewWriter(f)
	s.enc = json.NewEncoder(s.buf)
	return nil
}

func (s *Sink) Write(_ context.Context, rec *core.OutputRecord) error {
	if s.enc == nil {
		return core.ErrSinkNotOpen
	}
	return s.enc.Encode(sink.Document(s.columns, rec))
}

func (s *Sink) Close(_ context.Context) error {
	if s.file == nil {
		return nil
	}
	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	s.file, s.buf, s.enc = nil, nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", s.path, flushErr)
	}
	return closeErr
}

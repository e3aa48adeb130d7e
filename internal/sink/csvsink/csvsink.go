// Package csvsink writes records as a CSV table, one file per experiment.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

// Name is the registry name.
const Name = "csv"

func init() {
	sink.Register(Name, func(opts sink.Options) (sink.Sink, error) {
		return New(opts), nil
	})
}

// Sink writes <dir>/<id>.csv with a fixed header row.
type Sink struct {
	path    string
	dir     string
	columns []core.Column

	file *os.File
	w    *csv.Writer
}

// New creates a CSV sink. Nothing touches the filesystem until Open.
func New(opts sink.Options) *Sink {
	return &Sink{
		path:    filepath.Join(opts.Dir, opts.ID+".csv"),
		dir:     opts.Dir,
		columns: opts.Columns(),
	}
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return Name }

// Path returns the output file.
func (s *Sink) Path() string { return s.path }

// Open creates the output directory and file and writes the header row.
// An existing file is truncated.
func (s *Sink) Open(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	s.file = f
	s.w = csv.NewWriter(f)
	if err := s.w.Write(core.Headers(s.columns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	slog.Debug("csv sink opened", "path", s.path, "columns", len(s.columns))
	return nil
}

// Write appends one row. Rows are buffered; Close flushes them.
func (s *Sink) Write(_ context.Context, rec *core.OutputRecord) error {
	if s.w == nil {
		return core.ErrSinkNotOpen
	}
	return s.w.Write(core.Row(s.columns, rec))
}

// Close flushes pending rows and closes the file.
func (s *Sink) Close(_ context.Context) error {
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	flushErr := s.w.Error()
	closeErr := s.file.Close()
	s.file, s.w = nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", s.path, flushErr)
	}
	return closeErr
}

// Package nats publishes every record to a NATS subject as it is extracted.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

// Name is the registry name.
const Name = "nats"

func init() {
	sink.Register(Name, func(opts sink.Options) (sink.Sink, error) {
		return New(opts), nil
	})
}

type publisher interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// Sink publishes to <subject>.<id>. Payloads are the record document
// encoded as JSON or as a protobuf google.protobuf.Struct.
type Sink struct {
	cfg     config.NATSConfig
	subject string
	columns []core.Column

	connect func() (publisher, error)
	pub     publisher
	count   int
}

// New creates a NATS sink. The connection is made in Open.
func New(opts sink.Options) *Sink {
	s := &Sink{
		cfg:     opts.Settings.NATS,
		subject: Subject(opts.Settings.NATS.Subject, opts.ID),
		columns: opts.Columns(),
	}
	s.connect = func() (publisher, error) {
		nc, err := nats.Connect(s.cfg.URL, nats.Name("amarilog"))
		if err != nil {
			return nil, err
		}
		return nc, nil
	}
	return s
}

// Subject appends id to base as one subject token. Characters NATS treats
// as separators or wildcards are replaced.
func Subject(base, id string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
	if base == "" {
		return token
	}
	return base + "." + token
}

func (s *Sink) Name() string { return Name }

func (s *Sink) Open(_ context.Context) error {
	pub, err := s.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to nats at %s: %w", s.cfg.URL, err)
	}
	s.pub = pub
	slog.Info("connected to nats", "url", s.cfg.URL, "subject", s.subject, "encoding", s.cfg.Encoding)
	return nil
}

func (s *Sink) Write(_ context.Context, rec *core.OutputRecord) error {
	if s.pub == nil {
		return core.ErrSinkNotOpen
	}
	data, err := Encode(s.cfg.Encoding, sink.Document(s.columns, rec))
	if err != nil {
		return err
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	s.count++
	return nil
}

// Close drains the connection so every published record is delivered.
func (s *Sink) Close(_ context.Context) error {
	if s.pub == nil {
		return nil
	}
	err := s.pub.Drain()
	s.pub = nil
	slog.Info("nats connection drained", "published", s.count)
	return err
}

// Encode serializes a record document.
func Encode(encoding string, doc map[string]any) ([]byte, error) {
	switch encoding {
	case "protobuf":
		st, err := structpb.NewStruct(doc)
		if err != nil {
			return nil, fmt.Errorf("build protobuf struct: %w", err)
		}
		return proto.Marshal(st)
	case "json", "":
		return json.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: nats encoding %q", core.ErrConfigInvalid, encoding)
	}
}

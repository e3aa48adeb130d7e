// Package clickhouse inserts records into a ClickHouse table in batches.
package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

// Name is the registry name.
const Name = "clickhouse"

func init() {
	sink.Register(Name, func(opts sink.Options) (sink.Sink, error) {
		return New(opts)
	})
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fieldNames is the decoded field order of the table.
var fieldNames = []string{
	core.FieldIPID,
	core.FieldIPChecksum,
	core.FieldUDPChecksum,
	core.FieldAppTimestamp,
	core.FieldAppSequence,
}

type batch interface {
	Append(v ...any) error
	Send() error
}

type client interface {
	Exec(ctx context.Context, query string, args ...any) error
	Prepare(ctx context.Context, query string) (batch, error)
	Close() error
}

// conn adapts a driver connection to client.
type conn struct {
	driver.Conn
}

func (c conn) Prepare(ctx context.Context, query string) (batch, error) {
	return c.PrepareBatch(ctx, query)
}

// Sink appends every record of a run, tagged with the experiment id, to
// one table. Rows are sent every BatchSize records and on Close.
type Sink struct {
	cfg config.ClickHouseConfig
	id  string

	dial    func(ctx context.Context) (client, error)
	client  client
	batch   batch
	pending int
	sent    int
}

// New creates a ClickHouse sink. The connection is made in Open.
func New(opts sink.Options) (*Sink, error) {
	cfg := opts.Settings.ClickHouse
	if !identPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: clickhouse table name %q", core.ErrConfigInvalid, cfg.Table)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10000
	}
	s := &Sink{cfg: cfg, id: opts.ID}
	s.dial = s.connect
	return s, nil
}

func (s *Sink) Name() string { return Name }

func (s *Sink) connect(ctx context.Context) (client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	c, err := ch.Open(&ch.Options{
		Addr: []string{addr},
		Auth: ch.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		Compression: &ch.Compression{
			Method: ch.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to ping clickhouse at %s: %w", addr, err)
	}
	return conn{c}, nil
}

// Open connects, ensures the table exists and prepares the first batch.
func (s *Sink) Open(ctx context.Context) error {
	c, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	s.client = c

	if err := c.Exec(ctx, createTableStatement(s.cfg.Table)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	slog.Info("connected to clickhouse", "host", s.cfg.Host, "table", s.cfg.Table)
	return s.prepare(ctx)
}

func (s *Sink) prepare(ctx context.Context) error {
	b, err := s.client.Prepare(ctx, "INSERT INTO "+s.cfg.Table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	s.batch = b
	s.pending = 0
	return nil
}

func (s *Sink) Write(ctx context.Context, rec *core.OutputRecord) error {
	if s.batch == nil {
		return core.ErrSinkNotOpen
	}
	if err := s.batch.Append(rowValues(s.id, rec)...); err != nil {
		return fmt.Errorf("failed to append record to batch: %w", err)
	}
	s.pending++
	if s.pending < s.cfg.BatchSize {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	return s.prepare(ctx)
}

func (s *Sink) flush() error {
	if s.pending == 0 {
		return nil
	}
	if err := s.batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	s.sent += s.pending
	slog.Debug("sent clickhouse batch", "rows", s.pending, "total", s.sent)
	s.pending = 0
	return nil
}

// Close sends the last partial batch and closes the connection.
func (s *Sink) Close(_ context.Context) error {
	if s.client == nil {
		return nil
	}
	var err error
	if s.batch != nil {
		err = s.flush()
	}
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	s.client, s.batch = nil, nil
	slog.Info("clickhouse sink closed", "rows", s.sent)
	return err
}

func createTableStatement(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString(`    ExperimentID  String,
    Line          UInt64,
    TimestampLog  String,
    SrcIP         String,
    SrcPort       String,
    DstIP         String,
    DstPort       String,
    MCS           Nullable(UInt64),
`)
	for _, name := range fieldNames {
		fmt.Fprintf(&b, "    %s_hex  Nullable(String),\n", name)
		fmt.Fprintf(&b, "    %s_dec  Nullable(UInt64),\n", name)
	}
	b.WriteString(`    IPVersion     Nullable(UInt64),
    IPTotalLength Nullable(UInt64),
    IPTTL         Nullable(UInt64),
    IPProtocol    Nullable(UInt64),
    UDPLength     Nullable(UInt64)
) ENGINE = MergeTree()
ORDER BY (ExperimentID, Line);
`)
	return b.String()
}

func nullable(n core.NullUint) *uint64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// rowValues follows the column order of createTableStatement.
func rowValues(id string, rec *core.OutputRecord) []any {
	vals := []any{
		id,
		uint64(rec.Line),
		rec.Flow.LogTimestamp,
		rec.Flow.SrcIP,
		rec.Flow.SrcPort,
		rec.Flow.DstIP,
		rec.Flow.DstPort,
		nullable(rec.MCS),
	}
	for _, name := range fieldNames {
		v := rec.Fields.Get(name)
		vals = append(vals, nullableString(v.Hex), nullable(v.Dec))
	}
	ins := rec.Inspection
	if ins == nil {
		ins = &core.Inspection{}
	}
	return append(vals,
		nullable(ins.Version),
		nullable(ins.TotalLength),
		nullable(ins.TTL),
		nullable(ins.Protocol),
		nullable(ins.UDPLength),
	)
}

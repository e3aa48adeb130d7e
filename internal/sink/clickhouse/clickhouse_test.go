package clickhouse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

type fakeBatch struct {
	rows    [][]any
	sent    bool
	sendErr error
}

func (b *fakeBatch) Append(v ...any) error {
	b.rows = append(b.rows, v)
	return nil
}

func (b *fakeBatch) Send() error {
	b.sent = true
	return b.sendErr
}

type fakeClient struct {
	execs   []string
	batches []*fakeBatch
	closed  bool
	sendErr error
}

func (c *fakeClient) Exec(_ context.Context, query string, _ ...any) error {
	c.execs = append(c.execs, query)
	return nil
}

func (c *fakeClient) Prepare(_ context.Context, query string) (batch, error) {
	b := &fakeBatch{sendErr: c.sendErr}
	c.batches = append(c.batches, b)
	return b, nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func newTestSink(t *testing.T, batchSize int) (*Sink, *fakeClient) {
	t.Helper()
	s, err := New(sink.Options{
		ID: "exp-1",
		Settings: config.SinksConfig{
			ClickHouse: config.ClickHouseConfig{Table: "ue_packets", BatchSize: batchSize},
		},
	})
	require.NoError(t, err)
	fc := &fakeClient{}
	s.dial = func(context.Context) (client, error) { return fc, nil }
	return s, fc
}

func TestBatchesAndFlushOnClose(t *testing.T) {
	s, fc := newTestSink(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Open(ctx))
	require.Len(t, fc.execs, 1)
	assert.Contains(t, fc.execs[0], "CREATE TABLE IF NOT EXISTS ue_packets")

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Write(ctx, &core.OutputRecord{Line: i}))
	}
	require.NoError(t, s.Close(ctx))

	require.Len(t, fc.batches, 2)
	assert.True(t, fc.batches[0].sent)
	assert.Len(t, fc.batches[0].rows, 2)
	assert.True(t, fc.batches[1].sent)
	assert.Len(t, fc.batches[1].rows, 1)
	assert.True(t, fc.closed)
}

func TestRowValuesMatchTable(t *testing.T) {
	rec := &core.OutputRecord{
		Line: 7,
		Flow: core.FlowHeader{LogTimestamp: "12:00:01.500", SrcIP: "10.0.0.1", SrcPort: "5201"},
		MCS:  core.SomeUint(9),
		Fields: core.Fields{
			core.FieldIPID: {Hex: "aa bb", Dec: core.SomeUint(43707)},
		},
	}
	vals := rowValues("exp-1", rec)

	columns := 0
	for _, line := range strings.Split(createTableStatement("t"), "\n") {
		if strings.HasPrefix(line, "    ") {
			columns++
		}
	}
	assert.Equal(t, 23, columns)
	assert.Len(t, vals, columns)

	assert.Equal(t, "exp-1", vals[0])
	assert.Equal(t, uint64(7), vals[1])
	require.NotNil(t, vals[7].(*uint64))
	assert.Equal(t, uint64(9), *vals[7].(*uint64))
	assert.Equal(t, "aa bb", *vals[8].(*string))
	assert.Equal(t, uint64(43707), *vals[9].(*uint64))
	assert.Nil(t, vals[10].(*string))
	assert.Nil(t, vals[len(vals)-1].(*uint64))
}

func TestSendError(t *testing.T) {
	s, fc := newTestSink(t, 1)
	fc.sendErr = errors.New("too many parts")
	ctx := context.Background()

	require.NoError(t, s.Open(ctx))
	err := s.Write(ctx, &core.OutputRecord{Line: 1})
	assert.ErrorContains(t, err, "too many parts")
}

func TestInvalidTable(t *testing.T) {
	_, err := New(sink.Options{Settings: config.SinksConfig{
		ClickHouse: config.ClickHouseConfig{Table: "x; DROP TABLE y"},
	}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestWriteBeforeOpen(t *testing.T) {
	s, _ := newTestSink(t, 10)
	assert.ErrorIs(t, s.Write(context.Background(), &core.OutputRecord{}), core.ErrSinkNotOpen)
	assert.NoError(t, s.Close(context.Background()))
}

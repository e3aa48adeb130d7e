package metrics

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

func sampleRecord(mcs core.NullUint) *core.OutputRecord {
	return &core.OutputRecord{
		MCS: mcs,
		Fields: core.Fields{
			core.FieldIPID:        {Hex: "aa bb", Dec: core.SomeUint(43707)},
			core.FieldAppSequence: {},
		},
	}
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(prometheus.Labels{"experiment": "exp-1"})

	c.ObserveLine(core.KindMcs)
	c.ObserveLine(core.KindFlowHeader)
	c.ObserveLine(core.KindHexRow)
	c.ObserveLine(core.KindHexRow)
	c.ObserveRecord(sampleRecord(core.SomeUint(9)))
	c.ObserveRecord(sampleRecord(core.NullUint{}))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.LinesTotal.WithLabelValues("hex_row")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LinesTotal.WithLabelValues("mcs")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RecordsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.EmptyFieldsTotal.WithLabelValues(core.FieldAppSequence)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.EmptyFieldsTotal.WithLabelValues(core.FieldIPID)))
	assert.Equal(t, 9.0, testutil.ToFloat64(c.MCSLast))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector(nil)
	b := NewCollector(nil)
	a.ObserveRecord(sampleRecord(core.NullUint{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RecordsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsTotal))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector(prometheus.Labels{"experiment": "exp-1"})
	c.ObserveLine(core.KindOther)
	c.ObserveRecord(sampleRecord(core.SomeUint(3)))

	path := filepath.Join(t.TempDir(), "amarilog.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `amarilog_records_total{experiment="exp-1"} 1`)
	assert.Contains(t, string(data), `amarilog_lines_total{experiment="exp-1",kind="other"} 1`)
}

func TestWriteTextfileBadDir(t *testing.T) {
	c := NewCollector(nil)
	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}

func TestServerServesRegistry(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveRecord(sampleRecord(core.NullUint{}))

	s := NewServer("127.0.0.1:0", "", c.Registry())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "amarilog_records_total 1")
}

func TestServerStopBeforeStart(t *testing.T) {
	s := NewServer(":0", "/m", prometheus.NewRegistry())
	assert.Empty(t, s.Addr())
	assert.NoError(t, s.Stop(context.Background()))
}

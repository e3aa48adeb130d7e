// Package summary computes per-port throughput from an extracted CSV and
// compares it with the bandwidth requested by the experiment.
package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Packet is one extracted record reduced to what throughput needs.
type Packet struct {
	At      time.Duration // time of day
	DstPort int
}

// Params controls the computation.
type Params struct {
	PacketSize int // bytes counted per packet
	PortMin    int
	PortMax    int
}

// DefaultParams matches iperf UDP defaults and the 52XX user port range.
var DefaultParams = Params{PacketSize: 1470, PortMin: 5200, PortMax: 5299}

// Window is one 1 s bin. MBps is NaN when the bin does not overlap the
// experiment.
type Window struct {
	Start time.Duration
	MBps  float64
}

// PortSeries is the throughput of one destination port.
type PortSeries struct {
	Port      int
	Windows   []Window
	Mean      float64
	Requested float64 // MBps, 0 if unknown
	HasReq    bool
}

// Report is the result for one experiment.
type Report struct {
	Start, End     time.Duration
	Ports          []PortSeries
	TotalMean      float64
	TotalRequested float64
}

// ParseTimestamp parses an HH:MM:SS.mmm log timestamp as a time of day.
func ParseTimestamp(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05.999999999", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()), nil
}

// ReadPackets reads an extractor CSV. Columns are found by header name, so
// inspection columns or reordering do not matter. Rows whose destination
// port is not an integer are skipped.
func ReadPackets(r io.Reader) ([]Packet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %w", core.ErrInputUnreadable, err)
	}
	tsCol, portCol := -1, -1
	for i, h := range header {
		switch h {
		case "Timestamp_log":
			tsCol = i
		case "Destination Port":
			portCol = i
		}
	}
	if tsCol < 0 || portCol < 0 {
		return nil, fmt.Errorf("%w: csv lacks Timestamp_log or Destination Port column", core.ErrInputUnreadable)
	}

	var packets []Packet
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
		}
		if len(rec) <= tsCol || len(rec) <= portCol {
			continue
		}
		at, err := ParseTimestamp(rec[tsCol])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad timestamp %q", core.ErrInputUnreadable, row, rec[tsCol])
		}
		port, err := strconv.Atoi(rec[portCol])
		if err != nil {
			port = -1
		}
		packets = append(packets, Packet{At: at, DstPort: port})
	}
	return packets, nil
}

// Compute bins user-port packets into 1 s windows spanning
// [floor(first), ceil(last)) over all packets. Each window's rate is
// corrected for the part of the second the experiment actually covered,
// and leading zero windows are trimmed per port. requested maps ports to
// MBps and may be nil.
func Compute(packets []Packet, p Params, requested map[int]float64) (*Report, error) {
	if len(packets) == 0 {
		return nil, core.ErrNoSummaryData
	}
	tMin, tMax := packets[0].At, packets[0].At
	byPort := make(map[int][]time.Duration)
	for _, pk := range packets {
		tMin = min(tMin, pk.At)
		tMax = max(tMax, pk.At)
		if pk.DstPort >= p.PortMin && pk.DstPort <= p.PortMax {
			byPort[pk.DstPort] = append(byPort[pk.DstPort], pk.At)
		}
	}
	if len(byPort) == 0 {
		return nil, core.ErrNoSummaryData
	}

	binStart := tMin.Truncate(time.Second)
	binEnd := tMax.Truncate(time.Second)
	if binEnd < tMax {
		binEnd += time.Second
	}

	ports := make([]int, 0, len(byPort))
	for port := range byPort {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	rep := &Report{Start: tMin, End: tMax}
	for _, port := range ports {
		s := PortSeries{Port: port}
		s.Windows = trimLeadingZeros(windows(byPort[port], binStart, binEnd, tMin, tMax, p.PacketSize))
		s.Mean = mean(s.Windows)
		if req, ok := requested[port]; ok {
			s.Requested, s.HasReq = req, true
			rep.TotalRequested += req
		}
		rep.TotalMean += s.Mean
		rep.Ports = append(rep.Ports, s)
	}
	return rep, nil
}

func windows(times []time.Duration, binStart, binEnd, tMin, tMax time.Duration, packetSize int) []Window {
	n := int((binEnd - binStart) / time.Second)
	if n <= 0 {
		return nil
	}
	counts := make([]int, n)
	for _, at := range times {
		// bins are closed on the left; a packet exactly at binEnd falls outside
		if at < binStart || at >= binEnd {
			continue
		}
		counts[int((at-binStart)/time.Second)]++
	}

	out := make([]Window, n)
	for i := range out {
		bs := binStart + time.Duration(i)*time.Second
		occupancy := (min(bs+time.Second, tMax) - max(bs, tMin)).Seconds()
		bits := float64(counts[i] * packetSize * 8)
		mbps := math.NaN()
		if occupancy > 0 {
			mbps = bits / occupancy / 8 / 1e6
		}
		out[i] = Window{Start: bs, MBps: mbps}
	}
	return out
}

func trimLeadingZeros(ws []Window) []Window {
	for i, w := range ws {
		if w.MBps > 0 {
			return ws[i:]
		}
	}
	return ws
}

// mean skips NaN windows; it is NaN when no window has a value.
func mean(ws []Window) float64 {
	var sum float64
	var n int
	for _, w := range ws {
		if math.IsNaN(w.MBps) {
			continue
		}
		sum += w.MBps
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

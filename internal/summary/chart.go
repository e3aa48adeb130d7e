package summary

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Charts writes <dir>/<name>_throughput.png and, when there is any finite
// value, <dir>/<name>_throughput_zoom.png with the y axis limited to the
// 5th-95th percentile band plus a 10% margin. It returns the files written.
func Charts(rep *Report, dir, name string) ([]string, error) {
	full := filepath.Join(dir, name+"_throughput.png")
	if err := saveChart(rep, fmt.Sprintf("Throughput per second - %s", name), full, nil); err != nil {
		return nil, err
	}
	written := []string{full}

	values := finiteValues(rep)
	if len(values) == 0 {
		return written, nil
	}
	low, high := percentile(values, 5), percentile(values, 95)
	margin := (high - low) * 0.1
	var limits *[2]float64
	if low-margin < high+margin {
		limits = &[2]float64{low - margin, high + margin}
	}

	zoom := filepath.Join(dir, name+"_throughput_zoom.png")
	if err := saveChart(rep, fmt.Sprintf("Throughput zoom - %s", name), zoom, limits); err != nil {
		return written, err
	}
	return append(written, zoom), nil
}

func saveChart(rep *Report, title, path string, ylim *[2]float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Throughput (MBps)"
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "15:04:05",
		Time: func(t float64) time.Time {
			return time.Unix(int64(t), 0).UTC()
		},
	}
	p.Legend.Top = true

	var lines []interface{}
	for _, s := range rep.Ports {
		pts := make(plotter.XYs, 0, len(s.Windows))
		for _, w := range s.Windows {
			if math.IsNaN(w.MBps) || math.IsInf(w.MBps, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: w.Start.Seconds(), Y: w.MBps})
		}
		if len(pts) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("Port %d", s.Port), pts)
	}
	if len(lines) > 0 {
		if err := plotutil.AddLinePoints(p, lines...); err != nil {
			return fmt.Errorf("build chart: %w", err)
		}
	}

	if ylim != nil {
		p.Y.Min, p.Y.Max = ylim[0], ylim[1]
	}

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func finiteValues(rep *Report) []float64 {
	var out []float64
	for _, s := range rep.Ports {
		for _, w := range s.Windows {
			if !math.IsNaN(w.MBps) && !math.IsInf(w.MBps, 0) {
				out = append(out, w.MBps)
			}
		}
	}
	return out
}

// percentile interpolates linearly between closest ranks, (n-1)*q/100.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := float64(len(sorted)-1) * q / 100
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Package extractor runs one extraction: descriptor, log, sink and metrics
// wired around the pipeline.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/metrics"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/pipeline"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/sink"
)

// Result describes a finished run.
type Result struct {
	ID       string
	Sink     string
	Output   string // file written, empty for network sinks
	Stats    pipeline.Stats
	Duration time.Duration
}

type pathSink interface {
	Path() string
}

// Run extracts cfg.Input.LogFile into the configured sink. The descriptor
// and the log are both checked before the sink is opened, so a bad
// descriptor or a missing log never leaves an output file behind.
func Run(ctx context.Context, cfg *config.GlobalConfig, descriptorPath string) (*Result, error) {
	start := time.Now()

	desc, err := config.LoadDescriptor(descriptorPath, cfg.Output.PlaceholderID)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %s: %w", descriptorPath, err)
	}

	src, err := pipeline.OpenFile(cfg.Input.LogFile, cfg.Input.MaxLineBytes)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out, err := sink.New(cfg.Output.Sink, sink.Options{
		ID:       desc.ID,
		Dir:      cfg.Output.Dir,
		Inspect:  cfg.Output.Inspect,
		Settings: cfg.Sinks,
	})
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(prometheus.Labels{"experiment": desc.ID})
	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, collector.Registry())
		if err := srv.Start(ctx); err != nil {
			return nil, err
		}
		defer srv.Stop(context.Background())
	}

	slog.Info("starting extraction",
		"id", desc.ID,
		"log", src.Path(),
		"sink", out.Name(),
		"inspect", cfg.Output.Inspect,
	)

	if err := out.Open(ctx); err != nil {
		return nil, fmt.Errorf("open %s sink: %w", out.Name(), err)
	}

	p := pipeline.New(pipeline.Config{
		Inspect:       cfg.Output.Inspect,
		ProgressEvery: cfg.Progress.EveryRecords,
		Observer:      collector,
	})
	stats, runErr := p.Run(ctx, src, out)

	// the sink is closed even after a failed run so buffered rows and
	// connections are released
	if err := out.Close(context.Background()); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("close %s sink: %w", out.Name(), err))
	}
	if runErr != nil {
		return nil, runErr
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("metrics textfile not written", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	res := &Result{
		ID:       desc.ID,
		Sink:     out.Name(),
		Stats:    stats,
		Duration: time.Since(start),
	}
	if ps, ok := out.(pathSink); ok {
		res.Output = ps.Path()
	}

	slog.Info("extraction finished",
		"id", res.ID,
		"lines", stats.Lines,
		"flow_headers", stats.FlowHeaders,
		"hex_rows", stats.HexRows,
		"records", stats.Records,
		"duration", res.Duration,
	)
	for name, n := range stats.EmptyFields {
		slog.Debug("records with empty field", "field", name, "count", n)
	}
	return res, nil
}

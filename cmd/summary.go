package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/summary"
)

type summaryOptions struct {
	csvFile    string
	descriptor string
	outDir     string
	charts     bool
}

func newSummaryCmd(g *globals) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize per-port throughput of an extracted CSV",
		Long: `Bin user-port packets (destination ports 5200-5299 by default) of an
extracted CSV into 1 s windows and report mean throughput per port in MBps,
next to the rate requested by the iperf commands of the descriptor.

Examples:
  amarilog summary --csv out/exp-1.csv --descriptor request.json
  amarilog summary --csv out/exp-1.csv --out-dir charts/ --charts=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("charts") {
				opts.charts = g.cfg.Summary.Charts
			}
			if opts.outDir == "" {
				opts.outDir = g.cfg.Summary.ChartsDir
			}
			return runSummary(g.cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.csvFile, "csv", "", "extracted CSV file (required)")
	cmd.Flags().StringVar(&opts.descriptor, "descriptor", "", "experiment descriptor with iperf commands")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "chart directory (default: next to the CSV)")
	cmd.Flags().BoolVar(&opts.charts, "charts", true, "write PNG charts")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func runSummary(cfg *config.GlobalConfig, opts *summaryOptions, out io.Writer) error {
	f, err := os.Open(opts.csvFile)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}
	defer f.Close()

	packets, err := summary.ReadPackets(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.csvFile, err)
	}

	var requested map[int]float64
	if opts.descriptor != "" {
		desc, err := config.LoadDescriptor(opts.descriptor, cfg.Output.PlaceholderID)
		if err != nil {
			return err
		}
		requested = summary.RequestedBandwidth(desc)
	}

	name := strings.TrimSuffix(filepath.Base(opts.csvFile), filepath.Ext(opts.csvFile))
	rep, err := summary.Compute(packets, summary.Params{
		PacketSize: cfg.Summary.PacketSize,
		PortMin:    cfg.Summary.PortMin,
		PortMax:    cfg.Summary.PortMax,
	}, requested)
	if errors.Is(err, core.ErrNoSummaryData) {
		fmt.Fprintf(out, "Experiment '%s': no user ports %d-%d found.\n", name, cfg.Summary.PortMin, cfg.Summary.PortMax)
		return nil
	}
	if err != nil {
		return err
	}

	ports := make([]int, len(rep.Ports))
	for i, s := range rep.Ports {
		ports[i] = s.Port
	}

	if opts.charts {
		dir := opts.outDir
		if dir == "" {
			dir = filepath.Dir(opts.csvFile)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
		files, err := summary.Charts(rep, dir, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Experiment '%s': %d chart(s) saved in %s for ports %v.\n", name, len(files), dir, ports)
	}

	fmt.Fprintf(out, "Number of users: %d\n", len(rep.Ports))
	for _, s := range rep.Ports {
		req := ""
		if s.HasReq {
			req = fmt.Sprintf("Requested: %.2f MBps", s.Requested)
		}
		fmt.Fprintf(out, "Mean thr user %d: %.2f MBps  %s\n", s.Port, s.Mean, req)
	}
	fmt.Fprintf(out, "Total thr all users Mean: %.2f MBps    Requested: %.2f MBps\n", rep.TotalMean, rep.TotalRequested)
	return nil
}

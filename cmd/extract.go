package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/extractor"
)

type extractOptions struct {
	outputDir  string
	descriptor string
	logFile    string
	sink       string
	inspect    bool
}

func newExtractCmd(g *globals) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract per-packet fields from a UE log",
		Long: `Extract one record per [IP] flow line of a UE log.

The output is named after the "id" of the JSON (or YAML) experiment
descriptor, e.g. <output_dir>/<id>.csv. Runs stop cleanly on SIGINT/SIGTERM.

Examples:
  amarilog extract -o /data/out -d request.json
  amarilog extract -o /data/out -d request.json -l /tmp/ue0.log --inspect
  amarilog extract -d request.json --sink clickhouse -c amarilog.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			applyExtractFlags(cmd, g.cfg, opts)
			return runExtract(ctx, g.cfg, opts.descriptor, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory (config output.dir)")
	cmd.Flags().StringVarP(&opts.descriptor, "descriptor", "d", "", "experiment descriptor file (required)")
	cmd.Flags().StringVarP(&opts.logFile, "log", "l", "", "log file to read (config input.log_file)")
	cmd.Flags().StringVar(&opts.sink, "sink", "", "sink name: csv, ndjson, clickhouse, nats (config output.sink)")
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "add decoded IP/UDP header columns")
	cmd.MarkFlagRequired("descriptor")

	return cmd
}

// applyExtractFlags lets explicitly set flags override the configuration.
func applyExtractFlags(cmd *cobra.Command, cfg *config.GlobalConfig, opts *extractOptions) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if flags.Changed("log") {
		cfg.Input.LogFile = opts.logFile
	}
	if flags.Changed("sink") {
		cfg.Output.Sink = opts.sink
	}
	if flags.Changed("inspect") {
		cfg.Output.Inspect = opts.inspect
	}
}

func runExtract(ctx context.Context, cfg *config.GlobalConfig, descriptor string, out io.Writer) error {
	res, err := extractor.Run(ctx, cfg, descriptor)
	if err != nil {
		return err
	}
	if res.Output != "" {
		fmt.Fprintf(out, "Data saved to %s (%d records)\n", res.Output, res.Stats.Records)
	} else {
		fmt.Fprintf(out, "%d records sent to %s sink\n", res.Stats.Records, res.Sink)
	}
	return nil
}

// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/log"

	// sinks register themselves by name
	_ "github.com/DavidRicoCodes/AmarisoftAPI/internal/sink/clickhouse"
	_ "github.com/DavidRicoCodes/AmarisoftAPI/internal/sink/csvsink"
	_ "github.com/DavidRicoCodes/AmarisoftAPI/internal/sink/nats"
	_ "github.com/DavidRicoCodes/AmarisoftAPI/internal/sink/ndjson"
)

// globals holds what the root command resolves before any subcommand runs.
type globals struct {
	configFile string
	logLevel   string

	cfg       *config.GlobalConfig
	logCloser io.Closer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "amarilog",
		Short: "amarilog - packet metadata extraction from Amarisoft UE logs",
		Long: `amarilog turns Amarisoft UE/eNB text logs into per-packet tables.

It follows the MCS reported by the PHY layer, reads every [IP] flow line and
decodes IP identification, IP and UDP checksums and the iperf timing header
from the hex dump that follows it. Records go to CSV by default, or to
NDJSON, ClickHouse or NATS.

Companion commands split JSON blobs out of mixed logs, deduplicate JSON
arrays and summarize per-port throughput of an extracted CSV.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.logCloser != nil {
				return g.logCloser.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "",
		"config file path (defaults and AMARILOG_* env when empty)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "",
		"override log level (debug/info/warn/error)")

	rootCmd.AddCommand(newExtractCmd(g))
	rootCmd.AddCommand(newSplitCmd())
	rootCmd.AddCommand(newDedupeCmd())
	rootCmd.AddCommand(newSummaryCmd(g))
	rootCmd.AddCommand(newValidateCmd(g))

	return rootCmd
}

func (g *globals) init() error {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return fmt.Errorf("%w: %w", core.ErrConfigInvalid, err)
		}
	}
	closer, err := log.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	g.cfg = cfg
	g.logCloser = closer
	return nil
}

// Execute runs the command tree. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

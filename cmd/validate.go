package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/summary"
)

func newValidateCmd(g *globals) *cobra.Command {
	var descriptor string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an experiment descriptor",
		Long: `Parse an experiment descriptor (JSON or YAML) without reading any log, and
report the id the output would be named after.

File format is auto-detected from extension (.json, .yaml, .yml).

Examples:
  amarilog validate -d request.json
  amarilog validate -d request.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(descriptor, g.cfg.Output.PlaceholderID, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&descriptor, "descriptor", "d", "", "descriptor file to validate (required)")
	cmd.MarkFlagRequired("descriptor")

	return cmd
}

func runValidate(path, placeholder string, out io.Writer) error {
	desc, err := config.LoadDescriptor(path, placeholder)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}

	fmt.Fprintf(out, "VALID: descriptor id %q, %d command(s), %d iperf rate(s)\n",
		desc.ID,
		len(desc.Commands),
		len(summary.RequestedBandwidth(desc)),
	)
	if desc.ID == placeholder {
		fmt.Fprintf(out, "WARNING: no id in descriptor, output will be named %q\n", placeholder)
	}
	return nil
}

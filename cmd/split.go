package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/jsonblob"
)

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <input_log> <trace_output> <json_output>",
		Short: "Separate embedded JSON objects from a text log",
		Long: `Copy every line outside JSON objects to <trace_output> and every JSON
object, found by brace matching, to <json_output>, one blank line apart.

Braces inside JSON strings are counted like any other brace.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(args[0], args[1], args[2], cmd.OutOrStdout())
		},
	}
}

func runSplit(input, traceOut, jsonOut string, out io.Writer) error {
	n, err := jsonblob.SplitFile(input, traceOut, jsonOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Trace saved to %s, %d JSON blob(s) saved to %s\n", traceOut, n, jsonOut)
	return nil
}

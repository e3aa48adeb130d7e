package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/jsonblob"
)

func newDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe <json_file>",
		Short: "Remove duplicate objects from a JSON array file in place",
		Long: `Rewrite a JSON array keeping the first occurrence of every element.
Two elements are duplicates when they are equal ignoring object key order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(args[0], cmd.OutOrStdout())
		},
	}
}

func runDedupe(path string, out io.Writer) error {
	total, unique, err := jsonblob.DedupeFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Of %d original objects, %d unique remain.\n", total, unique)
	return nil
}

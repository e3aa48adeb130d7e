// Package main is the entry point for the amarilog extractor.
package main

import (
	"fmt"
	"os"

	"github.com/DavidRicoCodes/AmarisoftAPI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"paper2table/pkg/logging"
)

var (
	// Global flags
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "paper2table",
	Short: "Extract, merge and inspect tables from scientific papers",
	Long: `paper2table is a pipeline for extracting tables from scientific PDF
papers, merging independent extraction runs into consensus tables, and
inspecting the results.

Typical flow:
  paper2table extract *.pdf -r agent -s "family:str scientific_name:str" -o out -t
  paper2table merge out/* -o merged
  paper2table validate merged/*.tables.json
  paper2table stats merged
  paper2table html merged --out viewer.html`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print log information")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Don't output progress information")
}

// newLogger builds the CLI logger honoring --verbose.
func newLogger() *zap.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.Must(level, "console")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

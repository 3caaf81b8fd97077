package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paper2table/internal/usecase"
)

var mergeOutputDirectory string

var mergeCmd = &cobra.Command{
	Use:   "merge [dirs...]",
	Short: "Merge JSON tables from multiple resultset directories",
	Long: `Merge groups the *.tables.json files of the given directories by
basename and merges each group into a single consensus file with row
agreement levels. Per-basename failures are reported inline; the command
always exits zero once the scan completes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutputDirectory, "output-directory", "o", ".", "Directory to store merged output")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	outcomes, err := usecase.MergeResultsets(args, mergeOutputDirectory)
	if err != nil {
		return err
	}
	for _, outcome := range outcomes {
		fmt.Println(outcome)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"paper2table/internal/stats"
)

var (
	statsOut   string
	statsSort  string
	statsEmpty bool
)

var statsCmd = &cobra.Command{
	Use:   "stats PATH",
	Short: "Compute stats for a JSON tables directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsOut, "out", "o", "", "Optional output JSON file for stats")
	statsCmd.Flags().StringVarP(&statsSort, "sort", "s", "none", "Sort by number of tables: none, asc or desc")
	statsCmd.Flags().BoolVarP(&statsEmpty, "empty", "e", false, "Only output the names of the empty files. Can't be used with --out")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	global, err := stats.ComputeDirStats(args[0])
	if err != nil {
		return err
	}
	global.SortByTables(statsSort)

	switch {
	case statsEmpty:
		if statsOut != "" {
			return fmt.Errorf("--empty can't be used with --out")
		}
		fmt.Println(strings.Join(global.EmptyPapers(), " "))
	case statsOut != "":
		data, err := json.Marshal(global.ToMap())
		if err != nil {
			return err
		}
		return os.WriteFile(statsOut, data, 0o644)
	default:
		fmt.Println(global.Format())
	}
	return nil
}

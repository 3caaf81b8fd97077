package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"paper2table/internal/filenorm"
)

var filenormYes bool

var filenormCmd = &cobra.Command{
	Use:   "filenorm [files...]",
	Short: "Normalize corpus filenames and delete duplicate files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilenorm,
}

func init() {
	filenormCmd.Flags().BoolVarP(&filenormYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(filenormCmd)
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

func runFilenorm(cmd *cobra.Command, args []string) error {
	plan, err := filenorm.PlanActions(args)
	if err != nil {
		return err
	}

	hooks := filenorm.Hooks{
		ConfirmDelete: func(md5, file string) bool {
			return confirm(fmt.Sprintf("Delete duplicate file %s (%s, will preserve it as %s)?",
				file, md5, plan.Kept[md5]))
		},
		ConfirmRename: func(original, newName string) bool {
			return confirm(fmt.Sprintf("Rename %s to %s?", original, newName))
		},
		ExplainDelete: func(file string) {
			fmt.Printf("File %s deleted\n", file)
		},
		ExplainRename: func(original, newName string) {
			fmt.Printf("File %s renamed to %s\n", original, newName)
		},
	}
	if filenormYes {
		hooks.ConfirmDelete = nil
		hooks.ConfirmRename = nil
	}
	if quiet {
		hooks.ExplainDelete = nil
		hooks.ExplainRename = nil
	}

	return filenorm.Execute(plan, hooks)
}

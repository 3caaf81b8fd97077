package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"paper2table/internal/schema"
)

var validateAll bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate JSON tables files against the schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVarP(&validateAll, "all", "a", false, "Validate all files and print which are valid/invalid")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		if filepath.Base(path) == "tables.metadata.json" {
			continue
		}
		err := schema.ValidateFile(path)

		switch {
		case quiet:
			if err != nil {
				os.Exit(1)
			}
		case validateAll:
			status := "VALID"
			if err != nil {
				status = "INVALID"
			}
			fmt.Printf("%s: %s\n", path, status)
			if err != nil {
				fmt.Println(err)
			}
		case err != nil:
			fmt.Printf("%s: INVALID\n", path)
			fmt.Println(err)
			os.Exit(1)
		default:
			fmt.Printf("%s: VALID\n", path)
		}
	}
	return nil
}

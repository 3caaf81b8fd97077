package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paper2table/internal/config"
	"paper2table/internal/reader"
	"paper2table/internal/schema"
	"paper2table/internal/writer"
	ai "paper2table/pkg/ai"
)

var (
	readerName           string
	model                string
	modelSleep           int
	columnSchema         string
	columnSchemaPath     string
	columnNamesHintsPath string
	outputDirectory      string
	resultsetMode        bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract tables from one or more papers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&readerName, "reader", "r", "layout", "How tables are extracted: layout or agent")
	extractCmd.Flags().StringVarP(&model, "model", "m", "google-gla:gemini-2.5-flash", "Language model id. Only used by the agent reader")
	extractCmd.Flags().IntVarP(&modelSleep, "model-sleep", "z", 5, "Seconds to wait between model calls. Only used by the agent reader")
	extractCmd.Flags().StringVarP(&columnSchema, "schema", "s", "", "Table schema in the form column:type. Only used by the agent reader")
	extractCmd.Flags().StringVarP(&columnSchemaPath, "schema-path", "p", "", "Path to a table schema file. Only used by the agent reader")
	extractCmd.Flags().StringVarP(&columnNamesHintsPath, "column-names-hints-path", "c", "", "Path to a column name hints file. Only used by the layout reader")
	extractCmd.Flags().StringVarP(&outputDirectory, "output-directory", "o", "", "Destination directory")
	extractCmd.Flags().BoolVarP(&resultsetMode, "resultset", "t", false, "Generate a resultset directory. Must be used with -o")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	read, err := buildCLIReader(log)
	if err != nil {
		return err
	}
	write, err := buildCLIWriter()
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.Default(int64(len(args)), "papers")
	}

	ctx := context.Background()
	for _, paperPath := range args {
		result, err := read(ctx, paperPath)
		if err != nil {
			log.Warn("paper failed", zap.String("paper", paperPath), zap.Error(err))
		} else if err := write(result, paperPath); err != nil {
			log.Warn("write failed", zap.String("paper", paperPath), zap.Error(err))
		} else {
			log.Debug("paper processed", zap.String("paper", paperPath))
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

// buildCLIReader resolves the extraction backend from the flags.
func buildCLIReader(log *zap.Logger) (reader.ReadFunc, error) {
	switch readerName {
	case "agent":
		tableSchema := columnSchema
		if columnSchemaPath != "" {
			data, err := os.ReadFile(columnSchemaPath)
			if err != nil {
				return nil, err
			}
			tableSchema = string(data)
		}
		if tableSchema == "" {
			return nil, fmt.Errorf("missing schema. Need to either pass --schema-path or --schema")
		}

		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		client := ai.NewClient(cfg.AIServiceURL, model, log)
		agentReader, err := reader.NewAgentReader(client, tableSchema,
			time.Duration(modelSleep)*time.Second, log)
		if err != nil {
			return nil, err
		}
		return agentReader.ReadTables, nil

	case "layout":
		hints := ""
		if columnNamesHintsPath != "" {
			data, err := os.ReadFile(columnNamesHintsPath)
			if err != nil {
				return nil, err
			}
			hints = string(data)
		}
		return reader.NewLayoutReader(hints, log).ReadTables, nil

	default:
		return nil, fmt.Errorf("unknown reader: %s", readerName)
	}
}

// buildCLIWriter resolves the output destination from the flags.
func buildCLIWriter() (func(schema.TablesFile, string) error, error) {
	if resultsetMode && outputDirectory == "" {
		return nil, fmt.Errorf("--resultset requires also --output-directory")
	}

	if resultsetMode {
		metadata := writer.NewResultsetMetadata(readerName, model)
		return func(result schema.TablesFile, paperPath string) error {
			return writer.WriteResultset(result, paperPath, outputDirectory, metadata)
		}, nil
	}
	if outputDirectory != "" {
		if err := os.MkdirAll(outputDirectory, 0o755); err != nil {
			return nil, err
		}
		return func(result schema.TablesFile, paperPath string) error {
			return writer.WriteFile(result, paperPath, outputDirectory)
		}, nil
	}
	return func(result schema.TablesFile, _ string) error {
		return writer.WriteStdout(result)
	}, nil
}

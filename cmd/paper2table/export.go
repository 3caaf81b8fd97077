package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paper2table/internal/export"
	infra "paper2table/pkg/infrastructure"
)

var (
	csvOutputDirectory string
	htmlOut            string
	htmlPDF            string
)

var csvCmd = &cobra.Command{
	Use:   "csv INPUT_DIR",
	Short: "Export extracted tables to CSV files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return export.ExportDir(args[0], csvOutputDirectory)
	},
}

var htmlCmd = &cobra.Command{
	Use:   "html INPUT_DIR",
	Short: "Generate a static HTML viewer for extraction results",
	Args:  cobra.ExactArgs(1),
	RunE:  runHTML,
}

func init() {
	csvCmd.Flags().StringVarP(&csvOutputDirectory, "output-directory", "o", ".", "Output directory")
	htmlCmd.Flags().StringVar(&htmlOut, "out", "viewer.html", "Output HTML file")
	htmlCmd.Flags().StringVar(&htmlPDF, "pdf", "", "Also print the viewer to this PDF file")
	rootCmd.AddCommand(csvCmd)
	rootCmd.AddCommand(htmlCmd)
}

func runHTML(cmd *cobra.Command, args []string) error {
	metadata, papers, err := export.LoadPapers(args[0])
	if err != nil {
		return err
	}

	html, err := export.BuildHTML(metadata, papers)
	if err != nil {
		return err
	}
	if err := os.WriteFile(htmlOut, []byte(html), 0o644); err != nil {
		return err
	}
	fmt.Printf("Viewer generated: %s\n", htmlOut)

	if htmlPDF != "" {
		renderer := infra.NewChromedpRenderer()
		pdfBytes, err := renderer.RenderHTMLToPDF(context.Background(), html)
		if err != nil {
			return fmt.Errorf("pdf rendering failed: %w", err)
		}
		if err := os.WriteFile(htmlPDF, pdfBytes, 0o644); err != nil {
			return err
		}
		fmt.Printf("PDF generated: %s\n", htmlPDF)
	}
	return nil
}

// Package export renders extraction results to CSV files and to the static
// HTML viewer.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"paper2table/internal/schema"
)

// pageColumn is the synthetic CSV column carrying the fragment's page.
const pageColumn = "$page"

// CellText flattens a cell for CSV output: annotated values render as
// "value (weight)" entries joined by "; ".
func CellText(value schema.ColumnValue) string {
	if !value.IsAnnotated() {
		return value.Text()
	}
	parts := make([]string, 0, len(value.Values()))
	for _, entry := range value.Values() {
		parts = append(parts, fmt.Sprintf("%s (%d)", entry.Value, entry.AgreementLevel))
	}
	return strings.Join(parts, "; ")
}

// TableRecords flattens one table into CSV records: a header with the union
// of column names in first-appearance order plus $page, then one record per
// row across all fragments.
func TableRecords(table schema.Table) [][]string {
	var columns []string
	seen := map[string]bool{}
	type flatRow struct {
		row  schema.Row
		page int
	}
	var rows []flatRow
	for _, fragment := range schema.TableFragments(table) {
		for _, row := range fragment.Rows {
			names := row.ColumnNames()
			for _, name := range names {
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
			rows = append(rows, flatRow{row: row, page: fragment.Page})
		}
	}

	header := append(append([]string{}, columns...), pageColumn)
	records := [][]string{header}
	for _, fr := range rows {
		record := make([]string, 0, len(header))
		for _, name := range columns {
			record = append(record, CellText(fr.row.Columns[name]))
		}
		record = append(record, fmt.Sprintf("%d", fr.page))
		records = append(records, record)
	}
	return records
}

// ExportDir writes one CSV per table for every *.tables.json in inputDir.
// Output files are named <basename>_<table index>.csv.
func ExportDir(inputDir, outputDir string) error {
	paths, err := filepath.Glob(filepath.Join(inputDir, "*.tables.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	for _, path := range paths {
		if filepath.Base(path) == "tables.metadata.json" {
			continue
		}
		file, err := schema.LoadFile(path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".tables.json")
		for index, table := range file.Tables {
			outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%d.csv", stem, index))
			if err := writeCSV(outPath, TableRecords(table)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

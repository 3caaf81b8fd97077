// Package stats computes corpus statistics over directories of
// *.tables.json extraction results.
package stats

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"paper2table/internal/schema"
)

// PaperStats summarizes one paper's extraction result.
type PaperStats struct {
	Tables             int      `json:"tables"`
	Rows               int      `json:"rows"`
	RowsWithAgreement  int      `json:"rows_with_agreement"`
	AgreementPercent   *float64 `json:"agreement_percentage"`
}

// GlobalStats aggregates a whole directory of papers. PaperOrder keeps the
// presentation order, which SortByTables rearranges.
type GlobalStats struct {
	Papers     int
	Tables     int
	Rows       int
	PaperStats map[string]PaperStats
	PaperOrder []string
}

// ComputePaperStats counts tables, rows and agreed rows across all fragments
// of one tables file.
func ComputePaperStats(file schema.TablesFile) PaperStats {
	stats := PaperStats{Tables: len(file.Tables)}
	for _, table := range file.Tables {
		for _, fragment := range schema.TableFragments(table) {
			stats.Rows += len(fragment.Rows)
			for _, row := range fragment.Rows {
				if row.EffectiveWeight() > 1 {
					stats.RowsWithAgreement++
				}
			}
		}
	}
	if stats.Rows > 0 {
		percentage := float64(stats.RowsWithAgreement) / float64(stats.Rows) * 100
		stats.AgreementPercent = &percentage
	}
	return stats
}

// NewGlobalStats returns an empty accumulator.
func NewGlobalStats() *GlobalStats {
	return &GlobalStats{PaperStats: map[string]PaperStats{}}
}

// Add folds one paper into the global stats.
func (g *GlobalStats) Add(basename string, file schema.TablesFile) {
	paper := ComputePaperStats(file)
	g.Papers++
	g.Tables += paper.Tables
	g.Rows += paper.Rows
	if _, seen := g.PaperStats[basename]; !seen {
		g.PaperOrder = append(g.PaperOrder, basename)
	}
	g.PaperStats[basename] = paper
}

// SortByTables reorders the per-paper listing by table count.
// mode is "none", "asc" or "desc".
func (g *GlobalStats) SortByTables(mode string) {
	if mode == "none" || mode == "" {
		return
	}
	sort.SliceStable(g.PaperOrder, func(i, j int) bool {
		a := g.PaperStats[g.PaperOrder[i]].Tables
		b := g.PaperStats[g.PaperOrder[j]].Tables
		if mode == "desc" {
			return a > b
		}
		return a < b
	})
}

// EmptyPapers returns the source PDF names of papers with zero tables.
func (g *GlobalStats) EmptyPapers() []string {
	var empty []string
	for _, basename := range g.PaperOrder {
		if g.PaperStats[basename].Tables == 0 {
			empty = append(empty, strings.Replace(basename, ".tables.json", ".pdf", 1))
		}
	}
	return empty
}

// ToMap builds the JSON representation written by the stats command.
func (g *GlobalStats) ToMap() map[string]interface{} {
	papers := make([]map[string]interface{}, 0, len(g.PaperOrder))
	for _, basename := range g.PaperOrder {
		papers = append(papers, map[string]interface{}{basename: g.PaperStats[basename]})
	}
	return map[string]interface{}{
		"papers":       g.Papers,
		"tables":       g.Tables,
		"rows":         g.Rows,
		"papers_stats": papers,
	}
}

// Format renders the human-readable report.
func (g *GlobalStats) Format() string {
	var lines []string
	lines = append(lines, "Global Stats:")
	lines = append(lines, fmt.Sprintf("  Papers: %d", g.Papers))
	lines = append(lines, fmt.Sprintf("  Tables: %d", g.Tables))
	lines = append(lines, fmt.Sprintf("  Rows: %d", g.Rows))
	lines = append(lines, "")
	lines = append(lines, "Per-Paper Stats:")
	for _, basename := range g.PaperOrder {
		paper := g.PaperStats[basename]
		lines = append(lines, fmt.Sprintf("- %s:", basename))
		lines = append(lines, fmt.Sprintf("    Tables: %d", paper.Tables))
		lines = append(lines, fmt.Sprintf("    Rows: %d", paper.Rows))
		lines = append(lines, fmt.Sprintf("    Rows with agreement > 1: %d", paper.RowsWithAgreement))
		if paper.AgreementPercent != nil {
			lines = append(lines, fmt.Sprintf("    Agreement percentage: %.2f%%", *paper.AgreementPercent))
		}
	}
	return strings.Join(lines, "\n")
}

// ComputeDirStats loads every *.tables.json in the directory.
func ComputeDirStats(dir string) (*GlobalStats, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.tables.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	global := NewGlobalStats()
	for _, path := range paths {
		if filepath.Base(path) == "tables.metadata.json" {
			continue
		}
		file, err := schema.LoadFile(path)
		if err != nil {
			return nil, err
		}
		global.Add(filepath.Base(path), file)
	}
	return global, nil
}

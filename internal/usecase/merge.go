package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	repo "paper2table/internal/adapter/repository"
	"paper2table/internal/merge"
	"paper2table/internal/schema"
)

// MergeOutcome reports what happened to one basename during a resultset
// merge.
type MergeOutcome struct {
	Basename string
	Status   string // MERGED, MERGE SKIPPED or MERGE FAILED
	Detail   string
}

func (o MergeOutcome) String() string {
	return fmt.Sprintf("%s: %s: %s", o.Basename, o.Status, o.Detail)
}

// MergeResultsets merges all tables files of the same basename across the
// resultset directories and writes the consensus files into outputDir. Row
// agreement is always enabled so downstream tooling can color by consensus.
// Per-basename failures are reported, not propagated.
func MergeResultsets(resultsetDirs []string, outputDir string) ([]MergeOutcome, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	basenames, err := repo.ListBasenames(resultsetDirs)
	if err != nil {
		return nil, err
	}

	var outcomes []MergeOutcome
	for _, basename := range basenames {
		outcomes = append(outcomes, mergeBasename(basename, resultsetDirs, outputDir))
	}
	return outcomes, nil
}

func mergeBasename(basename string, resultsetDirs []string, outputDir string) MergeOutcome {
	files, err := repo.AggregateBasename(basename, resultsetDirs)
	if err != nil {
		return MergeOutcome{basename, "MERGE FAILED", err.Error()}
	}

	anyTables := false
	for _, file := range files {
		if len(file.Tables) > 0 {
			anyTables = true
			break
		}
	}
	if !anyTables {
		return MergeOutcome{basename, "MERGE SKIPPED", "All tables are empty"}
	}

	merged, err := merge.MergeTablesFiles(files, true, false)
	if err != nil {
		var mergeErr *merge.MergeError
		if errors.As(err, &mergeErr) {
			return MergeOutcome{basename, "MERGE FAILED", mergeErr.Error()}
		}
		return MergeOutcome{basename, "MERGE FAILED", err.Error()}
	}

	if err := writeMerged(merged, filepath.Join(outputDir, basename)); err != nil {
		return MergeOutcome{basename, "MERGE FAILED", err.Error()}
	}
	return MergeOutcome{
		Basename: basename,
		Status:   "MERGED",
		Detail:   fmt.Sprintf("%d files into %d tables", len(files), len(merged.Tables)),
	}
}

func writeMerged(file schema.TablesFile, path string) error {
	data, err := file.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

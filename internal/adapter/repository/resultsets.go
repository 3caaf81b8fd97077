package repository

import (
	"os"
	"path/filepath"
	"sort"

	"paper2table/internal/schema"
)

// The functions below read extraction resultsets off the filesystem: every
// directory holds the *.tables.json files one extraction run produced for a
// corpus of papers.

// ListBasenames collects the distinct tables file basenames across the
// given resultset directories, sorted.
func ListBasenames(resultsetDirs []string) ([]string, error) {
	seen := map[string]bool{}
	for _, dir := range resultsetDirs {
		paths, err := filepath.Glob(filepath.Join(dir, "*.tables.json"))
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			seen[filepath.Base(path)] = true
		}
	}

	basenames := make([]string, 0, len(seen))
	for basename := range seen {
		basenames = append(basenames, basename)
	}
	sort.Strings(basenames)
	return basenames, nil
}

// AggregateBasename loads every resultset's tables file for one basename,
// in resultset order. Directories that don't have the file are skipped.
func AggregateBasename(basename string, resultsetDirs []string) ([]schema.TablesFile, error) {
	var files []schema.TablesFile
	for _, dir := range resultsetDirs {
		path := filepath.Join(dir, basename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		file, err := schema.LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// ListResultsetDirs expands a parent directory into its resultset
// subdirectories (the uuid-keyed directories the resultset writer creates),
// sorted for determinism.
func ListResultsetDirs(parent string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(parent, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

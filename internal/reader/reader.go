// Package reader hosts the extraction backends that turn papers into tables
// files: a heuristic layout reader over the PDF text layer, and an agent
// reader that delegates to the model service.
package reader

import (
	"context"
	"fmt"
	"strings"

	"paper2table/internal/filenorm"
	"paper2table/internal/schema"
)

// ReadFunc is the contract every extraction backend satisfies.
type ReadFunc func(ctx context.Context, paperPath string) (schema.TablesFile, error)

var columnTypes = map[string]bool{
	"str":   true,
	"int":   true,
	"float": true,
	"bool":  true,
}

// TokenizeSchema splits a schema or hints string on commas, newlines and
// whitespace.
func TokenizeSchema(s string) []string {
	replaced := strings.NewReplacer(",", " ", "\n", " ").Replace(s)
	return strings.Fields(replaced)
}

// ParseColumnSchema parses "name:type" specifiers like
// "common_name:str species:str" and returns the column names in order.
func ParseColumnSchema(s string) ([]string, error) {
	var names []string
	for _, part := range TokenizeSchema(s) {
		name, typeName, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("invalid field specifier: %s", part)
		}
		if !columnTypes[typeName] {
			return nil, fmt.Errorf("unsupported type: %s", typeName)
		}
		names = append(names, name)
	}
	return names, nil
}

// ParseColumnNamesHints normalizes a hints string into comparable names.
func ParseColumnNamesHints(hints string) []string {
	tokens := TokenizeSchema(hints)
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		normalized = append(normalized, filenorm.NormalizeName(token))
	}
	return normalized
}

// FirstRowIsTableHeader reports whether the first extracted row looks like a
// header: any of its cells normalizes to one of the hinted column names.
func FirstRowIsTableHeader(row []string, hints []string) bool {
	if len(row) == 0 || len(hints) == 0 {
		return false
	}
	hinted := map[string]bool{}
	for _, hint := range hints {
		hinted[hint] = true
	}
	for _, cell := range row {
		if hinted[filenorm.NormalizeName(cell)] {
			return true
		}
	}
	return false
}

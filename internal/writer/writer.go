// Package writer persists extraction results: to stdout, to a plain output
// directory, or to a uuid-keyed resultset directory that the merge command
// consumes.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"paper2table/internal/schema"
)

// TablesBasename maps a paper path to its tables file basename.
func TablesBasename(paperPath string) string {
	base := filepath.Base(paperPath)
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return base + ".tables.json"
}

// WriteStdout prints the tables file as single-line JSON, non-ASCII intact.
func WriteStdout(file schema.TablesFile) error {
	data, err := file.Encode()
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(data))
	return err
}

// WriteFile stores the tables file under outputDir using the paper's
// basename.
func WriteFile(file schema.TablesFile, paperPath, outputDir string) error {
	data, err := file.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, TablesBasename(paperPath)), data, 0o644)
}

// ResultsetMetadata identifies one extraction run: which reader produced it,
// a fresh uuid, and the run timestamp.
type ResultsetMetadata struct {
	Reader   string
	Model    string
	UUID     uuid.UUID
	Datetime time.Time
}

// NewResultsetMetadata stamps a new run. The agent reader is recorded under
// its model name so differently configured agents count as distinct
// extractors.
func NewResultsetMetadata(reader, model string) ResultsetMetadata {
	return ResultsetMetadata{
		Reader:   reader,
		Model:    model,
		UUID:     uuid.New(),
		Datetime: time.Now(),
	}
}

// ToMap is the tables.metadata.json document.
func (m ResultsetMetadata) ToMap() map[string]interface{} {
	reader := m.Reader
	if m.Reader == "agent" {
		reader = m.Model
	}
	return map[string]interface{}{
		"reader":   reader,
		"uuid":     m.UUID.String(),
		"datetime": m.Datetime.Format(time.RFC3339),
	}
}

// WriteResultset stores the tables file inside <outputDir>/<uuid>/, creating
// the directory and its tables.metadata.json on first use.
func WriteResultset(file schema.TablesFile, paperPath, outputDir string, metadata ResultsetMetadata) error {
	resultsetDir := filepath.Join(outputDir, metadata.UUID.String())
	if err := os.MkdirAll(resultsetDir, 0o755); err != nil {
		return err
	}

	metadataPath := filepath.Join(resultsetDir, "tables.metadata.json")
	if _, err := os.Stat(metadataPath); os.IsNotExist(err) {
		data, err := json.Marshal(metadata.ToMap())
		if err != nil {
			return err
		}
		if err := os.WriteFile(metadataPath, data, 0o644); err != nil {
			return err
		}
	}

	return WriteFile(file, paperPath, resultsetDir)
}

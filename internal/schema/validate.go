package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed tables.schema.json
var tablesSchema []byte

// TablesSchema returns the embedded JSON Schema, for callers that need to
// quote it, e.g. in model prompts.
func TablesSchema() []byte {
	return tablesSchema
}

// ValidateBytes checks raw JSON against the tables file schema.
func ValidateBytes(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(tablesSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// ValidateFile checks one tables file on disk against the schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ValidateBytes(data)
}

// LoadFile reads, validates and decodes one tables file.
func LoadFile(path string) (TablesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TablesFile{}, err
	}
	if err := ValidateBytes(data); err != nil {
		return TablesFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return Decode(data)
}

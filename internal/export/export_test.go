package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper2table/internal/schema"
)

func TestCellText(t *testing.T) {
	assert.Equal(t, "apiaceae", CellText(schema.String("apiaceae")))
	assert.Equal(t, "ammi majus l. (2); ammi (1)", CellText(schema.Annotated(
		schema.ValueWithAgreement{Value: "ammi majus l.", AgreementLevel: 2},
		schema.ValueWithAgreement{Value: "ammi", AgreementLevel: 1},
	)))
}

func TestTableRecordsFlattensFragmentsWithPageColumn(t *testing.T) {
	table := schema.FragmentTable(
		schema.TableFragment{Rows: []schema.Row{
			schema.NewRow(map[string]string{"family": "apiaceae", "scientific_name": "ammi majus l."}),
		}, Page: 1},
		schema.TableFragment{Rows: []schema.Row{
			schema.NewRow(map[string]string{"family": "rosaceae", "scientific_name": "rosa canina l."}),
		}, Page: 2},
	)

	records := TableRecords(table)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"family", "scientific_name", "$page"}, records[0])
	assert.Equal(t, []string{"apiaceae", "ammi majus l.", "1"}, records[1])
	assert.Equal(t, []string{"rosaceae", "rosa canina l.", "2"}, records[2])
}

func TestTableRecordsUnionsDivergentColumns(t *testing.T) {
	table := schema.RowsTable([]schema.Row{
		schema.NewRow(map[string]string{"family": "apiaceae"}),
		schema.NewRow(map[string]string{"genus": "rosa"}),
	}, 1)

	records := TableRecords(table)
	assert.Equal(t, []string{"family", "genus", "$page"}, records[0])
	assert.Equal(t, []string{"apiaceae", "", "1"}, records[1])
	assert.Equal(t, []string{"", "rosa", "1"}, records[2])
}

func TestURLLabel(t *testing.T) {
	assert.Equal(t, "doi.org", URLLabel("https://doi.org/10.1000/xyz"))
	assert.Equal(t, "example.co.uk", URLLabel("https://www.example.co.uk/paper"))
	assert.Equal(t, "example.com", URLLabel("example.com/path"))
}

func TestBuildHTML(t *testing.T) {
	papers := []Paper{{
		Basename: "plants.tables.json",
		File: schema.TablesFile{
			Tables: []schema.Table{schema.RowsTable([]schema.Row{
				schema.NewRow(map[string]string{"family": "apiaceae"}).WithAgreement(2),
				schema.NewRow(map[string]string{"family": "rosaceae"}),
			}, 1)},
			Citation: schema.TextCitation("Bulgarelli, F. (2024). Plants. https://doi.org/10.1000/xyz"),
		},
	}}

	html, err := BuildHTML(map[string]interface{}{"reader": "agent"}, papers)
	require.NoError(t, err)

	assert.Contains(t, html, "plants.tables.json")
	assert.Contains(t, html, "class='medium'")
	assert.Contains(t, html, "class='low'")
	assert.Contains(t, html, ">doi.org</a>")
	assert.Contains(t, html, "reader")
}

func TestExportDir(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	content := `{"tables":[{"rows":[{"family":"apiaceae"}],"page":1}],"citation":null}`
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "plants.tables.json"), []byte(content), 0o644))

	require.NoError(t, ExportDir(inputDir, outputDir))

	data, err := os.ReadFile(filepath.Join(outputDir, "plants_0.csv"))
	require.NoError(t, err)
	assert.Equal(t, "family,$page\napiaceae,1\n", string(data))
}

func TestLoadPapersSkipsMetadataFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables.metadata.json"),
		[]byte(`{"reader":"layout"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plants.tables.json"),
		[]byte(`{"tables":[],"citation":null}`), 0o644))

	metadata, papers, err := LoadPapers(dir)
	require.NoError(t, err)
	assert.Equal(t, "layout", metadata["reader"])
	require.Len(t, papers, 1)
	assert.Equal(t, "plants.tables.json", papers[0].Basename)
}

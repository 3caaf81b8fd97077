package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper2table/internal/schema"
)

func row(family, scientificName string) schema.Row {
	return schema.NewRow(map[string]string{
		"family":          family,
		"scientific_name": scientificName,
	})
}

func wrap(rows []schema.Row, page int) schema.TablesFile {
	return schema.TablesFile{
		Tables: []schema.Table{
			schema.FragmentTable(schema.TableFragment{Rows: rows, Page: page}),
		},
		Citation: schema.TextCitation(""),
	}
}

func mergedRows(t *testing.T, result schema.TablesFile) []schema.Row {
	t.Helper()
	require.Len(t, result.Tables, 1)
	fragments := result.Tables[0].Fragments
	require.Len(t, fragments, 1)
	return fragments[0].Rows
}

func assertRows(t *testing.T, expected, actual []schema.Row) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.True(t, expected[i].Equal(actual[i]),
			"row %d: expected %v, got %v", i, expected[i], actual[i])
	}
}

func TestEmptyTablesList(t *testing.T) {
	_, err := MergeTablesFiles(nil, false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	var mergeErr *MergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.Equal(t, KindEmptyInput, mergeErr.Kind)
}

func TestSingleTableReturnsNormalized(t *testing.T) {
	table := []schema.Row{row(" Apiaceae ", "Ammi majus L.")}

	result, err := MergeTablesFiles([]schema.TablesFile{wrap(table, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{row("apiaceae", "ammi majus l.")}, mergedRows(t, result))
}

func TestSingleTableWithRowAgreement(t *testing.T) {
	table := []schema.Row{row(" Apiaceae ", "Ammi majus L.")}

	result, err := MergeTablesFiles([]schema.TablesFile{wrap(table, 1)}, true, false)
	require.NoError(t, err)
	assertRows(t,
		[]schema.Row{row("apiaceae", "ammi majus l.").WithAgreement(1)},
		mergedRows(t, result))
}

func TestTwoIdenticalTables(t *testing.T) {
	table := []schema.Row{row("Apiaceae", "Ammi majus L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table, 1), wrap(table, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{row("apiaceae", "ammi majus l.")}, mergedRows(t, result))
}

func TestTwoIdenticalTablesWithRowAgreement(t *testing.T) {
	table := []schema.Row{row("Apiaceae", "Ammi majus L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table, 1), wrap(table, 1)}, true, false)
	require.NoError(t, err)
	assertRows(t,
		[]schema.Row{row("apiaceae", "ammi majus l.").WithAgreement(2)},
		mergedRows(t, result))
}

func TestTwoTablesWithNonNormalizedColumns(t *testing.T) {
	table1 := []schema.Row{row(" Apiaceae ", " Ammi majus L. ")}
	table2 := []schema.Row{row("apiaceae", "ammi majus l.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{row("apiaceae", "ammi majus l.")}, mergedRows(t, result))
}

func TestTwoTablesWithDifferentColumnNames(t *testing.T) {
	table1 := []schema.Row{row(" Apiaceae ", " Ammi majus L. ")}
	table2 := []schema.Row{schema.NewRow(map[string]string{
		"0": "apiaceae", "1": "ammi majus l.",
	})}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		schema.NewRow(map[string]string{"0": "apiaceae", "1": "ammi majus l."}),
	}, mergedRows(t, result))
}

func TestTwoTablesWithDifferentColumnNamesAndRowAgreement(t *testing.T) {
	table1 := []schema.Row{row(" Apiaceae ", " Ammi majus L. ")}
	table2 := []schema.Row{schema.NewRow(map[string]string{
		"0": "apiaceae", "1": "ammi majus l.",
	})}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, true, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l.").WithAgreement(1),
		schema.NewRow(map[string]string{"0": "apiaceae", "1": "ammi majus l."}).WithAgreement(1),
	}, mergedRows(t, result))
}

func TestTwoTablesWithDifferentValues(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{row("Rosaceae", "Rosa canina L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("rosaceae", "rosa canina l."),
	}, mergedRows(t, result))
}

func TestTwoTablesFilesWithDifferentPages(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{row("Rosaceae", "Rosa canina L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 2)}, false, false)
	require.NoError(t, err)

	require.Len(t, result.Tables, 1)
	fragments := result.Tables[0].Fragments
	require.Len(t, fragments, 2)

	assert.Equal(t, 1, fragments[0].Page)
	assertRows(t, []schema.Row{row("apiaceae", "ammi majus l.")}, fragments[0].Rows)

	assert.Equal(t, 2, fragments[1].Page)
	assertRows(t, []schema.Row{row("rosaceae", "rosa canina l.")}, fragments[1].Rows)
}

func TestTwoTablesWithMixedValues(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("rosaceae", "rosa canina l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithDifferentValues(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{row("Rosaceae", "Rosa canina L.")}
	table3 := []schema.Row{row("Lamiaceae", "Mentha spicata L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithOverlappedMixedValues(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}
	table3 := []schema.Row{
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithConflictingValues(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}
	table3 := []schema.Row{
		row("Apiaceae", "Ammi"),
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("apiaceae", "ammi"),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
	}, mergedRows(t, result))
}

func TestTwoTablesWithConflictingValuesAndWrongFirst(t *testing.T) {
	table1 := []schema.Row{
		row("Apiaceae", "Ammi"),
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}
	table2 := []schema.Row{row("Apiaceae", "Ammi majus L.")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi"),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
		// TODO add it not at bottom but next to the closest one
		row("apiaceae", "ammi majus l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithConflictingValuesAndWrongFirst(t *testing.T) {
	table1 := []schema.Row{
		row("Apiaceae", "Ammi"),
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}
	table2 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table3 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi"),
		row("apiaceae", "ammi majus l."),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithConflictingValuesAndWrongInTheMiddle(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi"),
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}
	table3 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, false, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l."),
		row("apiaceae", "ammi"),
		row("rosaceae", "rosa canina l."),
		row("lamiaceae", "mentha spicata l."),
	}, mergedRows(t, result))
}

func TestThreeTablesWithConflictingValuesWithRowAgreement(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}
	table3 := []schema.Row{
		row("Apiaceae", "Ammi"),
		row("Rosaceae", "Rosa canina L."),
		row("Lamiaceae", "Mentha spicata L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, true, false)
	require.NoError(t, err)
	assertRows(t, []schema.Row{
		row("apiaceae", "ammi majus l.").WithAgreement(2),
		row("apiaceae", "ammi").WithAgreement(1),
		row("rosaceae", "rosa canina l.").WithAgreement(2),
		row("lamiaceae", "mentha spicata l.").WithAgreement(1),
	}, mergedRows(t, result))
}

func TestRowAgreementConservesTotalWeight(t *testing.T) {
	table1 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Lamiaceae", "Mentha spicata L."),
	}
	table3 := []schema.Row{row("Apiaceae", "Ammi")}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1), wrap(table3, 1)}, true, false)
	require.NoError(t, err)

	total := 0
	for _, r := range mergedRows(t, result) {
		total += r.EffectiveWeight()
	}
	assert.Equal(t, 5, total)
}

func TestMergeKeepsFirstCitation(t *testing.T) {
	first := wrap([]schema.Row{row("Apiaceae", "Ammi majus L.")}, 1)
	first.Citation = schema.TextCitation("Bulgarelli, F. (2024). Plants.")
	second := wrap([]schema.Row{row("Apiaceae", "Ammi majus L.")}, 1)
	second.Citation = schema.TextCitation("Other, A. (2023). Other plants.")

	result, err := MergeTablesFiles([]schema.TablesFile{first, second}, false, false)
	require.NoError(t, err)
	assert.Equal(t, "Bulgarelli, F. (2024). Plants.", result.Citation.Text())
}

func TestMergeRowsVariantTableIsCanonicalized(t *testing.T) {
	flat := schema.TablesFile{
		Tables:   []schema.Table{schema.RowsTable([]schema.Row{row("Apiaceae", "Ammi majus L.")}, 3)},
		Citation: schema.Citation{},
	}

	result, err := MergeTablesFiles([]schema.TablesFile{flat}, false, false)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	fragments := result.Tables[0].Fragments
	require.Len(t, fragments, 1)
	assert.Equal(t, 3, fragments[0].Page)
}

func TestMergeUnevenTableCounts(t *testing.T) {
	one := schema.TablesFile{
		Tables: []schema.Table{
			schema.FragmentTable(schema.TableFragment{Rows: []schema.Row{row("Apiaceae", "Ammi majus L.")}, Page: 1}),
			schema.FragmentTable(schema.TableFragment{Rows: []schema.Row{row("Rosaceae", "Rosa canina L.")}, Page: 4}),
		},
	}
	two := wrap([]schema.Row{row("Apiaceae", "Ammi majus L.")}, 1)

	result, err := MergeTablesFiles([]schema.TablesFile{one, two}, false, false)
	require.NoError(t, err)
	require.Len(t, result.Tables, 2)
	assertRows(t, []schema.Row{row("rosaceae", "rosa canina l.")},
		result.Tables[1].Fragments[0].Rows)
}

func TestAlignFragmentRejectsPageMismatch(t *testing.T) {
	builder := newFragmentBuilder(
		schema.TableFragment{Rows: []schema.Row{row("Apiaceae", "Ammi majus L.")}, Page: 1},
		false, false)

	err := builder.alignFragment(
		schema.TableFragment{Rows: []schema.Row{row("Rosaceae", "Rosa canina L.")}, Page: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPageMismatch))

	var mergeErr *MergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.Equal(t, 1, mergeErr.LeftPage)
	assert.Equal(t, 2, mergeErr.RightPage)
}

func TestMergeWithColumnAgreement(t *testing.T) {
	table1 := []schema.Row{row("Apiaceae", "Ammi majus L.")}
	table2 := []schema.Row{
		row("Apiaceae", "Ammi majus L."),
		row("Rosaceae", "Rosa canina L."),
	}

	result, err := MergeTablesFiles(
		[]schema.TablesFile{wrap(table1, 1), wrap(table2, 1)}, false, true)
	require.NoError(t, err)

	rows := mergedRows(t, result)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Equal(schema.Row{Columns: map[string]schema.ColumnValue{
		"family": schema.Annotated(
			schema.ValueWithAgreement{Value: "apiaceae", AgreementLevel: 2}),
		"scientific_name": schema.Annotated(
			schema.ValueWithAgreement{Value: "ammi majus l.", AgreementLevel: 2}),
	}}))
	// the trailing right-only row never matched, so it stays plain
	assert.True(t, rows[1].Equal(row("rosaceae", "rosa canina l.")))
}

package merge

import (
	"strings"

	"paper2table/internal/schema"
)

// normalizeText collapses whitespace runs (including newlines) to single
// spaces, trims and lowercases.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeValue canonicalizes a cell value. Annotated values keep their
// order and weights; only the texts are normalized.
func NormalizeValue(v schema.ColumnValue) schema.ColumnValue {
	if !v.IsAnnotated() {
		return schema.String(normalizeText(v.Text()))
	}
	values := v.Values()
	normalized := make([]schema.ValueWithAgreement, len(values))
	for i, entry := range values {
		normalized[i] = schema.ValueWithAgreement{
			Value:          normalizeText(entry.Value),
			AgreementLevel: entry.AgreementLevel,
		}
	}
	return schema.Annotated(normalized...)
}

// NormalizeRow normalizes every column of the row. With rowAgreement the
// result carries the row's effective weight; otherwise the agreement field
// passes through unchanged.
func NormalizeRow(row schema.Row, rowAgreement bool) schema.Row {
	columns := make(map[string]schema.ColumnValue, len(row.Columns))
	for name, value := range row.Columns {
		columns[name] = NormalizeValue(value)
	}
	normalized := schema.Row{Columns: columns}
	if rowAgreement {
		weight := row.EffectiveWeight()
		normalized.AgreementLevel = &weight
	} else if row.AgreementLevel != nil {
		level := *row.AgreementLevel
		normalized.AgreementLevel = &level
	}
	return normalized
}

// SameRow is row identity: equality of the normalized column mappings,
// ignoring the agreement field. A missing column on one side is never equal
// to an empty string on the other.
func SameRow(left, right schema.Row) bool {
	if len(left.Columns) != len(right.Columns) {
		return false
	}
	for name, lv := range left.Columns {
		rv, ok := right.Columns[name]
		if !ok || !NormalizeValue(lv).Equal(NormalizeValue(rv)) {
			return false
		}
	}
	return true
}

package merge

import "paper2table/internal/schema"

// MergeRows combines two rows into one. The column set of the result is the
// union of both sides. Without columnAgreement the right value overwrites
// the left one; with it, each shared column accumulates a weighted value
// list. Weights derive from each row's effective weight.
func MergeRows(left, right schema.Row, rowAgreement, columnAgreement bool) schema.Row {
	leftWeight := left.EffectiveWeight()
	rightWeight := right.EffectiveWeight()

	columns := make(map[string]schema.ColumnValue, len(left.Columns)+len(right.Columns))
	for name, value := range left.Columns {
		columns[name] = NormalizeValue(value)
	}
	for name, value := range right.Columns {
		normalized := NormalizeValue(value)
		existing, shared := columns[name]
		if shared && columnAgreement {
			columns[name] = mergeColumnValues(existing, normalized, leftWeight, rightWeight)
		} else {
			// left has already been merged; right is the newly seen sample
			columns[name] = normalized
		}
	}

	merged := schema.Row{Columns: columns}
	if rowAgreement {
		total := leftWeight + rightWeight
		merged.AgreementLevel = &total
	}
	return merged
}

// mergeColumnValues combines two normalized cell values into an annotated
// list. Matching texts accumulate weight; new texts append in order.
func mergeColumnValues(left, right schema.ColumnValue, leftWeight, rightWeight int) schema.ColumnValue {
	var entries []schema.ValueWithAgreement
	if left.IsAnnotated() {
		entries = append(entries, left.Values()...)
	} else {
		entries = []schema.ValueWithAgreement{{Value: left.Text(), AgreementLevel: leftWeight}}
	}
	if right.IsAnnotated() {
		for _, entry := range right.Values() {
			entries = foldValue(entries, entry.Value, entry.AgreementLevel)
		}
	} else {
		entries = foldValue(entries, right.Text(), rightWeight)
	}
	return schema.Annotated(entries...)
}

func foldValue(entries []schema.ValueWithAgreement, value string, weight int) []schema.ValueWithAgreement {
	for i, entry := range entries {
		if entry.Value == value {
			entries[i].AgreementLevel += weight
			return entries
		}
	}
	return append(entries, schema.ValueWithAgreement{Value: value, AgreementLevel: weight})
}

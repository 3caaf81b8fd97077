// Package merge combines several independently produced extractions of the
// same paper into one consensus tables file. Tables are clustered
// positionally across files, their fragments are grouped by page, and the
// rows of each page are aligned pairwise in input order. The engine is pure:
// it performs no I/O and never mutates its inputs.
package merge

import "paper2table/internal/schema"

// MergeTablesFiles merges the given extraction results into a single
// consensus file. With rowAgreement every output row carries the number of
// source rows merged into it; with columnAgreement conflicting cells keep
// every distinct value together with its weight.
//
// The citation of the first file is used for the result.
// TODO pick the longest citation, or union them with agreement
func MergeTablesFiles(files []schema.TablesFile, rowAgreement, columnAgreement bool) (schema.TablesFile, error) {
	if len(files) == 0 {
		return schema.TablesFile{}, ErrEmptyInput
	}

	var mergedTables []schema.Table
	for _, cluster := range clusterTables(files) {
		mergedFragments := []schema.TableFragment{}
		for _, bucket := range clusterFragments(cluster) {
			if len(bucket.fragments) == 0 {
				return schema.TablesFile{}, ErrEmptyCluster
			}
			builder := newFragmentBuilder(bucket.fragments[0], rowAgreement, columnAgreement)
			for _, fragment := range bucket.fragments[1:] {
				if err := builder.alignFragment(fragment); err != nil {
					return schema.TablesFile{}, err
				}
			}
			mergedFragments = append(mergedFragments, builder.build())
		}
		mergedTables = append(mergedTables, schema.FragmentTable(mergedFragments...))
	}

	return schema.TablesFile{
		Tables:   mergedTables,
		Citation: files[0].Citation,
	}, nil
}

package merge

import (
	"sort"

	"paper2table/internal/schema"
)

// tableCluster is one positional slot across all input files: the i-th table
// of every file that has one.
type tableCluster []schema.Table

// clusterTables zips the table sequences of all files by index. Files with
// fewer tables simply contribute nothing to the trailing clusters.
func clusterTables(files []schema.TablesFile) []tableCluster {
	longest := 0
	for _, file := range files {
		if len(file.Tables) > longest {
			longest = len(file.Tables)
		}
	}
	// TODO sort so the longest cluster is seeded first
	clusters := make([]tableCluster, 0, longest)
	for i := 0; i < longest; i++ {
		var cluster tableCluster
		for _, file := range files {
			if i < len(file.Tables) {
				cluster = append(cluster, file.Tables[i])
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// pageBucket groups the fragments of one table cluster that share a page.
// Fragment order inside a bucket follows the input order of tables.
type pageBucket struct {
	page      int
	fragments []schema.TableFragment
}

// clusterFragments canonicalizes every table of the cluster into fragments
// and groups them by page. Buckets come out in ascending page order so that
// merged fragment pages stay non-decreasing.
func clusterFragments(cluster tableCluster) []pageBucket {
	byPage := map[int]int{}
	var buckets []pageBucket
	for _, table := range cluster {
		for _, fragment := range schema.TableFragments(table) {
			index, ok := byPage[fragment.Page]
			if !ok {
				index = len(buckets)
				byPage[fragment.Page] = index
				buckets = append(buckets, pageBucket{page: fragment.Page})
			}
			buckets[index].fragments = append(buckets[index].fragments, fragment)
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].page < buckets[j].page })
	return buckets
}

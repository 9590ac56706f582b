// Package bucket implements the schema -> index bucket routing described in
// spec.md §2.4 / §4.2, grounded on the original `index/indexes.py:
// schema_bucket / bucket_index / schema_index`.
package bucket

import (
	"fmt"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

// Bucket is one of the four logical index partitions.
type Bucket string

const (
	Things    Bucket = "things"
	Intervals Bucket = "intervals"
	Documents Bucket = "documents"
	Pages     Bucket = "pages"
)

// All enumerates every bucket in a stable order.
var All = []Bucket{Things, Intervals, Documents, Pages}

var pageSchemata = map[string]bool{"Page": true, "Pages": true}

// ForSchema routes a schema to its index bucket (spec §4.2/§9 GLOSSARY).
func ForSchema(catalog ftm.Catalog, schemaName string) Bucket {
	if pageSchemata[schemaName] {
		return Pages
	}
	if catalog.IsA(schemaName, "Document") {
		return Documents
	}
	if catalog.IsA(schemaName, "Interval") {
		return Intervals
	}
	// Things, and anything else (e.g. Mentions) default to the Things
	// bucket, matching the original's fallback behavior.
	return Things
}

// SchemaName returns the ancestor schema name every entity routed to this
// bucket carries in its `schemata` field (spec §4.4 line 137's
// `<bucket-schema>`), mirroring ForSchema's own routing rule in reverse.
func SchemaName(b Bucket) string {
	switch b {
	case Documents:
		return "Document"
	case Intervals:
		return "Interval"
	case Pages:
		return "Pages"
	default:
		return "Thing"
	}
}

// IndexName builds the `{prefix}-entity-{bucket}-{version}` index name.
func IndexName(prefix string, b Bucket, version string) string {
	return fmt.Sprintf("%s-entity-%s-%s", prefix, b, version)
}

// ShardFraction returns the fraction of the configured shard count this
// bucket should use (spec §4.2: documents/pages 100%, things 50%, intervals
// 33%).
func ShardFraction(b Bucket) float64 {
	switch b {
	case Documents, Pages:
		return 1.0
	case Things:
		return 0.5
	case Intervals:
		return 1.0 / 3.0
	default:
		return 1.0
	}
}

// Shards computes the number of shards for a bucket given the configured
// base shard count, always at least 1.
func Shards(b Bucket, configured int) int {
	n := int(ShardFraction(b) * float64(configured))
	if n < 1 {
		n = 1
	}
	return n
}

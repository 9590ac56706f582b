// Package query builds the Elasticsearch request bodies described in
// spec.md §4.4-§4.8: entity search, entity matching, more-like-this, and
// their shared aggregation/highlight blocks. It is grounded on the
// teacher's `app/actions/search/query.go` (typed `olivere/elastic`
// builders chained the same way) and the original `query/queries.py`,
// `query/more_like_this.py`, `query/highlight.py`, `query/util.py`.
package query

import "github.com/olivere/elastic/v7"

// Raw wraps an already-built JSON-ish value (map[string]interface{} or
// []interface{}) so it satisfies elastic.Query / elastic.Aggregation.
// olivere/elastic/v7 has no typed builder for a few constructs this spec
// needs verbatim -- `random_sampler` (an ES feature newer than v7's
// aggregation set) and the highlighter's field-specific option bags
// (`boundary_chars`, `max_analyzed_offset`, `fragmenter`, ...), which
// HighlighterField exposes unevenly across fields. Raw lets those sit
// next to typed queries/aggregations without forking the client.
type Raw map[string]interface{}

// Source implements both elastic.Query and elastic.Aggregation.
func (r Raw) Source() (interface{}, error) {
	return map[string]interface{}(r), nil
}

var (
	_ elastic.Query       = Raw(nil)
	_ elastic.Aggregation = Raw(nil)
)

// RawList wraps a JSON array value as an elastic.Query/Aggregation source,
// used for the rare construct whose top-level JSON is a list rather than
// an object.
type RawList []interface{}

func (r RawList) Source() (interface{}, error) {
	return []interface{}(r), nil
}

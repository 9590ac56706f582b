// Package executor ties query bodies built by internal/query to a
// transport, the single synchronous-round-trip boundary spec §4.9/§5
// describes: index selection across `index_read` versions and buckets,
// routing, dehydration, scroll-based scanning and msearch-based checksum
// counting. It is grounded on the original `index/indexes.py`
// (`entities_read_index`/`entities_write_index`) and `index/entities.py`
// (`iter_entities`, `entities_by_ids`, `checksums_count`).
package executor

import (
	"context"

	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/ftm"
)

// Transport is the narrow slice of *elastic.Client the executor needs,
// kept as an interface so it can be faked in tests without a live cluster.
type Transport interface {
	Client() *elastic.Client
}

// Executor runs search/scan/get/checksum operations against a set of
// read/write index versions, applying spec §4.9's index-selection and
// routing rules ahead of every request.
type Executor struct {
	Transport   Transport
	Catalog     ftm.Catalog
	IndexPrefix string
	IndexRead   []string
	IndexWrite  string
}

// New builds an Executor.
func New(t Transport, catalog ftm.Catalog, indexPrefix string, indexRead []string, indexWrite string) *Executor {
	return &Executor{Transport: t, Catalog: catalog, IndexPrefix: indexPrefix, IndexRead: indexRead, IndexWrite: indexWrite}
}

// bucketsFor returns every bucket implied by the given schema names, or
// every bucket when schemata is empty (spec §4.9: "for each bucket implied
// by target schemata").
func (e *Executor) bucketsFor(schemata []string) []bucket.Bucket {
	if len(schemata) == 0 {
		return bucket.All
	}
	seen := map[bucket.Bucket]bool{}
	var out []bucket.Bucket
	for _, name := range schemata {
		b := bucket.ForSchema(e.Catalog, name)
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// ReadIndices builds the list of index names a search/scan/get request
// should target: every `{prefix}-entity-{bucket}-{version}` implied by the
// given schemata across every configured read version (spec §4.9).
func (e *Executor) ReadIndices(schemata []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, version := range e.IndexRead {
		for _, b := range e.bucketsFor(schemata) {
			name := bucket.IndexName(e.IndexPrefix, b, version)
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// WriteIndex returns the single index new documents of the given schema
// are written to (spec §4.9 / original `entities_write_index`).
func (e *Executor) WriteIndex(schemaName string) string {
	b := bucket.ForSchema(e.Catalog, schemaName)
	return bucket.IndexName(e.IndexPrefix, b, e.IndexWrite)
}

// Search runs exactly one synchronous query against the selected indices,
// applying `routing` when the request carries a small routing key (spec
// §4.9). The raw response is handed back unmodified; Dehydrate, not
// Search, is responsible for the optional `_source.properties` strip.
func (e *Executor) Search(ctx context.Context, schemata []string, routingKey *string, src *elastic.SearchSource) (*elastic.SearchResult, error) {
	indices := e.ReadIndices(schemata)
	svc := e.Transport.Client().Search(indices...).SearchSource(src)
	if routingKey != nil && *routingKey != "" {
		svc = svc.Routing(*routingKey)
	}
	return svc.Do(ctx)
}

// Dehydrate strips `_source.properties` from every hit when requested
// (spec §4.9's one permitted post-processing step). It mutates nothing in
// place that the caller didn't already own (the decoded hit sources).
func Dehydrate(sources []map[string]interface{}, enabled bool) []map[string]interface{} {
	if !enabled {
		return sources
	}
	for _, s := range sources {
		delete(s, "properties")
	}
	return sources
}

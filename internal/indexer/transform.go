// Package indexer implements the concurrent entity-ingestion pipeline
// described in spec §5/§6: a CPU-bound preprocessing stage (entity ->
// document) feeding a network-bound bulk-submit stage, grounded on the
// teacher's `app/jobs/claim_sync.go` (`BulkProcessor().Workers(n)`) and
// the original `index/entities.py: format_proxy` / `index/util.py:
// bulk_actions_async`.
package indexer

import (
	"strings"

	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/nameproc"
)

// Document is the flat, indexable representation of one entity, ready to
// become a `_bulk` index action's `_source`.
type Document map[string]interface{}

// Transformer turns FtM entity proxies into indexable Documents (spec
// §5's "CPU-bound preprocessing stage"), the Go analogue of
// `index/entities.py: format_proxy`.
type Transformer struct {
	Catalog     ftm.Catalog
	SymbolTable nameproc.SymbolTable
	IndexPrefix string
	IndexWrite  string
}

// Transform builds one Document from a proxy, or nil when the proxy's
// schema is abstract (abstract schemata cannot be indexed directly,
// mirroring `format_proxy`'s warn-and-skip guard).
func (t *Transformer) Transform(p *ftm.Proxy) Document {
	schema, ok := t.Catalog.Get(p.Schema)
	if !ok || schema.Abstract {
		return nil
	}

	doc := Document{}
	names := p.Names(schema)

	doc[mapping.FieldSchema] = schema.Name
	doc[mapping.FieldSchemata] = t.schemata(schema)
	doc[mapping.FieldCaption] = caption(p, names)
	doc[mapping.FieldNames] = names
	doc[mapping.FieldNameKeys] = nameproc.NameKeys(schema, names)
	doc[mapping.FieldNameParts] = nameproc.NameParts(schema, names)
	doc[mapping.FieldNamePhonetic] = nameproc.Phonetic(schema, names)
	doc[mapping.FieldNameSymbols] = nameproc.Symbols(t.SymbolTable, names)

	properties := map[string]interface{}{}
	groups := map[string][]string{}
	numeric := map[string]interface{}{}
	var text []string

	for _, prop := range schema.Properties {
		if prop.Stub {
			continue
		}
		values := p.Get(prop.Name)
		if len(values) == 0 {
			continue
		}
		properties[prop.Name] = values
		if field := prop.TypeGroup.GroupField(); field != "" {
			groups[field] = append(groups[field], values...)
		}
		if prop.TypeGroup.IsText() {
			text = append(text, values...)
		}
		if prop.TypeGroup.IsNumeric() {
			numeric[prop.Name] = numericValues(values)
		}
	}
	doc[mapping.FieldProperties] = properties
	for field, values := range groups {
		doc[field] = dedupe(values)
	}
	if dates, ok := groups["dates"]; ok {
		numeric["dates"] = numericValues(dates)
	}
	doc[mapping.FieldNumeric] = numeric
	doc[mapping.FieldText] = strings.Join(text, " ")

	if t.Catalog.IsA(schema.Name, "Address") {
		if geo, ok := geoPoint(p); ok {
			doc[mapping.FieldGeoPoint] = geo
		}
	}

	doc["id"] = p.ID
	doc[mapping.FieldDataset] = p.Dataset
	collectionID := p.CollectionID
	if collectionID == "" {
		collectionID = p.Dataset
	}
	doc[mapping.FieldCollectionID] = collectionID
	doc["num_values"] = p.NumValues()

	return doc
}

// Index returns the write index this document belongs to.
func (t *Transformer) Index(schemaName string) string {
	b := bucket.ForSchema(t.Catalog, schemaName)
	return bucket.IndexName(t.IndexPrefix, b, t.IndexWrite)
}

func (t *Transformer) schemata(schema *ftm.Schema) []string {
	return schema.Ancestors
}

// caption picks the best display name: the first name property value, or
// the entity id as a last resort.
func caption(p *ftm.Proxy, names []string) string {
	if len(names) > 0 {
		return names[0]
	}
	return p.ID
}

func numericValues(values []string) []float64 {
	var out []float64
	for _, v := range values {
		if f, ok := parseFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func geoPoint(p *ftm.Proxy) (map[string]interface{}, bool) {
	lat := p.First("latitude")
	lon := p.First("longitude")
	if lat == "" || lon == "" {
		return nil, false
	}
	latF, ok1 := parseFloat(lat)
	lonF, ok2 := parseFloat(lon)
	if !ok1 || !ok2 {
		return nil, false
	}
	return map[string]interface{}{"lat": latF, "lon": lonF}, true
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

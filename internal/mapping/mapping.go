// Package mapping builds the ElasticSearch index settings and property
// mappings described in spec.md §4.2, grounded on the original
// `mapping.py` and `index/indexes.py: get_schema_bucket_mapping /
// get_numeric_mapping / configure_schema_bucket`.
package mapping

import (
	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/ftm"
)

// DefaultAnalyzer is the name of the ICU-backed text analyzer every text
// field uses, configured in Settings().
const DefaultAnalyzer = "icu_default"

// DateFormat lists the accepted partial-date formats, most to least
// specific (spec §9 GLOSSARY: "partial dates").
const DateFormat = "yyyy-MM-dd'T'HH:mm:ss||yyyy-MM-dd'T'HH:mm||yyyy-MM-dd||yyyy-MM||yyyy"

// Field name constants, mirroring mapping.py's Field class.
const (
	FieldDataset      = "dataset"
	FieldCollectionID = "collection_id"
	FieldCaption      = "caption"
	FieldSchema       = "schema"
	FieldSchemata     = "schemata"
	FieldNames        = "names"
	FieldNameKeys     = "name_keys"
	FieldNameParts    = "name_parts"
	FieldNameSymbols  = "name_symbols"
	FieldNamePhonetic = "name_phonetic"
	FieldProperties   = "properties"
	FieldNumeric      = "numeric"
	FieldGeoPoint     = "geo_point"
	FieldText         = "text"
	FieldCreatedAt    = "created_at"
	FieldUpdatedAt    = "updated_at"
	FieldRoleID       = "role_id"
	FieldProfileID    = "profile_id"
	FieldOrigin       = "origin"
)

// M is a shorthand for the JSON-ish maps the ES client sends as request
// bodies (olivere/elastic accepts any interface{} as BodyJson).
type M = map[string]interface{}

func date() M         { return M{"type": "date"} }
func partialDate() M  { return M{"type": "date", "format": DateFormat} }
func text() M {
	return M{
		"type":            "text",
		"analyzer":        DefaultAnalyzer,
		"search_analyzer": DefaultAnalyzer,
		"index_phrases":   true,
	}
}
// nameField builds the dedicated `name` field: plain free text, but
// scored with the flattened-length-norm similarity and stored for direct
// retrieval (spec §4.2 "Name field").
func nameField() M {
	return M{
		"type":            "text",
		"analyzer":        DefaultAnalyzer,
		"search_analyzer": DefaultAnalyzer,
		"index_phrases":   true,
		"similarity":      WeakLengthNormSimilarity,
		"store":           true,
	}
}

func textAnnotated() M {
	return M{
		"type":            "annotated_text",
		"analyzer":        DefaultAnalyzer,
		"search_analyzer": DefaultAnalyzer,
		"store":           true,
	}
}

// content builds the shared full-text field every text-group property's
// `copy_to` feeds into, distinct from the group/name fields that feed
// `text` (spec §4.2 line 94). `store` mirrors the pages bucket so the
// highlighter can retrieve full page text without a second fetch;
// `term_vector` is only worth the storage cost when the FVH highlighter
// is in play, gated on contentTermVectors.
func content(b bucket.Bucket, contentTermVectors bool) M {
	out := M{
		"type":            "text",
		"analyzer":        DefaultAnalyzer,
		"search_analyzer": DefaultAnalyzer,
		"index_phrases":   true,
		"store":           b == bucket.Pages,
	}
	if contentTermVectors {
		out["term_vector"] = "with_positions_offsets"
	}
	return out
}
func keyword() M     { return M{"type": "keyword", "normalizer": "kw_normalizer"} }
func keywordCopy(to string) M {
	return M{"type": "keyword", "normalizer": "kw_normalizer", "copy_to": to}
}
func numeric() M  { return M{"type": "double"} }
func geoPoint() M { return M{"type": "geo_point"} }

// typeMapping returns the raw ES field type for an FtM type group not
// otherwise driven by the default keyword mapping (spec §4.2: text/
// html/json are unindexed; date is a partial date).
func typeMapping(g ftm.TypeGroup) (M, bool) {
	switch g {
	case ftm.GroupText, ftm.GroupHTML, ftm.GroupJSON:
		return M{"type": "text", "index": false}, true
	case ftm.GroupDate:
		return partialDate(), true
	default:
		return nil, false
	}
}

// allGroups lists every FtM type group that gets a dedicated index group
// field (spec §4.2).
var allGroups = []ftm.TypeGroup{
	ftm.GroupEntity, ftm.GroupLanguage, ftm.GroupCountry, ftm.GroupChecksum,
	ftm.GroupIP, ftm.GroupURL, ftm.GroupEmail, ftm.GroupPhone,
	ftm.GroupMimetype, ftm.GroupIdentifier, ftm.GroupDate, ftm.GroupAddress,
	ftm.GroupName, ftm.GroupGender, ftm.GroupTopic,
}

// SourceExcludes lists the top-level fields dropped from `_source` on
// every stored document -- the type-group buckets plus the derived name
// fields, none of which are needed once the document is retrieved (spec
// §4.2).
func SourceExcludes() []string {
	out := []string{
		FieldText, FieldContent, FieldName, FieldNames, FieldNameKeys,
		FieldNameParts, FieldNameSymbols, FieldNamePhonetic,
	}
	for _, g := range allGroups {
		if field := g.GroupField(); field != "" {
			out = append(out, field)
		}
	}
	return out
}

// FieldContent and FieldName are the two dedicated text fields spec §4.2
// requires alongside the group `text` field: content_* copy_to destination
// for text-group properties, and a plain free-text field carrying the
// entity's own "name" property with no copy_to of its own.
const (
	FieldContent = "content"
	FieldName    = "name"
)

// BaseProperties returns the fixed, schema-independent portion of the
// mapping's `properties` object. contentTermVectors/b drive the `content`
// field's `term_vector`/`store` toggles (spec §4.2 line 94).
func BaseProperties(b bucket.Bucket, contentTermVectors bool) M {
	props := M{
		FieldDataset:      keyword(),
		FieldCollectionID: keyword(),
		FieldSchema:       keyword(),
		FieldSchemata:     keyword(),
		FieldCaption:      keyword(),
		FieldNames:        keywordCopy(FieldText),
		FieldNameKeys:     keyword(),
		FieldNameParts:    keywordCopy(FieldText),
		FieldNameSymbols:  keyword(),
		FieldNamePhonetic: keyword(),
		FieldGeoPoint:     geoPoint(),
		FieldText:         text(),
		FieldContent:      content(b, contentTermVectors),
		FieldName:         nameField(),
		"text_annotated":  textAnnotated(),
		FieldUpdatedAt:    date(),
		FieldCreatedAt:    date(),
		FieldRoleID:       keyword(),
		FieldProfileID:    keyword(),
		FieldOrigin:       keyword(),
	}
	for _, g := range allGroups {
		field := g.GroupField()
		if field == "" {
			continue
		}
		if g == ftm.GroupDate {
			props[field] = partialDate()
		} else {
			props[field] = keyword()
		}
	}
	return props
}

// NumericMapping duplicates every number/date-typed property under
// `numeric.<property>` so range aggregations and sorts have a numeric
// field to operate on (spec §4.2 "numeric duplication").
func NumericMapping(catalog ftm.Catalog) M {
	out := M{}
	for _, schema := range catalog.Schemata() {
		for _, prop := range schema.Properties {
			if prop.TypeGroup.IsNumeric() {
				out[prop.Name] = numeric()
			}
		}
	}
	return out
}

// SchemaBucketMapping builds the `properties.properties` object for one
// index bucket: every schema property routed to that bucket, text-group
// properties copy_to-wired into `content` and all others into the shared
// `text` field. When two schemata disagree
// on a property's field type, keyword wins the tie-break (spec §9 Open
// Question decision, DESIGN.md).
func SchemaBucketMapping(catalog ftm.Catalog, b bucket.Bucket) M {
	out := M{}
	for _, schema := range catalog.Schemata() {
		if schema.Abstract {
			continue
		}
		if bucket.ForSchema(catalog, schema.Name) != b {
			continue
		}
		for _, prop := range schema.Properties {
			if prop.Stub {
				continue
			}
			config, ok := typeMapping(prop.TypeGroup)
			if !ok {
				config = keyword()
			}
			config = cloneM(config)
			if prop.TypeGroup.IsText() {
				config["copy_to"] = []string{FieldContent}
			} else {
				config["copy_to"] = []string{FieldText}
			}
			if existing, found := out[prop.Name]; found {
				config = mergeKeywordWins(existing.(M), config)
			}
			out[prop.Name] = config
		}
	}
	return out
}

func cloneM(m M) M {
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeKeywordWins resolves a property type conflict across schemata
// sharing one index bucket: whichever side is a keyword type survives.
func mergeKeywordWins(existing, incoming M) M {
	if existing["type"] == "keyword" {
		return existing
	}
	if incoming["type"] == "keyword" {
		return incoming
	}
	return incoming
}

// BuildBucketMapping assembles the full mapping document for one index
// bucket (spec §4.2), the Go analogue of `configure_schema_bucket`.
func BuildBucketMapping(catalog ftm.Catalog, b bucket.Bucket, contentTermVectors bool) M {
	props := BaseProperties(b, contentTermVectors)
	props[FieldProperties] = M{"type": "object", "properties": SchemaBucketMapping(catalog, b)}
	props[FieldNumeric] = M{"type": "object", "properties": NumericMapping(catalog)}

	return M{
		"date_detection": false,
		"dynamic":        false,
		"_source":        M{"excludes": SourceExcludes()},
		"properties":     props,
	}
}

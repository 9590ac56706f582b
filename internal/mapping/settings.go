package mapping

import "github.com/openaleph/openaleph-search/internal/bucket"

// MaxTimeout bounds the master/timeout parameters on index admin calls
// (spec §4.2, grounded on `index/util.py: MAX_TIMEOUT`).
const MaxTimeout = "700s"

// analysis builds the shared `analysis` settings block: the ICU-backed
// default/strip-html analyzers, the three keyword normalizers, and the
// custom char filters they share, grounded on the original's reliance on
// the analysis-icu plugin (spec §4.2's literal analyzer/normalizer/
// char-filter lists).
func analysis() M {
	return M{
		"char_filter": M{
			"remove_punctuation": M{
				"type":        "pattern_replace",
				"pattern":     `[^\p{L}\p{N}]`,
				"replacement": " ",
			},
			"squash_spaces": M{
				"type":        "pattern_replace",
				"pattern":     `\s+`,
				"replacement": " ",
			},
			"remove_html_tags": M{
				"type":        "pattern_replace",
				"pattern":     `<[^>]*>`,
				"replacement": " ",
			},
		},
		"filter": M{
			"icu_folding_filter": M{"type": "icu_folding"},
		},
		"normalizer": M{
			// icu-default: ICU folding only.
			DefaultAnalyzer: M{
				"type":   "custom",
				"filter": []string{"icu_folding_filter"},
			},
			// name-kw-normalizer: strip non-letter/digit, collapse
			// whitespace, lowercase, ASCII fold, trim.
			"name_kw_normalizer": M{
				"type":        "custom",
				"char_filter": []string{"remove_punctuation", "squash_spaces"},
				"filter":      []string{"lowercase", "asciifolding", "trim"},
			},
			// kw-normalizer: trim, HTML strip, collapse whitespace.
			"kw_normalizer": M{
				"type":        "custom",
				"char_filter": []string{"remove_html_tags", "squash_spaces"},
				"filter":      []string{"trim"},
			},
		},
		"analyzer": M{
			// icu-default: ICU tokenizer + ICU folding + ICU normalizer +
			// HTML strip char filter.
			DefaultAnalyzer: M{
				"type":        "custom",
				"tokenizer":   "icu_tokenizer",
				"char_filter": []string{"remove_html_tags"},
				"filter":      []string{"icu_normalizer", "icu_folding_filter"},
			},
			// strip-html: standard tokenizer, HTML strip, lowercase,
			// ASCII folding, trim.
			"strip_html": M{
				"type":        "custom",
				"tokenizer":   "standard",
				"char_filter": []string{"remove_html_tags"},
				"filter":      []string{"lowercase", "asciifolding", "trim"},
			},
		},
	}
}

// WeakLengthNormSimilarity names the flattened-length-norm BM25 variant
// attached to the `name` field (spec §4.2), so long captions/titles aren't
// penalized as harshly as default BM25 would score them.
const WeakLengthNormSimilarity = "weak_length_norm"

// similarity configures the BM25 variant with a flattened length norm, so
// very long documents (e.g. full-text pages) are not penalized as harshly
// as default BM25 would (spec §4.2 / §9 design note).
func similarity() M {
	return M{
		WeakLengthNormSimilarity: M{
			"type": "BM25",
			"b":    0.25,
		},
	}
}

// IndexSettings builds the `settings` document for one bucket's index,
// scaling the shard count by the bucket's configured fraction (spec
// §4.2), the Go analogue of `index/util.py: index_settings`.
func IndexSettings(b bucket.Bucket, configuredShards, replicas int, refreshInterval string, testing bool) M {
	shards := bucket.Shards(b, configuredShards)
	if testing {
		shards = 1
		replicas = 0
	}
	return M{
		"index": M{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
			"refresh_interval":   refreshInterval,
			"similarity":         similarity(),
		},
		"analysis": analysis(),
	}
}

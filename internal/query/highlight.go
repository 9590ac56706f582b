package query

import "github.com/openaleph/openaleph-search/internal/settings"

// HighlightOptions carries the request-level highlight knobs from the
// parsed parameter view (spec §4.7).
type HighlightOptions struct {
	Count                      int
	MaxHighlightAnalyzedOffset int
}

// contentHighlighter returns the `content` field's highlighter config: FVH
// when enabled and term vectors are stored, Unified otherwise (spec §4.7,
// grounded on `query/highlight.py: get_highlighter`).
func contentHighlighter(s *settings.Settings, opts HighlightOptions, highlightQuery Raw) Raw {
	fragments := s.HighlighterNumberOfFragments
	if opts.Count > 0 {
		fragments = opts.Count
	}
	maxOffset := s.HighlighterMaxAnalyzedOffset
	if opts.MaxHighlightAnalyzedOffset > 0 {
		maxOffset = opts.MaxHighlightAnalyzedOffset
	}

	if s.HighlighterFVHEnabled && s.ContentTermVectors {
		h := Raw{
			"type":                "fvh",
			"fragment_size":       s.HighlighterFragmentSize,
			"number_of_fragments": fragments,
			"phrase_limit":        s.HighlighterPhraseLimit,
			"order":               "score",
			"boundary_scanner":    "sentence",
			"boundary_max_scan":   s.HighlighterBoundaryMaxScan,
			"no_match_size":       s.HighlighterNoMatchSize,
			"fragmenter":          "span",
			"max_analyzed_offset": maxOffset,
		}
		if highlightQuery != nil {
			h["highlight_query"] = highlightQuery
		}
		return h
	}
	h := Raw{
		"type":                "unified",
		"fragment_size":       s.HighlighterFragmentSize,
		"number_of_fragments": fragments,
		"order":               "score",
		"boundary_scanner":    "sentence",
		"no_match_size":       s.HighlighterNoMatchSize,
		"max_analyzed_offset": maxOffset,
	}
	if highlightQuery != nil {
		h["highlight_query"] = highlightQuery
	}
	return h
}

// nameHighlighter returns the `name` field's highlighter: Unified, tuned
// for short human-readable strings, with the default <em> markup (spec
// §4.7).
func nameHighlighter() Raw {
	return Raw{
		"type":                "unified",
		"fragment_size":       200,
		"number_of_fragments": 3,
		"fragmenter":          "simple",
		"pre_tags":            []string{"<em>"},
		"post_tags":           []string{"</em>"},
	}
}

// namesHighlighter returns the `names` field's highlighter: Plain, fast
// exact matching over keyword values, with the default <em> markup (spec
// §4.7).
func namesHighlighter() Raw {
	return Raw{
		"type":                "plain",
		"number_of_fragments": 3,
		"max_analyzed_offset": 999999,
		"pre_tags":            []string{"<em>"},
		"post_tags":           []string{"</em>"},
	}
}

// plainHighlighter is the fallback for every other field (spec §4.7).
func plainHighlighter(highlightQuery Raw) Raw {
	h := Raw{
		"type":                "plain",
		"fragment_size":       150,
		"number_of_fragments": 1,
	}
	if highlightQuery != nil {
		h["highlight_query"] = highlightQuery
	}
	return h
}

// GetHighlighter selects a field's highlighter config per spec §4.7.
func GetHighlighter(s *settings.Settings, field string, opts HighlightOptions, highlightQuery Raw) Raw {
	switch field {
	case "content":
		return contentHighlighter(s, opts, highlightQuery)
	case "name":
		return nameHighlighter()
	case "names":
		return namesHighlighter()
	default:
		return plainHighlighter(highlightQuery)
	}
}

// HighlightBlock builds the top-level `highlight` request body over the
// standard field set (spec §4.7).
func HighlightBlock(s *settings.Settings, opts HighlightOptions, highlightQuery Raw) Raw {
	return Raw{
		"fields": Raw{
			"content":      GetHighlighter(s, "content", opts, highlightQuery),
			"name":         GetHighlighter(s, "name", opts, nil),
			"names":        GetHighlighter(s, "names", opts, nil),
			"text":         GetHighlighter(s, "text", opts, highlightQuery),
			"properties.*": GetHighlighter(s, "properties.*", opts, highlightQuery),
		},
	}
}

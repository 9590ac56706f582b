// Package params implements the URL-style query grammar parser described in
// spec.md §4.3: an ordered list of (key, value) pairs in, a typed View out.
// It is deliberately decoupled from net/http (spec §1: "the thin HTTP I/O
// glue" is an external collaborator) -- callers parse a query string or an
// already-ordered pair list, whichever they have.
package params

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	v "github.com/lbryio/ozzo-validation"

	"github.com/openaleph/openaleph-search/internal/auth"
)

// MaxPage bounds offset+limit (spec §4.3).
const MaxPage = 9999

const defaultLimit = 20

// KV is one (key, value) pair from the input query, order-significant.
type KV struct {
	Key   string
	Value string
}

// ParseQueryString splits a raw URL query string into an ordered list of
// (key, value) pairs, preserving repetition and ordering -- unlike
// net/url.Values (a map), this is what the round-trip property in spec §8.7
// needs.
func ParseQueryString(raw string) ([]KV, error) {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil, nil
	}
	var out []KV
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		var key, value string
		if i := strings.IndexByte(part, '='); i >= 0 {
			key, value = part[:i], part[i+1:]
		} else {
			key = part
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, &Error{Msg: fmt.Sprintf("invalid parameter key %q: %s", key, err)}
		}
		val, err := url.QueryUnescape(value)
		if err != nil {
			return nil, &Error{Msg: fmt.Sprintf("invalid parameter value for %q: %s", key, err)}
		}
		out = append(out, KV{Key: k, Value: val})
	}
	return out, nil
}

// Unparse renders a View back into an ordered pair list for Parse, used by
// the round-trip testable property in spec §8.7. It renders q, prefix,
// offset, limit, sort, filters, exclusions, empties, range filters, each
// facet with its size/total/interval, highlight and dehydrate. NextLimit,
// HighlightCount, MaxHighlightAnalyzedOffset, a facet's values flag, the
// significant-terms and significant-text configs and the MLT settings are
// not rendered, so Parse of the result does not restore them.
func (v *View) Unparse() []KV {
	var out []KV
	if v.HasQ {
		out = append(out, KV{"q", v.Q})
	}
	if v.HasPrefix {
		out = append(out, KV{"prefix", v.Prefix})
	}
	out = append(out, KV{"offset", strconv.Itoa(v.Offset)})
	out = append(out, KV{"limit", strconv.Itoa(v.Limit)})
	for _, s := range v.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		out = append(out, KV{"sort", s.Field + ":" + dir})
	}
	for _, field := range sortedKeys(v.Filters) {
		for _, val := range v.Filters[field] {
			out = append(out, KV{"filter:" + field, val})
		}
	}
	for _, field := range sortedKeys(v.Exclusions) {
		for _, val := range v.Exclusions[field] {
			out = append(out, KV{"exclude:" + field, val})
		}
	}
	for _, field := range sortedKeysBool(v.Empties) {
		out = append(out, KV{"empty:" + field, "true"})
	}
	for _, r := range v.Ranges {
		out = append(out, KV{"filter:" + r.Op + ":" + r.Field, r.Value})
	}
	for _, f := range v.Facets {
		out = append(out, KV{"facet", f.Field})
		if f.Size != nil {
			out = append(out, KV{"facet_size:" + f.Field, strconv.Itoa(*f.Size)})
		}
		if f.Total != nil {
			out = append(out, KV{"facet_total:" + f.Field, strconv.FormatBool(*f.Total)})
		}
		if f.Interval != nil {
			out = append(out, KV{"facet_interval:" + f.Field, *f.Interval})
		}
	}
	if v.Highlight {
		out = append(out, KV{"highlight", "true"})
	}
	if v.Dehydrate {
		out = append(out, KV{"dehydrate", "true"})
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysBool(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Error is a Parameter-kind error (spec §7.1): it never reaches the
// cluster.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// AuthorizationError reports spec §7 error kind 2's "missing auth" case:
// search_auth is enabled but the caller supplied no Authorization object.
// Unlike mismatched filter values on the auth field (silently intersected
// away), this is the one authorization failure that is surfaced.
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "search_auth is enabled but no authorization was provided"
}

// SortField is one entry of the `sort` parameter.
type SortField struct {
	Field string
	Desc  bool
}

// RangeFilter is one `filter:<op>:<field>=<value>` entry.
type RangeFilter struct {
	Field string
	Op    string // gt, gte, lt, lte
	Value string
}

// FacetConfig carries a facet field plus its optional sub-parameters.
type FacetConfig struct {
	Field    string
	Size     *int
	Total    *bool
	Values   *bool
	Type     *string
	Interval *string
}

// SignificantTermsConfig carries a `facet_significant` field plus its
// optional sub-parameters.
type SignificantTermsConfig struct {
	Field  string
	Size   *int
	Total  *bool
	Values *bool
	Type   *string
}

// SignificantTextConfig carries the single `facet_significant_text` field
// configuration.
type SignificantTextConfig struct {
	Field        string
	Size         *int
	MinDocCount  *int
	ShardSize    *int
}

// MLTParams carries more-like-this tuning knobs.
type MLTParams struct {
	MinDocFreq         *int
	MinTermFreq        *int
	MaxQueryTerms      *int
	MinimumShouldMatch *string
}

// View is the typed, validated parameter view spec §4.3 describes.
type View struct {
	Q          string
	HasQ       bool
	Prefix     string
	HasPrefix  bool
	Offset     int
	Limit      int
	NextLimit  int
	Sort       []SortField
	Filters    map[string][]string
	Exclusions map[string][]string
	Empties    map[string]bool
	Ranges     []RangeFilter

	Facets           []FacetConfig
	SignificantTerms []SignificantTermsConfig
	SignificantText  *SignificantTextConfig

	Highlight                  bool
	HighlightCount             int
	MaxHighlightAnalyzedOffset int

	MLT MLTParams

	Dehydrate bool

	// Computed.
	Page         int
	Datasets     []string
	CollectionIDs []string
	RoutingKey   *string

	Auth *auth.Authorization
}

// Options configures Parse.
type Options struct {
	Authorization   *auth.Authorization
	OpenAlephMode   bool
	DefaultLimit    int
	RoutingMaxItems int // max distinct dataset/collection values still eligible for routing
	// RequireAuth mirrors Settings.SearchAuth: when true, Parse rejects a
	// request carrying no Authorization object (spec §7 error kind 2).
	RequireAuth bool
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultLimit
	}
	if o.RoutingMaxItems <= 0 {
		o.RoutingMaxItems = 1
	}
	return o
}

// Parse builds a View from an ordered (key, value) pair list (spec §4.3).
// Unknown keys are ignored. Returns a *Error for malformed input (bad
// types, offset+limit over MaxPage); it never contacts the cluster.
func Parse(pairs []KV, opts Options) (*View, error) {
	opts = opts.withDefaults()

	if opts.RequireAuth && opts.Authorization == nil {
		return nil, &AuthorizationError{}
	}

	view := &View{
		Limit:      opts.DefaultLimit,
		Filters:    map[string][]string{},
		Exclusions: map[string][]string{},
		Empties:    map[string]bool{},
		Auth:       opts.Authorization,
	}

	facetIdx := map[string]int{}
	sigIdx := map[string]int{}
	var limitSet bool

	for _, kv := range pairs {
		key, val := kv.Key, kv.Value
		switch {
		case key == "q":
			view.Q, view.HasQ = val, true
		case key == "prefix":
			view.Prefix, view.HasPrefix = val, true
		case key == "offset":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.Offset = n
		case key == "limit":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.Limit = n
			limitSet = true
		case key == "next_limit":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.NextLimit = n
		case key == "sort":
			view.Sort = append(view.Sort, parseSort(val))
		case key == "highlight":
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			view.Highlight = b
		case key == "highlight_count":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.HighlightCount = n
		case key == "max_highlight_analyzed_offset":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.MaxHighlightAnalyzedOffset = n
		case key == "dehydrate":
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			view.Dehydrate = b
		case key == "facet":
			if _, ok := facetIdx[val]; !ok {
				facetIdx[val] = len(view.Facets)
				view.Facets = append(view.Facets, FacetConfig{Field: val})
			}
		case key == "facet_significant":
			if _, ok := sigIdx[val]; !ok {
				sigIdx[val] = len(view.SignificantTerms)
				view.SignificantTerms = append(view.SignificantTerms, SignificantTermsConfig{Field: val})
			}
		case key == "facet_significant_text":
			view.SignificantText = ensureSigText(view.SignificantText)
			view.SignificantText.Field = val
		case key == "facet_significant_text_size":
			view.SignificantText = ensureSigText(view.SignificantText)
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.SignificantText.Size = &n
		case key == "facet_significant_text_min_doc_count":
			view.SignificantText = ensureSigText(view.SignificantText)
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.SignificantText.MinDocCount = &n
		case key == "facet_significant_text_shard_size":
			view.SignificantText = ensureSigText(view.SignificantText)
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.SignificantText.ShardSize = &n
		case key == "mlt_min_doc_freq":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.MLT.MinDocFreq = &n
		case key == "mlt_min_term_freq":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.MLT.MinTermFreq = &n
		case key == "mlt_max_query_terms":
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			view.MLT.MaxQueryTerms = &n
		case key == "mlt_minimum_should_match":
			vv := val
			view.MLT.MinimumShouldMatch = &vv
		case strings.HasPrefix(key, "filter:"):
			rest := strings.TrimPrefix(key, "filter:")
			if field, op, ok := splitRangeOp(rest); ok {
				view.Ranges = append(view.Ranges, RangeFilter{Field: field, Op: op, Value: val})
			} else {
				view.Filters[rest] = append(view.Filters[rest], val)
			}
		case strings.HasPrefix(key, "exclude:"):
			field := strings.TrimPrefix(key, "exclude:")
			view.Exclusions[field] = append(view.Exclusions[field], val)
		case strings.HasPrefix(key, "empty:"):
			field := strings.TrimPrefix(key, "empty:")
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			if b {
				view.Empties[field] = true
			}
		case strings.HasPrefix(key, "facet_size:"):
			field := strings.TrimPrefix(key, "facet_size:")
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			fc := ensureFacet(view, facetIdx, field)
			fc.Size = &n
		case strings.HasPrefix(key, "facet_total:"):
			field := strings.TrimPrefix(key, "facet_total:")
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			fc := ensureFacet(view, facetIdx, field)
			fc.Total = &b
		case strings.HasPrefix(key, "facet_values:"):
			field := strings.TrimPrefix(key, "facet_values:")
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			fc := ensureFacet(view, facetIdx, field)
			fc.Values = &b
		case strings.HasPrefix(key, "facet_type:"):
			field := strings.TrimPrefix(key, "facet_type:")
			fc := ensureFacet(view, facetIdx, field)
			vv := val
			fc.Type = &vv
		case strings.HasPrefix(key, "facet_interval:"):
			field := strings.TrimPrefix(key, "facet_interval:")
			fc := ensureFacet(view, facetIdx, field)
			vv := val
			fc.Interval = &vv
		case strings.HasPrefix(key, "facet_significant_size:"):
			field := strings.TrimPrefix(key, "facet_significant_size:")
			n, err := parseInt(key, val)
			if err != nil {
				return nil, err
			}
			sc := ensureSig(view, sigIdx, field)
			sc.Size = &n
		case strings.HasPrefix(key, "facet_significant_total:"):
			field := strings.TrimPrefix(key, "facet_significant_total:")
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			sc := ensureSig(view, sigIdx, field)
			sc.Total = &b
		case strings.HasPrefix(key, "facet_significant_type:"):
			field := strings.TrimPrefix(key, "facet_significant_type:")
			sc := ensureSig(view, sigIdx, field)
			vv := val
			sc.Type = &vv
		case strings.HasPrefix(key, "facet_significant_values:"):
			field := strings.TrimPrefix(key, "facet_significant_values:")
			b, err := parseBool(key, val)
			if err != nil {
				return nil, err
			}
			sc := ensureSig(view, sigIdx, field)
			sc.Values = &b
		default:
			// unknown keys are ignored (spec §4.3 validation)
		}
	}

	if !limitSet {
		view.Limit = opts.DefaultLimit
	}
	if view.NextLimit <= 0 {
		view.NextLimit = view.Limit
	}
	if err := v.Validate(view.Offset+view.Limit, v.Max(MaxPage)); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("offset+limit exceeds %d", MaxPage)}
	}
	view.Page = 0
	if view.Limit > 0 {
		view.Page = view.Offset / view.Limit
	}

	authField := auth.Field(opts.OpenAlephMode)
	requested := view.Filters[authField]
	var allowed []string
	if opts.OpenAlephMode {
		allowed = opts.Authorization.IntersectCollections(requested)
		view.CollectionIDs = allowed
	} else {
		allowed = opts.Authorization.IntersectDatasets(requested)
		view.Datasets = allowed
	}

	combined := view.Datasets
	if opts.OpenAlephMode {
		combined = view.CollectionIDs
	}
	if len(combined) > 0 && len(combined) <= opts.RoutingMaxItems {
		key := strings.Join(combined, ",")
		view.RoutingKey = &key
	}

	return view, nil
}

func ensureFacet(view *View, idx map[string]int, field string) *FacetConfig {
	i, ok := idx[field]
	if !ok {
		idx[field] = len(view.Facets)
		view.Facets = append(view.Facets, FacetConfig{Field: field})
		i = idx[field]
	}
	return &view.Facets[i]
}

func ensureSig(view *View, idx map[string]int, field string) *SignificantTermsConfig {
	i, ok := idx[field]
	if !ok {
		idx[field] = len(view.SignificantTerms)
		view.SignificantTerms = append(view.SignificantTerms, SignificantTermsConfig{Field: field})
		i = idx[field]
	}
	return &view.SignificantTerms[i]
}

func ensureSigText(c *SignificantTextConfig) *SignificantTextConfig {
	if c == nil {
		return &SignificantTextConfig{Field: "content"}
	}
	return c
}

func splitRangeOp(rest string) (field, op string, ok bool) {
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return "", "", false
	}
	candidate := rest[:i]
	switch candidate {
	case "gt", "gte", "lt", "lte":
		return rest[i+1:], candidate, true
	default:
		return "", "", false
	}
}

func parseSort(val string) SortField {
	field, dir := val, "asc"
	if i := strings.LastIndexByte(val, ':'); i >= 0 {
		field, dir = val[:i], val[i+1:]
	}
	return SortField{Field: field, Desc: strings.EqualFold(dir, "desc")}
}

func parseInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, &Error{Msg: fmt.Sprintf("invalid integer for %q: %q", key, val)}
	}
	return n, nil
}

func parseBool(key, val string) (bool, error) {
	switch val {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, &Error{Msg: fmt.Sprintf("invalid boolean for %q: %q", key, val)}
	}
}

// GetFacet returns the facet config for a field, if declared.
func (view *View) GetFacet(field string) (FacetConfig, bool) {
	for _, f := range view.Facets {
		if f.Field == field {
			return f, true
		}
	}
	return FacetConfig{}, false
}

// FacetSize returns the configured facet size or `def` if unset.
func (f FacetConfig) FacetSize(def int) int {
	if f.Size != nil {
		return *f.Size
	}
	return def
}

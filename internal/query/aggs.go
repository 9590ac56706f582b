package query

import (
	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/settings"
)

// smallFacets are exempt from the unauthenticated size cap (spec §4.6
// SMALL_FACETS).
var smallFacets = map[string]bool{
	"schema": true, "schemata": true, "dataset": true,
	"countries": true, "languages": true,
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// AggregationBuilder assembles the facet/significant-terms/significant-text
// aggregation tree described in spec §4.6, grounded on the post-filter
// isolation and background-filter rules spelled out there (the original
// pack carries no aggregation code of its own -- lighthouse doesn't facet
// -- so this is built directly from the spec using the same
// bool/filter/terms building blocks as the rest of this package).
type AggregationBuilder struct {
	View          *params.View
	Auth          *auth.Authorization
	AuthField     string
	Authenticated bool
	Settings      *settings.Settings
	// DateFields names fields that should use date_histogram when a
	// facet_interval is requested on them.
	DateFields map[string]bool

	// RandomSamplerProbability, when non-nil, overrides the diversified
	// sampler with a precomputed `random_sampler` probability (spec §4.6:
	// "substitute random_sampler ... using a pre-query _count"). Query
	// building stays I/O-free per spec §5, so the value comes from the
	// caller of Service.Entities; no package here runs that _count, and
	// the cmd callers pass nil.
	RandomSamplerProbability map[string]float64
}

// isolatedFilter builds the conjunction of every active filter except
// those on `except`, the Go analogue of spec §4.6's "post-filter
// isolation" and the GLOSSARY entry of the same name.
func (ab *AggregationBuilder) isolatedFilter(except string) elastic.Query {
	b := elastic.NewBoolQuery()
	for field, values := range ab.View.Filters {
		if field == except {
			continue
		}
		b.Filter(FieldFilterQuery(field, values))
	}
	for _, r := range ab.View.Ranges {
		if r.Field == except {
			continue
		}
		b.Filter(RangeFilterQuery(r))
	}
	if len(ab.View.Exclusions) > 0 {
		mustNot := elastic.NewBoolQuery()
		for field, values := range ab.View.Exclusions {
			if field == except {
				continue
			}
			mustNot.MustNot(ExclusionClause(field, values))
		}
		b.Filter(mustNot)
	}
	if len(ab.View.Empties) > 0 {
		mustNot := elastic.NewBoolQuery()
		for field := range ab.View.Empties {
			if field == except {
				continue
			}
			mustNot.MustNot(EmptyClause(field))
		}
		b.Filter(mustNot)
	}
	authorized := ab.authorizedValues()
	if except == ab.AuthField {
		if ab.AuthField == auth.Field(true) {
			authorized = ab.Auth.IntersectCollections(nil)
		} else {
			authorized = ab.Auth.IntersectDatasets(nil)
		}
	}
	if ab.Auth != nil || len(authorized) > 0 {
		b.Filter(DatasetsFilter(ab.Auth, ab.AuthField, authorized))
	}
	return b
}

func (ab *AggregationBuilder) authorizedValues() []string {
	if ab.AuthField == auth.Field(true) {
		return ab.View.CollectionIDs
	}
	return ab.View.Datasets
}

// backgroundFilter scopes significant-terms/text scoring to the active
// dataset/collection selection, or omits the filter entirely to use
// index-level statistics when nothing is selected (spec §4.6).
func (ab *AggregationBuilder) backgroundFilter() elastic.Query {
	authorized := ab.authorizedValues()
	if len(authorized) == 0 {
		return nil
	}
	return DatasetsFilter(ab.Auth, ab.AuthField, authorized)
}

// FacetAggregation builds one regular facet's aggregation tree: a filter
// aggregation (the isolation wrapper) around a terms or date_histogram
// aggregation, with an optional sibling cardinality total.
func (ab *AggregationBuilder) FacetAggregation(fc params.FacetConfig) (string, elastic.Aggregation) {
	size := fc.FacetSize(20)
	total := fc.Total != nil && *fc.Total
	wantBuckets := fc.Values == nil || *fc.Values

	if !ab.Authenticated && !smallFacets[fc.Field] {
		if size > 50 {
			size = 50
		}
		total = false
	}

	filterAgg := elastic.NewFilterAggregation().Filter(ab.isolatedFilter(fc.Field))

	if wantBuckets {
		if fc.Interval != nil && ab.DateFields[fc.Field] {
			filterAgg = filterAgg.SubAggregation("buckets", ab.dateHistogramAggregation(fc, *fc.Interval))
		} else {
			terms := elastic.NewTermsAggregation().Field(fc.Field).Size(size).ExecutionHint("map")
			filterAgg = filterAgg.SubAggregation("buckets", terms)
		}
	}
	if total {
		filterAgg = filterAgg.SubAggregation("total", elastic.NewCardinalityAggregation().Field(fc.Field))
	}
	return fc.Field, filterAgg
}

// dateHistogramAggregation builds the date_histogram replacement for a
// facet_interval request, adding extended_bounds when a matching range
// filter exists (spec §4.6, §8 scenario D).
func (ab *AggregationBuilder) dateHistogramAggregation(fc params.FacetConfig, interval string) elastic.Aggregation {
	dh := elastic.NewDateHistogramAggregation().
		Field(fc.Field).
		CalendarInterval(interval).
		Format(mapping.DateFormat).
		MinDocCount(0)
	if min, max, ok := ab.rangeBounds(fc.Field); ok {
		dh = dh.ExtendedBounds(min, max)
	}
	return dh
}

func (ab *AggregationBuilder) rangeBounds(field string) (min, max string, ok bool) {
	for _, r := range ab.View.Ranges {
		if r.Field != field {
			continue
		}
		switch r.Op {
		case "gt", "gte":
			min = r.Value
		case "lt", "lte":
			max = r.Value
		}
	}
	return min, max, min != "" && max != ""
}

// sigSize applies the default/override pattern shared by significant
// terms and significant text.
func sigSize(size *int) int {
	if size != nil {
		return *size
	}
	return 20
}

// wrapSampler picks between a plain sampler (when a dataset/collection
// filter already narrows the corpus) and a diversified sampler keyed on
// the auth field (when it doesn't), or a random_sampler when the settings
// flag and a precomputed probability are both present (spec §4.6).
func (ab *AggregationBuilder) wrapSampler(field string, inner elastic.Aggregation) elastic.Aggregation {
	if ab.Settings.SignificantTermsRandomSampler {
		if p, ok := ab.RandomSamplerProbability[field]; ok {
			return Raw{
				"random_sampler": Raw{"probability": p},
				"aggs":           Raw{"significant": mustSource(inner)},
			}
		}
	}
	shardSize := ab.Settings.SignificantTermsSamplerSize
	if len(ab.authorizedValues()) > 0 {
		return elastic.NewSamplerAggregation().ShardSize(shardSize).SubAggregation("significant", inner)
	}
	return elastic.NewDiversifiedSamplerAggregation().ShardSize(shardSize).Field(ab.AuthField).SubAggregation("significant", inner)
}

func mustSource(agg elastic.Aggregation) interface{} {
	src, err := agg.Source()
	if err != nil {
		return nil
	}
	return src
}

// SignificantTermsAggregation builds one `facet_significant` field's
// sampler-wrapped significant_terms aggregation.
func (ab *AggregationBuilder) SignificantTermsAggregation(sc params.SignificantTermsConfig) (string, elastic.Aggregation) {
	size := sigSize(sc.Size)
	sig := elastic.NewSignificantTermsAggregation().
		Field(sc.Field).
		MinDocCount(ab.Settings.MinDocCount).
		ShardMinDocCount(ab.Settings.ShardMinDocCount).
		ShardSize(maxInt(100, size*5)).
		Size(size).
		ExecutionHint("map")
	if bg := ab.backgroundFilter(); bg != nil {
		sig = sig.BackgroundFilter(bg)
	}
	return sc.Field, ab.wrapSampler(sc.Field, sig)
}

// SignificantTextAggregation builds the single `facet_significant_text`
// field's sampler-wrapped significant_text aggregation.
func (ab *AggregationBuilder) SignificantTextAggregation(sc *params.SignificantTextConfig) (string, elastic.Aggregation) {
	size := sigSize(sc.Size)
	minDocCount := ab.Settings.MinDocCount
	if sc.MinDocCount != nil {
		minDocCount = *sc.MinDocCount
	}
	shardSize := maxInt(100, size*5)
	if sc.ShardSize != nil {
		shardSize = *sc.ShardSize
	}
	sig := elastic.NewSignificantTextAggregation().
		Field(sc.Field).
		FilterDuplicateText(true).
		Size(size).
		MinDocCount(minDocCount).
		ShardSize(shardSize)
	if bg := ab.backgroundFilter(); bg != nil {
		sig = sig.BackgroundFilter(bg)
	}
	return sc.Field, ab.wrapSampler(sc.Field, sig)
}

// Build assembles every requested facet/significant-terms/significant-text
// aggregation into the top-level `aggs` map.
func (ab *AggregationBuilder) Build() map[string]elastic.Aggregation {
	out := map[string]elastic.Aggregation{}
	for _, fc := range ab.View.Facets {
		name, agg := ab.FacetAggregation(fc)
		out[name] = agg
	}
	for _, sc := range ab.View.SignificantTerms {
		name, agg := ab.SignificantTermsAggregation(sc)
		out["significant_"+name] = agg
	}
	if ab.View.SignificantText != nil {
		name, agg := ab.SignificantTextAggregation(ab.View.SignificantText)
		out["significant_text_"+name] = agg
	}
	return out
}

package query

import (
	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/bucket"
	"github.com/openaleph/openaleph-search/internal/mapping"
	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/settings"
)

// DatasetsFilter builds the authorization filter clause, the Go analogue
// of `query/util.py: datasets_query`: admins bypass scoping entirely, an
// empty allowed set matches nothing, otherwise a terms filter on the
// dataset/collection field.
func DatasetsFilter(a *auth.Authorization, field string, datasets []string) elastic.Query {
	isAdmin := a != nil && a.IsAdmin
	if isAdmin {
		return elastic.NewMatchAllQuery()
	}
	if len(datasets) == 0 {
		return elastic.NewMatchNoneQuery()
	}
	values := make([]interface{}, len(datasets))
	for i, d := range datasets {
		values[i] = d
	}
	return elastic.NewTermsQuery(field, values...)
}

// FieldFilterQuery builds a term/terms clause for a single filter field,
// the Go analogue of `query/util.py: field_filter_query`. `_id`/`id`
// route to an ids query; `names` is redirected to the stored fingerprint
// field since raw names aren't filterable directly.
func FieldFilterQuery(field string, values []string) elastic.Query {
	if len(values) == 0 {
		return elastic.NewMatchAllQuery()
	}
	switch field {
	case "_id", "id":
		return elastic.NewIdsQuery().Ids(values...)
	case "names":
		field = "name_keys"
	}
	if len(values) == 1 {
		return elastic.NewTermQuery(field, values[0])
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return elastic.NewTermsQuery(field, vals...)
}

// RangeFilterQuery builds a single range clause from a parsed range
// filter (spec §4.3 `filter:<op>:<field>`).
func RangeFilterQuery(r params.RangeFilter) *elastic.RangeQuery {
	q := elastic.NewRangeQuery(r.Field)
	switch r.Op {
	case "gt":
		q.Gt(r.Value)
	case "gte":
		q.Gte(r.Value)
	case "lt":
		q.Lt(r.Value)
	case "lte":
		q.Lte(r.Value)
	}
	return q
}

// ExclusionClause builds the `must_not` wrapper for one `exclude:<field>`
// entry.
func ExclusionClause(field string, values []string) elastic.Query {
	return FieldFilterQuery(field, values)
}

// EmptyClause builds the `must_not exists` wrapper for one
// `empty:<field>=true` entry.
func EmptyClause(field string) elastic.Query {
	return elastic.NewExistsQuery(field)
}

// facetedFields returns the set of fields a facet is requested on, the Go
// analogue of walking the original's `facet` parameter list.
func facetedFields(view *params.View) map[string]bool {
	out := map[string]bool{}
	for _, fc := range view.Facets {
		out[fc.Field] = true
	}
	return out
}

// BaseFilters assembles the shared filter list every query builder
// applies: schema/schemata, user filters, ranges, exclusions, empties,
// and auth scoping. `skip` names fields the caller already applied
// elsewhere (EntitiesQuery.SKIP_FILTERS in the original skips
// schema/schemata since get_index already narrowed by them).
//
// A user filter on a field that also has a facet requested on it is
// routed into the returned post-filter instead of the main filter list,
// matching the original's `get_filters()`/`get_post_filters()` split
// (`tests/test_search_query.py::test_post_filters`): applying it to the
// main query would narrow the hit set the facet's own aggregation runs
// against, so `filter:dataset=A&facet=dataset` would only ever report
// bucket A instead of every dataset's count (spec §8 scenario C).
func BaseFilters(view *params.View, a *auth.Authorization, authField string, skip map[string]bool) (filters []elastic.Query, postFilter elastic.Query) {
	faceted := facetedFields(view)
	var postClauses []elastic.Query

	for field, values := range view.Filters {
		if skip[field] {
			continue
		}
		q := FieldFilterQuery(field, values)
		if faceted[field] {
			postClauses = append(postClauses, q)
			continue
		}
		filters = append(filters, q)
	}
	for _, r := range view.Ranges {
		filters = append(filters, RangeFilterQuery(r))
	}
	if len(view.Exclusions) > 0 {
		mustNot := elastic.NewBoolQuery()
		for field, values := range view.Exclusions {
			mustNot.MustNot(ExclusionClause(field, values))
		}
		filters = append(filters, mustNot)
	}
	if len(view.Empties) > 0 {
		mustNot := elastic.NewBoolQuery()
		for field := range view.Empties {
			mustNot.MustNot(EmptyClause(field))
		}
		filters = append(filters, mustNot)
	}

	authorized := view.Datasets
	if authField == auth.Field(true) {
		authorized = view.CollectionIDs
	}
	if faceted[authField] && len(view.Filters[authField]) > 0 {
		// The selection on the auth field sits in the post-filter, so the
		// main query is scoped to every value the authorization allows.
		if authField == auth.Field(true) {
			authorized = a.IntersectCollections(nil)
		} else {
			authorized = a.IntersectDatasets(nil)
		}
	}
	if a != nil || len(authorized) > 0 {
		filters = append(filters, DatasetsFilter(a, authField, authorized))
	}

	if len(postClauses) > 0 {
		postFilter = elastic.NewBoolQuery().Filter(postClauses...)
	}
	return filters, postFilter
}

// BucketBoosts carries the per-bucket weight settings
// (index_boost_{things,intervals,documents,pages}) FunctionScoreWrap adds
// as filtered weight functions alongside the num_values factor (spec §4.4
// line 137).
type BucketBoosts struct {
	Things    float64
	Intervals float64
	Documents float64
	Pages     float64
}

// BucketBoostsFromSettings reads the four index_boost_* settings into a
// BucketBoosts.
func BucketBoostsFromSettings(s *settings.Settings) BucketBoosts {
	return BucketBoosts{
		Things:    s.IndexBoostThings,
		Intervals: s.IndexBoostIntervals,
		Documents: s.IndexBoostDocuments,
		Pages:     s.IndexBoostPages,
	}
}

func (b BucketBoosts) forBucket(buck bucket.Bucket) float64 {
	switch buck {
	case bucket.Intervals:
		return b.Intervals
	case bucket.Documents:
		return b.Documents
	case bucket.Pages:
		return b.Pages
	default:
		return b.Things
	}
}

// FunctionScoreWrap wraps a query in the `field_value_factor(num_values)`
// boost every query flavor shares, plus one filtered weight function per
// bucket so a hit's score also reflects its bucket's configured
// index_boost (spec §4.4/§4.5/§4.8 line 137, grounded on
// `query/queries.py: wrap_query_function_score`).
func FunctionScoreWrap(inner elastic.Query, enabled bool, boosts BucketBoosts) elastic.Query {
	if !enabled {
		return inner
	}
	fn := elastic.NewFieldValueFactorFunction().
		Field("num_values").
		Factor(0.5).
		Modifier("sqrt")
	fsq := elastic.NewFunctionScoreQuery().
		Query(inner).
		AddScoreFunc(fn)
	for _, buck := range bucket.All {
		filter := elastic.NewTermQuery(mapping.FieldSchemata, bucket.SchemaName(buck))
		fsq = fsq.Add(filter, elastic.NewWeightFactorFunction(boosts.forBucket(buck)))
	}
	return fsq.BoostMode("sum")
}

package query

import (
	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/params"
)

// skipFilters names the fields EntitiesQuery has already used to narrow
// the target index and should not re-apply as a query filter (original
// `query/queries.py: EntitiesQuery.SKIP_FILTERS`).
var skipFilters = map[string]bool{"schema": true, "schemata": true}

// EntitiesQuery builds the full-text entity search request described in
// spec §4.4.
type EntitiesQuery struct {
	View      *params.View
	Auth      *auth.Authorization
	AuthField string
	Catalog   ftm.Catalog

	// QueryFunctionScore enables the num_values boost wrapper.
	QueryFunctionScore bool
	BucketBoosts       BucketBoosts
}

// NewEntitiesQuery builds an EntitiesQuery from a parsed parameter view.
func NewEntitiesQuery(view *params.View, a *auth.Authorization, authField string, catalog ftm.Catalog, queryFunctionScore bool, boosts BucketBoosts) *EntitiesQuery {
	return &EntitiesQuery{
		View: view, Auth: a, AuthField: authField, Catalog: catalog,
		QueryFunctionScore: queryFunctionScore,
		BucketBoosts:       boosts,
	}
}

// InnerQuery builds the bool query before the function_score wrapper is
// applied.
func (q *EntitiesQuery) InnerQuery() elastic.Query {
	b := elastic.NewBoolQuery()
	if q.View.HasQ && q.View.Q != "" {
		b.Must(elastic.NewQueryStringQuery(q.View.Q).DefaultOperator("AND"))
	}
	if q.View.HasPrefix && q.View.Prefix != "" {
		b.Should(elastic.NewPrefixQuery("name_parts", q.View.Prefix))
	}
	filters, _ := BaseFilters(q.View, q.Auth, q.AuthField, skipFilters)
	b.Filter(filters...)
	if schemata := q.View.Filters["schema"]; len(schemata) > 0 {
		b.Filter(FieldFilterQuery("schema", schemata))
	}
	if schemata := q.View.Filters["schemata"]; len(schemata) > 0 {
		b.Filter(FieldFilterQuery("schemata", schemata))
	}
	return b
}

// Query wraps InnerQuery in the shared function_score boost.
func (q *EntitiesQuery) Query() elastic.Query {
	return FunctionScoreWrap(q.InnerQuery(), q.QueryFunctionScore, q.BucketBoosts)
}

// PostFilter builds the genuine ES post_filter for any user filter whose
// field also has a facet requested on it, or nil when none apply (spec §8
// scenario C, see BaseFilters).
func (q *EntitiesQuery) PostFilter() elastic.Query {
	_, postFilter := BaseFilters(q.View, q.Auth, q.AuthField, skipFilters)
	return postFilter
}

// numericFields indexes every schema property whose type group is
// numeric (number or date), so Sort() can prefer the `numeric.<field>`
// duplicate when one exists (spec §4.4 "numeric duplicates ... are
// preferred when sorting").
func (q *EntitiesQuery) numericFields() map[string]bool {
	out := map[string]bool{}
	if q.Catalog == nil {
		return out
	}
	for _, schema := range q.Catalog.Schemata() {
		for _, prop := range schema.Properties {
			if prop.TypeGroup.IsNumeric() {
				out[prop.Name] = true
			}
		}
	}
	return out
}

// Sort builds the ES sort clause list from the parsed view.
func (q *EntitiesQuery) Sort() []elastic.Sorter {
	if len(q.View.Sort) == 0 {
		return nil
	}
	numeric := q.numericFields()
	sorters := make([]elastic.Sorter, 0, len(q.View.Sort))
	for _, s := range q.View.Sort {
		field := s.Field
		if numeric[field] {
			field = "numeric." + field
		}
		sorters = append(sorters, elastic.NewFieldSort(field).Order(!s.Desc))
	}
	return sorters
}

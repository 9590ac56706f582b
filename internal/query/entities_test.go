package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/params"
)

func catalog() ftm.Catalog {
	return ftm.NewMapCatalog(ftm.BuiltinSchemata())
}

func sourceOf(t *testing.T, q interface{ Source() (interface{}, error) }) map[string]interface{} {
	t.Helper()
	src, err := q.Source()
	require.NoError(t, err)
	m, ok := src.(map[string]interface{})
	require.True(t, ok, "expected map[string]interface{}, got %T", src)
	return m
}

// clauseList returns a bool query clause as a list: olivere/elastic renders
// a clause holding a single query as that query's object rather than as a
// one-element array.
func clauseList(v interface{}) []interface{} {
	switch c := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return c
	default:
		return []interface{}{c}
	}
}

func TestEntitiesQueryBuildsQueryStringOnQ(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "q", Value: "acme corp"}}, params.Options{})
	require.NoError(t, err)

	q := NewEntitiesQuery(view, nil, "dataset", catalog(), false, BucketBoosts{})
	src := sourceOf(t, q.Query())
	b := src["bool"].(map[string]interface{})
	require.Len(t, b["must"], 1)
}

func TestEntitiesQuerySkipsSchemaFilterButReappliesAsFilter(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "filter:schema", Value: "Person"}}, params.Options{})
	require.NoError(t, err)

	q := NewEntitiesQuery(view, nil, "dataset", catalog(), false, BucketBoosts{})
	src := sourceOf(t, q.Query())
	b := src["bool"].(map[string]interface{})
	filters := clauseList(b["filter"])
	require.NotEmpty(t, filters)

	found := false
	for _, f := range filters {
		fm, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := fm["term"]; ok {
			if term, ok := fm["term"].(map[string]interface{}); ok {
				if _, ok := term["schema"]; ok {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "expected a schema term filter, got %+v", filters)
}

func TestEntitiesQueryFunctionScoreWrap(t *testing.T) {
	view, err := params.Parse(nil, params.Options{})
	require.NoError(t, err)

	q := NewEntitiesQuery(view, nil, "dataset", catalog(), true, BucketBoosts{})
	src := sourceOf(t, q.Query())
	_, ok := src["function_score"]
	assert.True(t, ok, "expected function_score wrapper when QueryFunctionScore is set")
}

func TestEntitiesQuerySortPrefersNumericDuplicate(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "sort", Value: "birthDate:desc"}}, params.Options{})
	require.NoError(t, err)

	q := NewEntitiesQuery(view, nil, "dataset", catalog(), false, BucketBoosts{})
	sorters := q.Sort()
	require.Len(t, sorters, 1)
	src, err := sorters[0].Source()
	require.NoError(t, err)
	m := src.(map[string]interface{})
	_, ok := m["numeric.birthDate"]
	assert.True(t, ok, "expected sort on numeric.birthDate, got %+v", m)
}

func TestEntitiesQueryAuthScopingAppliesDatasetFilter(t *testing.T) {
	a := auth.New(false, []string{"allowed"}, nil)
	view, err := params.Parse([]params.KV{{Key: "filter:dataset", Value: "allowed"}, {Key: "filter:dataset", Value: "forbidden"}}, params.Options{Authorization: a})
	require.NoError(t, err)
	assert.Equal(t, []string{"allowed"}, view.Datasets)

	q := NewEntitiesQuery(view, a, "dataset", catalog(), false, BucketBoosts{})
	src := sourceOf(t, q.Query())
	b := src["bool"].(map[string]interface{})
	filters := b["filter"].([]interface{})
	assert.NotEmpty(t, filters)
}

func TestEntitiesQueryPostFilterIsolatesFacetedField(t *testing.T) {
	view, err := params.Parse([]params.KV{
		{Key: "filter:dataset", Value: "a"},
		{Key: "filter:dataset", Value: "b"},
		{Key: "facet", Value: "dataset"},
	}, params.Options{})
	require.NoError(t, err)

	q := NewEntitiesQuery(view, nil, "dataset", catalog(), false, BucketBoosts{})

	mainSrc := sourceOf(t, q.Query())
	b := mainSrc["bool"].(map[string]interface{})
	for _, f := range clauseList(b["filter"]) {
		fm, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if terms, ok := fm["terms"].(map[string]interface{}); ok {
			_, hasDataset := terms["dataset"]
			assert.False(t, hasDataset, "dataset filter should be isolated to the post_filter, not the main query")
		}
	}

	postFilter := q.PostFilter()
	require.NotNil(t, postFilter)
	postSrc := sourceOf(t, postFilter)
	pb := postSrc["bool"].(map[string]interface{})
	assert.Len(t, pb["filter"], 1)
}

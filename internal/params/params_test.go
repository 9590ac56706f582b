package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/auth"
)

func TestParseQueryStringPreservesOrderAndRepetition(t *testing.T) {
	pairs, err := ParseQueryString("q=putin&filter:dataset=a&filter:dataset=b")
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, KV{"q", "putin"}, pairs[0])
	assert.Equal(t, KV{"filter:dataset", "a"}, pairs[1])
	assert.Equal(t, KV{"filter:dataset", "b"}, pairs[2])
}

func TestParseBasics(t *testing.T) {
	pairs, err := ParseQueryString("q=acme&limit=10&offset=20&sort=created_at:desc")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	assert.Equal(t, "acme", view.Q)
	assert.Equal(t, 10, view.Limit)
	assert.Equal(t, 20, view.Offset)
	assert.Equal(t, 2, view.Page)
	require.Len(t, view.Sort, 1)
	assert.Equal(t, "created_at", view.Sort[0].Field)
	assert.True(t, view.Sort[0].Desc)
}

func TestParseFilterVsRange(t *testing.T) {
	pairs, err := ParseQueryString("filter:schema=Person&filter:gte:dates=2020-01-01")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, view.Filters["schema"])
	require.Len(t, view.Ranges, 1)
	assert.Equal(t, RangeFilter{Field: "dates", Op: "gte", Value: "2020-01-01"}, view.Ranges[0])
}

func TestParseFacetSubParams(t *testing.T) {
	pairs, err := ParseQueryString("facet=schema&facet_size:schema=5&facet_total:schema=true")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	fc, ok := view.GetFacet("schema")
	require.True(t, ok)
	assert.Equal(t, 5, fc.FacetSize(20))
	require.NotNil(t, fc.Total)
	assert.True(t, *fc.Total)
}

func TestParseFacetSignificantValues(t *testing.T) {
	pairs, err := ParseQueryString("facet_significant=names&facet_significant_values:names=true")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	require.Len(t, view.SignificantTerms, 1)
	sc := view.SignificantTerms[0]
	assert.Equal(t, "names", sc.Field)
	require.NotNil(t, sc.Values)
	assert.True(t, *sc.Values)
}

func TestParseRejectsMissingAuthWhenRequired(t *testing.T) {
	pairs, err := ParseQueryString("q=acme")
	require.NoError(t, err)
	_, err = Parse(pairs, Options{RequireAuth: true})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestParseAllowsUnauthenticatedAuthObjectWhenRequired(t *testing.T) {
	a := auth.New(false, nil, nil)
	pairs, err := ParseQueryString("q=acme")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{RequireAuth: true, Authorization: a})
	require.NoError(t, err)
	assert.Equal(t, "acme", view.Q)
}

func TestParseRejectsPageOverMax(t *testing.T) {
	pairs, err := ParseQueryString("offset=9999&limit=10")
	require.NoError(t, err)
	_, err = Parse(pairs, Options{})
	assert.Error(t, err)
}

func TestParseDatasetScopingSilentlyDropsDisallowed(t *testing.T) {
	a := auth.New(false, []string{"public"}, nil)
	pairs, err := ParseQueryString("filter:dataset=public&filter:dataset=secret")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{Authorization: a})
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, view.Datasets)
}

func TestParseRoutingKeySetForSingleDataset(t *testing.T) {
	pairs, err := ParseQueryString("filter:dataset=acme_leaks")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	require.NotNil(t, view.RoutingKey)
	assert.Equal(t, "acme_leaks", *view.RoutingKey)
}

func TestParseOpenAlephModeUsesCollectionID(t *testing.T) {
	pairs, err := ParseQueryString("filter:collection_id=7")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{OpenAlephMode: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, view.CollectionIDs)
}

func TestParseOpenAlephModeDropsUnauthorizedCollectionID(t *testing.T) {
	a := auth.New(false, nil, []int{7})
	pairs, err := ParseQueryString("filter:collection_id=7&filter:collection_id=9")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{OpenAlephMode: true, Authorization: a})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, view.CollectionIDs)
}

func TestUnparseRoundTripsCoreFields(t *testing.T) {
	pairs, err := ParseQueryString("q=acme&offset=0&limit=20&highlight=true")
	require.NoError(t, err)
	view, err := Parse(pairs, Options{})
	require.NoError(t, err)
	out := view.Unparse()
	var q, highlight bool
	for _, kv := range out {
		if kv.Key == "q" && kv.Value == "acme" {
			q = true
		}
		if kv.Key == "highlight" && kv.Value == "true" {
			highlight = true
		}
	}
	assert.True(t, q)
	assert.True(t, highlight)
}

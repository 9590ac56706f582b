package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/params"
	"github.com/openaleph/openaleph-search/internal/settings"
)

func TestFacetAggregationIsolatesOtherFilters(t *testing.T) {
	view, err := params.Parse([]params.KV{
		{Key: "facet", Value: "countries"},
		{Key: "filter:schema", Value: "Person"},
		{Key: "filter:countries", Value: "us"},
	}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: true}
	name, agg := ab.FacetAggregation(view.Facets[0])
	assert.Equal(t, "countries", name)

	src := sourceOf(t, agg)
	filter := src["filter"].(map[string]interface{})
	b := filter["bool"].(map[string]interface{})
	filters := clauseList(b["filter"])
	require.NotEmpty(t, filters)

	for _, f := range filters {
		fm, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if term, ok := fm["term"].(map[string]interface{}); ok {
			_, hasCountries := term["countries"]
			assert.False(t, hasCountries, "facet's own filter must not appear in its isolation filter")
		}
	}
}

func TestFacetAggregationKeepsRequestedSizeWhenAuthenticated(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "facet", Value: "languages"}, {Key: "facet_size:languages", Value: "500"}}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: true}
	_, agg := ab.FacetAggregation(view.Facets[0])
	src := sourceOf(t, agg)
	filter := src["filter"].(map[string]interface{})
	terms := filter["aggs"].(map[string]interface{})["buckets"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.EqualValues(t, 500, terms["size"])
}

func TestFacetAggregationUnauthenticatedNonSmallFacetCapped(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "facet", Value: "someField"}, {Key: "facet_size:someField", Value: "500"}, {Key: "facet_total:someField", Value: "true"}}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: false}
	_, agg := ab.FacetAggregation(view.Facets[0])
	src := sourceOf(t, agg)
	filter := src["filter"].(map[string]interface{})
	aggs := filter["aggs"].(map[string]interface{})
	terms := aggs["buckets"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.EqualValues(t, 50, terms["size"])
	_, hasTotal := aggs["total"]
	assert.False(t, hasTotal, "total should be disabled for unauthenticated non-small facets")
}

func TestFacetAggregationSmallFacetExemptFromCap(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "facet", Value: "schema"}, {Key: "facet_size:schema", Value: "500"}}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: false}
	_, agg := ab.FacetAggregation(view.Facets[0])
	src := sourceOf(t, agg)
	filter := src["filter"].(map[string]interface{})
	terms := filter["aggs"].(map[string]interface{})["buckets"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.EqualValues(t, 500, terms["size"])
}

func TestDateHistogramAggregationWithExtendedBounds(t *testing.T) {
	view, err := params.Parse([]params.KV{
		{Key: "facet", Value: "dates"},
		{Key: "facet_interval:dates", Value: "month"},
		{Key: "filter:gte:dates", Value: "2020-01-01"},
		{Key: "filter:lt:dates", Value: "2021-01-01"},
	}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{
		View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: true,
		DateFields: map[string]bool{"dates": true},
	}
	_, agg := ab.FacetAggregation(view.Facets[0])
	src := sourceOf(t, agg)
	filter := src["filter"].(map[string]interface{})
	dh := filter["aggs"].(map[string]interface{})["buckets"].(map[string]interface{})["date_histogram"].(map[string]interface{})
	assert.Equal(t, "month", dh["calendar_interval"])
	bounds, ok := dh["extended_bounds"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2020-01-01", bounds["min"])
	assert.Equal(t, "2021-01-01", bounds["max"])
}

func TestBackgroundFilterOmittedWithoutDatasetSelection(t *testing.T) {
	view, err := params.Parse(nil, params.Options{})
	require.NoError(t, err)
	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}}
	assert.Nil(t, ab.backgroundFilter())
}

func TestBackgroundFilterScopesToSelectedDatasets(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "filter:dataset", Value: "ds1"}}, params.Options{})
	require.NoError(t, err)
	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}}
	require.NotNil(t, ab.backgroundFilter())
}

func TestSignificantTermsAggregationUsesPlainSamplerWhenScoped(t *testing.T) {
	view, err := params.Parse([]params.KV{
		{Key: "filter:dataset", Value: "ds1"},
		{Key: "facet_significant", Value: "topics"},
	}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{SignificantTermsSamplerSize: 1000}}
	_, agg := ab.SignificantTermsAggregation(view.SignificantTerms[0])
	src := sourceOf(t, agg)
	_, ok := src["sampler"]
	assert.True(t, ok)
}

func TestSignificantTermsAggregationUsesDiversifiedSamplerWhenUnscoped(t *testing.T) {
	view, err := params.Parse([]params.KV{{Key: "facet_significant", Value: "topics"}}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{SignificantTermsSamplerSize: 1000}}
	_, agg := ab.SignificantTermsAggregation(view.SignificantTerms[0])
	src := sourceOf(t, agg)
	_, ok := src["diversified_sampler"]
	assert.True(t, ok)
}

func TestBuildCollectsAllRequestedAggregations(t *testing.T) {
	view, err := params.Parse([]params.KV{
		{Key: "facet", Value: "schema"},
		{Key: "facet_significant", Value: "topics"},
		{Key: "facet_significant_text", Value: "content"},
	}, params.Options{})
	require.NoError(t, err)

	ab := &AggregationBuilder{View: view, AuthField: "dataset", Settings: &settings.Settings{}, Authenticated: true}
	aggs := ab.Build()
	assert.Contains(t, aggs, "schema")
	assert.Contains(t, aggs, "significant_topics")
	assert.Contains(t, aggs, "significant_text_content")
}

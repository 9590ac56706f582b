package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

func TestGeoDistanceQueryInvalidWithoutCoordinates(t *testing.T) {
	g := &GeoDistanceQuery{Entity: &ftm.Proxy{ID: "addr1", Schema: "Address"}}
	assert.False(t, g.IsValid())
	src := sourceOf(t, g.Query())
	_, ok := src["match_none"]
	assert.True(t, ok)
	assert.Nil(t, g.Sort())
}

func TestGeoDistanceQueryValidBuildsSort(t *testing.T) {
	g := &GeoDistanceQuery{
		Entity: &ftm.Proxy{ID: "addr1", Schema: "Address", Properties: map[string][]string{
			"latitude": {"52.5"}, "longitude": {"13.4"},
		}},
	}
	require.True(t, g.IsValid())
	src := sourceOf(t, g.Query())
	b := src["bool"].(map[string]interface{})
	mustNot := clauseList(b["must_not"])
	require.NotNil(t, b["must_not"])
	assert.NotEmpty(t, mustNot)

	sorters := g.Sort()
	require.Len(t, sorters, 1)
	sortSrc, err := sorters[0].Source()
	require.NoError(t, err)
	sm := sortSrc.(map[string]interface{})
	_, ok := sm["_geo_distance"]
	assert.True(t, ok)
}

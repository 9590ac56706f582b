package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilAuthorizationAllowsEverything(t *testing.T) {
	var a *Authorization
	assert.True(t, a.AllowsDataset("secret"))
	assert.True(t, a.AllowsCollection(42))
	assert.Equal(t, []string{"a", "b"}, a.IntersectDatasets([]string{"a", "b"}))
}

func TestAdminBypassesScoping(t *testing.T) {
	a := New(true, []string{"public"}, nil)
	assert.True(t, a.AllowsDataset("private"))
	assert.Equal(t, []string{"private"}, a.IntersectDatasets([]string{"private"}))
}

func TestUnsetAllowListIsOpen(t *testing.T) {
	a := New(false, nil, nil)
	assert.True(t, a.AllowsDataset("anything"))
}

func TestIntersectDatasetsSilentlyDropsDisallowed(t *testing.T) {
	a := New(false, []string{"public", "leaked"}, nil)
	got := a.IntersectDatasets([]string{"public", "leaked", "secret"})
	assert.ElementsMatch(t, []string{"public", "leaked"}, got)
}

func TestIntersectDatasetsEmptyRequestDefaultsToAllowedSet(t *testing.T) {
	a := New(false, []string{"public", "leaked"}, nil)
	got := a.IntersectDatasets(nil)
	assert.ElementsMatch(t, []string{"public", "leaked"}, got)
}

func TestAllowsCollectionScoping(t *testing.T) {
	a := New(false, nil, []int{1, 2})
	assert.True(t, a.AllowsCollection(1))
	assert.False(t, a.AllowsCollection(3))
}

func TestFieldByMode(t *testing.T) {
	assert.Equal(t, "dataset", Field(false))
	assert.Equal(t, "collection_id", Field(true))
}

func TestIntersectCollectionsSilentlyDropsDisallowed(t *testing.T) {
	a := New(false, nil, []int{1, 2})
	got := a.IntersectCollections([]string{"1", "2", "3"})
	assert.ElementsMatch(t, []string{"1", "2"}, got)
}

func TestIntersectCollectionsEmptyRequestDefaultsToAllowedSet(t *testing.T) {
	a := New(false, nil, []int{1, 2})
	got := a.IntersectCollections(nil)
	assert.ElementsMatch(t, []string{"1", "2"}, got)
}

func TestIntersectCollectionsDropsUnparseableValues(t *testing.T) {
	a := New(false, nil, []int{1})
	got := a.IntersectCollections([]string{"1", "not-a-number"})
	assert.Equal(t, []string{"1"}, got)
}

func TestIntersectCollectionsAdminBypasses(t *testing.T) {
	a := New(true, nil, []int{1})
	got := a.IntersectCollections([]string{"999"})
	assert.Equal(t, []string{"999"}, got)
}

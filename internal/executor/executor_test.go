package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

func catalog() ftm.Catalog {
	return ftm.NewMapCatalog(ftm.BuiltinSchemata())
}

func TestReadIndicesExpandsVersionsAndBuckets(t *testing.T) {
	e := New(nil, catalog(), "openaleph", []string{"v1", "v2"}, "v2")
	indices := e.ReadIndices([]string{"Person"})
	assert.ElementsMatch(t, []string{
		"openaleph-entity-things-v1",
		"openaleph-entity-things-v2",
	}, indices)
}

func TestReadIndicesDefaultsToAllBucketsWhenNoSchemata(t *testing.T) {
	e := New(nil, catalog(), "openaleph", []string{"v1"}, "v1")
	indices := e.ReadIndices(nil)
	assert.Len(t, indices, 4)
}

func TestReadIndicesMultipleSchemataAcrossBuckets(t *testing.T) {
	e := New(nil, catalog(), "openaleph", []string{"v1"}, "v1")
	indices := e.ReadIndices([]string{"Person", "Document", "Event"})
	assert.ElementsMatch(t, []string{
		"openaleph-entity-things-v1",
		"openaleph-entity-documents-v1",
		"openaleph-entity-intervals-v1",
	}, indices)
}

func TestWriteIndexRoutesByBucket(t *testing.T) {
	e := New(nil, catalog(), "openaleph", []string{"v1"}, "v2")
	assert.Equal(t, "openaleph-entity-documents-v2", e.WriteIndex("Document"))
	assert.Equal(t, "openaleph-entity-things-v2", e.WriteIndex("Person"))
}

func TestDehydrateStripsProperties(t *testing.T) {
	docs := []map[string]interface{}{
		{"id": "1", "properties": map[string]interface{}{"name": []string{"Jane"}}},
	}
	out := Dehydrate(docs, true)
	_, ok := out[0]["properties"]
	assert.False(t, ok)
}

func TestDehydrateNoOpWhenDisabled(t *testing.T) {
	docs := []map[string]interface{}{
		{"id": "1", "properties": map[string]interface{}{"name": []string{"Jane"}}},
	}
	out := Dehydrate(docs, false)
	_, ok := out[0]["properties"]
	assert.True(t, ok)
}

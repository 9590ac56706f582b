package indexer

import (
	"testing"
	"time"

	"github.com/lbryio/lbry.go/v2/extras/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
)

func testCatalog() ftm.Catalog {
	return ftm.NewMapCatalog(ftm.BuiltinSchemata())
}

func newTransformer() *Transformer {
	return &Transformer{
		Catalog:     testCatalog(),
		IndexPrefix: "openaleph",
		IndexWrite:  "v1",
	}
}

func TestTransformSkipsAbstractSchema(t *testing.T) {
	tr := newTransformer()
	p := &ftm.Proxy{ID: "e1", Schema: "Thing", Dataset: "ds"}
	doc := tr.Transform(p)
	assert.Nil(t, doc)
}

func TestTransformBuildsCaptionAndSchemata(t *testing.T) {
	tr := newTransformer()
	p := &ftm.Proxy{
		ID:      "person1",
		Schema:  "Person",
		Dataset: "ds",
		Properties: map[string][]string{
			"name":  {"Jane Doe"},
			"email": {"jane@example.com"},
		},
	}
	doc := tr.Transform(p)
	require.NotNil(t, doc)
	assert.Equal(t, "Person", doc[mapping.FieldSchema])
	assert.Equal(t, "Jane Doe", doc[mapping.FieldCaption])
	assert.Contains(t, doc[mapping.FieldSchemata], "Person")
	assert.Contains(t, doc["emails"], "jane@example.com")
	assert.Equal(t, "ds", doc[mapping.FieldDataset])
	assert.Equal(t, "ds", doc[mapping.FieldCollectionID])
}

func TestTransformFallsBackToIDWhenNoNames(t *testing.T) {
	tr := newTransformer()
	p := &ftm.Proxy{ID: "person2", Schema: "Person", Dataset: "ds"}
	doc := tr.Transform(p)
	require.NotNil(t, doc)
	assert.Equal(t, "person2", doc[mapping.FieldCaption])
}

func TestTransformUsesExplicitCollectionID(t *testing.T) {
	tr := newTransformer()
	p := &ftm.Proxy{ID: "person3", Schema: "Person", Dataset: "ds", CollectionID: "col-1",
		Properties: map[string][]string{"name": {"Ann"}}}
	doc := tr.Transform(p)
	require.NotNil(t, doc)
	assert.Equal(t, "col-1", doc[mapping.FieldCollectionID])
}

func TestTransformDuplicatesNumericProperties(t *testing.T) {
	tr := newTransformer()
	p := &ftm.Proxy{
		ID: "co1", Schema: "Company", Dataset: "ds",
		Properties: map[string][]string{
			"name":         {"Acme"},
			"incorporationDate": {"2020-01-01"},
		},
	}
	doc := tr.Transform(p)
	require.NotNil(t, doc)
	numeric, ok := doc[mapping.FieldNumeric].(map[string]interface{})
	require.True(t, ok)
	_, hasDates := numeric["dates"]
	assert.True(t, hasDates)
}

func TestTransformerIndexRoutesByBucket(t *testing.T) {
	tr := newTransformer()
	assert.Equal(t, "openaleph-entity-things-v1", tr.Index("Person"))
}

func TestTransformEntryAddsIngestionTimestampsWhenValid(t *testing.T) {
	tr := newTransformer()
	created := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	e := &Entry{
		Proxy:     &ftm.Proxy{ID: "p1", Schema: "Person", Dataset: "ds", Properties: map[string][]string{"name": {"Ann"}}},
		CreatedAt: null.TimeFrom(created),
	}
	doc := tr.TransformEntry(e)
	require.NotNil(t, doc)
	assert.Equal(t, created.Format(time.RFC3339), doc[mapping.FieldCreatedAt])
	assert.NotContains(t, doc, mapping.FieldUpdatedAt)
}

func TestTransformEntrySkipsAbstractSchema(t *testing.T) {
	tr := newTransformer()
	e := &Entry{Proxy: &ftm.Proxy{ID: "p1", Schema: "Thing", Dataset: "ds"}}
	assert.Nil(t, tr.TransformEntry(e))
}

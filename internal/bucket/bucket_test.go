package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

func catalog() ftm.Catalog {
	return ftm.NewMapCatalog(ftm.BuiltinSchemata())
}

func TestForSchemaRouting(t *testing.T) {
	c := catalog()
	assert.Equal(t, Things, ForSchema(c, "Person"))
	assert.Equal(t, Documents, ForSchema(c, "Document"))
	assert.Equal(t, Pages, ForSchema(c, "Pages"))
	assert.Equal(t, Intervals, ForSchema(c, "Event"))
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "openaleph-entity-things-v1", IndexName("openaleph", Things, "v1"))
}

func TestShardsAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, Shards(Intervals, 1), 1)
}

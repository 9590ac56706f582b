package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

func TestMoreLikeThisQueryMatchNoneWithoutEntity(t *testing.T) {
	m := &MoreLikeThisQuery{}
	q := m.Query()
	src := sourceOf(t, q)
	_, ok := src["match_none"]
	assert.True(t, ok)
}

func TestMoreLikeThisQueryScopesToDocumentBuckets(t *testing.T) {
	m := &MoreLikeThisQuery{
		Entity: &ftm.Proxy{ID: "doc1", Schema: "Document"},
	}
	src := sourceOf(t, m.Query())
	b := src["bool"].(map[string]interface{})

	filters := clauseList(b["filter"])
	require.NotEmpty(t, filters)

	found := false
	for _, f := range filters {
		fm, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if terms, ok := fm["terms"].(map[string]interface{}); ok {
			if _, ok := terms["schema"]; ok {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a schema terms filter restricting to document buckets")
}

func TestMoreLikeThisQueryDefaultsApplied(t *testing.T) {
	m := &MoreLikeThisQuery{Entity: &ftm.Proxy{ID: "doc1", Schema: "Document"}}
	minDocFreq, minTermFreq, maxQueryTerms, minimumShouldMatch := m.defaults()
	assert.Equal(t, 1, minDocFreq)
	assert.Equal(t, 1, minTermFreq)
	assert.Equal(t, 200, maxQueryTerms)
	assert.Equal(t, "10%", minimumShouldMatch)
}

func TestMoreLikeThisQueryOverridesDefaults(t *testing.T) {
	m := &MoreLikeThisQuery{
		Entity:             &ftm.Proxy{ID: "doc1", Schema: "Document"},
		MinDocFreq:         5,
		MinTermFreq:        3,
		MaxQueryTerms:      50,
		MinimumShouldMatch: "30%",
	}
	minDocFreq, minTermFreq, maxQueryTerms, minimumShouldMatch := m.defaults()
	assert.Equal(t, 5, minDocFreq)
	assert.Equal(t, 3, minTermFreq)
	assert.Equal(t, 50, maxQueryTerms)
	assert.Equal(t, "30%", minimumShouldMatch)
}

func TestMoreLikeThisQueryExcludesSourceEntity(t *testing.T) {
	m := &MoreLikeThisQuery{Entity: &ftm.Proxy{ID: "doc1", Schema: "Document"}}
	src := sourceOf(t, m.Query())
	b := src["bool"].(map[string]interface{})
	mustNot, ok := b["must_not"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(mustNot), 2, "expected self-exclusion and Page exclusion")
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/settings"
)

func defaultTestSettings() *settings.Settings {
	return &settings.Settings{
		HighlighterFragmentSize:      200,
		HighlighterNumberOfFragments: 3,
		HighlighterPhraseLimit:       64,
		HighlighterBoundaryMaxScan:   100,
		HighlighterNoMatchSize:       300,
		HighlighterMaxAnalyzedOffset: 999999,
	}
}

func TestRawSourceRoundTrips(t *testing.T) {
	r := Raw{"random_sampler": Raw{"probability": 0.1}}
	src, err := r.Source()
	require.NoError(t, err)
	m := src.(map[string]interface{})
	assert.Contains(t, m, "random_sampler")
}

func TestRawListSourceRoundTrips(t *testing.T) {
	r := RawList{"a", "b"}
	src, err := r.Source()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, src)
}

func TestHighlightBlockCoversStandardFields(t *testing.T) {
	s := defaultTestSettings()
	block := HighlightBlock(s, HighlightOptions{}, nil)
	src, err := block.Source()
	require.NoError(t, err)
	m := src.(map[string]interface{})
	fields := m["fields"].(map[string]interface{})
	for _, f := range []string{"content", "name", "names", "text", "properties.*"} {
		assert.Contains(t, fields, f)
	}
}

func TestContentHighlighterUsesFVHWhenEnabled(t *testing.T) {
	s := defaultTestSettings()
	s.HighlighterFVHEnabled = true
	s.ContentTermVectors = true
	h := GetHighlighter(s, "content", HighlightOptions{}, nil)
	assert.Equal(t, "fvh", h["type"])
}

func TestContentHighlighterFallsBackToUnified(t *testing.T) {
	s := defaultTestSettings()
	s.HighlighterFVHEnabled = false
	h := GetHighlighter(s, "content", HighlightOptions{}, nil)
	assert.Equal(t, "unified", h["type"])
}

package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloatHandlesPlainNumbers(t *testing.T) {
	f, ok := parseFloat("42.5")
	assert.True(t, ok)
	assert.Equal(t, 42.5, f)
}

func TestParseFloatFallsBackToDateParsing(t *testing.T) {
	f, ok := parseFloat("2020-01-01")
	assert.True(t, ok)
	assert.Greater(t, f, 0.0)
}

func TestParseFloatRejectsGarbage(t *testing.T) {
	_, ok := parseFloat("not-a-value")
	assert.False(t, ok)
}

func TestDateToFloatAcceptsYearOnly(t *testing.T) {
	f, ok := dateToFloat("1999")
	assert.True(t, ok)
	assert.Greater(t, f, 0.0)
}

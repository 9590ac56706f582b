package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFetchComputesOnceForRepeatedKey(t *testing.T) {
	c := NewCache(100, time.Minute)
	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	v1, err := c.Fetch("k", fn)
	require.NoError(t, err)
	v2, err := c.Fetch("k", fn)
	require.NoError(t, err)

	assert.Equal(t, "value", v1)
	assert.Equal(t, "value", v2)
	assert.Equal(t, 1, calls)
}

func TestCachePurgeForcesRecompute(t *testing.T) {
	c := NewCache(100, time.Minute)
	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := c.Fetch("k", fn)
	require.NoError(t, err)
	c.Purge()
	_, err = c.Fetch("k", fn)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestCacheDistinctKeysComputeIndependently(t *testing.T) {
	c := NewCache(100, time.Minute)
	v1, err := c.Fetch("a", func() (interface{}, error) { return "A", nil })
	require.NoError(t, err)
	v2, err := c.Fetch("b", func() (interface{}, error) { return "B", nil })
	require.NoError(t, err)
	assert.Equal(t, "A", v1)
	assert.Equal(t, "B", v2)
}

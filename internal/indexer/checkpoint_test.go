package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTripsThroughDisk(t *testing.T) {
	dir := t.TempDir()
	old := CheckpointDir
	CheckpointDir = dir
	defer func() { CheckpointDir = old }()

	cp, err := LoadCheckpoint("my-dataset")
	require.NoError(t, err)
	assert.Equal(t, "my-dataset", cp.Dataset)
	assert.False(t, cp.StartSyncTime.IsZero())

	cp.LastID = "entity-42"
	require.NoError(t, cp.Save())

	reloaded, err := LoadCheckpoint("my-dataset")
	require.NoError(t, err)
	assert.Equal(t, "entity-42", reloaded.LastID)
	assert.False(t, reloaded.LastSyncTime.IsZero())
}

func TestLoadCheckpointReturnsZeroValueWhenMissing(t *testing.T) {
	dir := t.TempDir()
	old := CheckpointDir
	CheckpointDir = dir
	defer func() { CheckpointDir = old }()

	cp, err := LoadCheckpoint("never-seen")
	require.NoError(t, err)
	assert.Equal(t, "never-seen", cp.Dataset)
	assert.Equal(t, "", cp.LastID)
}

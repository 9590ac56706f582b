package indexer

import (
	"encoding/json"
	"os"
	"time"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

// CheckpointDir holds the on-disk directory a Checkpoint is read from and
// written to, resolved lazily via go-homedir the same way the teacher's
// `app/jobs/claim_sync.go: loadSynState` resolves SyncStateDir.
var CheckpointDir string

// Checkpoint records how far a bulk load of one dataset has progressed, so
// a restarted load can resume instead of re-streaming from the start
// (spec §5/§9 AMBIENT STACK decision).
type Checkpoint struct {
	Dataset       string    `json:"dataset"`
	StartSyncTime time.Time `json:"startSyncTime"`
	LastSyncTime  time.Time `json:"lastSyncTime"`
	LastID        string    `json:"lastId"`
}

func checkpointPath(dataset string) (string, error) {
	if CheckpointDir == "" {
		dir, err := homedir.Dir()
		if err != nil {
			return "", lbryerrors.Err(err)
		}
		CheckpointDir = dir
		logrus.Debug("checkpoint dir: ", CheckpointDir)
	}
	return CheckpointDir + "/.openaleph-search-checkpoint-" + dataset + ".json", nil
}

// LoadCheckpoint reads a dataset's checkpoint, returning a fresh Checkpoint
// (not an error) with only Dataset and StartSyncTime set when none has been
// written yet.
func LoadCheckpoint(dataset string) (*Checkpoint, error) {
	path, err := checkpointPath(dataset)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Checkpoint{Dataset: dataset, StartSyncTime: now()}, nil
		}
		return nil, lbryerrors.Err(err)
	}
	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, lbryerrors.Err(err)
	}
	return cp, nil
}

// Save persists the checkpoint, overwriting any previous state for its
// dataset.
func (c *Checkpoint) Save() error {
	path, err := checkpointPath(c.Dataset)
	if err != nil {
		return err
	}
	c.LastSyncTime = now()
	data, err := json.Marshal(c)
	if err != nil {
		return lbryerrors.Err(err)
	}
	return lbryerrors.Err(os.WriteFile(path, data, 0644))
}

func now() time.Time {
	return time.Now().UTC()
}

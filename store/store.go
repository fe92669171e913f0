// Package store persists ensemble checkpoints in a BoltDB file. A checkpoint
// records how a partial forest performed when it reached a configured size.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

const checkpointsBucket = "checkpoints"

// AttributeScore is one row of a ranking snapshot.
type AttributeScore struct {
	Attribute string    `json:"attribute"`
	Scores    []float64 `json:"scores"`
}

// Checkpoint is the evaluation of a partial forest.
type Checkpoint struct {
	RunID      string             `json:"run_id"`
	Method     string             `json:"method"`
	ForestSize int                `json:"forest_size"`
	OOB        bool               `json:"oob"`
	Errors     map[string]float64 `json:"errors"`
	Ranking    []AttributeScore   `json:"ranking,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Store is a checkpoint store backed by bbolt. It is safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open checkpoint store %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(checkpointsBucket)); err != nil {
			return errors.Wrap(err, "create checkpoints bucket")
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveCheckpoint writes cp, replacing an earlier checkpoint of the same run
// and forest size.
func (s *Store) SaveCheckpoint(cp Checkpoint) error {
	if cp.RunID == "" {
		return errors.NewValidationError("RunID", "checkpoint without run id", cp.RunID)
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(checkpointsBucket))
		return b.Put(checkpointKey(cp.RunID, cp.ForestSize), data)
	})
}

// Checkpoints returns the checkpoints of one run ordered by forest size.
func (s *Store) Checkpoints(runID string) ([]Checkpoint, error) {
	var out []Checkpoint
	prefix := []byte(runID + "/")
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(checkpointsBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var cp Checkpoint
			if err := json.Unmarshal(v, &cp); err != nil {
				return errors.Wrapf(err, "decode checkpoint %s", k)
			}
			out = append(out, cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Runs returns the distinct run ids stored, in key order.
func (s *Store) Runs() ([]string, error) {
	var runs []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(checkpointsBucket)).ForEach(func(k, _ []byte) error {
			i := bytes.IndexByte(k, '/')
			if i < 0 {
				return nil
			}
			run := string(k[:i])
			if len(runs) == 0 || runs[len(runs)-1] != run {
				runs = append(runs, run)
			}
			return nil
		})
	})
	return runs, err
}

// checkpointKey zero-pads the size so keys sort numerically within a run.
func checkpointKey(runID string, size int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", runID, size))
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListCheckpoints(t *testing.T) {
	s := openTemp(t)

	for _, size := range []int{100, 5, 20} {
		require.NoError(t, s.SaveCheckpoint(Checkpoint{
			RunID:      "run-a",
			Method:     "RandomForest",
			ForestSize: size,
			Errors:     map[string]float64{"Accuracy": float64(size) / 100},
		}))
	}
	require.NoError(t, s.SaveCheckpoint(Checkpoint{RunID: "run-b", ForestSize: 1}))

	cps, err := s.Checkpoints("run-a")
	require.NoError(t, err)
	require.Len(t, cps, 3)
	assert.Equal(t, []int{5, 20, 100}, []int{cps[0].ForestSize, cps[1].ForestSize, cps[2].ForestSize})
	assert.InDelta(t, 0.2, cps[1].Errors["Accuracy"], 1e-12)
	assert.False(t, cps[0].CreatedAt.IsZero())

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, runs)
}

func TestSaveCheckpointOverwritesSameSize(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.SaveCheckpoint(Checkpoint{RunID: "r", ForestSize: 10, Errors: map[string]float64{"RMSE": 2}}))
	require.NoError(t, s.SaveCheckpoint(Checkpoint{RunID: "r", ForestSize: 10, Errors: map[string]float64{"RMSE": 1}}))

	cps, err := s.Checkpoints("r")
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, 1.0, cps[0].Errors["RMSE"])
}

func TestSaveCheckpointRequiresRunID(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.SaveCheckpoint(Checkpoint{ForestSize: 1}))
}

func TestCheckpointsUnknownRun(t *testing.T) {
	s := openTemp(t)
	cps, err := s.Checkpoints("missing")
	require.NoError(t, err)
	assert.Empty(t, cps)
}

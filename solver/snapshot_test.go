package solver

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.snap")
	snap := Snapshot{
		"a.weight": {Shape: []int{2, 3}, Data: []float64{1, 2, 3, -4, 5.5, 6}},
		"a.bias":   {Shape: []int{2}, Data: []float64{-1, 0.5}},
	}
	require.NoError(t, WriteSnapshot(path, snap))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, snap["a.weight"].Shape, got["a.weight"].Shape)
	assert.Equal(t, snap["a.weight"].Data, got["a.weight"].Data)
	assert.Equal(t, snap["a.bias"].Data, got["a.bias"].Data)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.snap"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSnapshot))
}

func TestReadSnapshotBadMagic(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte{1, 2, 3, 4, 0, 0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestWriteSnapshotShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap")
	snap := Snapshot{
		"a.weight": {Shape: []int{2, 2}, Data: []float64{1, 2, 3}},
	}
	assert.Error(t, WriteSnapshot(path, snap))
}

func TestLoadRejectsMissingTensor(t *testing.T) {
	cfg := DefaultConfig()
	snap := BlankSnapshot(cfg)
	delete(snap, "refine.head.weight")

	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	err = eng.Load(snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refine.head")
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	cfg := DefaultConfig()
	snap := BlankSnapshot(cfg)
	snap["lambda_net.fc2.weight"] = Tensor{
		Shape: []int{cfg.Tags + 1, HiddenDim},
		Data:  make([]float64, (cfg.Tags+1)*HiddenDim),
	}

	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Error(t, eng.Load(snap))
}

package mapper

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObservations() []BinaryObservation {
	return []BinaryObservation{
		{Y: 1.5, X1: 0.25, X2: -1, F1: 0, F2: 1, F3: 2, W: 1},
		{Y: 2.5, X1: -0.5, X2: 3, F1: 1, F2: 0, F3: 0, W: 0.75},
		{Y: math.NaN(), X1: 4, X2: 0, F1: 2, F2: 1, F3: 1, W: 1.25},
	}
}

func TestReader_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.bin")
	want := sampleObservations()
	require.NoError(t, WriteObservations(path, want))

	r := NewReader[BinaryObservation](path)
	require.NoError(t, r.Open())
	defer r.Close()

	count, err := r.EntryCount()
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), count)

	var obs BinaryObservation
	for i := range want {
		require.NoError(t, r.Read(int64(i), &obs))
		if i == 2 {
			assert.True(t, math.IsNaN(obs.Y))
		} else {
			assert.Equal(t, want[i].Y, obs.Y)
		}
		assert.Equal(t, want[i].X1, obs.X1)
		assert.Equal(t, want[i].X2, obs.X2)
		assert.Equal(t, want[i].F1, obs.F1)
		assert.Equal(t, want[i].W, obs.W)
	}

	assert.ErrorIs(t, r.Read(int64(len(want)), &obs), ErrEof)
}

func TestReadFrame_LoadsAllColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.bin")
	want := sampleObservations()
	require.NoError(t, WriteObservations(path, want))

	frame, err := ReadFrame(path)
	require.NoError(t, err)

	require.Equal(t, len(want), frame.NumRows())
	require.Equal(t, []string{"Y", "X1", "X2", "f1", "f2", "f3", "weights"}, frame.Names())

	x1, err := frame.Numeric("X1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -0.5, 4}, x1)

	y, err := frame.Numeric("Y")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(y[2]))

	complete, err := frame.DropIncomplete([]string{"Y"})
	require.NoError(t, err)
	assert.Equal(t, 2, complete.NumRows())
}

func TestReadFrame_MissingFile(t *testing.T) {
	_, err := ReadFrame(filepath.Join(t.TempDir(), "absent.bin"))
	require.Error(t, err)
}

func TestEntryCount_RejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, WriteObservations(path, sampleObservations()))

	r := NewReader[[9]byte](path)
	_, err := r.EntryCount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple of entry size")
}

package synthetic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 250

	a := Generate(cfg)
	b := Generate(cfg)

	require.Equal(t, a.Names(), b.Names())
	for _, name := range a.Names() {
		va, err := a.Numeric(name)
		require.NoError(t, err)
		vb, err := b.Numeric(name)
		require.NoError(t, err)
		assert.Equal(t, va, vb, name)
	}
}

func TestGenerate_Shape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 500

	frame := Generate(cfg)

	require.Equal(t, 500, frame.NumRows())
	require.Equal(t, []string{"Y", "X1", "X2", "f1", "f2", "f3", "weights"}, frame.Names())

	for _, fc := range []struct {
		name   string
		levels int
	}{
		{"f1", cfg.F1Levels},
		{"f2", cfg.F2Levels},
		{"f3", cfg.F3Levels},
	} {
		vals, err := frame.Numeric(fc.name)
		require.NoError(t, err)
		for i, v := range vals {
			assert.GreaterOrEqual(t, v, 0.0, "%s row %d", fc.name, i)
			assert.Less(t, v, float64(fc.levels), "%s row %d", fc.name, i)
			assert.Equal(t, math.Trunc(v), v, "%s row %d", fc.name, i)
		}
	}

	w, err := frame.Numeric("weights")
	require.NoError(t, err)
	for i, v := range w {
		assert.Greater(t, v, 0.0, "row %d", i)
	}
}

func TestGenerate_CountResponseIsNonNegativeInteger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 400
	cfg.Response = Count

	frame := Generate(cfg)
	y, err := frame.Numeric("Y")
	require.NoError(t, err)
	for i, v := range y {
		assert.GreaterOrEqual(t, v, 0.0, "row %d", i)
		assert.Equal(t, math.Trunc(v), v, "row %d", i)
	}
}

func TestGenerate_MissingShareInjectsMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 2000
	cfg.MissingShare = 0.1

	frame := Generate(cfg)

	missing := 0
	for _, name := range []string{"Y", "X1", "f1"} {
		vals, err := frame.Numeric(name)
		require.NoError(t, err)
		for _, v := range vals {
			if math.IsNaN(v) {
				missing++
			}
		}
	}
	assert.Greater(t, missing, 0)
	assert.Less(t, missing, cfg.Rows/2)

	complete, err := frame.DropIncomplete([]string{"Y", "X1", "f1"})
	require.NoError(t, err)
	assert.Equal(t, cfg.Rows-missing, complete.NumRows())
}

package dataframe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_ColumnsAndKinds(t *testing.T) {
	f := New(3)
	require.NoError(t, f.AddNumeric("x", []float64{1, 2, 3}))
	require.NoError(t, f.AddCategorical("g", []string{"a", "b", "a"}))

	assert.Equal(t, 3, f.NumRows())
	assert.Equal(t, []string{"x", "g"}, f.Names())
	assert.True(t, f.HasColumn("x"))
	assert.False(t, f.HasColumn("y"))

	kind, err := f.Kind("g")
	require.NoError(t, err)
	assert.Equal(t, Categorical, kind)

	_, err = f.Numeric("g")
	require.ErrorIs(t, err, ErrKindMismatch)
	_, err = f.Numeric("missing")
	require.ErrorIs(t, err, ErrUnknownColumn)

	err = f.AddNumeric("short", []float64{1})
	require.Error(t, err)
}

func TestFrame_LevelsCanonicalizesNumericColumns(t *testing.T) {
	f := New(4)
	require.NoError(t, f.AddNumeric("f1", []float64{1, 2, 1, math.NaN()}))

	levels, err := f.Levels("f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "1", ""}, levels)
}

func TestFrame_CanonicalLevelIsStable(t *testing.T) {
	assert.Equal(t, CanonicalLevel(1.0), CanonicalLevel(1.0))
	assert.NotEqual(t, CanonicalLevel(1.0), CanonicalLevel(1.5))
	assert.Equal(t, "", CanonicalLevel(math.NaN()))
	assert.Equal(t, "0.5", CanonicalLevel(0.5))
}

func TestFrame_Subset(t *testing.T) {
	f := New(4)
	require.NoError(t, f.AddNumeric("x", []float64{10, 20, 30, 40}))
	require.NoError(t, f.AddCategorical("g", []string{"a", "b", "c", "d"}))

	sub, err := f.Subset([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.NumRows())

	x, err := sub.Numeric("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10}, x)

	g, err := sub.Categorical("g")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, g)

	_, err = f.Subset([]int{4})
	require.Error(t, err)
}

func TestFrame_DropIncomplete(t *testing.T) {
	f := New(5)
	require.NoError(t, f.AddNumeric("y", []float64{1, math.NaN(), 3, 4, 5}))
	require.NoError(t, f.AddCategorical("g", []string{"a", "b", "", "d", "e"}))
	require.NoError(t, f.AddNumeric("untouched", []float64{1, 2, 3, math.NaN(), 5}))

	out, err := f.DropIncomplete([]string{"y", "g"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())

	y, err := out.Numeric("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 5}, y)

	// A column outside the checked set keeps its missing values.
	u, err := out.Numeric("untouched")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(u[1]))
}

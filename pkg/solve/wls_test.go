package solve

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWLS_RecoversKnownCoefficients(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n := 400
	ones := make([]float64, n)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		ones[i] = 1
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		y[i] = 1.5 + 2*x1[i] - 0.5*x2[i]
	}

	beta, err := WLS([][]float64{ones, x1, x2}, []string{"(Intercept)", "x1", "x2"}, y, nil)
	require.NoError(t, err)
	require.Len(t, beta, 3)
	assert.InDelta(t, 1.5, beta[0], 1e-8)
	assert.InDelta(t, 2.0, beta[1], 1e-8)
	assert.InDelta(t, -0.5, beta[2], 1e-8)
}

func TestWLS_WeightedSolutionMatchesReplication(t *testing.T) {
	// A weight of 2 must equal duplicating the observation.
	x := []float64{1, 2, 3}
	y := []float64{1, 2, 4}
	w := []float64{2, 1, 1}

	weighted, err := WLS([][]float64{x}, []string{"x"}, y, w)
	require.NoError(t, err)

	xDup := []float64{1, 1, 2, 3}
	yDup := []float64{1, 1, 2, 4}
	duplicated, err := WLS([][]float64{xDup}, []string{"x"}, yDup, nil)
	require.NoError(t, err)

	assert.InDelta(t, duplicated[0], weighted[0], 1e-10)
}

func TestWLS_CollinearColumnsAreReported(t *testing.T) {
	x1 := []float64{1, 2, 3, 4}
	x2 := []float64{2, 4, 6, 8}
	y := []float64{1, 2, 3, 4}

	_, err := WLS([][]float64{x1, x2}, []string{"x1", "x2"}, y, nil)
	require.Error(t, err)

	var singErr *SingularDesignError
	require.True(t, errors.As(err, &singErr))
	assert.NotEmpty(t, singErr.Columns)
	assert.Subset(t, []string{"x1", "x2"}, singErr.Columns)
}

func TestWLS_WideDesignIsReported(t *testing.T) {
	// Three columns over two rows cannot have full column rank.
	x1 := []float64{1, 2}
	x2 := []float64{0, 1}
	x3 := []float64{1, 1}

	_, err := WLS([][]float64{x1, x2, x3}, []string{"x1", "x2", "x3"}, []float64{1, 2}, nil)
	require.Error(t, err)

	var singErr *SingularDesignError
	require.True(t, errors.As(err, &singErr))
	assert.Equal(t, []string{"x1", "x2", "x3"}, singErr.Columns)
}

func TestWLS_AllZeroDesignFails(t *testing.T) {
	zero := []float64{0, 0, 0}
	_, err := WLS([][]float64{zero}, []string{"z"}, []float64{1, 2, 3}, nil)

	var singErr *SingularDesignError
	require.True(t, errors.As(err, &singErr))
	assert.Equal(t, []string{"z"}, singErr.Columns)
}

func TestWLS_NoColumnsYieldsNoCoefficients(t *testing.T) {
	beta, err := WLS(nil, nil, []float64{1, 2}, nil)
	require.NoError(t, err)
	assert.Nil(t, beta)
}

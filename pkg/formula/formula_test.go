package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormula_Parse(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		response  string
		terms     []string
		fixed     []string
		intercept bool
	}{
		{
			name:      "single covariate",
			spec:      "Y ~ X1",
			response:  "Y",
			terms:     []string{"X1"},
			intercept: true,
		},
		{
			name:      "one fixed effect without spaces",
			spec:      "Y~X1 |f1",
			response:  "Y",
			terms:     []string{"X1"},
			fixed:     []string{"f1"},
			intercept: true,
		},
		{
			name:      "two fixed effects",
			spec:      "Y ~ X1 | f1 + f2",
			response:  "Y",
			terms:     []string{"X1"},
			fixed:     []string{"f1", "f2"},
			intercept: true,
		},
		{
			name:      "intercept only with fixed effect",
			spec:      "Y ~ 1 | f1",
			response:  "Y",
			fixed:     []string{"f1"},
			intercept: true,
		},
		{
			name:      "product expansion",
			spec:      "Y ~ X1*X2",
			response:  "Y",
			terms:     []string{"X1", "X2", "X1:X2"},
			intercept: true,
		},
		{
			name:      "product expansion with fixed effect",
			spec:      "Y ~ X1*X2 | f1",
			response:  "Y",
			terms:     []string{"X1", "X2", "X1:X2"},
			fixed:     []string{"f1"},
			intercept: true,
		},
		{
			name:      "explicit interaction",
			spec:      "Y ~ X1 + X1:X2",
			response:  "Y",
			terms:     []string{"X1", "X1:X2"},
			intercept: true,
		},
		{
			name:      "categorical covariate",
			spec:      "y ~ x + C(f)",
			response:  "y",
			terms:     []string{"x", "C(f)"},
			intercept: true,
		},
		{
			name:      "suppressed intercept",
			spec:      "Y ~ 0 + X1",
			response:  "Y",
			terms:     []string{"X1"},
			intercept: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.spec)
			require.NoError(t, err)

			assert.Equal(t, tt.response, f.Response)
			assert.Equal(t, tt.intercept, f.Intercept)
			assert.Equal(t, tt.fixed, f.FixedEffects)

			names := make([]string, len(f.Terms))
			for i, term := range f.Terms {
				names[i] = term.Name()
			}
			if len(tt.terms) == 0 {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.terms, names)
			}
		})
	}
}

func TestFormula_ParseErrors(t *testing.T) {
	specs := []string{
		"",
		"Y",
		"Y ~",
		"~ X1",
		"Y ~ X1 | f1 | f2",
		"Y ~ X1 ~ X2",
		"Y ~ X1 + ",
		"Y ~ X1 | ",
		"1Y ~ X1",
		"Y ~ C()",
	}
	for _, spec := range specs {
		_, err := Parse(spec)
		require.Error(t, err, spec)

		var fmlErr *FormulaError
		require.True(t, errors.As(err, &fmlErr), spec)
		assert.Equal(t, spec, fmlErr.Spec)
	}
}

func TestFormula_Variables(t *testing.T) {
	f, err := Parse("Y ~ X1*X2 + C(f3) | f1 + f2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X1", "X2", "f3", "f1", "f2"}, f.Variables())
}

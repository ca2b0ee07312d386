package model

import (
	"github.com/google/uuid"

	"github.com/quantfold/absorb/pkg/dataframe"
	"github.com/quantfold/absorb/pkg/design"
	"github.com/quantfold/absorb/pkg/formula"
)

// Family selects the estimation driver. The set is closed; it is chosen
// once at fit time and never inspected dynamically afterwards.
type Family int

const (
	OLS Family = iota
	Poisson
)

func (f Family) String() string {
	switch f {
	case OLS:
		return "ols"
	case Poisson:
		return "poisson"
	default:
		return "unknown"
	}
}

// Model is a fitted fixed-effects regression. It is immutable after Fit
// returns, so concurrent Predict and Resid calls need no synchronization.
type Model struct {
	id     uuid.UUID
	family Family
	fml    *formula.Formula

	data     *dataframe.Frame
	response []float64
	weights  []float64

	coefNames []string
	coef      []float64

	factors  []design.Factor
	encoding *design.Encoding

	fixedEffects map[string]map[string]float64
	sumFE        []float64

	linpred    []float64
	fitted     []float64
	iterations int
}

// ID is the fit's uuid, assigned once at estimation time.
func (m *Model) ID() uuid.UUID {
	return m.id
}

func (m *Model) Family() Family {
	return m.family
}

// Spec returns the original formula specification.
func (m *Model) Spec() string {
	return m.fml.Spec
}

// NumObs is the training row count after dropping incomplete cases.
func (m *Model) NumObs() int {
	return len(m.response)
}

// Weighted reports whether observation weights were used.
func (m *Model) Weighted() bool {
	return m.weights != nil
}

// Iterations is the IRLS iteration count; zero for OLS fits.
func (m *Model) Iterations() int {
	return m.iterations
}

func (m *Model) CoefficientNames() []string {
	out := make([]string, len(m.coefNames))
	copy(out, m.coefNames)
	return out
}

func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coef))
	copy(out, m.coef)
	return out
}

// FixedEffects returns the recovered per-level contributions, keyed by
// factor name and level text.
func (m *Model) FixedEffects() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m.fixedEffects))
	for name, levels := range m.fixedEffects {
		inner := make(map[string]float64, len(levels))
		for l, v := range levels {
			inner[l] = v
		}
		out[name] = inner
	}
	return out
}

// LinearPredictor returns the training-data linear predictor. For OLS it
// equals the fitted values; for Poisson it is the log of the fitted mean.
func (m *Model) LinearPredictor() []float64 {
	out := make([]float64, len(m.linpred))
	copy(out, m.linpred)
	return out
}

// SumFE returns the per-row sum of fixed-effect contributions on the
// training data, or nil when the model has no fixed effects.
func (m *Model) SumFE() []float64 {
	if m.sumFE == nil {
		return nil
	}
	out := make([]float64, len(m.sumFE))
	copy(out, m.sumFE)
	return out
}

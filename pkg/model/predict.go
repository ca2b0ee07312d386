package model

import (
	"math"

	"github.com/quantfold/absorb/pkg/dataframe"
	"github.com/quantfold/absorb/pkg/design"
)

// Predict returns the fitted values for the given data, or for the
// training data when data is nil. The result always has exactly one entry
// per request row: a row whose covariate level cannot be resolved against
// the fitted columns, or whose fixed-effect level was never observed
// during fitting, yields NaN in its position instead of shrinking the
// result or failing the call.
func (m *Model) Predict(data *dataframe.Frame) ([]float64, error) {
	if err := m.checkSupported("predict"); err != nil {
		return nil, err
	}
	if data == nil {
		return cloneVec(m.fitted), nil
	}

	pm, err := design.BuildForPrediction(m.fml, m.coefNames, m.encoding, data)
	if err != nil {
		return nil, err
	}

	rows := data.NumRows()
	lp := make([]float64, rows)
	for j, b := range m.coef {
		col := pm.Columns[j]
		for i := range lp {
			lp[i] += b * col[i]
		}
	}

	for _, factor := range m.factors {
		levels, err := data.Levels(factor.Name)
		if err != nil {
			return nil, err
		}
		table := m.fixedEffects[factor.Name]
		for i, level := range levels {
			v, ok := table[level]
			if level == "" || !ok {
				lp[i] = math.NaN()
				continue
			}
			lp[i] += v
		}
	}

	for i, bad := range pm.Unresolved {
		if bad {
			lp[i] = math.NaN()
		}
	}

	if m.family == Poisson {
		for i := range lp {
			lp[i] = math.Exp(lp[i])
		}
	}
	return lp, nil
}

// Resid returns observed response minus fitted value over the training
// data. Residuals against new data are not supported; new data carries no
// guaranteed response column.
func (m *Model) Resid() ([]float64, error) {
	if err := m.checkSupported("resid"); err != nil {
		return nil, err
	}
	out := make([]float64, len(m.response))
	for i := range out {
		out[i] = m.response[i] - m.fitted[i]
	}
	return out, nil
}

func (m *Model) checkSupported(op string) error {
	if m.family == Poisson && m.weights != nil {
		return &UnsupportedOperationError{
			Op:     op,
			Reason: "fixed-effect recovery for weighted Poisson models is not defined",
		}
	}
	return nil
}

package model

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantfold/absorb/pkg/dataframe"
	"github.com/quantfold/absorb/pkg/demean"
	"github.com/quantfold/absorb/pkg/design"
	"github.com/quantfold/absorb/pkg/formula"
	"github.com/quantfold/absorb/pkg/solve"
)

// Fit estimates a fixed-effects regression from a formula specification
// such as "Y ~ X1 + X2 | f1 + f2". Incomplete rows over the referenced
// columns are dropped before estimation; prediction later keeps such rows
// and marks them NaN instead.
func Fit(spec string, frame *dataframe.Frame, fam Family, opts ...Option) (*Model, error) {
	if fam != OLS && fam != Poisson {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, fam)
	}
	o := newOptions(opts)

	fml, err := formula.Parse(spec)
	if err != nil {
		return nil, err
	}

	used := fml.Variables()
	if o.weightsColumn != "" {
		used = append(used, o.weightsColumn)
	}
	data, err := frame.DropIncomplete(used)
	if err != nil {
		return nil, err
	}
	if data.NumRows() == 0 {
		return nil, ErrNoObservations
	}

	mats, err := design.Build(fml, data, o.weightsColumn)
	if err != nil {
		return nil, err
	}

	m := &Model{
		family:    fam,
		fml:       fml,
		data:      data,
		response:  mats.Response,
		weights:   mats.Weights,
		coefNames: mats.Names,
		factors:   mats.Factors,
		encoding:  mats.Encoding,
	}
	parts := partitions(mats.Factors)

	switch fam {
	case OLS:
		err = fitOLS(m, mats, parts, o)
	case Poisson:
		err = fitPoisson(m, mats, parts, o)
	}
	if err != nil {
		return nil, err
	}

	m.id = uuid.Must(uuid.NewV7())
	o.logger.Debug("model fitted",
		zap.String("fit_id", m.id.String()),
		zap.String("formula", spec),
		zap.Stringer("family", fam),
		zap.Int("rows", data.NumRows()),
		zap.Int("coefficients", len(m.coef)),
		zap.Int("fixed_effects", len(m.factors)),
		zap.Int("irls_iterations", m.iterations),
	)
	return m, nil
}

func fitOLS(m *Model, mats *design.FitMatrices, parts []demean.Partition, o options) error {
	yd := cloneVec(mats.Response)
	xd := cloneCols(mats.Columns)

	if len(parts) > 0 {
		all := append(xd[:len(xd):len(xd)], yd)
		if err := demean.Demean(all, parts, mats.Weights, o.demeanOpts...); err != nil {
			return err
		}
	}

	beta, err := solve.WLS(xd, mats.Names, yd, mats.Weights)
	if err != nil {
		return err
	}
	m.coef = beta

	xb := linearCombination(mats.Columns, beta, len(mats.Response))
	if len(parts) > 0 {
		resid := make([]float64, len(mats.Response))
		for i := range resid {
			resid[i] = mats.Response[i] - xb[i]
		}
		if err := recoverFixedEffects(m, resid, parts, mats.Weights, o); err != nil {
			return err
		}
		for i := range xb {
			xb[i] += m.sumFE[i]
		}
	}
	m.linpred = xb
	m.fitted = xb
	return nil
}

func partitions(factors []design.Factor) []demean.Partition {
	parts := make([]demean.Partition, len(factors))
	for i, f := range factors {
		parts[i] = demean.Partition{
			Name:   f.Name,
			Groups: len(f.Levels),
			Index:  f.Index,
		}
	}
	return parts
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneCols(cols [][]float64) [][]float64 {
	out := make([][]float64, len(cols))
	for i, c := range cols {
		out[i] = cloneVec(c)
	}
	return out
}

func linearCombination(cols [][]float64, beta []float64, rows int) []float64 {
	out := make([]float64, rows)
	for j, b := range beta {
		col := cols[j]
		for i := range out {
			out[i] += b * col[i]
		}
	}
	return out
}

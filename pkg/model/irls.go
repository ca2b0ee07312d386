package model

import (
	"fmt"
	"math"

	"github.com/quantfold/absorb/pkg/demean"
	"github.com/quantfold/absorb/pkg/design"
	"github.com/quantfold/absorb/pkg/solve"
)

// muFloor keeps the working weights and the working response finite when
// the conditional mean collapses toward zero.
const muFloor = 1e-10

// fitPoisson estimates the model by iteratively reweighted least squares:
// linearize the log-likelihood at the current mean, demean the working
// response and covariates under the working weights, solve the weighted
// system, and stop on a relative deviance change below tolerance. The
// iteration cap is a reported failure, never a silently truncated fit.
func fitPoisson(m *Model, mats *design.FitMatrices, parts []demean.Partition, o options) error {
	y := mats.Response
	n := len(y)
	for i, v := range y {
		if v < 0 {
			return fmt.Errorf("model: poisson response must be non-negative, row %d is %v", i, v)
		}
	}

	ybar := 0.0
	for _, v := range y {
		ybar += v
	}
	ybar /= float64(n)

	eta := make([]float64, n)
	mu := make([]float64, n)
	for i := range y {
		mu[i] = math.Max((y[i]+ybar)/2, muFloor)
		eta[i] = math.Log(mu[i])
	}

	dev := poissonDeviance(y, mu, m.weights)
	irlsW := make([]float64, n)
	z := make([]float64, n)
	var beta []float64
	relChange := math.Inf(1)
	converged := false

	for iter := 1; iter <= o.irlsMaxIter; iter++ {
		for i := range z {
			irlsW[i] = mu[i]
			if m.weights != nil {
				irlsW[i] *= m.weights[i]
			}
			z[i] = eta[i] + (y[i]-mu[i])/mu[i]
		}

		zd := cloneVec(z)
		xd := cloneCols(mats.Columns)
		if len(parts) > 0 {
			all := append(xd[:len(xd):len(xd)], zd)
			if err := demean.Demean(all, parts, irlsW, o.demeanOpts...); err != nil {
				return err
			}
		}

		var err error
		beta, err = solve.WLS(xd, mats.Names, zd, irlsW)
		if err != nil {
			return err
		}

		// The absorbed effects live inside the working response: the new
		// linear predictor is z minus the demeaned working residual.
		for i := range eta {
			e := zd[i]
			for j, b := range beta {
				e -= b * xd[j][i]
			}
			eta[i] = z[i] - e
			mu[i] = math.Max(math.Exp(eta[i]), muFloor)
		}

		devOld := dev
		dev = poissonDeviance(y, mu, m.weights)
		relChange = math.Abs(dev-devOld) / (0.1 + math.Abs(dev))
		if relChange < o.irlsTol {
			m.iterations = iter
			converged = true
			break
		}
	}
	if !converged {
		return &demean.ConvergenceError{
			Stage:      "irls",
			Iterations: o.irlsMaxIter,
			LastDelta:  relChange,
		}
	}

	m.coef = beta
	m.linpred = eta
	m.fitted = mu

	if len(parts) > 0 {
		xb := linearCombination(mats.Columns, beta, n)
		feScale := make([]float64, n)
		for i := range feScale {
			feScale[i] = eta[i] - xb[i]
		}
		if err := recoverFixedEffects(m, feScale, parts, irlsW, o); err != nil {
			return err
		}
	}
	return nil
}

// poissonDeviance is 2 * sum w_i * (y_i log(y_i/mu_i) - (y_i - mu_i)),
// with the y log y term dropping out at zero counts.
func poissonDeviance(y, mu, weights []float64) float64 {
	dev := 0.0
	for i := range y {
		term := mu[i] - y[i]
		if y[i] > 0 {
			term += y[i] * math.Log(y[i]/mu[i])
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		dev += w * term
	}
	return 2 * dev
}

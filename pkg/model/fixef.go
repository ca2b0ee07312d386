package model

import (
	"github.com/quantfold/absorb/pkg/demean"
)

// recoverFixedEffects decomposes the post-fit residual structure into
// per-level contributions, one value per observed level of each factor. It
// reuses the same alternating-projection sweep as the demeaning engine:
// each pass assigns to every level the weighted mean residual net of what
// the other factors have already absorbed, until the assignments stop
// moving. The per-row sum across factors is the uniquely determined
// quantity; the split between overlapping factors follows a fixed
// normalization in which the first factor absorbs the remainder and every
// later factor is centered to weighted mean zero.
func recoverFixedEffects(m *Model, resid []float64, parts []demean.Partition, weights []float64, o options) error {
	alphas := make([][]float64, len(parts))
	for p, part := range parts {
		alphas[p] = make([]float64, part.Groups)
	}

	work := cloneVec(resid)
	accumulate := func(p int, means []float64) {
		level := alphas[p]
		for g, v := range means {
			level[g] += v
		}
	}

	if len(parts) == 1 {
		demean.Sweep(work, parts, weights, accumulate)
	} else {
		opts := demean.Options{
			Tolerance:     demean.DefaultTolerance,
			MaxIterations: demean.DefaultMaxIterations,
		}
		for _, opt := range o.demeanOpts {
			opt(&opts)
		}
		delta := 0.0
		converged := false
		for iter := 0; iter < opts.MaxIterations; iter++ {
			delta = demean.Sweep(work, parts, weights, accumulate)
			if delta < opts.Tolerance {
				converged = true
				break
			}
		}
		if !converged {
			return &demean.ConvergenceError{
				Stage:      "fixed-effect recovery",
				Iterations: opts.MaxIterations,
				LastDelta:  delta,
			}
		}
		normalize(alphas, parts, weights)
	}

	m.fixedEffects = make(map[string]map[string]float64, len(parts))
	for p, factor := range m.factors {
		table := make(map[string]float64, len(factor.Levels))
		for g, level := range factor.Levels {
			table[level] = alphas[p][g]
		}
		m.fixedEffects[factor.Name] = table
	}

	m.sumFE = make([]float64, len(resid))
	for p, part := range parts {
		level := alphas[p]
		for i, g := range part.Index {
			m.sumFE[i] += level[g]
		}
	}
	return nil
}

// normalize shifts every factor after the first to weighted mean zero over
// the observations and moves the total shift into the first factor. Row
// sums are unchanged since each row holds exactly one level per factor.
func normalize(alphas [][]float64, parts []demean.Partition, weights []float64) {
	shift := 0.0
	for p := 1; p < len(parts); p++ {
		var sum, wsum float64
		for i, g := range parts[p].Index {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			sum += w * alphas[p][g]
			wsum += w
		}
		if wsum == 0 {
			continue
		}
		mean := sum / wsum
		for g := range alphas[p] {
			alphas[p][g] -= mean
		}
		shift += mean
	}
	for g := range alphas[0] {
		alphas[0][g] += shift
	}
}

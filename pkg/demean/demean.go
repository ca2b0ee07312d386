package demean

import (
	"fmt"
)

const (
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 100_000
)

// ConvergenceError reports an alternating-projection loop that hit its
// iteration cap before the per-entry change fell below tolerance.
type ConvergenceError struct {
	Stage      string
	Iterations int
	LastDelta  float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("demean: %s did not converge after %d iterations (last delta %g)", e.Stage, e.Iterations, e.LastDelta)
}

// Partition groups rows into levels of one categorical factor.
// Index maps each row to its level; Groups is the level count.
type Partition struct {
	Name   string
	Groups int
	Index  []int
}

type Options struct {
	Tolerance     float64
	MaxIterations int
}

type Option func(*Options)

func WithTolerance(tol float64) Option {
	return func(o *Options) {
		if tol > 0 {
			o.Tolerance = tol
		}
	}
}

func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SweepFunc observes the weighted group means removed from the values for
// one partition during a sweep.
type SweepFunc func(part int, means []float64)

// Sweep performs one alternating-projection pass: for each partition in
// turn it removes the within-group weighted mean from values, in place.
// A nil weights slice means unit weights. The returned delta is the
// largest absolute mean removed, which bounds the per-entry change of the
// pass. Both the demeaning loop and the post-fit fixed-effect recovery are
// built on this single routine so the two cannot drift apart.
func Sweep(values []float64, parts []Partition, weights []float64, fn SweepFunc) float64 {
	maxDelta := 0.0
	for p, part := range parts {
		sums := make([]float64, part.Groups)
		wsums := make([]float64, part.Groups)
		for i, g := range part.Index {
			if g < 0 {
				continue
			}
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			sums[g] += w * values[i]
			wsums[g] += w
		}
		means := sums
		for g := range means {
			if wsums[g] > 0 {
				means[g] /= wsums[g]
			} else {
				means[g] = 0
			}
			if d := abs(means[g]); d > maxDelta {
				maxDelta = d
			}
		}
		for i, g := range part.Index {
			if g < 0 {
				continue
			}
			values[i] -= means[g]
		}
		if fn != nil {
			fn(p, means)
		}
	}
	return maxDelta
}

// Demean projects each column onto the orthogonal complement of the
// partitions by iterated sweeps, in place. A single partition needs exactly
// one pass; multiple partitions iterate until the largest per-entry change
// of a full pass drops below tolerance. Hitting the iteration cap is a
// reported failure, never a silently truncated result.
func Demean(columns [][]float64, parts []Partition, weights []float64, opts ...Option) error {
	if len(parts) == 0 {
		return nil
	}
	o := newOptions(opts)
	for _, col := range columns {
		if len(parts) == 1 {
			Sweep(col, parts, weights, nil)
			continue
		}
		delta := 0.0
		converged := false
		for iter := 0; iter < o.MaxIterations; iter++ {
			delta = Sweep(col, parts, weights, nil)
			if delta < o.Tolerance {
				converged = true
				break
			}
		}
		if !converged {
			return &ConvergenceError{Stage: "demeaning", Iterations: o.MaxIterations, LastDelta: delta}
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

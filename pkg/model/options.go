package model

import (
	"go.uber.org/zap"

	"github.com/quantfold/absorb/pkg/demean"
)

const (
	DefaultIRLSTolerance     = 1e-8
	DefaultIRLSMaxIterations = 25
)

type options struct {
	weightsColumn string
	demeanOpts    []demean.Option
	irlsTol       float64
	irlsMaxIter   int
	logger        *zap.Logger
}

type Option func(*options)

// WithWeights selects a frame column as observation weights.
func WithWeights(column string) Option {
	return func(o *options) {
		o.weightsColumn = column
	}
}

func WithDemeanTolerance(tol float64) Option {
	return func(o *options) {
		o.demeanOpts = append(o.demeanOpts, demean.WithTolerance(tol))
	}
}

func WithDemeanMaxIterations(n int) Option {
	return func(o *options) {
		o.demeanOpts = append(o.demeanOpts, demean.WithMaxIterations(n))
	}
}

func WithIRLSTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.irlsTol = tol
		}
	}
}

func WithIRLSMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.irlsMaxIter = n
		}
	}
}

// WithLogger attaches a logger for fit-time diagnostics. The core never
// logs instead of returning an error.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		irlsTol:     DefaultIRLSTolerance,
		irlsMaxIter: DefaultIRLSMaxIterations,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

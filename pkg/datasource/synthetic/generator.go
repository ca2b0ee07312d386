package synthetic

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantfold/absorb/pkg/dataframe"
)

// Response selects the distribution of the generated outcome.
type Response int

const (
	Gaussian Response = iota
	Count
)

// Config describes a synthetic panel: two numeric covariates X1/X2, three
// categorical factors f1/f2/f3 stored as numeric level codes, a positive
// weight column and the outcome Y.
type Config struct {
	Rows         int
	F1Levels     int
	F2Levels     int
	F3Levels     int
	Response     Response
	MissingShare float64
	Seed         uint64
}

func DefaultConfig() Config {
	return Config{
		Rows:     1000,
		F1Levels: 25,
		F2Levels: 10,
		F3Levels: 4,
		Response: Gaussian,
		Seed:     7563,
	}
}

// Generate draws a frame from the config. The same seed always yields the
// same frame, which the package tests rely on.
func Generate(cfg Config) *dataframe.Frame {
	src := rand.NewPCG(cfg.Seed, cfg.Seed|1)
	rng := rand.New(src)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	f1Effects := levelEffects(norm, cfg.F1Levels, 0.5)
	f2Effects := levelEffects(norm, cfg.F2Levels, 0.3)

	x1 := make([]float64, cfg.Rows)
	x2 := make([]float64, cfg.Rows)
	f1 := make([]float64, cfg.Rows)
	f2 := make([]float64, cfg.Rows)
	f3 := make([]float64, cfg.Rows)
	w := make([]float64, cfg.Rows)
	y := make([]float64, cfg.Rows)

	for i := 0; i < cfg.Rows; i++ {
		x1[i] = norm.Rand()
		x2[i] = 2 * norm.Rand()
		g1 := rng.IntN(cfg.F1Levels)
		g2 := rng.IntN(cfg.F2Levels)
		f1[i] = float64(g1)
		f2[i] = float64(g2)
		f3[i] = float64(rng.IntN(cfg.F3Levels))
		w[i] = 0.5 + rng.Float64()

		switch cfg.Response {
		case Count:
			lambda := math.Exp(0.3*x1[i] - 0.1*x2[i] + 0.3*f1Effects[g1] + 0.2*f2Effects[g2])
			y[i] = distuv.Poisson{Lambda: lambda, Src: src}.Rand()
		default:
			y[i] = 2*x1[i] - 0.5*x2[i] + f1Effects[g1] + f2Effects[g2] + norm.Rand()
		}
	}

	if cfg.MissingShare > 0 {
		for i := 0; i < cfg.Rows; i++ {
			if rng.Float64() < cfg.MissingShare {
				switch rng.IntN(3) {
				case 0:
					y[i] = math.NaN()
				case 1:
					x1[i] = math.NaN()
				default:
					f1[i] = math.NaN()
				}
			}
		}
	}

	frame := dataframe.New(cfg.Rows)
	_ = frame.AddNumeric("Y", y)
	_ = frame.AddNumeric("X1", x1)
	_ = frame.AddNumeric("X2", x2)
	_ = frame.AddNumeric("f1", f1)
	_ = frame.AddNumeric("f2", f2)
	_ = frame.AddNumeric("f3", f3)
	_ = frame.AddNumeric("weights", w)
	return frame
}

func levelEffects(norm distuv.Normal, levels int, scale float64) []float64 {
	out := make([]float64, levels)
	for i := range out {
		out[i] = scale * norm.Rand()
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/quantfold/absorb/internal/dbg"
	"github.com/quantfold/absorb/pkg/data/duckdb"
	"github.com/quantfold/absorb/pkg/data/mapper"
	"github.com/quantfold/absorb/pkg/dataframe"
	"github.com/quantfold/absorb/pkg/datasource/synthetic"
	"github.com/quantfold/absorb/pkg/model"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := dbg.NewLogger(cfg.Debug)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	frame, err := loadFrame(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("error loading data", zap.Error(err))
	}
	logger.Info("data loaded",
		zap.String("source", cfg.Data.Source),
		zap.Int("rows", frame.NumRows()),
		zap.Strings("columns", frame.Names()),
	)

	fam := model.OLS
	if cfg.Model.Family == "poisson" {
		fam = model.Poisson
	}

	opts := []model.Option{model.WithLogger(logger)}
	if cfg.Model.Weights != "" {
		opts = append(opts, model.WithWeights(cfg.Model.Weights))
	}
	if cfg.Fit.DemeanTolerance > 0 {
		opts = append(opts, model.WithDemeanTolerance(cfg.Fit.DemeanTolerance))
	}
	if cfg.Fit.DemeanMaxIter > 0 {
		opts = append(opts, model.WithDemeanMaxIterations(cfg.Fit.DemeanMaxIter))
	}
	if cfg.Fit.IRLSTolerance > 0 {
		opts = append(opts, model.WithIRLSTolerance(cfg.Fit.IRLSTolerance))
	}
	if cfg.Fit.IRLSMaxIter > 0 {
		opts = append(opts, model.WithIRLSMaxIterations(cfg.Fit.IRLSMaxIter))
	}

	fit, err := model.Fit(cfg.Model.Formula, frame, fam, opts...)
	if err != nil {
		logger.Fatal("error fitting model", zap.Error(err))
	}
	logger.Info("model fitted",
		zap.String("fit_id", fit.ID().String()),
		zap.Stringer("family", fit.Family()),
		zap.Int("observations", fit.NumObs()),
	)

	printCoefficients(fit)
	printFixedEffects(fit)
	printResidualSummary(fit, logger)
}

func loadFrame(ctx context.Context, cfg *Config, logger *zap.Logger) (*dataframe.Frame, error) {
	switch cfg.Data.Source {
	case "duckdb":
		reader := duckdb.NewReader(cfg.Data.Path)
		if err := reader.Connect(); err != nil {
			return nil, err
		}
		defer reader.Close()
		return reader.LoadFrame(ctx, cfg.Data.Query)
	case "binary":
		return mapper.ReadFrame(cfg.Data.Path)
	default:
		gen := synthetic.DefaultConfig()
		gen.Rows = cfg.Data.Rows
		gen.Seed = cfg.Data.Seed
		if cfg.Model.Family == "poisson" {
			gen.Response = synthetic.Count
		}
		logger.Debug("generating synthetic panel", zap.Int("rows", gen.Rows), zap.Uint64("seed", gen.Seed))
		return synthetic.Generate(gen), nil
	}
}

func printCoefficients(fit *model.Model) {
	names := fit.CoefficientNames()
	coef := fit.Coefficients()
	fmt.Printf("formula: %s\n", fit.Spec())
	fmt.Printf("%-32s %14s\n", "coefficient", "estimate")
	for i, name := range names {
		fmt.Printf("%-32s %14.6f\n", name, coef[i])
	}
}

func printFixedEffects(fit *model.Model) {
	table := fit.FixedEffects()
	if len(table) == 0 {
		return
	}
	factors := make([]string, 0, len(table))
	for name := range table {
		factors = append(factors, name)
	}
	sort.Strings(factors)
	for _, factor := range factors {
		levels := table[factor]
		keys := make([]string, 0, len(levels))
		for l := range levels {
			keys = append(keys, l)
		}
		sort.Strings(keys)
		fmt.Printf("\nfixed effect %s (%d levels)\n", factor, len(keys))
		for _, l := range keys {
			fmt.Printf("%-32s %14.6f\n", l, levels[l])
		}
	}
}

func printResidualSummary(fit *model.Model, logger *zap.Logger) {
	resid, err := fit.Resid()
	if err != nil {
		logger.Warn("residuals unavailable", zap.Error(err))
		return
	}
	var ss float64
	for _, r := range resid {
		ss += r * r
	}
	fmt.Printf("\nresidual sum of squares: %.6f over %d observations\n", ss, len(resid))
}

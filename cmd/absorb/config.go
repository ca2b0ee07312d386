package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	Data struct {
		Source string `koanf:"source"`
		Path   string `koanf:"path"`
		Query  string `koanf:"query"`
		Rows   int    `koanf:"rows"`
		Seed   uint64 `koanf:"seed"`
	} `koanf:"data"`
	Model struct {
		Formula string `koanf:"formula"`
		Family  string `koanf:"family"`
		Weights string `koanf:"weights"`
	} `koanf:"model"`
	Fit struct {
		DemeanTolerance float64 `koanf:"demean_tolerance"`
		DemeanMaxIter   int     `koanf:"demean_max_iter"`
		IRLSTolerance   float64 `koanf:"irls_tolerance"`
		IRLSMaxIter     int     `koanf:"irls_max_iter"`
	} `koanf:"fit"`
	Debug bool `koanf:"debug"`
}

// LoadConfig merges, lowest precedence first: built-in defaults, an
// optional YAML file, ABSORB_ environment variables and command-line
// flags.
func LoadConfig(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("absorb", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	fs.String("data.source", "synthetic", "data source: synthetic, duckdb or binary")
	fs.String("data.path", "", "database or binary file path")
	fs.String("data.query", "", "query producing the observation table (duckdb source)")
	fs.Int("data.rows", 1000, "row count for the synthetic source")
	fs.Uint64("data.seed", 7563, "seed for the synthetic source")
	fs.String("model.formula", "Y ~ X1 + X2 | f1 + f2", "model specification")
	fs.String("model.family", "ols", "model family: ols or poisson")
	fs.String("model.weights", "", "observation weights column, empty for none")
	fs.Bool("debug", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{}

	k := koanf.New(".")
	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("unable to load config file %q: %w", *configPath, err)
		}
	}
	if err := k.Load(env.Provider("ABSORB_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "ABSORB_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("unable to load environment: %w", err)
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("unable to load flags: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	switch cfg.Model.Family {
	case "ols", "poisson":
	default:
		return nil, fmt.Errorf("unknown family %q, expected ols or poisson", cfg.Model.Family)
	}
	switch cfg.Data.Source {
	case "synthetic", "duckdb", "binary":
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
	return cfg, nil
}

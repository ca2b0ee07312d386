package design

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quantfold/absorb/pkg/dataframe"
	"github.com/quantfold/absorb/pkg/formula"
)

const interceptName = "(Intercept)"

// Factor is a fixed-effect partition over the rows of a frame.
type Factor struct {
	Name   string
	Levels []string
	Index  []int
}

// FitMatrices is everything the estimation core needs from the training
// data: response, named covariate columns, fixed-effect partitions, the
// optional weight vector and the categorical encoding fixed for later
// prediction calls.
type FitMatrices struct {
	Response []float64
	Names    []string
	Columns  [][]float64
	Factors  []Factor
	Weights  []float64
	Encoding *Encoding
}

// PredictionMatrix is a covariate matrix for arbitrary data, aligned
// column-for-column with the fitted coefficient vector. Fitted columns
// that cannot be constructed from the data are zero-filled and listed in
// Missing. Rows whose categorical covariate level was never observed at
// fit time, or is missing, are flagged in Unresolved.
type PredictionMatrix struct {
	Names      []string
	Columns    [][]float64
	Unresolved []bool
	Missing    []string
}

// Build constructs the fit-time matrices. The frame is expected to hold
// complete cases for every referenced column.
func Build(f *formula.Formula, frame *dataframe.Frame, weightsColumn string) (*FitMatrices, error) {
	y, err := frame.Numeric(f.Response)
	if err != nil {
		return nil, err
	}
	response := make([]float64, len(y))
	copy(response, y)

	enc := NewEncoding()
	for _, t := range f.Terms {
		for _, c := range t.Components {
			categorical := c.Categorical
			if !categorical {
				kind, err := frame.Kind(c.Var)
				if err != nil {
					return nil, err
				}
				categorical = kind == dataframe.Categorical
			}
			if categorical {
				levels, err := frame.Levels(c.Var)
				if err != nil {
					return nil, err
				}
				enc.observe(c.Raw, levels)
			}
		}
	}

	names, columns, err := expand(f, frame, enc)
	if err != nil {
		return nil, err
	}

	factors := make([]Factor, 0, len(f.FixedEffects))
	for _, fe := range f.FixedEffects {
		factor, err := buildFactor(fe, frame)
		if err != nil {
			return nil, err
		}
		factors = append(factors, factor)
	}

	var weights []float64
	if weightsColumn != "" {
		w, err := frame.Numeric(weightsColumn)
		if err != nil {
			return nil, err
		}
		weights = make([]float64, len(w))
		copy(weights, w)
		for i, v := range weights {
			if !(v > 0) {
				return nil, fmt.Errorf("design: weights column %q must be strictly positive, row %d is %v", weightsColumn, i, v)
			}
		}
	}

	return &FitMatrices{
		Response: response,
		Names:    names,
		Columns:  columns,
		Factors:  factors,
		Weights:  weights,
		Encoding: enc,
	}, nil
}

// expand turns the formula terms into named columns against the training
// frame, reference levels excluded.
func expand(f *formula.Formula, frame *dataframe.Frame, enc *Encoding) (names []string, columns [][]float64, err error) {
	rows := frame.NumRows()

	if f.Intercept && !f.HasFixedEffects() {
		names = append(names, interceptName)
		columns = append(columns, ones(rows))
	}

	for _, t := range f.Terms {
		var numeric []formula.Component
		var categorical []formula.Component
		for _, c := range t.Components {
			if enc.Has(c.Raw) {
				categorical = append(categorical, c)
			} else {
				numeric = append(numeric, c)
			}
		}
		if len(categorical) > 1 {
			return nil, nil, &formula.FormulaError{
				Spec:   f.Spec,
				Reason: fmt.Sprintf("term %q: interactions between categorical variables are not supported", t.Name()),
			}
		}

		base, err := numericProduct(frame, numeric, rows)
		if err != nil {
			return nil, nil, err
		}

		if len(categorical) == 0 {
			names = append(names, t.Name())
			columns = append(columns, base)
			continue
		}

		cat := categorical[0]
		levels, err := frame.Levels(cat.Var)
		if err != nil {
			return nil, nil, err
		}
		for _, lvl := range enc.Levels(cat.Raw)[1:] {
			col := make([]float64, rows)
			for i := range col {
				if levels[i] == lvl {
					col[i] = base[i]
				}
			}
			names = append(names, dummyTermName(t, cat, lvl))
			columns = append(columns, col)
		}
	}
	return names, columns, nil
}

// BuildForPrediction aligns a fresh covariate matrix for new data with the
// fitted column set. Every fitted column identifier is resolved against
// the data through the categorical level matcher, so a dummy column logs
// back onto raw values in the new data no matter how its level was
// spelled. The fit-time encoding decides which levels exist; new levels
// never create columns and instead mark their rows unresolved.
func BuildForPrediction(f *formula.Formula, fittedNames []string, enc *Encoding, frame *dataframe.Frame) (*PredictionMatrix, error) {
	rows := frame.NumRows()
	unresolved := make([]bool, rows)

	// Base token -> frame column for every categorical component.
	baseVar := make(map[string]string)
	for _, t := range f.Terms {
		for _, c := range t.Components {
			if enc.Has(c.Raw) {
				baseVar[c.Raw] = c.Var
			}
		}
	}

	for base, v := range baseVar {
		levels, err := frame.Levels(v)
		if err != nil {
			// Column absent from the new data; the affected fitted
			// columns are zero-filled below.
			continue
		}
		for i, l := range levels {
			if l == "" || !enc.HasLevel(base, l) {
				unresolved[i] = true
			}
		}
	}

	out := &PredictionMatrix{
		Names:      fittedNames,
		Columns:    make([][]float64, len(fittedNames)),
		Unresolved: unresolved,
	}
	for idx, name := range fittedNames {
		col, ok := buildNamedColumn(name, frame, enc, baseVar, rows)
		if !ok {
			col = make([]float64, rows)
			out.Missing = append(out.Missing, name)
		}
		out.Columns[idx] = col
	}
	return out, nil
}

// buildNamedColumn reconstructs one fitted column from raw data. Each
// ":"-separated piece is either a dummy identifier, matched by
// ExtractVariableLevel against the data's level text, or a plain numeric
// variable.
func buildNamedColumn(name string, frame *dataframe.Frame, enc *Encoding, baseVar map[string]string, rows int) ([]float64, bool) {
	if name == interceptName {
		return ones(rows), true
	}
	out := ones(rows)
	for _, piece := range strings.Split(name, ":") {
		if base, level, err := ExtractVariableLevel(piece); err == nil && enc.Has(base) {
			levels, err := frame.Levels(baseVar[base])
			if err != nil {
				return nil, false
			}
			for i := range out {
				switch {
				case levels[i] == "":
					out[i] = math.NaN()
				case levels[i] != level:
					out[i] = 0
				}
			}
			continue
		}
		vals, err := frame.Numeric(piece)
		if err != nil {
			return nil, false
		}
		for i := range out {
			out[i] *= vals[i]
		}
	}
	return out, true
}

// numericProduct multiplies the numeric components row-wise. With no
// numeric components it is a column of ones.
func numericProduct(frame *dataframe.Frame, comps []formula.Component, rows int) ([]float64, error) {
	out := ones(rows)
	for _, c := range comps {
		vals, err := frame.Numeric(c.Var)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] *= vals[i]
		}
	}
	return out, nil
}

// dummyTermName renders the column name for a term with the categorical
// component replaced by its dummy identifier, keeping component order.
func dummyTermName(t formula.Term, cat formula.Component, level string) string {
	parts := make([]string, len(t.Components))
	for i, c := range t.Components {
		if c.Raw == cat.Raw {
			parts[i] = DummyName(cat.Raw, level)
		} else {
			parts[i] = c.Raw
		}
	}
	return strings.Join(parts, ":")
}

func buildFactor(name string, frame *dataframe.Frame) (Factor, error) {
	levels, err := frame.Levels(name)
	if err != nil {
		return Factor{}, err
	}
	unique := make(map[string]bool)
	var ordered []string
	for _, l := range levels {
		if l == "" || unique[l] {
			continue
		}
		unique[l] = true
		ordered = append(ordered, l)
	}
	sort.Strings(ordered)
	lookup := make(map[string]int, len(ordered))
	for i, l := range ordered {
		lookup[l] = i
	}
	index := make([]int, len(levels))
	for i, l := range levels {
		if l == "" {
			index[i] = -1
			continue
		}
		index[i] = lookup[l]
	}
	return Factor{Name: name, Levels: ordered, Index: index}, nil
}

func ones(rows int) []float64 {
	out := make([]float64, rows)
	for i := range out {
		out[i] = 1
	}
	return out
}

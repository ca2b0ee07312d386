package dataframe

import (
	"fmt"
	"math"
	"strconv"

	"github.com/govalues/decimal"
)

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

var (
	ErrUnknownColumn = fmt.Errorf("dataframe: unknown column")
	ErrKindMismatch  = fmt.Errorf("dataframe: column kind mismatch")
)

type column struct {
	kind Kind
	nums []float64
	cats []string
}

// Frame is an ordered set of named columns over a common row count.
// Numeric columns use NaN for missing values, categorical columns use "".
type Frame struct {
	names []string
	cols  map[string]*column
	rows  int
}

func New(rows int) *Frame {
	return &Frame{
		cols: make(map[string]*column),
		rows: rows,
	}
}

func (f *Frame) NumRows() int {
	return f.rows
}

func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

func (f *Frame) Kind(name string) (Kind, error) {
	c, ok := f.cols[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return c.kind, nil
}

func (f *Frame) AddNumeric(name string, values []float64) error {
	if len(values) != f.rows {
		return fmt.Errorf("dataframe: column %q has %d rows, frame has %d", name, len(values), f.rows)
	}
	f.put(name, &column{kind: Numeric, nums: values})
	return nil
}

func (f *Frame) AddCategorical(name string, values []string) error {
	if len(values) != f.rows {
		return fmt.Errorf("dataframe: column %q has %d rows, frame has %d", name, len(values), f.rows)
	}
	f.put(name, &column{kind: Categorical, cats: values})
	return nil
}

func (f *Frame) put(name string, c *column) {
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = c
}

func (f *Frame) Numeric(name string) ([]float64, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.kind != Numeric {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrKindMismatch, name)
	}
	return c.nums, nil
}

func (f *Frame) Categorical(name string) ([]string, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.kind != Categorical {
		return nil, fmt.Errorf("%w: %q is not categorical", ErrKindMismatch, name)
	}
	return c.cats, nil
}

// Levels returns the column rendered as categorical level text, one entry
// per row. Numeric columns are canonicalized so the same value always maps
// to the same key at fit and at prediction time. Missing values map to "".
func (f *Frame) Levels(name string) ([]string, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.kind == Categorical {
		return c.cats, nil
	}
	out := make([]string, len(c.nums))
	for i, v := range c.nums {
		out[i] = CanonicalLevel(v)
	}
	return out, nil
}

// CanonicalLevel renders a numeric value as exact level text. Decimal
// rendering keeps integral floats and their textual forms distinct from
// nearby values without float formatting surprises.
func CanonicalLevel(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	d, err := decimal.NewFromFloat64(v)
	if err != nil {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return d.String()
}

// Subset returns a new frame holding the given rows, in order. Row indices
// out of range are rejected.
func (f *Frame) Subset(rows []int) (*Frame, error) {
	for _, r := range rows {
		if r < 0 || r >= f.rows {
			return nil, fmt.Errorf("dataframe: row %d out of range [0,%d)", r, f.rows)
		}
	}
	out := New(len(rows))
	for _, name := range f.names {
		c := f.cols[name]
		switch c.kind {
		case Numeric:
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = c.nums[r]
			}
			_ = out.AddNumeric(name, vals)
		case Categorical:
			vals := make([]string, len(rows))
			for i, r := range rows {
				vals[i] = c.cats[r]
			}
			_ = out.AddCategorical(name, vals)
		}
	}
	return out, nil
}

// DropIncomplete returns a new frame without the rows that have a missing
// value in any of the named columns.
func (f *Frame) DropIncomplete(names []string) (*Frame, error) {
	keep := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		complete := true
		for _, name := range names {
			c, ok := f.cols[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			}
			switch c.kind {
			case Numeric:
				if math.IsNaN(c.nums[i]) {
					complete = false
				}
			case Categorical:
				if c.cats[i] == "" {
					complete = false
				}
			}
			if !complete {
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return f.Subset(keep)
}

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantfold/absorb/pkg/dataframe"
)

// Reader loads query results from a DuckDB database into observation
// frames. Numeric result columns become numeric frame columns, everything
// else becomes categorical level text.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// LoadFrame materializes the query result as a frame. NULLs map to missing
// values in either column kind.
func (r *Reader) LoadFrame(ctx context.Context, query string, args ...any) (*dataframe.Frame, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading column names: %w", err)
	}

	values := make([][]any, len(names))
	for rows.Next() {
		holders := make([]any, len(names))
		targets := make([]any, len(names))
		for i := range holders {
			targets[i] = &holders[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		for i, v := range holders {
			values[i] = append(values[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}

	var count int
	if len(values) > 0 {
		count = len(values[0])
	}
	frame := dataframe.New(count)
	for i, name := range names {
		if err := addColumn(frame, name, values[i]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func addColumn(frame *dataframe.Frame, name string, values []any) error {
	if isNumericColumn(values) {
		nums := make([]float64, len(values))
		for i, v := range values {
			nums[i] = toFloat(v)
		}
		return frame.AddNumeric(name, nums)
	}
	cats := make([]string, len(values))
	for i, v := range values {
		cats[i] = toLevel(v)
	}
	return frame.AddCategorical(name, cats)
}

// isNumericColumn reports whether every non-NULL value carries a numeric
// driver type.
func isNumericColumn(values []any) bool {
	sawValue := false
	for _, v := range values {
		switch v.(type) {
		case nil:
		case float64, float32, int64, int32, int16, int8, int, uint64, uint32, uint8:
			sawValue = true
		default:
			return false
		}
	}
	return sawValue
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int8:
		return float64(x)
	case int:
		return float64(x)
	case uint64:
		return float64(x)
	case uint32:
		return float64(x)
	case uint8:
		return float64(x)
	default:
		return math.NaN()
	}
}

func toLevel(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return dataframe.CanonicalLevel(x)
	default:
		return fmt.Sprint(x)
	}
}

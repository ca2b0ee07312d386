package solve

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// rankTolerance scales the largest R diagonal magnitude to decide when a
// pivot is numerically zero.
const rankTolerance = 1e-10

// SingularDesignError reports covariate columns that are perfectly
// collinear after demeaning. The caller decides whether to drop them and
// refit; the solver never returns silently wrong coefficients.
type SingularDesignError struct {
	Columns []string
}

func (e *SingularDesignError) Error() string {
	return fmt.Sprintf("solve: design matrix is rank deficient, offending columns: %s", strings.Join(e.Columns, ", "))
}

// WLS solves min_b sum_i w_i (y_i - x_i'b)^2 by QR on the square-root
// weighted system. Column names are only used for error reporting. A nil
// weights slice means unit weights. Pure function, inputs are not
// modified.
func WLS(columns [][]float64, names []string, y, weights []float64) ([]float64, error) {
	k := len(columns)
	if k == 0 {
		return nil, nil
	}
	n := len(y)
	if k > n {
		// More columns than rows is rank deficient before any pivot is
		// inspected, and QR factorization rejects wide matrices outright.
		return nil, &SingularDesignError{Columns: names}
	}

	xw := mat.NewDense(n, k, nil)
	yw := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		s := 1.0
		if weights != nil {
			s = math.Sqrt(weights[i])
		}
		for j := 0; j < k; j++ {
			xw.Set(i, j, s*columns[j][i])
		}
		yw.SetVec(i, s*y[i])
	}

	var qr mat.QR
	qr.Factorize(xw)

	var r mat.Dense
	qr.RTo(&r)
	maxPivot := 0.0
	for j := 0; j < k; j++ {
		if d := math.Abs(r.At(j, j)); d > maxPivot {
			maxPivot = d
		}
	}
	var singular []string
	for j := 0; j < k; j++ {
		if math.Abs(r.At(j, j)) <= rankTolerance*maxPivot {
			singular = append(singular, columnName(names, j))
		}
	}
	if maxPivot == 0 || len(singular) > 0 {
		if maxPivot == 0 && len(singular) == 0 {
			for j := 0; j < k; j++ {
				singular = append(singular, columnName(names, j))
			}
		}
		return nil, &SingularDesignError{Columns: singular}
	}

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, yw); err != nil {
		return nil, &SingularDesignError{Columns: names}
	}

	beta := make([]float64, k)
	for j := 0; j < k; j++ {
		beta[j] = sol.At(j, 0)
	}
	return beta, nil
}

func columnName(names []string, j int) string {
	if j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("column %d", j)
}

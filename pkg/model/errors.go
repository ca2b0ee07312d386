package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoObservations = errors.New("model: no complete observations to fit on")
	ErrUnknownFamily  = errors.New("model: unknown family")
)

// UnsupportedOperationError marks operations that are deliberately
// rejected, distinctly from generic errors so callers can branch on it.
// Prediction and residuals for weighted Poisson fits are the one case:
// fixed-effect recovery for weighted count models is not well-defined
// under this design.
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("model: %s is unsupported: %s", e.Op, e.Reason)
}

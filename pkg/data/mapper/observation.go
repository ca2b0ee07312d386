package mapper

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/quantfold/absorb/pkg/dataframe"
)

// BinaryObservation is the fixed on-disk record for bulk panel data: the
// response, two covariates, three factor level codes and a weight, all
// float64 so the record carries no padding.
type BinaryObservation struct {
	Y  float64
	X1 float64
	X2 float64
	F1 float64
	F2 float64
	F3 float64
	W  float64
}

// ReadFrame loads a whole binary observation file into a frame.
func ReadFrame(path string) (*dataframe.Frame, error) {
	r := NewReader[BinaryObservation](path)
	if err := r.Open(); err != nil {
		return nil, err
	}
	defer r.Close()

	count, err := r.EntryCount()
	if err != nil {
		return nil, err
	}

	n := int(count)
	y := make([]float64, n)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	f1 := make([]float64, n)
	f2 := make([]float64, n)
	f3 := make([]float64, n)
	w := make([]float64, n)

	var obs BinaryObservation
	for i := 0; i < n; i++ {
		if err := r.Read(int64(i), &obs); err != nil {
			return nil, err
		}
		y[i] = obs.Y
		x1[i] = obs.X1
		x2[i] = obs.X2
		f1[i] = obs.F1
		f2[i] = obs.F2
		f3[i] = obs.F3
		w[i] = obs.W
	}

	frame := dataframe.New(n)
	_ = frame.AddNumeric("Y", y)
	_ = frame.AddNumeric("X1", x1)
	_ = frame.AddNumeric("X2", x2)
	_ = frame.AddNumeric("f1", f1)
	_ = frame.AddNumeric("f2", f2)
	_ = frame.AddNumeric("f3", f3)
	_ = frame.AddNumeric("weights", w)
	return frame, nil
}

// WriteObservations writes records in the reader's on-disk layout.
func WriteObservations(path string, observations []BinaryObservation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := bufio.NewWriter(f)
	for i := range observations {
		if err := binary.Write(w, binary.LittleEndian, &observations[i]); err != nil {
			return fmt.Errorf("unable to write record %d: %w", i, err)
		}
	}
	return w.Flush()
}

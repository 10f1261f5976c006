package svm

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance. The fitted
// parameters are kept for export so inference can apply the same transform.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// Fit learns the per-column mean and population standard deviation. A
// constant column keeps scale 1 so the transform stays finite.
func (s *Scaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("no rows to fit scaler on")
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), dim)
		}
	}

	s.Mean = make([]float64, dim)
	s.Scale = make([]float64, dim)
	col := make([]float64, len(x))
	for d := 0; d < dim; d++ {
		for i, row := range x {
			col[i] = row[d]
		}
		s.Mean[d] = stat.Mean(col, nil)
		sd := stat.PopStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		s.Scale[d] = sd
	}
	return nil
}

// Transform returns standardized copies of the rows.
func (s *Scaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		r := make([]float64, len(row))
		for d, v := range row {
			r[d] = (v - s.Mean[d]) / s.Scale[d]
		}
		out[i] = r
	}
	return out
}

// FitTransform fits the scaler and standardizes x in one step.
func (s *Scaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x), nil
}

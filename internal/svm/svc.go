package svm

import (
	"fmt"
	"math"
)

// SVC is a support vector classifier over labels {0, 1}. Fit trains the
// decision function and calibrates probability estimates; the fitted model
// exposes its support vectors, dual coefficients and intercept for export.
type SVC struct {
	Params

	supportX [][]float64
	coef     []float64
	rho      float64
	probA    float64
	probB    float64
	kern     kernelFunc
	fitted   bool
}

// New returns an untrained classifier for the given parameters.
func New(p Params) *SVC {
	return &SVC{Params: p}
}

// Fit trains on rows x with labels y in {0, 1}. Both classes must be
// present and degenerate parameter combinations are rejected before any
// optimization runs.
func (m *SVC) Fit(x [][]float64, y []int) error {
	if err := m.Params.validate(); err != nil {
		return err
	}
	if len(x) == 0 {
		return fmt.Errorf("no training samples")
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d rows but %d labels", len(x), len(y))
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), dim)
		}
	}

	signed := make([]int8, len(y))
	pos := 0
	for i, v := range y {
		switch v {
		case 1:
			signed[i] = +1
			pos++
		case 0:
			signed[i] = -1
		default:
			return fmt.Errorf("label %d at row %d, want 0 or 1", v, i)
		}
	}
	if pos == 0 || pos == len(y) {
		return fmt.Errorf("training data contains a single class")
	}

	cp := m.C * m.Weight1
	cn := m.C * m.Weight0

	coef, rho := solveCSVC(x, signed, cp, cn, m.Params)

	m.supportX = nil
	m.coef = nil
	for i, a := range coef {
		if math.Abs(a) > 0 {
			m.supportX = append(m.supportX, x[i])
			m.coef = append(m.coef, a)
		}
	}
	m.rho = rho
	m.kern = m.Params.kernelFunc()

	m.probA, m.probB = m.calibrate(x, signed, cp, cn)
	m.fitted = true
	return nil
}

func (m *SVC) decision(x []float64) float64 {
	f := -m.rho
	for i, sv := range m.supportX {
		f += m.coef[i] * m.kern(sv, x)
	}
	return f
}

// Probabilities returns the calibrated positive-class probability for each
// row, clamped away from exactly 0 and 1.
func (m *SVC) Probabilities(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("classifier is not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		p := sigmoidPredict(m.decision(row), m.probA, m.probB)
		if p < minProbability {
			p = minProbability
		} else if p > 1-minProbability {
			p = 1 - minProbability
		}
		out[i] = p
	}
	return out, nil
}

// SupportVectors returns the training rows with nonzero dual coefficients.
func (m *SVC) SupportVectors() [][]float64 { return m.supportX }

// DualCoefs returns alpha_i * y_i per support vector.
func (m *SVC) DualCoefs() []float64 { return m.coef }

// Intercept is the constant term of the decision function.
func (m *SVC) Intercept() float64 { return -m.rho }

// ProbParams returns the Platt scaling constants A and B.
func (m *SVC) ProbParams() (a, b float64) { return m.probA, m.probB }

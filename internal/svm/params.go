// Package svm implements a two-class soft-margin support vector classifier
// with RBF and linear kernels, trained by sequential minimal optimization
// and calibrated to probabilities with Platt scaling.
package svm

import "fmt"

// Kernel names accepted in Params.
const (
	KernelRBF    = "rbf"
	KernelLinear = "linear"
)

// Params is one hyperparameter candidate: the kernel, the soft-margin
// constant C, the RBF width gamma and per-class multipliers applied to C
// (Weight0 scales the negative class, Weight1 the positive one).
type Params struct {
	Kernel  string
	C       float64
	Gamma   float64
	Weight0 float64
	Weight1 float64
}

// Key is a stable identity string for journaling candidate results.
func (p Params) Key() string {
	return fmt.Sprintf("%s_%v_%v_%v_%v", p.Kernel, p.C, p.Gamma, p.Weight0, p.Weight1)
}

func (p Params) String() string {
	return fmt.Sprintf("kernel=%s C=%v gamma=%v weights={0:%v 1:%v}",
		p.Kernel, p.C, p.Gamma, p.Weight0, p.Weight1)
}

func (p Params) validate() error {
	switch p.Kernel {
	case KernelRBF:
		if p.Gamma <= 0 {
			return fmt.Errorf("gamma must be positive, got %v", p.Gamma)
		}
	case KernelLinear:
	default:
		return fmt.Errorf("unknown kernel %q", p.Kernel)
	}
	if p.C <= 0 {
		return fmt.Errorf("C must be positive, got %v", p.C)
	}
	if p.Weight0 <= 0 || p.Weight1 <= 0 {
		return fmt.Errorf("class weights must be positive, got {0:%v 1:%v}", p.Weight0, p.Weight1)
	}
	return nil
}

package search

import (
	"math"
	"math/rand"

	"pufftrain/internal/svm"
)

// GridSpec bounds the candidate space: kernels, the shared exponent sweep
// for C and gamma (values are 2^exp) and the negative-class weight sweep.
// The positive class always gets the complementary weight 1-w.
type GridSpec struct {
	Kernels    []string
	ExpMin     float64
	ExpMax     float64
	ExpStep    float64
	WeightMin  float64
	WeightMax  float64
	WeightStep float64
}

// DefaultGrid matches the study sweep: RBF kernel, C and gamma spanning
// 2^-12 through 2^11.5 in half-exponent steps, and negative-class weights
// 0.1 through 0.9. Weight zero is left out because it removes the negative
// class penalty entirely and the optimizer degenerates.
func DefaultGrid() GridSpec {
	return GridSpec{
		Kernels:    []string{svm.KernelRBF},
		ExpMin:     -12,
		ExpMax:     12,
		ExpStep:    0.5,
		WeightMin:  0.1,
		WeightMax:  1.0,
		WeightStep: 0.1,
	}
}

// Grid enumerates every candidate in a fixed order: kernel, then C
// ascending, then gamma ascending, then weight ascending. The order is part
// of the contract because equal scores resolve to the earliest candidate.
func Grid(spec GridSpec) []svm.Params {
	exps := sweep(spec.ExpMin, spec.ExpMax, spec.ExpStep)
	weights := sweep(spec.WeightMin, spec.WeightMax, spec.WeightStep)

	var out []svm.Params
	for _, kernel := range spec.Kernels {
		for _, ce := range exps {
			for _, ge := range exps {
				for _, w := range weights {
					out = append(out, svm.Params{
						Kernel:  kernel,
						C:       math.Pow(2, ce),
						Gamma:   math.Pow(2, ge),
						Weight0: w,
						Weight1: 1 - w,
					})
				}
			}
		}
	}
	return out
}

// sweep enumerates min, min+step, ... strictly below max, stepping by index
// so accumulated float error cannot add a spurious final value.
func sweep(min, max, step float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := min + float64(i)*step
		if v >= max-1e-9 {
			return out
		}
		out = append(out, v)
	}
}

// Sample draws n distinct candidates from the grid, deterministically for a
// given seed. A non-positive n or one at least the grid size returns the
// whole grid.
func Sample(spec GridSpec, n int, seed int64) []svm.Params {
	all := Grid(spec)
	if n <= 0 || n >= len(all) {
		return all
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(all))
	out := make([]svm.Params, n)
	for i := 0; i < n; i++ {
		out[i] = all[perm[i]]
	}
	return out
}

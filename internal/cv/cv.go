// Package cv builds subject-grouped cross-validation folds and assembles
// out-of-fold probabilities, so every sample is scored by a model that never
// saw its subject during training.
package cv

import (
	"fmt"
	"sort"
)

// Estimator is the classifier surface the fold loop needs: training from
// scratch and positive-class probabilities for unseen rows.
type Estimator interface {
	Fit(x [][]float64, y []int) error
	Probabilities(x [][]float64) ([]float64, error)
}

// Fold is one train/held-out split of sample indices.
type Fold struct {
	Train []int
	Test  []int
}

// GroupKFold partitions sample indices into k folds so that all samples of
// a subject land in the same held-out set. Subjects are assigned heaviest
// first, each onto the currently lightest fold, which balances fold sizes
// when sample counts are skewed.
func GroupKFold(subjects []int, k int) ([]Fold, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no samples to partition")
	}
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}

	counts := make(map[int]int)
	for _, s := range subjects {
		counts[s]++
	}
	if k > len(counts) {
		return nil, fmt.Errorf("cannot split %d subjects into %d folds", len(counts), k)
	}

	distinct := make([]int, 0, len(counts))
	for s := range counts {
		distinct = append(distinct, s)
	}
	sort.Slice(distinct, func(a, b int) bool {
		if counts[distinct[a]] != counts[distinct[b]] {
			return counts[distinct[a]] > counts[distinct[b]]
		}
		return distinct[a] < distinct[b]
	})

	weight := make([]int, k)
	foldOf := make(map[int]int, len(distinct))
	for _, s := range distinct {
		lightest := 0
		for f := 1; f < k; f++ {
			if weight[f] < weight[lightest] {
				lightest = f
			}
		}
		weight[lightest] += counts[s]
		foldOf[s] = lightest
	}

	folds := make([]Fold, k)
	for i, s := range subjects {
		f := foldOf[s]
		folds[f].Test = append(folds[f].Test, i)
		for g := range folds {
			if g != f {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds, nil
}

// Distinct returns the sorted set of subject identifiers.
func Distinct(subjects []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, s := range subjects {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// Probs fills one out-of-fold positive-class probability per sample. Every
// fold trains a fresh estimator from the factory, so no state leaks between
// folds or into whatever model the caller keeps.
func Probs(factory func() Estimator, x [][]float64, y []int, folds []Fold) ([]float64, error) {
	probs := make([]float64, len(y))
	for fi, fold := range folds {
		est := factory()
		if err := est.Fit(gatherRows(x, fold.Train), gatherInts(y, fold.Train)); err != nil {
			return nil, fmt.Errorf("fold %d fit: %w", fi, err)
		}
		p, err := est.Probabilities(gatherRows(x, fold.Test))
		if err != nil {
			return nil, fmt.Errorf("fold %d predict: %w", fi, err)
		}
		for k, idx := range fold.Test {
			probs[idx] = p[k]
		}
	}
	return probs, nil
}

func gatherRows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func gatherInts(v []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

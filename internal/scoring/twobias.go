// Package scoring implements the threshold-selection rules applied to
// cross-validated probabilities and the evaluation summaries printed after
// training. Scores are "higher is better" so the search can maximize them.
package scoring

import (
	"sort"
)

// Both confident regions must retain at least this share of their class
// before a threshold pair counts as viable.
const classRetentionFloor = 0.95

// TwoBias picks a probability threshold pair [lo, hi]. Samples below lo are
// confident negatives, samples at or above hi are confident positives, and
// samples in between stay unclassified. Among pairs that keep at least 95%
// of each class inside its confident region, the pair discarding the fewest
// samples wins. The returned score is the negated discarded fraction.
//
// When no pair with a non-empty middle band qualifies but some single cutoff
// satisfies both retention floors, that cutoff is returned as a collapsed
// pair with the score still at its -1 floor. Bias is nil when labels hold
// only one class or nothing qualifies at all.
func TwoBias(probs []float64, labels []int) (float64, []float64) {
	n := len(labels)
	pos := 0
	for _, y := range labels {
		if y == 1 {
			pos++
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return -1, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	sorted := make([]float64, n)
	positive := make([]bool, n)
	for rank, idx := range order {
		sorted[rank] = probs[idx]
		positive[rank] = labels[idx] == 1
	}

	// tp counts positives still above the cutoff, tn negatives at or below it.
	tp := float64(pos)
	tn := 0.0
	minLoss := 1.0
	var bias []float64

	for i := 0; i < n; i++ {
		if positive[i] {
			tp--
		} else {
			tn++
		}

		if tp/float64(pos) >= classRetentionFloor && tn/float64(neg) >= classRetentionFloor {
			bias = []float64{sorted[i], sorted[i]}
			continue
		}

		runningPos := float64(pos)
		runningNeg := float64(neg)
		runningTP := tp
		runningTN := tn
		for j := i + 1; j < n; j++ {
			if positive[j] {
				runningTP--
				runningPos--
			} else {
				runningNeg--
			}

			lost := float64(j-i) / float64(n)
			if runningPos == 0 || runningNeg == 0 {
				break
			}
			if runningTP/runningPos >= classRetentionFloor &&
				runningTN/runningNeg >= classRetentionFloor &&
				lost < minLoss {
				minLoss = lost
				bias = []float64{sorted[i], sorted[j]}
			}
		}
	}

	return -minLoss, bias
}

// Classify applies a threshold pair to probabilities and returns the indices
// of the samples that fall into a confident region together with their 0/1
// predictions. A probability below bias[0] is a confident negative, one at
// or above bias[1] a confident positive. With bias[0] == bias[1] every
// sample is classified.
func Classify(probs []float64, bias []float64) (indices []int, predicted []int) {
	if len(bias) < 2 {
		return nil, nil
	}
	lo, hi := bias[0], bias[1]
	for i, p := range probs {
		switch {
		case p < lo:
			indices = append(indices, i)
			predicted = append(predicted, 0)
		case p >= hi:
			indices = append(indices, i)
			predicted = append(predicted, 1)
		}
	}
	return indices, predicted
}

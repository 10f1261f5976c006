package scoring

import "sort"

// F1Bias picks the single probability cutoff maximizing the F1 score of the
// positive class and returns it as a collapsed threshold pair [t, t], so the
// classification rule stays the same as for TwoBias with an empty middle
// band. Candidate cutoffs run ascending and the first maximizer wins. Bias
// is nil when no positives exist or F1 never rises above zero.
func F1Bias(probs []float64, labels []int) (float64, []float64) {
	precision, recall, thresholds := precisionRecallCurve(probs, labels)

	best := 0.0
	var bias []float64
	for i := range thresholds {
		if precision[i] == 0 && recall[i] == 0 {
			continue
		}
		f1 := 2 * precision[i] * recall[i] / (precision[i] + recall[i])
		if f1 > best {
			best = f1
			bias = []float64{thresholds[i], thresholds[i]}
		}
	}
	return best, bias
}

// precisionRecallCurve evaluates precision and recall at every distinct
// probability, predicting positive when prob >= threshold. Thresholds come
// back ascending, starting from the largest cutoff that still captures every
// positive; lower cutoffs only add false positives at full recall.
func precisionRecallCurve(probs []float64, labels []int) (precision, recall, thresholds []float64) {
	totalPos := 0
	for _, y := range labels {
		if y == 1 {
			totalPos++
		}
	}
	if totalPos == 0 || len(probs) == 0 {
		return nil, nil, nil
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	var tps, fps, cuts []float64
	tp, fp := 0, 0
	for rank, idx := range order {
		if labels[idx] == 1 {
			tp++
		} else {
			fp++
		}
		last := rank == len(order)-1
		if last || probs[order[rank+1]] != probs[idx] {
			cuts = append(cuts, probs[idx])
			tps = append(tps, float64(tp))
			fps = append(fps, float64(fp))
		}
	}

	// Reverse into ascending threshold order.
	for i, j := 0, len(cuts)-1; i < j; i, j = i+1, j-1 {
		cuts[i], cuts[j] = cuts[j], cuts[i]
		tps[i], tps[j] = tps[j], tps[i]
		fps[i], fps[j] = fps[j], fps[i]
	}

	// Drop cutoffs below the largest one with full recall.
	first := 0
	for i := range tps {
		if tps[i] == float64(totalPos) {
			first = i
		}
	}

	for i := first; i < len(cuts); i++ {
		precision = append(precision, tps[i]/(tps[i]+fps[i]))
		recall = append(recall, tps[i]/float64(totalPos))
		thresholds = append(thresholds, cuts[i])
	}
	return precision, recall, thresholds
}

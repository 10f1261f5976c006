package scoring

import "testing"

func TestF1BiasPerfectSeparation(t *testing.T) {
	probs := []float64{0.1, 0.15, 0.2, 0.7, 0.8, 0.9}
	labels := []int{0, 0, 0, 1, 1, 1}

	score, bias := F1Bias(probs, labels)
	if !almostEqual(score, 1.0) {
		t.Errorf("f1 = %v, want 1.0", score)
	}
	if len(bias) != 2 || !almostEqual(bias[0], 0.7) || bias[0] != bias[1] {
		t.Errorf("bias = %v, want [0.7 0.7]", bias)
	}
}

func TestF1BiasMixedHandTraced(t *testing.T) {
	// Cutoffs swept: 0.4 (P=2/3 R=1 F1=0.8), 0.6 (P=0.5 R=0.5 F1=0.5),
	// 0.8 (P=1 R=0.5 F1=2/3). The earliest maximizer wins.
	probs := []float64{0.1, 0.6, 0.4, 0.8}
	labels := []int{0, 0, 1, 1}

	score, bias := F1Bias(probs, labels)
	if !almostEqual(score, 0.8) {
		t.Errorf("f1 = %v, want 0.8", score)
	}
	if len(bias) != 2 || !almostEqual(bias[0], 0.4) {
		t.Errorf("bias = %v, want [0.4 0.4]", bias)
	}
}

func TestF1BiasNoPositives(t *testing.T) {
	score, bias := F1Bias([]float64{0.2, 0.3}, []int{0, 0})
	if score != 0 || bias != nil {
		t.Errorf("got (%v, %v), want (0, nil)", score, bias)
	}
}

func TestPrecisionRecallCurve(t *testing.T) {
	probs := []float64{0.1, 0.6, 0.4, 0.8}
	labels := []int{0, 0, 1, 1}

	precision, recall, thresholds := precisionRecallCurve(probs, labels)
	wantT := []float64{0.4, 0.6, 0.8}
	wantP := []float64{2.0 / 3.0, 0.5, 1.0}
	wantR := []float64{1.0, 0.5, 0.5}
	if len(thresholds) != len(wantT) {
		t.Fatalf("thresholds = %v, want %v", thresholds, wantT)
	}
	for i := range wantT {
		if !almostEqual(thresholds[i], wantT[i]) ||
			!almostEqual(precision[i], wantP[i]) ||
			!almostEqual(recall[i], wantR[i]) {
			t.Errorf("point %d: (t=%v p=%v r=%v), want (t=%v p=%v r=%v)",
				i, thresholds[i], precision[i], recall[i], wantT[i], wantP[i], wantR[i])
		}
	}
}

func TestPrecisionRecallCurveTiedProbabilities(t *testing.T) {
	// Ties collapse into one cutoff evaluated over all tied samples.
	probs := []float64{0.5, 0.5, 0.9}
	labels := []int{0, 1, 1}

	precision, recall, thresholds := precisionRecallCurve(probs, labels)
	if len(thresholds) != 2 {
		t.Fatalf("thresholds = %v, want two cutoffs", thresholds)
	}
	if !almostEqual(thresholds[0], 0.5) || !almostEqual(precision[0], 2.0/3.0) || !almostEqual(recall[0], 1.0) {
		t.Errorf("first point = (t=%v p=%v r=%v), want (0.5, 2/3, 1)", thresholds[0], precision[0], recall[0])
	}
	if !almostEqual(thresholds[1], 0.9) || !almostEqual(precision[1], 1.0) || !almostEqual(recall[1], 0.5) {
		t.Errorf("second point = (t=%v p=%v r=%v), want (0.9, 1, 0.5)", thresholds[1], precision[1], recall[1])
	}
}

// Package report renders the post-training summary: the winning
// parameters, the cross-subject prediction quality and an optional
// probability plot.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"pufftrain/internal/scoring"
	"pufftrain/internal/svm"
)

// Summary collects everything worth showing once a search has finished.
// Labels and Probs are the out-of-fold ground truth and probabilities
// produced by the final cross-validation pass with the winning
// parameters.
type Summary struct {
	Params   svm.Params
	Score    float64
	Bias     []float64
	Folds    int
	Labels   []int
	Probs    []float64
	Subjects []int
}

// Print writes the summary to w. Samples whose probability falls inside
// the bias band count as lost and are excluded from the quality numbers.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "\n=== TRAINING RESULTS SUMMARY ===")
	fmt.Fprintf(w, "Best Parameters: %s\n", s.Params)
	fmt.Fprintf(w, "Score: %v\n", s.Score)
	fmt.Fprintf(w, "Bias: %v\n", s.Bias)
	fmt.Fprintln(w)

	kept, predicted := scoring.Classify(s.Probs, s.Bias)
	actual := make([]int, len(kept))
	for i, idx := range kept {
		actual[i] = s.Labels[idx]
	}

	fmt.Fprintf(w, "Cross-Subject (%d-fold) Validation Prediction\n", s.Folds)
	fmt.Fprintf(w, "Accuracy: %v\n", scoring.Accuracy(actual, predicted))
	fmt.Fprintln(w)

	confusion := scoring.ConfusionMatrix(actual, predicted)
	io.WriteString(w, classificationReport(confusion))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Confusion Matrix:")
	fmt.Fprintln(w, formatConfusion(confusion))
	fmt.Fprintln(w)

	lost := len(s.Probs) - len(kept)
	pct := 0.0
	if len(s.Probs) > 0 {
		pct = 100 * float64(lost) / float64(len(s.Probs))
	}
	fmt.Fprintf(w, "Lost: %d (%.2f%%)\n", lost, pct)
	fmt.Fprintf(w, "Subjects: %v\n", s.Subjects)
}

// classificationReport formats per-class precision, recall and f1 plus a
// support-weighted average row.
func classificationReport(confusion [2][2]int) string {
	const rowFmt = "%11s  %9s %9s %9s %9s\n"

	var b strings.Builder
	fmt.Fprintf(&b, rowFmt, "", "precision", "recall", "f1-score", "support")
	b.WriteByte('\n')

	var avgPrecision, avgRecall, avgF1 float64
	total := 0
	for class := 0; class < 2; class++ {
		support := confusion[class][0] + confusion[class][1]
		predicted := confusion[0][class] + confusion[1][class]

		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(confusion[class][class]) / float64(predicted)
		}
		if support > 0 {
			recall = float64(confusion[class][class]) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		fmt.Fprintf(&b, rowFmt, strconv.Itoa(class),
			fmt.Sprintf("%.2f", precision),
			fmt.Sprintf("%.2f", recall),
			fmt.Sprintf("%.2f", f1),
			strconv.Itoa(support))

		avgPrecision += precision * float64(support)
		avgRecall += recall * float64(support)
		avgF1 += f1 * float64(support)
		total += support
	}

	if total > 0 {
		avgPrecision /= float64(total)
		avgRecall /= float64(total)
		avgF1 /= float64(total)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, rowFmt, "avg / total",
		fmt.Sprintf("%.2f", avgPrecision),
		fmt.Sprintf("%.2f", avgRecall),
		fmt.Sprintf("%.2f", avgF1),
		strconv.Itoa(total))
	return b.String()
}

// formatConfusion right-aligns all four counts to the widest one.
func formatConfusion(confusion [2][2]int) string {
	width := 1
	for _, row := range confusion {
		for _, v := range row {
			if n := len(strconv.Itoa(v)); n > width {
				width = n
			}
		}
	}
	return fmt.Sprintf("[[%*d %*d]\n [%*d %*d]]",
		width, confusion[0][0], width, confusion[0][1],
		width, confusion[1][0], width, confusion[1][1])
}

package scoring

// Accuracy is the fraction of predictions matching the labels.
func Accuracy(labels, predicted []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	hits := 0
	for i, y := range labels {
		if predicted[i] == y {
			hits++
		}
	}
	return float64(hits) / float64(len(labels))
}

// ConfusionMatrix counts outcomes indexed as [actual][predicted] over the
// two classes.
func ConfusionMatrix(labels, predicted []int) [2][2]int {
	var m [2][2]int
	for i, y := range labels {
		m[y][predicted[i]]++
	}
	return m
}

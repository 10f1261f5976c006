// Package dataset reads per-subject sensor feature exports and reconciles
// the windows with ground-truth puff marks and smoking episode intervals
// into a labeled training set.
package dataset

// FeatureRow is one observation window from a subject's feature export. End
// is derived from the window start plus the duration carried in the last
// column; the duration column itself stays part of the feature vector.
type FeatureRow struct {
	Subject  int
	Start    int64
	End      int64
	Features []float64
}

// EventMark is a single ground-truth puff timestamp.
type EventMark struct {
	Subject   int
	Timestamp int64
}

// Interval is a smoking episode span. Windows that begin inside one without
// containing a mark are too ambiguous to train on.
type Interval struct {
	Start int64
	End   int64
}

// Labeled is the reconciled training set: one feature vector, label and
// subject id per retained window.
type Labeled struct {
	X        [][]float64
	Y        []int
	Subjects []int
}

// Positives counts the rows labeled 1.
func (d Labeled) Positives() int {
	n := 0
	for _, y := range d.Y {
		n += y
	}
	return n
}

package dataset

// Reconcile labels each feature window against the ground truth. A window
// containing a puff mark anywhere in [Start, End] is positive. A window
// without a mark that begins inside a smoking episode is dropped as
// ambiguous; everything else is negative. Marks from every subject are
// pooled, and a contained mark always beats an overlapping episode.
func Reconcile(rows []FeatureRow, marks []EventMark, episodes []Interval) Labeled {
	var out Labeled
	for _, row := range rows {
		label := 0
		for _, m := range marks {
			if m.Timestamp >= row.Start && m.Timestamp <= row.End {
				label = 1
				break
			}
		}
		if label == 0 && beginsInside(row.Start, episodes) {
			continue
		}
		out.X = append(out.X, row.Features)
		out.Y = append(out.Y, label)
		out.Subjects = append(out.Subjects, row.Subject)
	}
	return out
}

func beginsInside(start int64, episodes []Interval) bool {
	for _, ep := range episodes {
		if start >= ep.Start && start <= ep.End {
			return true
		}
	}
	return false
}

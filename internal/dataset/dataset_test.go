package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestReadFeatures(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p1/s1/features.csv", "1000,0.5,1.5,100\n2000,0.7,1.7,100\n")
	writeFixture(t, root, "p2/s1/features.csv", "3000,0.9,1.9,50\n")

	rows, err := ReadFeatures(root, "features.csv")
	if err != nil {
		t.Fatalf("ReadFeatures failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.Subject != 1 || first.Start != 1000 || first.End != 1100 {
		t.Errorf("row 0 = subject %d [%d, %d], want subject 1 [1000, 1100]", first.Subject, first.Start, first.End)
	}
	// The duration column stays in the feature vector.
	if len(first.Features) != 3 || first.Features[2] != 100 {
		t.Errorf("row 0 features = %v, want [0.5 1.5 100]", first.Features)
	}
	if rows[2].Subject != 2 || rows[2].End != 3050 {
		t.Errorf("row 2 = subject %d end %d, want subject 2 end 3050", rows[2].Subject, rows[2].End)
	}
}

func TestReadFeaturesMalformedRow(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p1/s1/features.csv", "1000,0.5,100\n2000,oops,100\n")

	_, err := ReadFeatures(root, "features.csv")
	if err == nil {
		t.Fatal("expected error for malformed row")
	}
	if !strings.Contains(err.Error(), "features.csv:2") {
		t.Errorf("error %q does not name file and line", err)
	}
}

func TestReadFeaturesNoFiles(t *testing.T) {
	if _, err := ReadFeatures(t.TempDir(), "features.csv"); err == nil {
		t.Error("expected error when no files match")
	}
}

func TestReadFeaturesSkipsBlankLines(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p3/s2/features.csv", "1000,0.5,100\n\n2000,0.7,100\n")

	rows, err := ReadFeatures(root, "features.csv")
	if err != nil {
		t.Fatalf("ReadFeatures failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestReadMarksTruncatesFractions(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p1/s1/puffs.csv", "1050.7,extra\n1200.2\n")

	marks, err := ReadMarks(root, "puffs.csv")
	if err != nil {
		t.Fatalf("ReadMarks failed: %v", err)
	}
	if len(marks) != 2 {
		t.Fatalf("got %d marks, want 2", len(marks))
	}
	if marks[0].Timestamp != 1050 || marks[1].Timestamp != 1200 {
		t.Errorf("timestamps = %d, %d, want 1050, 1200", marks[0].Timestamp, marks[1].Timestamp)
	}
	if marks[0].Subject != 1 {
		t.Errorf("subject = %d, want 1", marks[0].Subject)
	}
}

func TestReadEpisodes(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p1/s1/day1_episode_start_end.csv", "5000.0,9000.0\n")
	writeFixture(t, root, "p2/s1/day1_episode_start_end.csv", "100.5,200.5\n")

	episodes, err := ReadEpisodes(root, "*episode_start_end.csv")
	if err != nil {
		t.Fatalf("ReadEpisodes failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2", len(episodes))
	}
	if episodes[0].Start != 5000 || episodes[0].End != 9000 {
		t.Errorf("episode 0 = [%d, %d], want [5000, 9000]", episodes[0].Start, episodes[0].End)
	}
}

func TestReadEpisodesMissingFilesAreFine(t *testing.T) {
	episodes, err := ReadEpisodes(t.TempDir(), "*episode_start_end.csv")
	if err != nil {
		t.Fatalf("ReadEpisodes failed: %v", err)
	}
	if len(episodes) != 0 {
		t.Errorf("got %d episodes, want none", len(episodes))
	}
}

func TestReconcile(t *testing.T) {
	rows := []FeatureRow{
		{Subject: 1, Start: 100, End: 200, Features: []float64{1}},  // mark inside and episode overlap
		{Subject: 1, Start: 300, End: 400, Features: []float64{2}},  // begins inside episode, no mark
		{Subject: 1, Start: 900, End: 1000, Features: []float64{3}}, // clean negative
		{Subject: 2, Start: 150, End: 250, Features: []float64{4}},  // labeled by subject 1's mark
	}
	marks := []EventMark{{Subject: 1, Timestamp: 150}}
	episodes := []Interval{{Start: 90, End: 410}}

	got := Reconcile(rows, marks, episodes)

	if len(got.Y) != 3 {
		t.Fatalf("kept %d rows, want 3", len(got.Y))
	}
	// A contained mark wins over the overlapping episode.
	if got.Y[0] != 1 {
		t.Errorf("row with mark labeled %d, want 1", got.Y[0])
	}
	// The ambiguous window is gone entirely.
	for _, x := range got.X {
		if x[0] == 2 {
			t.Error("ambiguous window survived reconciliation")
		}
	}
	if got.Y[1] != 0 || got.X[1][0] != 3 {
		t.Errorf("clean negative mislabeled: y=%d x=%v", got.Y[1], got.X[1])
	}
	// Marks are pooled across subjects.
	if got.Y[2] != 1 || got.Subjects[2] != 2 {
		t.Errorf("cross-subject window: y=%d subject=%d, want y=1 subject=2", got.Y[2], got.Subjects[2])
	}
	if got.Positives() != 2 {
		t.Errorf("positives = %d, want 2", got.Positives())
	}
}

func TestReconcileBoundariesInclusive(t *testing.T) {
	rows := []FeatureRow{
		{Subject: 1, Start: 100, End: 200, Features: []float64{1}},
		{Subject: 1, Start: 100, End: 200, Features: []float64{2}},
	}
	atStart := Reconcile(rows[:1], []EventMark{{Timestamp: 100}}, nil)
	atEnd := Reconcile(rows[1:], []EventMark{{Timestamp: 200}}, nil)
	if atStart.Y[0] != 1 || atEnd.Y[0] != 1 {
		t.Errorf("boundary marks labeled %d and %d, want 1 and 1", atStart.Y[0], atEnd.Y[0])
	}

	edge := Reconcile(rows[:1], nil, []Interval{{Start: 100, End: 100}})
	if len(edge.Y) != 0 {
		t.Error("window starting exactly at an episode edge should be dropped")
	}
}

func TestWriteCombinedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.csv")
	data := Labeled{
		X: [][]float64{{0.5, 1.25}, {2, 3.5}},
		Y: []int{1, 0},
	}
	if err := WriteCombinedCSV(path, data); err != nil {
		t.Fatalf("WriteCombinedCSV failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "0.5,1.25,1\n2,3.5,0\n"
	if string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}
}

func TestWriteLibSVM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.libsvm")
	data := Labeled{
		X: [][]float64{{0.5, 1.25}},
		Y: []int{1},
	}
	if err := WriteLibSVM(path, data); err != nil {
		t.Fatalf("WriteLibSVM failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "1 1:0.5 2:1.25\n"
	if string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}
}

// Command gen-sample-data writes a synthetic subject tree the trainer can
// consume: p<ID>/s<NN>/ session directories holding feature windows, puff
// ground-truth timestamps and smoking episode spans. Puff windows get a
// shifted feature distribution so a model trained on the output has
// something real to find.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

const gestureFeatures = 23

type window struct {
	start int64
	dur   float64
	puff  bool
}

func main() {
	var (
		outPath  = flag.String("out", "data", "Output directory for the subject tree")
		subjects = flag.Int("subjects", 6, "Number of subjects to generate")
		sessions = flag.Int("sessions", 2, "Sessions per subject")
		seed     = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Println("Generating sample wrist-sensor sessions...")
	fmt.Printf("  Subjects: %d\n", *subjects)
	fmt.Printf("  Sessions: %d per subject\n", *sessions)
	fmt.Printf("  Output: %s\n", *outPath)

	rng := rand.New(rand.NewSource(*seed))

	totalWindows, totalPuffs := 0, 0
	for subj := 1; subj <= *subjects; subj++ {
		// Per-subject feature offsets give the cross-subject folds real
		// between-subject variation to contend with.
		offset := make([]float64, gestureFeatures)
		for d := range offset {
			offset[d] = rng.NormFloat64() * 0.3
		}
		for sess := 1; sess <= *sessions; sess++ {
			dir := filepath.Join(*outPath, fmt.Sprintf("p%d", subj), fmt.Sprintf("s%02d", sess))
			w, p, err := generateSession(rng, dir, offset)
			if err != nil {
				log.Fatalf("Failed to generate %s: %v", dir, err)
			}
			totalWindows += w
			totalPuffs += p
		}
	}

	fmt.Printf("✓ Generated %d windows with %d puffs\n", totalWindows, totalPuffs)
}

// generateSession writes one session directory: hand-to-mouth gesture
// windows every few seconds over roughly half an hour of wear, two smoking
// episodes, and a puff mark near the center of roughly every third window
// inside an episode.
func generateSession(rng *rand.Rand, dir string, offset []float64) (windows, puffs int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create session dir: %w", err)
	}

	base := int64(1417500000000) + int64(rng.Intn(86400))*1000
	n := 240 + rng.Intn(120)
	wins := make([]window, n)
	t := base
	for i := range wins {
		dur := 3000 + rng.Float64()*2000
		wins[i] = window{start: t, dur: dur}
		t += int64(dur) + int64(500+rng.Intn(1500))
	}

	type span struct{ first, last int }
	spans := []span{
		{first: 30 + rng.Intn(30)},
		{first: 150 + rng.Intn(30)},
	}
	for i := range spans {
		spans[i].last = spans[i].first + 25 + rng.Intn(15)
		if spans[i].last >= n {
			spans[i].last = n - 1
		}
		for w := spans[i].first; w <= spans[i].last; w++ {
			if rng.Float64() < 0.3 {
				wins[w].puff = true
				puffs++
			}
		}
	}

	if err := writeFeatures(filepath.Join(dir, "featureFile.csv"), rng, wins, offset); err != nil {
		return 0, 0, err
	}
	if err := writeMarks(filepath.Join(dir, "groundTruth.csv"), wins); err != nil {
		return 0, 0, err
	}
	episodes := make([][2]int64, len(spans))
	for i, s := range spans {
		episodes[i][0] = wins[s.first].start - 2000
		episodes[i][1] = wins[s.last].start + int64(wins[s.last].dur) + 2000
	}
	if err := writeEpisodes(filepath.Join(dir, "episode_start_end.csv"), episodes); err != nil {
		return 0, 0, err
	}
	return n, puffs, nil
}

// writeFeatures emits one row per window: start timestamp, the gesture
// features and the window duration as the final column. Puff windows shift
// the first half of the features so the classes are separable under noise.
func writeFeatures(path string, rng *rand.Rand, wins []window, offset []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, win := range wins {
		w.WriteString(strconv.FormatInt(win.start, 10))
		for d := 0; d < gestureFeatures; d++ {
			v := offset[d] + rng.NormFloat64()
			if win.puff && d < gestureFeatures/2 {
				v += 1.8
			}
			w.WriteByte(',')
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.WriteByte(',')
		w.WriteString(strconv.FormatFloat(win.dur, 'f', -1, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeMarks emits one ground-truth timestamp per puff window, placed at the
// window center.
func writeMarks(path string, wins []window) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, win := range wins {
		if !win.puff {
			continue
		}
		mark := float64(win.start) + win.dur/2
		w.WriteString(strconv.FormatFloat(mark, 'f', -1, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeEpisodes emits one start,end row per smoking episode.
func writeEpisodes(path string, episodes [][2]int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range episodes {
		w.WriteString(strconv.FormatInt(e[0], 10))
		w.WriteByte(',')
		w.WriteString(strconv.FormatInt(e[1], 10))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

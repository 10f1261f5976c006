package report

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ThresholdPlot draws the sorted out-of-fold probabilities against their
// sample quantile and overlays the two bias thresholds as dashed lines.
// The image format follows the file extension.
func ThresholdPlot(path string, probs, bias []float64) error {
	if len(probs) < 2 {
		return fmt.Errorf("need at least 2 probabilities to plot, got %d", len(probs))
	}

	sorted := append([]float64(nil), probs...)
	sort.Float64s(sorted)
	pts := make(plotter.XYs, len(sorted))
	for i, p := range sorted {
		pts[i].X = float64(i) / float64(len(sorted)-1)
		pts[i].Y = p
	}

	pl := plot.New()
	pl.Title.Text = "Validation Probabilities"
	pl.X.Label.Text = "Sample quantile"
	pl.Y.Label.Text = "Probability"
	pl.X.Min = 0
	pl.X.Max = 1
	pl.Y.Min = 0
	pl.Y.Max = 1

	if err := plotutil.AddLines(pl, "probability", pts); err != nil {
		return fmt.Errorf("probability curve: %w", err)
	}

	if len(bias) == 2 {
		for i, b := range bias {
			line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: b}, {X: 1, Y: b}})
			if err != nil {
				return fmt.Errorf("bias line: %w", err)
			}
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(5)}
			line.Color = color.RGBA{R: 255, A: 255}
			pl.Add(line)
			if i == 0 {
				pl.Legend.Add("bias", line)
			}
		}
	}

	if err := pl.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

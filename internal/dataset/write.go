package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// WriteCombinedCSV stores the reconciled dataset as one row per sample,
// features first and the label as the last column.
func WriteCombinedCSV(path string, data Labeled) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, row := range data.X {
		for _, v := range row {
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			w.WriteByte(',')
		}
		w.WriteString(strconv.Itoa(data.Y[i]))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteLibSVM stores the dataset in the sparse "label index:value" format
// understood by the svm-train family of tools. Indices are 1-based.
func WriteLibSVM(path string, data Labeled) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, row := range data.X {
		w.WriteString(strconv.Itoa(data.Y[i]))
		for d, v := range row {
			w.WriteByte(' ')
			w.WriteString(strconv.Itoa(d + 1))
			w.WriteByte(':')
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

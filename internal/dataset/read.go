package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// subjectFromPath extracts the numeric id from the p<ID> directory two
// levels above a data file, e.g. root/p12/s03/features.csv yields 12.
func subjectFromPath(path string) (int, error) {
	dir := filepath.Base(filepath.Dir(filepath.Dir(path)))
	id, err := strconv.Atoi(strings.TrimPrefix(dir, "p"))
	if err != nil {
		return 0, fmt.Errorf("cannot parse subject id from directory %q: %w", dir, err)
	}
	return id, nil
}

// eachRecord streams trimmed comma-split rows to fn, skipping blank lines.
// fn errors abort the file immediately.
func eachRecord(path string, fn func(line int, parts []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := fn(line, parts); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// ReadFeatures loads every p*/s*/<name> file under root. Column 0 is the
// window start timestamp and the last column the window duration; every
// column after the timestamp is kept as a feature. Malformed rows fail the
// whole read with the file and line in the error.
func ReadFeatures(root, name string) ([]FeatureRow, error) {
	paths, err := filepath.Glob(filepath.Join(root, "p*", "s*", name))
	if err != nil {
		return nil, fmt.Errorf("bad feature glob: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files under %s", name, root)
	}

	var rows []FeatureRow
	for _, path := range paths {
		subject, err := subjectFromPath(path)
		if err != nil {
			return nil, err
		}
		err = eachRecord(path, func(line int, parts []string) error {
			if len(parts) < 2 {
				return fmt.Errorf("%s:%d: want at least 2 columns, got %d", path, line, len(parts))
			}
			start, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%s:%d: bad start timestamp %q: %w", path, line, parts[0], err)
			}
			duration, err := strconv.ParseFloat(parts[len(parts)-1], 64)
			if err != nil {
				return fmt.Errorf("%s:%d: bad duration %q: %w", path, line, parts[len(parts)-1], err)
			}
			features := make([]float64, 0, len(parts)-1)
			for col, raw := range parts[1:] {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("%s:%d: column %d: bad value %q: %w", path, line, col+1, raw, err)
				}
				features = append(features, v)
			}
			rows = append(rows, FeatureRow{
				Subject:  subject,
				Start:    start,
				End:      start + int64(duration),
				Features: features,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// ReadMarks loads every p*/s*/<name> ground-truth file under root. Only the
// first column is used; fractional timestamps are truncated.
func ReadMarks(root, name string) ([]EventMark, error) {
	paths, err := filepath.Glob(filepath.Join(root, "p*", "s*", name))
	if err != nil {
		return nil, fmt.Errorf("bad mark glob: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files under %s", name, root)
	}

	var marks []EventMark
	for _, path := range paths {
		subject, err := subjectFromPath(path)
		if err != nil {
			return nil, err
		}
		err = eachRecord(path, func(line int, parts []string) error {
			ts, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return fmt.Errorf("%s:%d: bad timestamp %q: %w", path, line, parts[0], err)
			}
			marks = append(marks, EventMark{Subject: subject, Timestamp: int64(ts)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return marks, nil
}

// ReadEpisodes pools smoking episode intervals from every file matching
// p*/s*/<pattern> under root. Missing episode files are not an error; a
// subject without episodes simply contributes no exclusion spans.
func ReadEpisodes(root, pattern string) ([]Interval, error) {
	paths, err := filepath.Glob(filepath.Join(root, "p*", "s*", pattern))
	if err != nil {
		return nil, fmt.Errorf("bad episode glob: %w", err)
	}

	var episodes []Interval
	for _, path := range paths {
		err := eachRecord(path, func(line int, parts []string) error {
			if len(parts) < 2 {
				return fmt.Errorf("%s:%d: want start and end columns, got %d", path, line, len(parts))
			}
			start, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return fmt.Errorf("%s:%d: bad episode start %q: %w", path, line, parts[0], err)
			}
			end, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return fmt.Errorf("%s:%d: bad episode end %q: %w", path, line, parts[1], err)
			}
			episodes = append(episodes, Interval{Start: int64(start), End: int64(end)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return episodes, nil
}

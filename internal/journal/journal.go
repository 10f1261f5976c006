// Package journal persists per-candidate search results in a local bbolt
// file so an interrupted sweep can resume without refitting finished
// candidates.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"pufftrain/internal/svm"
)

const (
	resultsBucket = "results" // scored candidates keyed by params fingerprint
	metaBucket    = "meta"    // run bookkeeping such as the dataset shape
)

// Store is a bbolt-backed journal of scored candidates.
type Store struct {
	db *bbolt.DB
}

// Entry is one journaled candidate result.
type Entry struct {
	Params svm.Params `json:"params"`
	Score  float64    `json:"score"`
	Bias   []float64  `json:"bias,omitempty"`
	At     time.Time  `json:"at"`
}

// Open opens or creates the journal file and its buckets.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(resultsBucket)); err != nil {
			return fmt.Errorf("create results bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores or overwrites the result for the entry's params.
func (s *Store) Record(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).Put([]byte(e.Params.Key()), data)
	})
}

// Lookup fetches a previously journaled result for the given params.
func (s *Store) Lookup(p svm.Params) (Entry, bool, error) {
	var e Entry
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(resultsBucket)).Get([]byte(p.Key()))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}
		found = true
		return nil
	})
	return e, found, err
}

// Best returns the highest-scoring journaled entry, if any.
func (s *Store) Best() (Entry, bool, error) {
	var best Entry
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal entry %q: %w", k, err)
			}
			if !found || e.Score > best.Score {
				best = e
				found = true
			}
			return nil
		})
	})
	return best, found, err
}

// Count returns the number of journaled candidates.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(resultsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// CheckDataset pins the journal to a dataset shape. The first call records
// it; later calls fail when the shape changed, because resumed scores from
// a different dataset would corrupt the search.
func (s *Store) CheckDataset(samples, features int) error {
	want := fmt.Sprintf("%dx%d", samples, features)
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(metaBucket))
		existing := b.Get([]byte("dataset"))
		if existing == nil {
			return b.Put([]byte("dataset"), []byte(want))
		}
		if string(existing) != want {
			return fmt.Errorf("journal was built for a %s dataset, current data is %s", existing, want)
		}
		return nil
	})
}

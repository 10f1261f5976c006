// Package search drives the cross-validated hyperparameter sweep: it scores
// every candidate configuration with a pluggable scorer over grouped folds,
// picks the winner and refits it on the full dataset.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pufftrain/internal/cv"
	"pufftrain/internal/journal"
	"pufftrain/internal/metrics"
	"pufftrain/internal/svm"
)

// Scorer evaluates out-of-fold probabilities against the labels and returns
// a score to maximize plus the threshold pair behind it.
type Scorer func(probs []float64, labels []int) (float64, []float64)

// Factory builds a fresh untrained estimator for a candidate.
type Factory func(p svm.Params) cv.Estimator

// Options configures a sweep. X, Y, Candidates, Factory, Folds and Scorer
// are required; the rest defaults to off.
type Options struct {
	X          [][]float64
	Y          []int
	Candidates []svm.Params
	Factory    Factory
	Folds      []cv.Fold
	Scorer     Scorer

	// Jobs bounds concurrent candidate evaluations, defaulting to
	// GOMAXPROCS.
	Jobs int
	// Resilient scores failing candidates -Inf instead of aborting the
	// sweep on their first error.
	Resilient bool
	// Journal, when set, persists candidate scores and answers repeat
	// candidates without refitting.
	Journal *journal.Store
	// Metrics, when set, receives sweep progress.
	Metrics *metrics.Metrics
}

// Candidate is one scored configuration.
type Candidate struct {
	Params  svm.Params
	Score   float64
	Bias    []float64
	Err     error
	resumed bool
}

// Result is the outcome of a completed sweep. Estimator is the winning
// configuration refit on the entire dataset.
type Result struct {
	Best      svm.Params
	Score     float64
	Bias      []float64
	Estimator cv.Estimator
	Evaluated int
	Resumed   int
	Failed    int
	Elapsed   time.Duration
}

// Run scores every candidate and returns the winner. Ties on score resolve
// to the earliest candidate in enumeration order. Without Resilient the
// first candidate error aborts the sweep; the final refit failing is always
// fatal.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Y) != len(opts.X) {
		return nil, fmt.Errorf("target variable (y) has a different number of samples (%d) than data (X: %d samples)",
			len(opts.Y), len(opts.X))
	}
	if len(opts.Candidates) == 0 {
		return nil, fmt.Errorf("no candidate configurations")
	}
	if len(opts.Folds) == 0 {
		return nil, fmt.Errorf("no cross-validation folds")
	}
	if opts.Factory == nil || opts.Scorer == nil {
		return nil, fmt.Errorf("factory and scorer are required")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(opts.Candidates) {
		jobs = len(opts.Candidates)
	}

	start := time.Now()
	log.Info().
		Int("candidates", len(opts.Candidates)).
		Int("folds", len(opts.Folds)).
		Int("jobs", jobs).
		Msg("Starting hyperparameter search")

	results := make([]Candidate, len(opts.Candidates))
	for i := range results {
		results[i] = Candidate{Params: opts.Candidates[i], Score: math.Inf(-1)}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = evaluate(runCtx, opts, opts.Candidates[idx])
				if results[idx].Err != nil && !opts.Resilient {
					cancel()
					return
				}
			}
		}()
	}

feed:
	for i := range opts.Candidates {
		select {
		case work <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Score: math.Inf(-1)}
	var abort error
	for _, c := range results {
		switch {
		case c.Err != nil && !opts.Resilient:
			// Workers canceled by a failing sibling report context errors;
			// keep the underlying cause instead.
			if abort == nil || errors.Is(abort, context.Canceled) {
				abort = c.Err
			}
			continue
		case c.Err != nil:
			res.Failed++
			continue
		case c.resumed:
			res.Resumed++
		default:
			res.Evaluated++
		}
		if c.Score > res.Score {
			res.Best = c.Params
			res.Score = c.Score
			res.Bias = c.Bias
		}
	}
	if abort != nil {
		return nil, abort
	}
	if math.IsInf(res.Score, -1) {
		return nil, fmt.Errorf("every candidate failed")
	}

	est := opts.Factory(res.Best)
	if err := est.Fit(opts.X, opts.Y); err != nil {
		return nil, fmt.Errorf("refit %s on full data: %w", res.Best, err)
	}
	res.Estimator = est
	res.Elapsed = time.Since(start)

	if opts.Metrics != nil {
		opts.Metrics.BestScore.Set(res.Score)
		opts.Metrics.SearchDuration.Observe(res.Elapsed.Seconds())
	}
	log.Info().
		Str("params", res.Best.String()).
		Float64("score", res.Score).
		Floats64("bias", res.Bias).
		Int("evaluated", res.Evaluated).
		Int("resumed", res.Resumed).
		Int("failed", res.Failed).
		Dur("elapsed", res.Elapsed).
		Msg("Search complete")
	return res, nil
}

// evaluate scores a single candidate: journal hit, or fresh out-of-fold
// probabilities through the scorer.
func evaluate(ctx context.Context, opts Options, p svm.Params) Candidate {
	if err := ctx.Err(); err != nil {
		return Candidate{Params: p, Score: math.Inf(-1), Err: err}
	}

	if opts.Journal != nil {
		if e, ok, err := opts.Journal.Lookup(p); err != nil {
			log.Warn().Err(err).Str("params", p.String()).Msg("Journal lookup failed")
		} else if ok {
			if opts.Metrics != nil {
				opts.Metrics.CandidatesResumed.Inc()
			}
			return Candidate{Params: p, Score: e.Score, Bias: e.Bias, resumed: true}
		}
	}

	probs, err := cv.Probs(func() cv.Estimator { return opts.Factory(p) }, opts.X, opts.Y, opts.Folds)
	if err != nil {
		if opts.Metrics != nil {
			opts.Metrics.CandidateFailures.Inc()
		}
		return Candidate{Params: p, Score: math.Inf(-1), Err: fmt.Errorf("candidate %s: %w", p, err)}
	}
	score, bias := opts.Scorer(probs, opts.Y)

	if opts.Metrics != nil {
		opts.Metrics.CandidatesEvaluated.Inc()
		opts.Metrics.FoldFits.Add(float64(len(opts.Folds)))
	}
	if opts.Journal != nil {
		if err := opts.Journal.Record(journal.Entry{Params: p, Score: score, Bias: bias, At: time.Now()}); err != nil {
			log.Warn().Err(err).Str("params", p.String()).Msg("Journal write failed")
		}
	}
	log.Debug().Str("params", p.String()).Float64("score", score).Msg("Candidate scored")
	return Candidate{Params: p, Score: score, Bias: bias}
}

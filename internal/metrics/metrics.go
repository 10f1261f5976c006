// Package metrics provides Prometheus metrics collection for the puff
// trainer. It covers dataset reconciliation, hyperparameter search progress
// and artifact export, exposed via the optional metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the training pipeline.
type Metrics struct {
	// Search metrics
	CandidatesEvaluated prometheus.Counter   // Candidates scored by cross-validation
	CandidatesResumed   prometheus.Counter   // Candidates answered from the journal
	CandidateFailures   prometheus.Counter   // Candidates whose fold fits failed
	FoldFits            prometheus.Counter   // Individual fold fits performed
	BestScore           prometheus.Gauge     // Score of the winning candidate
	SearchDuration      prometheus.Histogram // Wall time of completed searches

	// Dataset metrics
	RowsLabeled  prometheus.Gauge // Windows retained after reconciliation
	RowsExcluded prometheus.Gauge // Windows dropped as ambiguous

	// Export metrics
	ModelsExported prometheus.Counter // Artifacts written to disk
	UploadFailures prometheus.Counter // Registry uploads that did not succeed
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		CandidatesEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_candidates_evaluated_total",
			Help: "Total number of hyperparameter candidates scored",
		}),
		CandidatesResumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_candidates_resumed_total",
			Help: "Total number of candidates answered from the search journal",
		}),
		CandidateFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_candidate_failures_total",
			Help: "Total number of candidates whose fold fits failed",
		}),
		FoldFits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_fold_fits_total",
			Help: "Total number of per-fold estimator fits",
		}),
		BestScore: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pufftrain_best_score",
			Help: "Score of the best candidate found by the search",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pufftrain_search_duration_seconds",
			Help:    "Wall time of completed hyperparameter searches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 18),
		}),
		RowsLabeled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pufftrain_rows_labeled",
			Help: "Feature windows retained after ground-truth reconciliation",
		}),
		RowsExcluded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pufftrain_rows_excluded",
			Help: "Feature windows dropped as ambiguous during reconciliation",
		}),
		ModelsExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_models_exported_total",
			Help: "Total number of model artifacts written",
		}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pufftrain_upload_failures_total",
			Help: "Total number of failed registry uploads",
		}),
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pufftrain/internal/artifact"
	"pufftrain/internal/cfg"
	"pufftrain/internal/cv"
	"pufftrain/internal/dataset"
	"pufftrain/internal/journal"
	"pufftrain/internal/metrics"
	"pufftrain/internal/registry"
	"pufftrain/internal/report"
	"pufftrain/internal/scoring"
	"pufftrain/internal/search"
	"pufftrain/internal/svm"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to YAML config file")
		featureFolder = flag.String("featureFolder", "", "Folder with one p<ID> directory per subject")
		featureFile   = flag.String("featureFile", "", "Feature CSV name inside each session directory")
		groundtruth   = flag.String("puffGroundtruth", "", "Ground-truth CSV name inside each session directory")
		scorerName    = flag.String("scorer", "", "Scorer: twobias or f1")
		searchName    = flag.String("whichsearch", "", "Search strategy: grid or random")
		iterations    = flag.Int("n_iter", 0, "Candidates drawn for random search")
		modelOutput   = flag.String("modelOutput", "", "Path for the exported model JSON")
		logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// A .env next to the binary feeds the config loader.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	settings, err := cfg.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Override config with command line arguments
	if *featureFolder != "" {
		settings.FeatureFolder = *featureFolder
	}
	if *featureFile != "" {
		settings.FeatureFile = *featureFile
	}
	if *groundtruth != "" {
		settings.GroundtruthFile = *groundtruth
	}
	if *scorerName != "" {
		settings.Scorer = *scorerName
	}
	if *searchName != "" {
		settings.Search = *searchName
	}
	if *iterations > 0 {
		settings.Iterations = *iterations
	}
	if *modelOutput != "" {
		settings.ModelOutput = *modelOutput
	}
	if err := cfg.Validate(&settings); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Print configuration
	fmt.Println("=== Training Configuration ===")
	fmt.Printf("Feature Folder: %s\n", settings.FeatureFolder)
	fmt.Printf("Feature File: %s\n", settings.FeatureFile)
	fmt.Printf("Ground Truth: %s\n", settings.GroundtruthFile)
	fmt.Printf("Scorer: %s\n", settings.Scorer)
	fmt.Printf("Search: %s\n", settings.Search)
	fmt.Printf("Model Output: %s\n", settings.ModelOutput)
	fmt.Println("==============================")

	// Context for canceling the search on Ctrl-C; an interrupted sweep
	// resumes from the journal on the next run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info().Msg("shutdown signal received, stopping search")
		cancel()
	}()

	m := metrics.New()
	if settings.MetricsPort > 0 {
		startMetricsServer(ctx, settings.MetricsPort)
	}

	data, err := loadData(settings, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load training data")
	}

	var scaler svm.Scaler
	x, err := scaler.FitTransform(data.X)
	if err != nil {
		log.Fatal().Err(err).Msg("feature scaling failed")
	}

	k := settings.Folds
	if k == 0 {
		k = len(cv.Distinct(data.Subjects))
	}
	folds, err := cv.GroupKFold(data.Subjects, k)
	if err != nil {
		log.Fatal().Err(err).Msg("fold assignment failed")
	}

	store := openJournal(settings, len(x), len(x[0]))
	if store != nil {
		defer store.Close()
	}

	scorer := pickScorer(settings.Scorer)
	res, err := search.Run(ctx, search.Options{
		X:          x,
		Y:          data.Y,
		Candidates: candidates(settings),
		Factory:    func(p svm.Params) cv.Estimator { return svm.New(p) },
		Folds:      folds,
		Scorer:     scorer,
		Jobs:       settings.Jobs,
		Resilient:  settings.Resilient,
		Journal:    store,
		Metrics:    m,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("hyperparameter search failed")
	}

	// A journal can hold candidates from earlier runs with different
	// samples; surface a stored result that beats this run's winner.
	if store != nil {
		if best, ok, err := store.Best(); err == nil && ok && best.Score > res.Score {
			log.Info().
				Str("params", best.Params.String()).
				Float64("score", best.Score).
				Msg("Journal holds a better result from a previous run")
		}
	}

	// Final pass: fresh out-of-fold probabilities under the winning
	// parameters decide the exported thresholds.
	probs, err := cv.Probs(func() cv.Estimator { return svm.New(res.Best) }, x, data.Y, folds)
	if err != nil {
		log.Fatal().Err(err).Msg("final cross-validation failed")
	}
	score, bias := scorer(probs, data.Y)
	if len(bias) == 0 {
		fmt.Println("results are not good!!!")
		log.Warn().Float64("score", score).Msg("No usable threshold pair, model not exported")
		return
	}

	clf, ok := res.Estimator.(*svm.SVC)
	if !ok {
		log.Fatal().Msg("search returned an unexpected estimator type")
	}
	model := artifact.New(settings.ModelName, clf, &scaler, bias)
	if err := model.Save(settings.ModelOutput); err != nil {
		log.Fatal().Err(err).Msg("model export failed")
	}
	m.ModelsExported.Inc()
	log.Info().Str("path", settings.ModelOutput).Msg("Model exported")

	summary := report.Summary{
		Params:   res.Best,
		Score:    score,
		Bias:     bias,
		Folds:    len(folds),
		Labels:   data.Y,
		Probs:    probs,
		Subjects: cv.Distinct(data.Subjects),
	}
	summary.Print(os.Stdout)

	if settings.PlotFile != "" {
		if err := report.ThresholdPlot(settings.PlotFile, probs, bias); err != nil {
			log.Error().Err(err).Str("path", settings.PlotFile).Msg("threshold plot failed")
		}
	}

	if settings.RegistryURL != "" {
		client := registry.New(settings.RegistryURL, settings.RegistryTimeout)
		if err := client.Upload(ctx, settings.ModelName, model); err != nil {
			m.UploadFailures.Inc()
			log.Error().Err(err).Msg("registry upload failed, local artifact kept")
		} else {
			log.Info().Str("registry", settings.RegistryURL).Msg("Model uploaded")
		}
	}

	log.Info().Dur("elapsed", res.Elapsed).Msg("Training completed successfully")
}

// loadData reads every subject session under the feature folder, labels the
// windows against the ground truth and writes the optional combined outputs.
func loadData(settings cfg.Settings, m *metrics.Metrics) (dataset.Labeled, error) {
	rows, err := dataset.ReadFeatures(settings.FeatureFolder, settings.FeatureFile)
	if err != nil {
		return dataset.Labeled{}, fmt.Errorf("read features: %w", err)
	}
	marks, err := dataset.ReadMarks(settings.FeatureFolder, settings.GroundtruthFile)
	if err != nil {
		return dataset.Labeled{}, fmt.Errorf("read ground truth: %w", err)
	}
	episodes, err := dataset.ReadEpisodes(settings.FeatureFolder, settings.EpisodePattern)
	if err != nil {
		return dataset.Labeled{}, fmt.Errorf("read episodes: %w", err)
	}

	data := dataset.Reconcile(rows, marks, episodes)
	m.RowsLabeled.Set(float64(len(data.Y)))
	m.RowsExcluded.Set(float64(len(rows) - len(data.Y)))
	log.Info().
		Int("windows", len(rows)).
		Int("marks", len(marks)).
		Int("episodes", len(episodes)).
		Int("labeled", len(data.Y)).
		Int("positives", data.Positives()).
		Msg("Dataset reconciled")

	if settings.CombinedCSV != "" {
		if err := dataset.WriteCombinedCSV(settings.CombinedCSV, data); err != nil {
			return dataset.Labeled{}, fmt.Errorf("write combined CSV: %w", err)
		}
	}
	if settings.LibSVMFile != "" {
		if err := dataset.WriteLibSVM(settings.LibSVMFile, data); err != nil {
			return dataset.Labeled{}, fmt.Errorf("write libsvm file: %w", err)
		}
	}
	return data, nil
}

// candidates enumerates the full hyperparameter grid, or a seeded sample of
// it for random search.
func candidates(settings cfg.Settings) []svm.Params {
	spec := search.DefaultGrid()
	if settings.Search == "random" {
		return search.Sample(spec, settings.Iterations, settings.Seed)
	}
	return search.Grid(spec)
}

// pickScorer maps the configured scorer name to its implementation. Validate
// has already rejected anything but twobias and f1.
func pickScorer(name string) search.Scorer {
	if name == "f1" {
		return scoring.F1Bias
	}
	return scoring.TwoBias
}

// openJournal opens the resumable result store when one is configured. An
// unopenable journal only costs resumability, so training continues without
// it; a journal recorded against a different dataset is fatal because its
// scores would be meaningless here.
func openJournal(settings cfg.Settings, samples, features int) *journal.Store {
	if settings.JournalPath == "" {
		return nil
	}
	store, err := journal.Open(settings.JournalPath)
	if err != nil {
		log.Warn().Err(err).Msg("journal open failed, continuing without resume")
		return nil
	}
	if err := store.CheckDataset(samples, features); err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("journal belongs to a different dataset")
	}
	return store
}

// startMetricsServer exposes Prometheus metrics and a health probe while a
// long sweep runs.
func startMetricsServer(ctx context.Context, port int) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

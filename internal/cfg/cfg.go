// Package cfg assembles the trainer settings from an optional YAML file,
// environment variables and built-in defaults. Flag handling lives in the
// command; flags override whatever Load produced, so validation runs as a
// separate step once every source has been applied.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultFeatureFile     = "featureFile.csv"
	defaultGroundtruthFile = "groundTruth.csv"
	defaultEpisodePattern  = "*episode_start_end.csv"
	defaultScorer          = "twobias"
	defaultSearch          = "grid"
	defaultIterations      = 100
	defaultSeed            = 42
	defaultModelOutput     = "model.json"
	defaultModelName       = "puffMarker"
	defaultCombinedCSV     = "featureFile_new.csv"
	defaultRegistryTimeout = 10 * time.Second
)

type Settings struct {
	// Data layout
	FeatureFolder   string
	FeatureFile     string
	GroundtruthFile string
	EpisodePattern  string

	// Training
	Scorer     string
	Search     string
	Iterations int
	Seed       int64
	Folds      int
	Jobs       int
	Resilient  bool

	// Outputs
	ModelOutput string
	ModelName   string
	CombinedCSV string
	LibSVMFile  string
	PlotFile    string

	// System
	JournalPath     string
	RegistryURL     string
	RegistryTimeout time.Duration
	MetricsPort     int
}

type ConfigFile struct {
	Data struct {
		FeatureFolder   string `yaml:"featureFolder"`
		FeatureFile     string `yaml:"featureFile"`
		GroundtruthFile string `yaml:"groundtruthFile"`
		EpisodePattern  string `yaml:"episodePattern"`
	} `yaml:"data"`

	Training struct {
		Scorer     string `yaml:"scorer"`
		Search     string `yaml:"search"`
		Iterations int    `yaml:"iterations"`
		Seed       int64  `yaml:"seed"`
		Folds      int    `yaml:"folds"`
		Jobs       int    `yaml:"jobs"`
		Resilient  bool   `yaml:"resilient"`
	} `yaml:"training"`

	Output struct {
		ModelOutput string `yaml:"modelOutput"`
		ModelName   string `yaml:"modelName"`
		CombinedCSV string `yaml:"combinedCSV"`
		LibSVMFile  string `yaml:"libsvmFile"`
		PlotFile    string `yaml:"plotFile"`
	} `yaml:"output"`

	System struct {
		JournalPath     string `yaml:"journalPath"`
		RegistryURL     string `yaml:"registryURL"`
		RegistryTimeout string `yaml:"registryTimeout"`
		MetricsPort     int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load builds Settings from the YAML file at path. An empty path falls
// back to the CONFIG_FILE environment variable; when neither is set the
// settings come from environment variables and defaults alone.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		return loadFromYAML(path)
	}
	return loadFromEnv(), nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	registryTimeout, err := time.ParseDuration(config.System.RegistryTimeout)
	if err != nil {
		registryTimeout = defaultRegistryTimeout
	}

	iterations := getIntFromEnvOrConfig("ITERATIONS", config.Training.Iterations)
	if iterations == 0 {
		iterations = defaultIterations
	}
	seed := getInt64FromEnvOrConfig("SEED", config.Training.Seed)
	if seed == 0 {
		seed = defaultSeed
	}

	settings := Settings{
		FeatureFolder:   getEnvOrDefault("FEATURE_FOLDER", config.Data.FeatureFolder),
		FeatureFile:     stringOrDefault(getEnvOrDefault("FEATURE_FILE", config.Data.FeatureFile), defaultFeatureFile),
		GroundtruthFile: stringOrDefault(getEnvOrDefault("GROUNDTRUTH_FILE", config.Data.GroundtruthFile), defaultGroundtruthFile),
		EpisodePattern:  stringOrDefault(getEnvOrDefault("EPISODE_PATTERN", config.Data.EpisodePattern), defaultEpisodePattern),
		Scorer:          stringOrDefault(getEnvOrDefault("SCORER", config.Training.Scorer), defaultScorer),
		Search:          stringOrDefault(getEnvOrDefault("SEARCH", config.Training.Search), defaultSearch),
		Iterations:      iterations,
		Seed:            seed,
		Folds:           getIntFromEnvOrConfig("FOLDS", config.Training.Folds),
		Jobs:            getIntFromEnvOrConfig("JOBS", config.Training.Jobs),
		Resilient:       getBoolFromEnvOrConfig("RESILIENT", config.Training.Resilient),
		ModelOutput:     stringOrDefault(getEnvOrDefault("MODEL_OUTPUT", config.Output.ModelOutput), defaultModelOutput),
		ModelName:       stringOrDefault(getEnvOrDefault("MODEL_NAME", config.Output.ModelName), defaultModelName),
		CombinedCSV:     stringOrDefault(getEnvOrDefault("COMBINED_CSV", config.Output.CombinedCSV), defaultCombinedCSV),
		LibSVMFile:      getEnvOrDefault("LIBSVM_FILE", config.Output.LibSVMFile),
		PlotFile:        getEnvOrDefault("PLOT_FILE", config.Output.PlotFile),
		JournalPath:     getEnvOrDefault("JOURNAL_PATH", config.System.JournalPath),
		RegistryURL:     getEnvOrDefault("REGISTRY_URL", config.System.RegistryURL),
		RegistryTimeout: registryTimeout,
		MetricsPort:     getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
	}
	return settings, nil
}

func loadFromEnv() Settings {
	return Settings{
		FeatureFolder:   os.Getenv("FEATURE_FOLDER"),
		FeatureFile:     getEnvOrDefault("FEATURE_FILE", defaultFeatureFile),
		GroundtruthFile: getEnvOrDefault("GROUNDTRUTH_FILE", defaultGroundtruthFile),
		EpisodePattern:  getEnvOrDefault("EPISODE_PATTERN", defaultEpisodePattern),
		Scorer:          getEnvOrDefault("SCORER", defaultScorer),
		Search:          getEnvOrDefault("SEARCH", defaultSearch),
		Iterations:      getIntOrDefault("ITERATIONS", defaultIterations),
		Seed:            getInt64OrDefault("SEED", defaultSeed),
		Folds:           getIntOrDefault("FOLDS", 0),
		Jobs:            getIntOrDefault("JOBS", 0),
		Resilient:       getBoolOrDefault("RESILIENT", false),
		ModelOutput:     getEnvOrDefault("MODEL_OUTPUT", defaultModelOutput),
		ModelName:       getEnvOrDefault("MODEL_NAME", defaultModelName),
		CombinedCSV:     getEnvOrDefault("COMBINED_CSV", defaultCombinedCSV),
		LibSVMFile:      os.Getenv("LIBSVM_FILE"),  // optional
		PlotFile:        os.Getenv("PLOT_FILE"),    // optional
		JournalPath:     os.Getenv("JOURNAL_PATH"), // optional
		RegistryURL:     os.Getenv("REGISTRY_URL"), // optional
		RegistryTimeout: getDurationOrDefault("REGISTRY_TIMEOUT", defaultRegistryTimeout),
		MetricsPort:     getIntOrDefault("METRICS_PORT", 0),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getInt64FromEnvOrConfig(key string, configValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Validate checks the fully assembled settings. It runs after flag
// overrides have been applied, so it is the single place where required
// values are enforced.
func Validate(settings *Settings) error {
	// Data layout
	if settings.FeatureFolder == "" {
		return fmt.Errorf("feature folder is required")
	}
	if settings.FeatureFile == "" {
		return fmt.Errorf("feature file name cannot be empty")
	}
	if settings.GroundtruthFile == "" {
		return fmt.Errorf("groundtruth file name cannot be empty")
	}

	// Training parameters
	switch settings.Scorer {
	case "twobias", "f1":
	default:
		return fmt.Errorf("scorer must be \"twobias\" or \"f1\", got %q", settings.Scorer)
	}
	switch settings.Search {
	case "grid", "random":
	default:
		return fmt.Errorf("search must be \"grid\" or \"random\", got %q", settings.Search)
	}
	if settings.Search == "random" && settings.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive for random search, got %d", settings.Iterations)
	}
	if settings.Folds == 1 || settings.Folds < 0 {
		return fmt.Errorf("folds must be 0 (one per subject) or at least 2, got %d", settings.Folds)
	}
	if settings.Jobs < 0 {
		return fmt.Errorf("jobs cannot be negative, got %d", settings.Jobs)
	}

	// Outputs
	if settings.ModelOutput == "" {
		return fmt.Errorf("model output path cannot be empty")
	}
	if settings.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	// System
	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.RegistryURL != "" {
		if settings.RegistryTimeout < time.Second || settings.RegistryTimeout > time.Minute {
			return fmt.Errorf("registry timeout must be between 1s and 1m, got %v", settings.RegistryTimeout)
		}
	}
	return nil
}

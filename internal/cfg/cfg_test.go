package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"CONFIG_FILE",
	"FEATURE_FOLDER", "FEATURE_FILE", "GROUNDTRUTH_FILE", "EPISODE_PATTERN",
	"SCORER", "SEARCH", "ITERATIONS", "SEED", "FOLDS", "JOBS", "RESILIENT",
	"MODEL_OUTPUT", "MODEL_NAME", "COMBINED_CSV", "LIBSVM_FILE", "PLOT_FILE",
	"JOURNAL_PATH", "REGISTRY_URL", "REGISTRY_TIMEOUT", "METRICS_PORT",
}

// clearTestEnv blanks every config variable so tests cannot inherit
// values from the invoking shell.
func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearTestEnv(t)

	settings, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, settings.FeatureFolder)
	assert.Equal(t, "featureFile.csv", settings.FeatureFile)
	assert.Equal(t, "groundTruth.csv", settings.GroundtruthFile)
	assert.Equal(t, "*episode_start_end.csv", settings.EpisodePattern)
	assert.Equal(t, "twobias", settings.Scorer)
	assert.Equal(t, "grid", settings.Search)
	assert.Equal(t, 100, settings.Iterations)
	assert.Equal(t, int64(42), settings.Seed)
	assert.Zero(t, settings.Folds)
	assert.Zero(t, settings.Jobs)
	assert.False(t, settings.Resilient)
	assert.Equal(t, "model.json", settings.ModelOutput)
	assert.Equal(t, "puffMarker", settings.ModelName)
	assert.Equal(t, "featureFile_new.csv", settings.CombinedCSV)
	assert.Equal(t, 10*time.Second, settings.RegistryTimeout)
	assert.Zero(t, settings.MetricsPort)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("FEATURE_FOLDER", "/data/puff")
	t.Setenv("SCORER", "f1")
	t.Setenv("SEARCH", "random")
	t.Setenv("ITERATIONS", "25")
	t.Setenv("SEED", "7")
	t.Setenv("FOLDS", "5")
	t.Setenv("JOBS", "2")
	t.Setenv("RESILIENT", "true")
	t.Setenv("PLOT_FILE", "probs.png")
	t.Setenv("REGISTRY_TIMEOUT", "30s")
	t.Setenv("METRICS_PORT", "9090")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/puff", settings.FeatureFolder)
	assert.Equal(t, "f1", settings.Scorer)
	assert.Equal(t, "random", settings.Search)
	assert.Equal(t, 25, settings.Iterations)
	assert.Equal(t, int64(7), settings.Seed)
	assert.Equal(t, 5, settings.Folds)
	assert.Equal(t, 2, settings.Jobs)
	assert.True(t, settings.Resilient)
	assert.Equal(t, "probs.png", settings.PlotFile)
	assert.Equal(t, 30*time.Second, settings.RegistryTimeout)
	assert.Equal(t, 9090, settings.MetricsPort)
}

func TestLoadFromYAML(t *testing.T) {
	clearTestEnv(t)

	content := `
data:
  featureFolder: /data/puff
  featureFile: features.csv
training:
  scorer: f1
  search: random
  iterations: 50
  seed: 7
  folds: 4
  resilient: true
output:
  modelOutput: out/model.json
  modelName: fieldTrial
  plotFile: out/probs.png
system:
  journalPath: out/journal.db
  registryURL: http://registry:8080
  registryTimeout: 20s
  metricsPort: 9091
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/puff", settings.FeatureFolder)
	assert.Equal(t, "features.csv", settings.FeatureFile)
	assert.Equal(t, "groundTruth.csv", settings.GroundtruthFile)
	assert.Equal(t, "f1", settings.Scorer)
	assert.Equal(t, "random", settings.Search)
	assert.Equal(t, 50, settings.Iterations)
	assert.Equal(t, int64(7), settings.Seed)
	assert.Equal(t, 4, settings.Folds)
	assert.True(t, settings.Resilient)
	assert.Equal(t, "out/model.json", settings.ModelOutput)
	assert.Equal(t, "fieldTrial", settings.ModelName)
	assert.Equal(t, "out/probs.png", settings.PlotFile)
	assert.Equal(t, "out/journal.db", settings.JournalPath)
	assert.Equal(t, "http://registry:8080", settings.RegistryURL)
	assert.Equal(t, 20*time.Second, settings.RegistryTimeout)
	assert.Equal(t, 9091, settings.MetricsPort)
}

func TestLoadYAMLFillsDefaults(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  featureFolder: /data/puff\n"), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "featureFile.csv", settings.FeatureFile)
	assert.Equal(t, "twobias", settings.Scorer)
	assert.Equal(t, "grid", settings.Search)
	assert.Equal(t, 100, settings.Iterations)
	assert.Equal(t, int64(42), settings.Seed)
	assert.Equal(t, "model.json", settings.ModelOutput)
	assert.Equal(t, 10*time.Second, settings.RegistryTimeout)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("SCORER", "twobias")
	t.Setenv("FOLDS", "6")

	content := "data:\n  featureFolder: /data/puff\ntraining:\n  scorer: f1\n  folds: 4\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "twobias", settings.Scorer)
	assert.Equal(t, 6, settings.Folds)
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  featureFolder: /from/env\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", settings.FeatureFolder)
}

func TestLoadBadYAML(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadMissingFile(t *testing.T) {
	clearTestEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestValidate(t *testing.T) {
	base := func() Settings {
		return Settings{
			FeatureFolder:   "/data/puff",
			FeatureFile:     "featureFile.csv",
			GroundtruthFile: "groundTruth.csv",
			EpisodePattern:  "*episode_start_end.csv",
			Scorer:          "twobias",
			Search:          "grid",
			Iterations:      100,
			Seed:            42,
			ModelOutput:     "model.json",
			ModelName:       "puffMarker",
			CombinedCSV:     "featureFile_new.csv",
			RegistryTimeout: 10 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "valid grid", mutate: func(s *Settings) {}},
		{name: "valid random", mutate: func(s *Settings) { s.Search = "random"; s.Iterations = 10 }},
		{name: "valid with metrics and registry", mutate: func(s *Settings) {
			s.MetricsPort = 9090
			s.RegistryURL = "http://registry:8080"
		}},
		{name: "missing feature folder", mutate: func(s *Settings) { s.FeatureFolder = "" },
			wantErr: "feature folder is required"},
		{name: "empty feature file", mutate: func(s *Settings) { s.FeatureFile = "" },
			wantErr: "feature file name cannot be empty"},
		{name: "empty groundtruth file", mutate: func(s *Settings) { s.GroundtruthFile = "" },
			wantErr: "groundtruth file name cannot be empty"},
		{name: "unknown scorer", mutate: func(s *Settings) { s.Scorer = "accuracy" },
			wantErr: "scorer must be"},
		{name: "unknown search", mutate: func(s *Settings) { s.Search = "exhaustive" },
			wantErr: "search must be"},
		{name: "random without iterations", mutate: func(s *Settings) { s.Search = "random"; s.Iterations = 0 },
			wantErr: "iterations must be positive"},
		{name: "single fold", mutate: func(s *Settings) { s.Folds = 1 },
			wantErr: "folds must be 0"},
		{name: "negative folds", mutate: func(s *Settings) { s.Folds = -2 },
			wantErr: "folds must be 0"},
		{name: "negative jobs", mutate: func(s *Settings) { s.Jobs = -1 },
			wantErr: "jobs cannot be negative"},
		{name: "empty model output", mutate: func(s *Settings) { s.ModelOutput = "" },
			wantErr: "model output path cannot be empty"},
		{name: "empty model name", mutate: func(s *Settings) { s.ModelName = "" },
			wantErr: "model name cannot be empty"},
		{name: "privileged metrics port", mutate: func(s *Settings) { s.MetricsPort = 80 },
			wantErr: "metrics port"},
		{name: "metrics port out of range", mutate: func(s *Settings) { s.MetricsPort = 70000 },
			wantErr: "metrics port"},
		{name: "registry timeout too short", mutate: func(s *Settings) {
			s.RegistryURL = "http://registry:8080"
			s.RegistryTimeout = 10 * time.Millisecond
		}, wantErr: "registry timeout"},
		{name: "timeout ignored without registry", mutate: func(s *Settings) { s.RegistryTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := base()
			tt.mutate(&settings)
			err := Validate(&settings)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

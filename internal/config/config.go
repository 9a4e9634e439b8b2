// Package config holds the settings of a spamsift run and reads them from
// YAML. Command-line flags override file values after Load.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chriscorrea/spamsift/internal/counter"
	"github.com/chriscorrea/spamsift/internal/eval"
	"github.com/chriscorrea/spamsift/internal/features"
	"github.com/chriscorrea/spamsift/internal/report"
	"github.com/chriscorrea/spamsift/internal/vocab"
)

// ErrInvalid marks a configuration that fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the complete configuration of one run.
type Config struct {
	Corpora    CorporaConfig    `yaml:"corpora"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Features   FeaturesConfig   `yaml:"features"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CorporaConfig names the labeled corpora. Each entry is a file path, an
// http(s) URL or "-" for stdin.
type CorporaConfig struct {
	Primary    string `yaml:"primary"`
	Subset     string `yaml:"subset"`
	Evaluation string `yaml:"evaluation"`

	// UseSubset trains on the small subset corpus instead of the primary one.
	UseSubset bool `yaml:"use_subset"`
}

// VocabularyConfig controls vocabulary construction.
type VocabularyConfig struct {
	TopK          int      `yaml:"top_k"`
	Stem          bool     `yaml:"stem"`
	UnwantedFiles []string `yaml:"unwanted_files"`
}

// FeaturesConfig selects the feature schema.
type FeaturesConfig struct {
	Names        []string `yaml:"names"`
	LengthMethod string   `yaml:"length_method"` // words, characters or tokens
}

// EvaluationConfig controls the held-out split and the repeated trials.
type EvaluationConfig struct {
	Trials        int     `yaml:"trials"`
	TrainFraction float64 `yaml:"train_fraction"` // held-out split
	TrialFraction float64 `yaml:"trial_fraction"` // training share per cross-corpus trial
	Seed          uint64  `yaml:"seed"`           // 0 draws a fresh seed
	Informative   int     `yaml:"informative"`    // most informative features to report
}

// OutputConfig names the result sinks.
type OutputConfig struct {
	ResultsFile string `yaml:"results_file"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
	ModelFile   string `yaml:"model_file"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			TopK: vocab.DefaultTopK,
		},
		Features: FeaturesConfig{
			Names:        append([]string(nil), features.DefaultNames...),
			LengthMethod: counter.Words.String(),
		},
		Evaluation: EvaluationConfig{
			Trials:        eval.DefaultTrials,
			TrainFraction: eval.DefaultTrainFraction,
			TrialFraction: eval.DefaultTrainFraction,
			Informative:   5,
		},
		Output: OutputConfig{
			RedisPrefix: report.DefaultRedisPrefix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
// The result is not validated so that flags can still override it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// TrainingSource returns the corpus the model is fitted on.
func (c *Config) TrainingSource() string {
	if c.Corpora.UseSubset {
		return c.Corpora.Subset
	}
	return c.Corpora.Primary
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.TrainingSource() == "" {
		if c.Corpora.UseSubset {
			return fmt.Errorf("%w: subset corpus is required when use_subset is set", ErrInvalid)
		}
		return fmt.Errorf("%w: primary corpus is required", ErrInvalid)
	}
	if c.Corpora.Evaluation == "" {
		return fmt.Errorf("%w: evaluation corpus is required", ErrInvalid)
	}
	if c.Corpora.Evaluation == c.TrainingSource() {
		return fmt.Errorf("%w: evaluation corpus must differ from the training corpus", ErrInvalid)
	}

	if c.Vocabulary.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalid, c.Vocabulary.TopK)
	}

	if len(c.Features.Names) == 0 {
		return fmt.Errorf("%w: at least one feature is required", ErrInvalid)
	}
	if err := features.CheckNames(c.Features.Names); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := counter.ParseMethod(c.Features.LengthMethod); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Evaluation.Trials < 1 {
		return fmt.Errorf("%w: trials must be >= 1, got %d", ErrInvalid, c.Evaluation.Trials)
	}
	if !validFraction(c.Evaluation.TrainFraction) {
		return fmt.Errorf("%w: train_fraction must be in (0, 1], got %v", ErrInvalid, c.Evaluation.TrainFraction)
	}
	if !validFraction(c.Evaluation.TrialFraction) {
		return fmt.Errorf("%w: trial_fraction must be in (0, 1], got %v", ErrInvalid, c.Evaluation.TrialFraction)
	}
	if c.Evaluation.Informative < 0 {
		return fmt.Errorf("%w: informative must be >= 0, got %d", ErrInvalid, c.Evaluation.Informative)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging format %q", ErrInvalid, c.Logging.Format)
	}

	return nil
}

func validFraction(f float64) bool {
	return !math.IsNaN(f) && f > 0 && f <= 1
}

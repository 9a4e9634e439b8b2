// Package eval measures how well Naive Bayes models generalize.
//
// Three protocols are provided:
//   - HeldOut shuffles one feature set, trains on a leading fraction and
//     tests on the rest
//   - CrossCorpus trains on one corpus and tests on another
//   - Trials repeats cross-corpus evaluation, reshuffling and retraining a
//     fresh model each time, and summarizes the accuracies
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chriscorrea/spamsift/internal/bayes"
	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/dataset"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTrials        = 10
	DefaultTrainFraction = 0.25
)

var (
	// ErrSchemaMismatch means the evaluation set was not built with the
	// training set's feature extractor.
	ErrSchemaMismatch = errors.New("evaluation set schema differs from training set")
	// ErrNoTrainingData means a split left nothing to train on.
	ErrNoTrainingData = errors.New("no training examples after split")
)

// Accuracy returns the fraction of examples in set whose predicted label
// equals the true label. Labels outside {ham, spam} are rejected.
func Accuracy(m *bayes.Model, set dataset.Set) (float64, error) {
	if len(set) == 0 {
		return 0, dataset.ErrEmptySet
	}

	correct := 0
	for i, e := range set {
		if !e.Label.Valid() {
			return 0, fmt.Errorf("example %d: %w: %q", i, corpus.ErrUnknownLabel, e.Label)
		}
		predicted, err := m.Classify(e.Features)
		if err != nil {
			return 0, fmt.Errorf("example %d: %w", i, err)
		}
		if predicted == e.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(set)), nil
}

// Result is the outcome of training one model and testing it.
type Result struct {
	Accuracy  float64
	TrainSize int
	TestSize  int
	Model     *bayes.Model
}

// HeldOut shuffles set with r, trains on the first floor(len*frac) examples
// and reports accuracy on the remainder.
func HeldOut(set dataset.Set, frac float64, r *rand.Rand) (Result, error) {
	if r == nil {
		r = dataset.NewRand(0)
	}

	train, test, err := set.Shuffled(r).Split(frac)
	if err != nil {
		return Result{}, err
	}
	if len(train) == 0 {
		return Result{}, fmt.Errorf("%w: %d examples at fraction %v", ErrNoTrainingData, len(set), frac)
	}
	if len(test) == 0 {
		return Result{}, fmt.Errorf("held-out split left no test examples: %w", dataset.ErrEmptySet)
	}

	return trainAndTest(train, test)
}

// CrossCorpus trains on every example of train and reports accuracy on eval,
// a set from a corpus that never contributed to training.
func CrossCorpus(train, eval dataset.Set) (Result, error) {
	if err := checkSchemas(train, eval); err != nil {
		return Result{}, err
	}
	return trainAndTest(train, eval)
}

func trainAndTest(train, test dataset.Set) (Result, error) {
	m, err := bayes.Train(train)
	if err != nil {
		return Result{}, fmt.Errorf("training failed: %w", err)
	}
	acc, err := Accuracy(m, test)
	if err != nil {
		return Result{}, fmt.Errorf("evaluation failed: %w", err)
	}
	return Result{Accuracy: acc, TrainSize: len(train), TestSize: len(test), Model: m}, nil
}

func checkSchemas(train, eval dataset.Set) error {
	if len(train) == 0 {
		return fmt.Errorf("training set: %w", dataset.ErrEmptySet)
	}
	if len(eval) == 0 {
		return fmt.Errorf("evaluation set: %w", dataset.ErrEmptySet)
	}
	if !train.Schema().Equal(eval.Schema()) {
		return fmt.Errorf("%w: %s vs %s", ErrSchemaMismatch, train.Schema(), eval.Schema())
	}
	return nil
}

// Options configures repeated cross-corpus trials.
type Options struct {
	Trials   int        // number of trials (default 10)
	Fraction float64    // share of the shuffled training set each model sees (default 0.25)
	Rand     *rand.Rand // shuffling source; unseeded when nil

	// OnTrial, when set, is called after each trial with its 1-based number.
	OnTrial func(trial, total int, accuracy float64)
}

// Summary aggregates per-trial accuracies.
type Summary struct {
	Accuracies []float64
	Mean       float64
	Min        float64
	Max        float64
	StdDev     float64
}

// Summarize computes the mean, extremes and sample standard deviation of
// accuracies. The standard deviation of fewer than two values is zero.
func Summarize(accuracies []float64) Summary {
	s := Summary{Accuracies: append([]float64(nil), accuracies...)}
	if len(accuracies) == 0 {
		return s
	}
	s.Mean = stat.Mean(accuracies, nil)
	s.Min = floats.Min(accuracies)
	s.Max = floats.Max(accuracies)
	if len(accuracies) > 1 {
		s.StdDev = stat.StdDev(accuracies, nil)
	}
	return s
}

// Trials runs repeated cross-corpus evaluation. Each trial shuffles train,
// fits a fresh model on its leading Fraction and measures accuracy on eval.
// ctx is checked between trials.
func Trials(ctx context.Context, train, eval dataset.Set, opts Options) (Summary, error) {
	if opts.Trials == 0 {
		opts.Trials = DefaultTrials
	}
	if opts.Trials < 0 {
		return Summary{}, fmt.Errorf("trial count must be positive, got %d", opts.Trials)
	}
	if opts.Fraction == 0 {
		opts.Fraction = DefaultTrainFraction
	}
	if opts.Rand == nil {
		opts.Rand = dataset.NewRand(0)
	}
	if err := checkSchemas(train, eval); err != nil {
		return Summary{}, err
	}

	accuracies := make([]float64, 0, opts.Trials)
	for i := 1; i <= opts.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return Summarize(accuracies), fmt.Errorf("trials interrupted after %d of %d: %w", i-1, opts.Trials, err)
		}

		// fresh shuffle and fresh model every trial
		subset, _, err := train.Shuffled(opts.Rand).Split(opts.Fraction)
		if err != nil {
			return Summary{}, err
		}
		if len(subset) == 0 {
			return Summary{}, fmt.Errorf("%w: %d examples at fraction %v", ErrNoTrainingData, len(train), opts.Fraction)
		}

		res, err := trainAndTest(subset, eval)
		if err != nil {
			return Summary{}, fmt.Errorf("trial %d: %w", i, err)
		}
		accuracies = append(accuracies, res.Accuracy)

		slog.Debug("Trial complete", "trial", i, "of", opts.Trials, "trainSize", res.TrainSize, "accuracy", res.Accuracy)
		if opts.OnTrial != nil {
			opts.OnTrial(i, opts.Trials, res.Accuracy)
		}
	}

	return Summarize(accuracies), nil
}

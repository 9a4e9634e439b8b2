// Package app wires the spamsift pipeline together: it loads the corpora,
// builds the vocabulary and feature extractor, evaluates the classifier and
// hands the results to the configured sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/chriscorrea/spamsift/internal/bayes"
	"github.com/chriscorrea/spamsift/internal/classifier"
	"github.com/chriscorrea/spamsift/internal/config"
	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/counter"
	"github.com/chriscorrea/spamsift/internal/dataset"
	"github.com/chriscorrea/spamsift/internal/eval"
	"github.com/chriscorrea/spamsift/internal/features"
	"github.com/chriscorrea/spamsift/internal/nlp"
	"github.com/chriscorrea/spamsift/internal/progress"
	"github.com/chriscorrea/spamsift/internal/report"
	"github.com/chriscorrea/spamsift/internal/stoplist"
	"github.com/chriscorrea/spamsift/internal/vocab"
)

var (
	// ErrEmptyClass is returned when a corpus lacks messages of one label.
	ErrEmptyClass = errors.New("corpus has no messages for a label")
	// ErrNoEvaluationData is returned when nothing is left to evaluate on.
	ErrNoEvaluationData = errors.New("evaluation corpus is empty")
)

// Deps are the collaborators of a run. Zero values fall back to the prose
// tagger and tokenizer, no progress display and a random source seeded from
// the configuration.
type Deps struct {
	Tagger    nlp.Tagger
	Tokenizer nlp.Tokenizer
	Progress  *progress.Indicator
	Rand      *rand.Rand

	// Sinks receive the trial summary in addition to the configured outputs.
	Sinks []report.Sink
}

func (d Deps) withDefaults(cfg *config.Config) Deps {
	if d.Tagger == nil || d.Tokenizer == nil {
		p := nlp.NewProse()
		if d.Tagger == nil {
			d.Tagger = p
		}
		if d.Tokenizer == nil {
			d.Tokenizer = p
		}
	}
	if d.Rand == nil {
		d.Rand = dataset.NewRand(cfg.Evaluation.Seed)
	}
	return d
}

// Report is the outcome of a full run.
type Report struct {
	TrainingSource   string
	EvaluationSource string

	TrainingCounts   [2]int // ham, spam
	EvaluationCounts [2]int // ham, spam
	SkippedRows      int    // malformed rows across both corpora
	Overlap          int    // evaluation messages dropped for also appearing in training

	Vocabulary  vocab.Stats
	Schema      *features.Schema
	HeldOut     eval.Result
	CrossCorpus eval.Result // one model on the whole training set, tested on the evaluation set
	Trials      eval.Summary
	Informative []bayes.Informative

	RunID     string // set when results went to redis
	ModelFile string // set when a model was saved
}

// Run executes the pipeline with default dependencies.
func Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	return RunWith(ctx, cfg, Deps{})
}

// RunWith executes the pipeline:
//
//  1. load the training and evaluation corpora
//  2. drop evaluation messages that also occur in training
//  3. tag each training class and build the vocabulary
//  4. extract feature sets from both corpora with one extractor
//  5. held-out evaluation on the training set
//  6. one cross-corpus evaluation on the whole training set
//  7. repeated cross-corpus trials
//  8. write the trial summary to every sink
//
// ctx is checked between stages; trials check it between iterations.
func RunWith(ctx context.Context, cfg *config.Config, deps Deps) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults(cfg)
	deps.Progress.Start(ctx, "loading corpora")
	defer deps.Progress.Stop()

	rep := &Report{
		TrainingSource:   cfg.TrainingSource(),
		EvaluationSource: cfg.Corpora.Evaluation,
	}

	// load both corpora; malformed rows are skipped and counted
	train, warnings, err := loadCorpus(ctx, rep.TrainingSource)
	if err != nil {
		return nil, err
	}
	rep.SkippedRows += len(warnings)
	evalCorpus, warnings, err := loadCorpus(ctx, rep.EvaluationSource)
	if err != nil {
		return nil, err
	}
	rep.SkippedRows += len(warnings)
	// evaluating against a partially relabeled corpus would overstate accuracy
	if n := corpus.UnknownLabels(warnings); n > 0 {
		return nil, fmt.Errorf("evaluation corpus %s: %w on %d rows", rep.EvaluationSource, corpus.ErrUnknownLabel, n)
	}

	// drop evaluation texts already seen in training
	evalCorpus, rep.Overlap = evalCorpus.Without(train)
	if rep.Overlap > 0 {
		slog.Warn("Dropped evaluation messages that also occur in the training corpus", "count", rep.Overlap)
	}
	if len(evalCorpus) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEvaluationData, rep.EvaluationSource)
	}
	// both classes must be present in training
	rep.TrainingCounts[0], rep.TrainingCounts[1] = train.Counts()
	rep.EvaluationCounts[0], rep.EvaluationCounts[1] = evalCorpus.Counts()
	if rep.TrainingCounts[0] == 0 || rep.TrainingCounts[1] == 0 {
		return nil, fmt.Errorf("%w: %s has %d ham and %d spam", ErrEmptyClass, rep.TrainingSource, rep.TrainingCounts[0], rep.TrainingCounts[1])
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deps.Progress.Set("building vocabulary")
	ex, err := buildExtractor(ctx, cfg, deps, train)
	if err != nil {
		return nil, err
	}
	rep.Vocabulary = ex.Vocabulary().Stats()
	rep.Schema = ex.Schema()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deps.Progress.Set("extracting features")
	// one extractor for both sets keeps their schemas identical
	trainSet, err := dataset.Assemble(ex, train)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble training set: %w", err)
	}
	evalSet, err := dataset.Assemble(ex, evalCorpus)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble evaluation set: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deps.Progress.Set("held-out evaluation")
	rep.HeldOut, err = eval.HeldOut(trainSet, cfg.Evaluation.TrainFraction, deps.Rand)
	if err != nil {
		return nil, fmt.Errorf("held-out evaluation failed: %w", err)
	}
	slog.Info("Held-out accuracy", "accuracy", rep.HeldOut.Accuracy, "train", rep.HeldOut.TrainSize, "test", rep.HeldOut.TestSize)
	if cfg.Evaluation.Informative > 0 {
		rep.Informative = rep.HeldOut.Model.MostInformative(cfg.Evaluation.Informative)
	}

	deps.Progress.Set("cross-corpus evaluation")
	rep.CrossCorpus, err = eval.CrossCorpus(trainSet, evalSet)
	if err != nil {
		return nil, fmt.Errorf("cross-corpus evaluation failed: %w", err)
	}
	slog.Info("Cross-corpus accuracy", "accuracy", rep.CrossCorpus.Accuracy, "train", rep.CrossCorpus.TrainSize, "test", rep.CrossCorpus.TestSize)

	// repeated trials, each on a fresh shuffle of the training set
	deps.Progress.Set(fmt.Sprintf("trial 0/%d", cfg.Evaluation.Trials))
	rep.Trials, err = eval.Trials(ctx, trainSet, evalSet, eval.Options{
		Trials:   cfg.Evaluation.Trials,
		Fraction: cfg.Evaluation.TrialFraction,
		Rand:     deps.Rand,
		OnTrial: func(trial, total int, accuracy float64) {
			slog.Debug("Trial finished", "trial", trial, "of", total, "accuracy", accuracy)
			deps.Progress.Trial(trial, total, accuracy)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cross-corpus trials failed: %w", err)
	}
	slog.Info("Mean cross-corpus accuracy", "mean", rep.Trials.Mean, "trials", len(rep.Trials.Accuracies))

	if cfg.Output.ModelFile != "" {
		deps.Progress.Set("saving model")
		if err := saveModel(cfg, ex, rep.CrossCorpus.Model, cfg.Output.ModelFile); err != nil {
			return nil, err
		}
		rep.ModelFile = cfg.Output.ModelFile
	}

	deps.Progress.Set("writing results")
	if err := writeResults(ctx, cfg, deps.Sinks, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// BuildVocabulary loads the training corpus and derives its vocabulary.
func BuildVocabulary(ctx context.Context, cfg *config.Config, deps Deps) (*vocab.Vocabulary, error) {
	if cfg.TrainingSource() == "" {
		return nil, fmt.Errorf("%w: no training corpus configured", config.ErrInvalid)
	}
	if cfg.Vocabulary.TopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", config.ErrInvalid, cfg.Vocabulary.TopK)
	}
	deps = deps.withDefaults(cfg)
	deps.Progress.Start(ctx, "building vocabulary")
	defer deps.Progress.Stop()

	train, _, err := loadCorpus(ctx, cfg.TrainingSource())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildVocabulary(ctx, cfg, deps.Tagger, train)
}

func loadCorpus(ctx context.Context, source string) (corpus.Corpus, []corpus.RowWarning, error) {
	c, warnings, err := corpus.Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		slog.Warn("Skipped malformed corpus rows", "source", source, "count", len(warnings))
	}
	slog.Debug("Loaded corpus", "source", source, "messages", len(c))
	return c, warnings, nil
}

func buildVocabulary(ctx context.Context, cfg *config.Config, tagger nlp.Tagger, train corpus.Corpus) (*vocab.Vocabulary, error) {
	// built-in stopwords plus any configured extras
	unwanted := stoplist.Default()
	for _, path := range cfg.Vocabulary.UnwantedFiles {
		extra, err := stoplist.LoadFile(path)
		if err != nil {
			return nil, err
		}
		unwanted = unwanted.Union(extra)
	}

	// each class is tagged separately
	ham, err := nlp.TagAll(ctx, tagger, train.ByLabel(corpus.Ham))
	if err != nil {
		return nil, fmt.Errorf("ham messages: %w", err)
	}
	spam, err := nlp.TagAll(ctx, tagger, train.ByLabel(corpus.Spam))
	if err != nil {
		return nil, fmt.Errorf("spam messages: %w", err)
	}

	v, err := vocab.Build(ham, spam, vocab.Config{
		TopK:     cfg.Vocabulary.TopK,
		Unwanted: unwanted,
		Stem:     cfg.Vocabulary.Stem,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabulary: %w", err)
	}
	return v, nil
}

func buildExtractor(ctx context.Context, cfg *config.Config, deps Deps, train corpus.Corpus) (*features.Extractor, error) {
	v, err := buildVocabulary(ctx, cfg, deps.Tagger, train)
	if err != nil {
		return nil, err
	}

	var opts features.Options
	// the token counter loads an encoding, so only build it when it is used
	if slices.Contains(cfg.Features.Names, features.MessageLength) {
		method, err := counter.ParseMethod(cfg.Features.LengthMethod)
		if err != nil {
			return nil, err
		}
		opts.Counter, err = counter.NewCounter(method)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", method, err)
		}
	}

	ex, err := features.New(v, deps.Tokenizer, opts, cfg.Features.Names...)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature extractor: %w", err)
	}
	return ex, nil
}

// saveModel writes m, trained on the whole training set, to path together
// with the vocabulary and settings of ex so the file can classify on its own.
func saveModel(cfg *config.Config, ex *features.Extractor, m *bayes.Model, path string) error {
	method, err := counter.ParseMethod(cfg.Features.LengthMethod)
	if err != nil {
		return err
	}
	c, err := classifier.New(m, ex, method)
	if err != nil {
		return fmt.Errorf("failed to pair model with extractor: %w", err)
	}
	if err := c.SaveFile(path); err != nil {
		return fmt.Errorf("failed to save model to %s: %w", path, err)
	}
	slog.Info("Saved model", "path", path, "features", len(m.Features()))
	return nil
}

// Classify loads the model saved at path and labels every text.
func Classify(ctx context.Context, path string, texts []string, tokenizer nlp.Tokenizer) ([]classifier.Prediction, error) {
	c, err := classifier.LoadFile(path, tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	slog.Debug("Loaded model", "path", path, "features", c.Model().Features())

	preds := make([]classifier.Prediction, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("classification interrupted after %d of %d texts: %w", i, len(texts), err)
		}
		p, err := c.Classify(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i+1, err)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func writeResults(ctx context.Context, cfg *config.Config, extra []report.Sink, rep *Report) error {
	sinks := report.Multi(slices.Clone(extra))
	// file and redis sinks come from the configuration, after the callers' own
	if cfg.Output.ResultsFile != "" {
		sinks = append(sinks, report.FileSink{Path: cfg.Output.ResultsFile})
	}
	if cfg.Output.RedisURL != "" {
		rs, err := report.NewRedisSink(ctx, cfg.Output.RedisURL, cfg.Output.RedisPrefix)
		if err != nil {
			return err
		}
		defer rs.Close()
		sinks = append(sinks, rs)
		rep.RunID = rs.RunID()
	}
	if len(sinks) == 0 {
		return nil
	}
	if err := sinks.Write(ctx, rep.Trials); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

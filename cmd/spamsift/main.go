package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/spamsift/internal/app"
	"github.com/chriscorrea/spamsift/internal/classifier"
	"github.com/chriscorrea/spamsift/internal/config"
	"github.com/chriscorrea/spamsift/internal/corpus"
	"github.com/chriscorrea/spamsift/internal/features"
	"github.com/chriscorrea/spamsift/internal/progress"
)

// buildConfig loads the --config file, then applies every flag the user set
// explicitly and positional corpus arguments on top of it.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Corpora.Primary = args[0]
	}
	if len(args) > 1 {
		cfg.Corpora.Evaluation = args[1]
	}

	if flags.Changed("primary") {
		cfg.Corpora.Primary, _ = flags.GetString("primary")
	}
	if flags.Changed("subset") {
		cfg.Corpora.Subset, _ = flags.GetString("subset")
	}
	if flags.Changed("evaluation") {
		cfg.Corpora.Evaluation, _ = flags.GetString("evaluation")
	}
	if flags.Changed("use-subset") {
		cfg.Corpora.UseSubset, _ = flags.GetBool("use-subset")
	}

	if flags.Changed("top-k") {
		cfg.Vocabulary.TopK, _ = flags.GetInt("top-k")
	}
	if flags.Changed("stem") {
		cfg.Vocabulary.Stem, _ = flags.GetBool("stem")
	}
	if flags.Changed("unwanted") {
		files, _ := flags.GetStringSlice("unwanted")
		cfg.Vocabulary.UnwantedFiles = append(cfg.Vocabulary.UnwantedFiles, files...)
	}

	if flags.Changed("features") {
		cfg.Features.Names, _ = flags.GetStringSlice("features")
	}
	if flags.Changed("length-method") {
		cfg.Features.LengthMethod, _ = flags.GetString("length-method")
	}

	if flags.Changed("trials") {
		cfg.Evaluation.Trials, _ = flags.GetInt("trials")
	}
	if flags.Changed("train-fraction") {
		cfg.Evaluation.TrainFraction, _ = flags.GetFloat64("train-fraction")
	}
	if flags.Changed("trial-fraction") {
		cfg.Evaluation.TrialFraction, _ = flags.GetFloat64("trial-fraction")
	}
	if flags.Changed("seed") {
		cfg.Evaluation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("informative") {
		cfg.Evaluation.Informative, _ = flags.GetInt("informative")
	}

	if flags.Changed("output") {
		cfg.Output.ResultsFile, _ = flags.GetString("output")
	}
	if flags.Changed("redis-url") {
		cfg.Output.RedisURL, _ = flags.GetString("redis-url")
	}
	if flags.Changed("redis-prefix") {
		cfg.Output.RedisPrefix, _ = flags.GetString("redis-prefix")
	}
	if flags.Changed("model") {
		cfg.Output.ModelFile, _ = flags.GetString("model")
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}
	if quiet, _ := flags.GetBool("quiet"); quiet && cfg.Logging.Level != "debug" {
		cfg.Logging.Level = "error"
	}

	return cfg, nil
}

// setupLogger configures the default slog logger on stderr.
func setupLogger(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newDeps returns run dependencies; the progress indicator only draws on a
// terminal and never in quiet mode.
func newDeps(cmd *cobra.Command) app.Deps {
	var deps app.Deps
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		deps.Progress = progress.New(os.Stderr)
	}
	return deps
}

var rootCmd = &cobra.Command{
	Use:   "spamsift [training-corpus] [evaluation-corpus]",
	Short: "Train and evaluate a Naive Bayes spam filter",
	Long: `Spamsift derives a discriminative vocabulary from a labeled training corpus,
turns each message into a small feature record and evaluates a Naive Bayes
classifier on a held-out split and on an independent evaluation corpus.

Corpora are tab-delimited "label<TAB>text" files (label ham or spam), URLs or
"-" for standard input.

Examples:
  spamsift train.tsv holdout.tsv
  spamsift --config spamsift.yaml --trials 20 -o results.txt
  spamsift vocab --top-k 25 train.tsv
  spamsift --model model.gob train.tsv holdout.tsv
  spamsift classify --model model.gob "WIN a free prize now!"`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		setupLogger(cfg.Logging.Level, cfg.Logging.Format)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rep, err := app.RunWith(ctx, cfg, newDeps(cmd))
		if err != nil {
			return fmt.Errorf("spamsift failed: %w", err)
		}
		return rep.Print(cmd.OutOrStdout())
	},
}

var vocabCmd = &cobra.Command{
	Use:   "vocab [training-corpus]",
	Short: "Print the ham and spam vocabularies of a corpus",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		setupLogger(cfg.Logging.Level, cfg.Logging.Format)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		v, err := app.BuildVocabulary(ctx, cfg, newDeps(cmd))
		if err != nil {
			return fmt.Errorf("vocabulary failed: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
		return err
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Label messages with a saved model",
	Long: `Classify loads a model saved with --model and prints the label and spam
probability of each message. Messages come from the arguments, or one per
line on standard input when there are none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		setupLogger(cfg.Logging.Level, cfg.Logging.Format)
		if cfg.Output.ModelFile == "" {
			return fmt.Errorf("configuration error: %w: no model file given", config.ErrInvalid)
		}

		texts := args
		if len(texts) == 0 {
			if texts, err = readLines(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("failed to read messages: %w", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		preds, err := app.Classify(ctx, cfg.Output.ModelFile, texts, nil)
		if err != nil {
			return fmt.Errorf("classify failed: %w", err)
		}
		explain, _ := cmd.Flags().GetBool("explain")
		return printPredictions(cmd.OutOrStdout(), preds, explain)
	},
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// printPredictions writes one "label<TAB>P(spam)<TAB>text" line per
// prediction, followed by its per-feature evidence when explain is set.
func printPredictions(w io.Writer, preds []classifier.Prediction, explain bool) error {
	bw := bufio.NewWriter(w)
	for _, p := range preds {
		fmt.Fprintf(bw, "%s\t%.4f\t%s\n", p.Label, p.Posteriors[corpus.Spam], p.Text)
		if !explain {
			continue
		}
		for _, ev := range p.Evidence {
			fmt.Fprintf(bw, "  %s = %d\tP(|ham) %.4f\tP(|spam) %.4f\n",
				ev.Feature, ev.Value, ev.Likelihoods[corpus.Ham], ev.Likelihoods[corpus.Spam])
		}
	}
	return bw.Flush()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "C", "", "YAML configuration file")

	// corpora
	pf.StringP("primary", "p", "", "Primary training corpus")
	pf.String("subset", "", "Small training corpus for fast iteration")
	pf.StringP("evaluation", "e", "", "Independent evaluation corpus, never used for training")
	pf.Bool("use-subset", false, "Train on the subset corpus instead of the primary one")

	// vocabulary
	pf.IntP("top-k", "k", 0, "Words kept per class (default 100)")
	pf.Bool("stem", false, "Reduce words to snowball stems")
	pf.StringSlice("unwanted", nil, "Extra unwanted-word files, one word per line")

	// features and evaluation
	rootCmd.Flags().StringSlice("features", nil,
		"Feature names (default wordcount_ham,exclamation_count; available: "+strings.Join(features.Registered(), ", ")+")")
	rootCmd.Flags().String("length-method", "", "message_length unit: words, characters or tokens")
	rootCmd.Flags().IntP("trials", "n", 0, "Cross-corpus trials (default 10)")
	rootCmd.Flags().Float64("train-fraction", 0, "Held-out training fraction (default 0.25)")
	rootCmd.Flags().Float64("trial-fraction", 0, "Training fraction per cross-corpus trial (default 0.25)")
	rootCmd.Flags().Uint64("seed", 0, "Random seed; 0 shuffles differently on every run")
	rootCmd.Flags().Int("informative", 0, "Most informative features to show (default 5)")

	// output
	rootCmd.Flags().StringP("output", "o", "", "Write per-trial accuracies and the mean to this file")
	rootCmd.Flags().String("redis-url", "", "Also store results in redis (redis://host:port/db)")
	rootCmd.Flags().String("redis-prefix", "", "Key prefix for redis results")
	rootCmd.Flags().String("model", "", "Save a model trained on the full training corpus")

	// logging
	pf.String("log-level", "", "Log level: debug, info, warn or error (default info)")
	pf.String("log-format", "", "Log format: text or json (default text)")
	pf.BoolP("quiet", "q", false, "Suppress progress and informational messages")
	pf.BoolP("debug", "D", false, "Enable debug logging")
	_ = pf.MarkHidden("debug")

	classifyCmd.Flags().StringP("model", "m", "", "Model file written by spamsift --model")
	classifyCmd.Flags().Bool("explain", false, "Print each feature value and its likelihood per label")

	rootCmd.AddCommand(vocabCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

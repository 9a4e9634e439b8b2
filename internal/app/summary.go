package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/chriscorrea/spamsift/internal/report"
)

// Summary renders the report for a terminal.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "training corpus:   %s (%d ham, %d spam)\n", r.TrainingSource, r.TrainingCounts[0], r.TrainingCounts[1])
	fmt.Fprintf(&b, "evaluation corpus: %s (%d ham, %d spam)\n", r.EvaluationSource, r.EvaluationCounts[0], r.EvaluationCounts[1])
	if r.SkippedRows > 0 {
		fmt.Fprintf(&b, "skipped rows:      %d\n", r.SkippedRows)
	}
	if r.Overlap > 0 {
		fmt.Fprintf(&b, "overlap dropped:   %d\n", r.Overlap)
	}
	fmt.Fprintf(&b, "vocabulary:        %d ham words, %d spam words (%d shared removed)\n",
		r.Vocabulary.HamExclusive, r.Vocabulary.SpamExclusive, r.Vocabulary.Shared)
	if r.Schema != nil {
		fmt.Fprintf(&b, "features:          %s\n", r.Schema)
	}

	fmt.Fprintf(&b, "\nheld-out accuracy: %.4f (train %d, test %d)\n", r.HeldOut.Accuracy, r.HeldOut.TrainSize, r.HeldOut.TestSize)
	fmt.Fprintf(&b, "cross-corpus accuracy: %.4f (train %d, test %d)\n", r.CrossCorpus.Accuracy, r.CrossCorpus.TrainSize, r.CrossCorpus.TestSize)

	if len(r.Informative) > 0 {
		b.WriteString("\nmost informative features:\n")
		for _, inf := range r.Informative {
			fmt.Fprintf(&b, "  %s\n", inf)
		}
	}

	fmt.Fprintf(&b, "\ncross-corpus trials (%d):\n", len(r.Trials.Accuracies))
	b.WriteString(report.Format(r.Trials))
	fmt.Fprintf(&b, "min %.4f  max %.4f  stddev %.4f\n", r.Trials.Min, r.Trials.Max, r.Trials.StdDev)

	if r.ModelFile != "" {
		fmt.Fprintf(&b, "\nmodel saved to %s\n", r.ModelFile)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "redis run id: %s\n", r.RunID)
	}
	return b.String()
}

// Print writes Summary to w.
func (r *Report) Print(w io.Writer) error {
	_, err := io.WriteString(w, r.Summary())
	return err
}

// Package report writes trial accuracies to output sinks.
//
// The text format lists one accuracy per line, then a blank line, then the
// mean accuracy:
//
//	0.9215
//	0.9342
//	...
//
//	0.9278
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chriscorrea/spamsift/internal/eval"
)

// Sink receives the summary of one evaluation run.
type Sink interface {
	Write(ctx context.Context, s eval.Summary) error
}

// Format renders s in the text format.
func Format(s eval.Summary) string {
	var b strings.Builder
	for _, acc := range s.Accuracies {
		b.WriteString(formatFloat(acc))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(formatFloat(s.Mean))
	b.WriteByte('\n')
	return b.String()
}

// formatFloat prints the shortest exact decimal, always with a fraction.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// WriterSink writes the text format to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (ws WriterSink) Write(_ context.Context, s eval.Summary) error {
	if _, err := io.WriteString(ws.W, Format(s)); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// FileSink replaces the file at Path with the text format on every run.
// The file is written to a temporary name first and renamed into place.
type FileSink struct {
	Path string
}

func (fs FileSink) Write(_ context.Context, s eval.Summary) error {
	if fs.Path == "" {
		return fmt.Errorf("results file path is empty")
	}

	dir := filepath.Dir(fs.Path)
	tmp, err := os.CreateTemp(dir, ".spamsift-results-*")
	if err != nil {
		return fmt.Errorf("create temp results file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.WriteString(tmp, Format(s)); err != nil {
		tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp results file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod results file: %w", err)
	}
	if err := os.Rename(tmpPath, fs.Path); err != nil {
		return fmt.Errorf("rename results file: %w", err)
	}
	return nil
}

// Multi writes to every sink in order and stops at the first error.
type Multi []Sink

func (m Multi) Write(ctx context.Context, s eval.Summary) error {
	for _, sink := range m {
		if err := sink.Write(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

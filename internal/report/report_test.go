package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/chriscorrea/spamsift/internal/eval"
)

func TestFormat(t *testing.T) {
	s := eval.Summarize([]float64{0.5, 1, 0.75})
	want := "0.5\n1.0\n0.75\n\n0.75\n"
	if got := Format(s); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	accs := []float64{0.9215, 0.93421, 0.918, 0.9276, 0.93, 0.9199, 0.9288, 0.921, 0.925, 0.931}
	s := eval.Summarize(accs)

	lines := strings.Split(strings.TrimSuffix(Format(s), "\n"), "\n")
	if len(lines) != len(accs)+2 {
		t.Fatalf("Format() produced %d lines, want %d", len(lines), len(accs)+2)
	}
	for i, a := range accs {
		got, err := strconv.ParseFloat(lines[i], 64)
		if err != nil || got != a {
			t.Errorf("line %d = %q, want %v", i, lines[i], a)
		}
	}
	if lines[len(accs)] != "" {
		t.Errorf("line %d = %q, want blank", len(accs), lines[len(accs)])
	}
	mean, err := strconv.ParseFloat(lines[len(lines)-1], 64)
	if err != nil || mean != s.Mean {
		t.Errorf("mean line = %q, want %v", lines[len(lines)-1], s.Mean)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (WriterSink{W: &buf}).Write(context.Background(), eval.Summarize([]float64{1})); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	if buf.String() != "1.0\n\n1.0\n" {
		t.Errorf("Write() wrote %q", buf.String())
	}
}

func TestFileSinkOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	sink := FileSink{Path: path}

	if err := os.WriteFile(path, []byte("stale\nresults\n"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}
	if err := sink.Write(context.Background(), eval.Summarize([]float64{0.25, 0.75})); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if string(data) != "0.25\n0.75\n\n0.5\n" {
		t.Errorf("results file = %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileSinkErrors(t *testing.T) {
	if err := (FileSink{}).Write(context.Background(), eval.Summary{}); err == nil {
		t.Error("Write() with empty path expected error")
	}
	missingDir := filepath.Join(t.TempDir(), "missing", "results.txt")
	if err := (FileSink{Path: missingDir}).Write(context.Background(), eval.Summary{}); err == nil {
		t.Error("Write() into a missing directory expected error")
	}
}

type failingSink struct{ calls *int }

func (f failingSink) Write(context.Context, eval.Summary) error {
	*f.calls++
	return errors.New("sink down")
}

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	m := Multi{WriterSink{W: &buf}, failingSink{calls: &calls}, failingSink{calls: &calls}}

	if err := m.Write(context.Background(), eval.Summarize([]float64{0.5})); err == nil {
		t.Error("Multi.Write() expected error")
	}
	if buf.Len() == 0 {
		t.Error("first sink was not written")
	}
	if calls != 1 {
		t.Errorf("Multi.Write() continued after an error: %d failing calls", calls)
	}
}

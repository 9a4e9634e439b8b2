package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewSkipsNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if ind := New(&buf); ind != nil {
		t.Error("New() on a buffer should return nil")
	}
}

func TestNilIndicatorIsNoop(t *testing.T) {
	var ind *Indicator
	ind.Start(context.Background(), "working")
	ind.Set("still working")
	ind.Trial(1, 10, 0.9)
	ind.Stop()
	if ind.running() {
		t.Error("nil Indicator reported active")
	}
}

func TestStartTrialStop(t *testing.T) {
	buf := &syncBuffer{}
	ind := newIndicator(buf)
	ind.delay = 10 * time.Millisecond

	ind.Start(context.Background(), "building vocabulary")
	if !ind.running() {
		t.Fatal("Indicator should be active after Start()")
	}
	time.Sleep(40 * time.Millisecond)

	ind.Trial(3, 10, 0.91234)
	time.Sleep(40 * time.Millisecond)
	ind.Stop()

	if ind.running() {
		t.Error("Indicator should not be active after Stop()")
	}

	out := buf.String()
	if !strings.Contains(out, "building vocabulary") {
		t.Errorf("output missing initial message: %q", out)
	}
	if !strings.Contains(out, "trial 3/10 (last accuracy 0.9123)") {
		t.Errorf("output missing trial message: %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[2K") {
		t.Errorf("Stop() did not clear the line: %q", out)
	}

	// stopping twice is harmless
	ind.Stop()
}

func TestContextCancelStopsAnimation(t *testing.T) {
	buf := &syncBuffer{}
	ind := newIndicator(buf)
	ind.delay = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	ind.Start(ctx, "x")
	cancel()
	time.Sleep(20 * time.Millisecond)

	before := buf.String()
	time.Sleep(20 * time.Millisecond)
	if buf.String() != before {
		t.Error("animation kept drawing after context cancellation")
	}
	ind.Stop()
}

func TestTrialIgnoredWhenStopped(t *testing.T) {
	ind := newIndicator(&syncBuffer{})
	ind.Set("loading corpora")
	ind.Trial(1, 10, 0.5)

	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.message != "loading corpora" {
		t.Errorf("message = %q, want it unchanged before Start()", ind.message)
	}
}

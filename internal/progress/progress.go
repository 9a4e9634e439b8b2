// Package progress draws a single-line status indicator on stderr while the
// pipeline works through its stages and trials.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

// Indicator animates a spinner next to a status message. A nil *Indicator
// is valid and does nothing, so callers can skip it in quiet mode.
type Indicator struct {
	w     io.Writer
	delay time.Duration

	mu      sync.Mutex
	message string
	active  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns an Indicator writing to w, or nil when w is not a terminal.
func New(w io.Writer) *Indicator {
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return newIndicator(w)
}

func newIndicator(w io.Writer) *Indicator {
	return &Indicator{w: w, delay: 100 * time.Millisecond}
}

// Start begins animating with message. ctx cancellation stops the animation.
func (ind *Indicator) Start(ctx context.Context, message string) {
	if ind == nil {
		return
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()

	ind.message = message
	if ind.active {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	ind.cancel = cancel
	ind.active = true
	ind.wg.Add(1)
	go ind.run(runCtx)
}

// Set replaces the status message.
func (ind *Indicator) Set(message string) {
	if ind == nil {
		return
	}
	ind.mu.Lock()
	ind.message = message
	ind.mu.Unlock()
}

// Trial reports that trial of total finished with accuracy.
func (ind *Indicator) Trial(trial, total int, accuracy float64) {
	if !ind.running() {
		return
	}
	ind.Set(fmt.Sprintf("trial %d/%d (last accuracy %.4f)", trial, total, accuracy))
}

// Stop ends the animation and clears the line.
func (ind *Indicator) Stop() {
	if ind == nil {
		return
	}
	ind.mu.Lock()
	if !ind.active {
		ind.mu.Unlock()
		return
	}
	ind.active = false
	ind.cancel()
	ind.mu.Unlock()

	ind.wg.Wait()
	fmt.Fprint(ind.w, "\r\033[2K")
}

// running reports whether the animation is drawing.
func (ind *Indicator) running() bool {
	if ind == nil {
		return false
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.active
}

func (ind *Indicator) run(ctx context.Context) {
	defer ind.wg.Done()

	ticker := time.NewTicker(ind.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ind.mu.Lock()
			fmt.Fprintf(ind.w, "\r\033[2K%s %s", frames[i%len(frames)], ind.message)
			ind.mu.Unlock()
		}
	}
}

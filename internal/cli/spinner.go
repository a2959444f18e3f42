package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/meshmap/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows a progress line on stderr while a map settles. The message
// can change while it spins.
type Spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	message string
	width   int
}

// newSpinner creates a spinner that stops when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// Cancelled reports whether the parent context ended the spinner.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	// Pad over a longer previous message.
	pad := max(0, s.width-len(s.message))
	s.width = len(s.message)
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", pad))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+4))
}

// =============================================================================
// Settle Progress
// =============================================================================

// settleProgress feeds simulation ticks into a spinner. It is registered as
// the simulation hooks for the duration of a render.
type settleProgress struct {
	observability.NoopSimulationHooks
	s     *Spinner
	limit int

	mu    sync.Mutex
	ticks int
}

func (p *settleProgress) OnTick(_ context.Context, alpha float64, nodeCount int) {
	p.mu.Lock()
	p.ticks++
	ticks := p.ticks
	p.mu.Unlock()
	progress := fmt.Sprintf("tick %d", ticks)
	if p.limit > 0 {
		progress += fmt.Sprintf("/%d", p.limit)
	}
	p.s.SetMessage(fmt.Sprintf("Settling %d devices · %s · α %.3f", nodeCount, progress, alpha))
}

func (p *settleProgress) OnSettle(_ context.Context, ticks int, _ time.Duration) {
	p.s.SetMessage(fmt.Sprintf("Settled after %d ticks, rendering...", ticks))
}

// trackSettle shows simulation progress on s until the returned func is
// called.
func trackSettle(s *Spinner, limit int) (restore func()) {
	prev := observability.Simulation()
	observability.SetSimulationHooks(&settleProgress{s: s, limit: limit})
	return func() { observability.SetSimulationHooks(prev) }
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/meshmap/pkg/observability"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
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

func TestSpinnerDrawsMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Settling 3 devices")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Settling 3 devices") {
		t.Errorf("output %q missing message", out.String())
	}
	// Stop cancels the spinner's own context.
	if !s.Cancelled() {
		t.Error("stopped spinner should report its context done")
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := newSpinnerTo(ctx, &out, "waiting")
	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after context cancellation")
	}
	if !s.Cancelled() {
		t.Error("spinner should be cancelled")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "idle")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestTrackSettle(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "start")
	restore := trackSettle(s, 300)

	ctx := context.Background()
	observability.Simulation().OnTick(ctx, 0.5, 3)
	observability.Simulation().OnTick(ctx, 0.25, 3)
	if got, want := s.Message(), "Settling 3 devices · tick 2/300 · α 0.250"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	observability.Simulation().OnSettle(ctx, 2, time.Millisecond)
	if !strings.HasPrefix(s.Message(), "Settled after 2 ticks") {
		t.Errorf("message = %q after settle", s.Message())
	}

	restore()
	observability.Simulation().OnTick(ctx, 0.1, 3)
	if strings.Contains(s.Message(), "tick 3") {
		t.Error("hooks still registered after restore")
	}
}

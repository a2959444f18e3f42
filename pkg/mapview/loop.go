package mapview

import (
	"context"
	"time"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Run is the event loop. It ticks the simulation every TickInterval while
// it is warm, serves pointer events and commands, and publishes a frame to
// subscribers after every change. It returns when ctx ends.
func (m *Map) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	m.logger.Debug("map loop started", "nodes", len(m.sim.Nodes()), "interval", m.opts.TickInterval)
	defer m.logger.Debug("map loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.Step(ctx) {
				m.publish()
			}
		case req := <-m.events:
			req.reply <- m.HandlePointer(req.ev)
			m.publish()
		case cmd := <-m.cmds:
			cmd()
		}
	}
}

// Dispatch hands ev to the loop and waits until it has been processed. The
// target is found by hit testing at (ev.X, ev.Y); use [Map.DispatchOn] to
// name a node instead.
func (m *Map) Dispatch(ctx context.Context, ev scene.PointerEvent) (bool, error) {
	req := eventRequest{ev: ev, reply: make(chan bool, 1)}
	select {
	case m.events <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (m *Map) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}
	select {
	case m.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchOn dispatches ev with the glyph of node id as target, bypassing
// hit testing. Unknown IDs fall back to hit testing.
func (m *Map) DispatchOn(ctx context.Context, id string, ev scene.PointerEvent) (bool, error) {
	reply := make(chan bool, 1)
	err := m.Do(ctx, func() {
		ev := ev
		if id != "" {
			ev.Target = m.doc.Find(func(e *scene.Element) bool {
				return e.Key() == id && e.HasClass("node")
			})
		}
		reply <- m.HandlePointer(ev)
		m.publish()
	})
	if err != nil {
		return false, err
	}
	return <-reply, nil
}

// Snapshot returns the current frame.
func (m *Map) Snapshot(ctx context.Context) (Frame, error) {
	reply := make(chan Frame, 1)
	if err := m.Do(ctx, func() { reply <- m.Frame() }); err != nil {
		return Frame{}, err
	}
	return <-reply, nil
}

// Replace swaps the topology on the loop goroutine. A nil graph is
// rejected.
func (m *Map) Replace(ctx context.Context, g *topology.Graph) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidTopology, "replace with nil topology")
	}
	return m.Do(ctx, func() {
		m.ReplaceGraph(g)
		m.publish()
	})
}

// Subscribe returns a channel receiving frames as the map changes, and a
// function ending the subscription. Slow subscribers miss intermediate
// frames; the newest frame always wins.
func (m *Map) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	cancel := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (m *Map) Subscribers() int {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	return len(m.subs)
}

func (m *Map) publish() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if len(m.subs) == 0 {
		return
	}
	f := m.Frame()
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

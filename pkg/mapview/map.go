package mapview

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshmap/pkg/observability"
	"github.com/matzehuels/meshmap/pkg/render/links"
	"github.com/matzehuels/meshmap/pkg/render/nodes"
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/render/tooltip"
	"github.com/matzehuels/meshmap/pkg/sim"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Options configures a [Map].
type Options struct {
	Sim             sim.Options
	Styles          nodes.Styles
	DragAlphaTarget float64
	TickInterval    time.Duration
	Logger          *log.Logger
	// Now is the clock used for "last seen" in tooltips.
	Now func() time.Time
}

// NodeState is the externally visible state of one node.
type NodeState struct {
	ID     string              `json:"id"`
	Type   topology.DeviceType `json:"type"`
	Name   string              `json:"name"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Pinned bool                `json:"pinned"`
}

// Frame is a rendered snapshot of the map.
type Frame struct {
	Seq      uint64      `json:"seq"`
	Tick     int         `json:"tick"`
	Alpha    float64     `json:"alpha"`
	Dragging int         `json:"dragging"`
	Hovered  string      `json:"hovered,omitempty"`
	Nodes    []NodeState `json:"nodes"`
	SVG      []byte      `json:"-"`
}

// Map is a live, interactive mesh map.
type Map struct {
	opts   Options
	logger *log.Logger

	graph *topology.Graph
	sim   *sim.Simulation
	doc   *scene.Document
	nodes *nodes.NodeCollectionView
	links *links.LinkView
	tip   *tooltip.Tooltip

	seq        uint64
	settleFrom time.Time
	settleTick int

	events chan eventRequest
	cmds   chan func()

	subsMu sync.Mutex
	subs   map[chan Frame]struct{}
}

type eventRequest struct {
	ev    scene.PointerEvent
	reply chan bool
}

// New builds a map over g and renders it once. The graph's nodes are owned
// by the map from now on.
func New(g *topology.Graph, opts Options) *Map {
	if opts.DragAlphaTarget <= 0 {
		opts.DragAlphaTarget = nodes.DefaultDragAlphaTarget
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	if opts.Styles == nil {
		opts.Styles = nodes.DefaultStyles()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Map{
		opts:   opts,
		logger: logger,
		graph:  g,
		sim:    sim.New(g, opts.Sim),
		doc:    scene.New(),
		tip:    &tooltip.Tooltip{Now: opts.Now},
		events: make(chan eventRequest),
		cmds:   make(chan func()),
		subs:   make(map[chan Frame]struct{}),
	}
	m.opts.Sim = m.sim.Options()

	m.nodes = nodes.NewNodeCollectionView(m.sim, opts.Styles)
	m.nodes.OnPointerOver = m.tip.Show
	m.nodes.OnPointerOut = m.tip.Hide
	m.nodes.Drag().SetAlphaTarget(opts.DragAlphaTarget)
	m.nodes.Drag().OnStart = func(id string) {
		m.logger.Debug("drag start", "node", id)
		observability.Simulation().OnDragStart(context.Background(), id)
	}
	m.nodes.Drag().OnEnd = func(id string) {
		m.logger.Debug("drag end", "node", id)
		observability.Simulation().OnDragEnd(context.Background(), id)
	}

	m.load(g)
	m.settleFrom = time.Now()
	m.render()
	return m
}

// Graph returns the current topology.
func (m *Map) Graph() *topology.Graph { return m.graph }

// Simulation returns the force engine.
func (m *Map) Simulation() *sim.Simulation { return m.sim }

// Document returns the rendered document.
func (m *Map) Document() *scene.Document { return m.doc }

// Nodes returns the node collection view.
func (m *Map) Nodes() *nodes.NodeCollectionView { return m.nodes }

// Size returns the canvas size.
func (m *Map) Size() (w, h float64) { return m.opts.Sim.Width, m.opts.Sim.Height }

// Step advances the simulation by one tick and re-renders. It reports
// whether the simulation ticked.
func (m *Map) Step(ctx context.Context) bool {
	wasRunning := !m.sim.Stopped()
	if !m.sim.Advance() {
		return false
	}
	observability.Simulation().OnTick(ctx, m.sim.Alpha(), len(m.sim.Nodes()))
	if wasRunning && m.sim.Stopped() {
		ticks := m.sim.Ticks() - m.settleTick
		elapsed := time.Since(m.settleFrom)
		m.logger.Debug("simulation settled", "ticks", ticks, "elapsed", elapsed.Round(time.Millisecond))
		observability.Simulation().OnSettle(ctx, ticks, elapsed)
	}
	m.render()
	return true
}

// Settle runs up to max ticks synchronously and returns the number run.
func (m *Map) Settle(ctx context.Context, max int) int {
	n := 0
	for n < max && ctx.Err() == nil && m.Step(ctx) {
		n++
	}
	return n
}

// HandlePointer dispatches ev into the document, re-renders and reports
// whether an element received it. A pointer that was stopped restarts the
// clock used for settle reporting.
func (m *Map) HandlePointer(ev scene.PointerEvent) bool {
	stopped := m.sim.Stopped()
	var ok bool
	if ev.Type == scene.PointerOut && ev.Target == nil {
		m.doc.Leave(ev.PointerID)
		ok = true
	} else {
		ok = m.doc.Dispatch(ev)
	}
	if stopped && !m.sim.Stopped() {
		m.settleFrom = time.Now()
		m.settleTick = m.sim.Ticks()
	}
	m.render()
	return ok
}

// ReplaceGraph swaps in a new topology, carrying over positions of nodes
// that still exist. A nil graph is ignored.
func (m *Map) ReplaceGraph(g *topology.Graph) {
	if g == nil {
		return
	}
	m.logger.Info("topology replaced", "nodes", len(g.Nodes), "links", len(g.Links))
	m.sim.Replace(g)
	m.load(g)
	if n := m.tip.Node(); n != nil && m.sim.Node(n.ID) == nil {
		m.tip.Hide(n)
	} else if n != nil {
		m.tip.Show(m.sim.Node(n.ID))
	}
	m.settleFrom = time.Now()
	m.settleTick = m.sim.Ticks()
	m.render()
}

// Frame captures the current state, including the SVG document.
func (m *Map) Frame() Frame {
	var buf bytes.Buffer
	m.writeSVG(&buf)

	f := Frame{
		Seq:      m.seq,
		Tick:     m.sim.Ticks(),
		Alpha:    m.sim.Alpha(),
		Dragging: m.nodes.Drag().Active(),
		Nodes:    make([]NodeState, 0, len(m.sim.Nodes())),
		SVG:      buf.Bytes(),
	}
	if n := m.tip.Node(); n != nil {
		f.Hovered = n.ID
	}
	for _, n := range m.sim.Nodes() {
		f.Nodes = append(f.Nodes, NodeState{
			ID:     n.ID,
			Type:   n.Type(),
			Name:   n.Device.DisplayName(),
			X:      n.X,
			Y:      n.Y,
			Pinned: n.Pinned(),
		})
	}
	return f
}

// Close detaches views from the document.
func (m *Map) Close() {
	m.nodes.Close()
	m.subsMu.Lock()
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	m.subsMu.Unlock()
}

func (m *Map) load(g *topology.Graph) {
	m.graph = g
	m.nodes.SetNodes(m.sim.Nodes())
	m.links = &links.LinkView{Links: g.Links, Nodes: g.Index()}
}

// render reconciles the document with the views and runs post-render
// effects.
func (m *Map) render() {
	linkGroup := m.links.Render()
	linkGroup.Key = links.ClassLinks
	nodeGroup := m.nodes.Render()
	nodeGroup.Key = nodes.ClassNodes
	tipGroup := m.tip.Render()
	tipGroup.Key = tooltip.ClassTooltip

	root := scene.Group("map", linkGroup, nodeGroup, tipGroup)
	m.doc.Render(root)
	m.nodes.DidRender(m.doc)
	m.seq++
}

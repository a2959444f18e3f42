package nodes

import (
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// DefaultDragAlphaTarget keeps the simulation moving while a node is held.
const DefaultDragAlphaTarget = 0.3

// Simulation is the command surface drag handling needs from the force
// engine. Pin and Unpin must ignore unknown IDs.
type Simulation interface {
	SetAlphaTarget(target float64)
	Restart()
	Pin(id string, x, y float64)
	Unpin(id string)
}

// DragController turns pointer gestures on node glyphs into simulation
// commands. Each pointer runs its own Idle -> Dragging -> Idle cycle; the
// alpha target is raised by the first active gesture and reset by the last.
type DragController struct {
	// OnStart and OnEnd observe gestures. Optional.
	OnStart func(id string)
	OnEnd   func(id string)

	sim         Simulation
	alphaTarget float64
	gestures    map[int]gesture
}

// gesture is one pointer holding a node. dx, dy is the node position
// relative to the pointer at grab time, so the node keeps its grab offset.
type gesture struct {
	id     string
	dx, dy float64
}

// NewDragController returns a controller driving sim.
func NewDragController(sim Simulation) *DragController {
	return &DragController{
		sim:         sim,
		alphaTarget: DefaultDragAlphaTarget,
		gestures:    make(map[int]gesture),
	}
}

// SetAlphaTarget changes the alpha target applied while dragging.
func (c *DragController) SetAlphaTarget(target float64) {
	c.alphaTarget = target
}

// Active returns the number of gestures in progress.
func (c *DragController) Active() int { return len(c.gestures) }

// Dragging reports whether any pointer is dragging node id.
func (c *DragController) Dragging(id string) bool {
	for _, g := range c.gestures {
		if g.id == id {
			return true
		}
	}
	return false
}

// Attach listens for pointer events on els and returns a function removing
// every listener it added.
func (c *DragController) Attach(doc *scene.Document, els []*scene.Element) (detach func()) {
	handles := make([]scene.Handle, 0, 4*len(els))
	for _, el := range els {
		handles = append(handles,
			doc.On(el, scene.PointerDown, func(ev scene.PointerEvent) { c.start(doc, ev) }),
			doc.On(el, scene.PointerMove, func(ev scene.PointerEvent) { c.drag(doc, ev) }),
			doc.On(el, scene.PointerUp, c.end),
			doc.On(el, scene.PointerCancel, c.end),
		)
	}
	return func() {
		for _, h := range handles {
			h.Remove()
		}
	}
}

func (c *DragController) start(doc *scene.Document, ev scene.PointerEvent) {
	if _, busy := c.gestures[ev.PointerID]; busy {
		return
	}
	n := nodeOf(doc, ev.Target)
	if n == nil {
		return
	}
	if len(c.gestures) == 0 {
		c.sim.SetAlphaTarget(c.alphaTarget)
		c.sim.Restart()
	}
	x, y := n.X, n.Y
	if n.Pinned() {
		x, y = *n.FX, *n.FY
	}
	c.gestures[ev.PointerID] = gesture{id: n.ID, dx: x - ev.X, dy: y - ev.Y}
	doc.Capture(ev.PointerID, ev.Target)
	c.sim.Pin(n.ID, x, y)
	if c.OnStart != nil {
		c.OnStart(n.ID)
	}
}

func (c *DragController) drag(doc *scene.Document, ev scene.PointerEvent) {
	g, ok := c.gestures[ev.PointerID]
	if !ok {
		return
	}
	if n := nodeOf(doc, ev.Target); n == nil || n.ID != g.id {
		return
	}
	c.sim.Pin(g.id, ev.X+g.dx, ev.Y+g.dy)
}

func (c *DragController) end(ev scene.PointerEvent) {
	g, ok := c.gestures[ev.PointerID]
	if !ok {
		return
	}
	id := g.id
	delete(c.gestures, ev.PointerID)
	if len(c.gestures) == 0 {
		c.sim.SetAlphaTarget(0)
	}
	// Another pointer may still hold the node.
	if !c.Dragging(id) {
		c.sim.Unpin(id)
	}
	if c.OnEnd != nil {
		c.OnEnd(id)
	}
}

// nodeOf resolves the node bound to el. Stale or unbound elements yield nil.
func nodeOf(doc *scene.Document, el *scene.Element) *topology.Node {
	datum, ok := doc.Datum(el)
	if !ok {
		return nil
	}
	n, _ := datum.(*topology.Node)
	return n
}

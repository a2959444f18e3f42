package nodes

import (
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// NodeCollectionView renders every node and owns the drag controller.
//
// Rendering is split in two steps so the view can sit inside a larger tree:
// [NodeCollectionView.Render] declares the glyph group, and after the
// document has been reconciled [NodeCollectionView.DidRender] binds data and
// re-attaches drag handling to the elements that now exist.
type NodeCollectionView struct {
	Styles        Styles
	OnPointerOver HoverFunc
	OnPointerOut  HoverFunc

	nodes  []*topology.Node
	views  map[string]*NodeView
	order  []*NodeView
	drag   *DragController
	detach func()
}

// NewNodeCollectionView returns a view whose drag gestures drive sim.
func NewNodeCollectionView(sim Simulation, styles Styles) *NodeCollectionView {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &NodeCollectionView{
		Styles: styles,
		views:  make(map[string]*NodeView),
		drag:   NewDragController(sim),
	}
}

// SetNodes replaces the node sequence. Nodes are keyed by ID, so the
// sequence may be reordered or partially replaced between renders.
func (c *NodeCollectionView) SetNodes(nodes []*topology.Node) {
	c.nodes = nodes
}

// Nodes returns the current node sequence.
func (c *NodeCollectionView) Nodes() []*topology.Node { return c.nodes }

// Drag returns the view's drag controller.
func (c *NodeCollectionView) Drag() *DragController { return c.drag }

// Views returns the node views of the last render in input order.
func (c *NodeCollectionView) Views() []*NodeView {
	out := make([]*NodeView, len(c.order))
	copy(out, c.order)
	return out
}

// Render declares a <g class="nodes"> holding one glyph per node in input
// order.
func (c *NodeCollectionView) Render() *scene.VNode {
	next := make(map[string]*NodeView, len(c.nodes))
	c.order = c.order[:0]
	children := make([]*scene.VNode, 0, len(c.nodes))

	for _, n := range c.nodes {
		if n == nil {
			continue
		}
		v := c.views[n.ID]
		if v == nil || next[n.ID] != nil {
			v = &NodeView{}
		}
		v.Node = n
		v.Styles = c.Styles
		v.OnPointerOver = c.OnPointerOver
		v.OnPointerOut = c.OnPointerOut
		next[n.ID] = v
		c.order = append(c.order, v)
		children = append(children, v.Render())
	}
	c.views = next
	return scene.Group(ClassNodes, children...)
}

// DidRender is the post-render effect: it binds every element to its node,
// detaches the previous drag bindings and attaches fresh ones to the current
// elements. Gestures in progress survive because their state lives in the
// controller, not in the bindings.
func (c *NodeCollectionView) DidRender(doc *scene.Document) {
	els := make([]*scene.Element, 0, len(c.order))
	for _, v := range c.order {
		v.Mount(doc)
		if el := v.Element(); el != nil && !el.Removed() {
			els = append(els, el)
		}
	}
	if c.detach != nil {
		c.detach()
	}
	c.detach = c.drag.Attach(doc, els)
}

// Update renders the collection as the document root and runs the
// post-render effect.
func (c *NodeCollectionView) Update(doc *scene.Document) {
	doc.Render(c.Render())
	c.DidRender(doc)
}

// Close detaches the drag bindings.
func (c *NodeCollectionView) Close() {
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
}

package nodes

import (
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/render/shape"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Glyph geometry. This is a fixed render rule, not configuration.
const (
	StarOuterRadius = 14.0
	StarInnerRadius = 5.0
	CircleRadius    = 5.0
)

// starOutline is swapped out by tests to simulate degenerate geometry.
var starOutline = shape.StarOutline

// HoverFunc receives the node under the pointer.
type HoverFunc func(n *topology.Node)

// NodeView renders a single node and keeps its element bound to the node.
// The view holds no state besides the reference to its element.
type NodeView struct {
	Node          *topology.Node
	Styles        Styles
	OnPointerOver HoverFunc
	OnPointerOut  HoverFunc

	ref scene.Ref
}

// Render declares the node's glyph at its current simulation position.
func (v *NodeView) Render() *scene.VNode {
	n := v.Node
	vn := &scene.VNode{
		Key:           n.ID,
		Class:         v.Styles.ClassNames(ClassNode, string(n.Type())),
		X:             n.X,
		Y:             n.Y,
		OnPointerOver: v.pointerOver,
		OnPointerOut:  v.pointerOut,
		Ref:           &v.ref,
	}

	switch n.Type() {
	case topology.Coordinator:
		vn.Tag = scene.TagPath
		if star := starOutline(StarOuterRadius, StarInnerRadius); star != nil {
			vn.D = star.D()
			vn.Hit = star
		} else {
			vn.Hit = scene.NoHit
		}
	default:
		vn.Tag = scene.TagCircle
		vn.R = CircleRadius
	}
	return vn
}

// Mount binds the rendered element to the node. It runs after every render
// so the binding follows the node if the record was replaced.
func (v *NodeView) Mount(doc *scene.Document) {
	if el := v.ref.Current; el != nil {
		doc.Bind(el, v.Node)
	}
}

// Element returns the element the view was last rendered as.
func (v *NodeView) Element() *scene.Element {
	return v.ref.Current
}

func (v *NodeView) pointerOver(scene.PointerEvent) {
	if v.OnPointerOver != nil {
		v.OnPointerOver(v.Node)
	}
}

func (v *NodeView) pointerOut(scene.PointerEvent) {
	if v.OnPointerOut != nil {
		v.OnPointerOut(v.Node)
	}
}

package scene

import (
	"slices"
	"strings"
)

// Element is a live node of the document tree. Its identity is stable across
// renders as long as the declaring VNode keeps the same key and tag.
type Element struct {
	id       uint64
	tag      Tag
	key      string
	props    VNode
	parent   *Element
	children []*Element
	removed  bool
}

// ID returns the document-unique element id. IDs are never reused.
func (e *Element) ID() uint64 { return e.id }

// Tag returns the element's tag.
func (e *Element) Tag() Tag { return e.tag }

// Key returns the key the element was declared with.
func (e *Element) Key() string { return e.key }

// Class returns the element's class attribute.
func (e *Element) Class() string { return e.props.Class }

// HasClass reports whether name is one of the element's classes.
func (e *Element) HasClass(name string) bool {
	return slices.Contains(strings.Fields(e.props.Class), name)
}

// Position returns the element's anchor point (cx/cy, translate, x/y).
func (e *Element) Position() (x, y float64) { return e.props.X, e.props.Y }

// Radius returns the circle radius (zero for other tags).
func (e *Element) Radius() float64 { return e.props.R }

// PathData returns the path data (empty for other tags or degenerate paths).
func (e *Element) PathData() string { return e.props.D }

// Text returns the text content of a text element.
func (e *Element) Text() string { return e.props.Text }

// Attr returns an extra attribute.
func (e *Element) Attr(name string) string { return e.props.Attrs[name] }

// Parent returns the enclosing element, nil for the root.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Removed reports whether the element has been dropped from its document.
func (e *Element) Removed() bool { return e.removed }

// Contains reports whether the document point (x, y) hits the element.
// Circles and rects test their own geometry; any tag with a HitShape
// delegates to it in local coordinates. Groups, lines and text never hit.
func (e *Element) Contains(x, y float64) bool {
	lx, ly := x-e.props.X, y-e.props.Y
	if e.props.Hit != nil {
		return e.props.Hit.Contains(lx, ly)
	}
	switch e.tag {
	case TagCircle:
		return lx*lx+ly*ly <= e.props.R*e.props.R
	case TagRect:
		return lx >= 0 && ly >= 0 && lx <= e.props.W && ly <= e.props.H
	default:
		return false
	}
}

func (e *Element) apply(v *VNode) {
	e.props = *v
	e.props.Children = nil
	e.props.Ref = nil
}

// walk visits e and its descendants in document (paint) order.
func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

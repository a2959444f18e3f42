package scene

// Tag is an SVG element name.
type Tag string

// Supported tags.
const (
	TagGroup  Tag = "g"
	TagPath   Tag = "path"
	TagCircle Tag = "circle"
	TagLine   Tag = "line"
	TagText   Tag = "text"
	TagRect   Tag = "rect"
)

// HitShape tests containment in an element's local coordinates, i.e.
// relative to its X/Y position.
type HitShape interface {
	Contains(x, y float64) bool
}

// Ref receives the live element a VNode was mounted as.
type Ref struct {
	Current *Element
}

// VNode declares one element. Positional fields are interpreted per tag:
//   - circle: X, Y are cx, cy and R the radius
//   - path: X, Y translate the path data D
//   - line: X, Y to X2, Y2
//   - text, rect: X, Y are the anchor / top-left corner, W, H the size
type VNode struct {
	Tag      Tag
	Key      string
	Class    string
	ID       string
	D        string
	X, Y     float64
	X2, Y2   float64
	R        float64
	W, H     float64
	Text     string
	Attrs    map[string]string
	Hit      HitShape
	Children []*VNode

	OnPointerOver func(PointerEvent)
	OnPointerOut  func(PointerEvent)

	Ref *Ref
}

// Group returns a <g> VNode.
func Group(class string, children ...*VNode) *VNode {
	return &VNode{Tag: TagGroup, Class: class, Children: children}
}

type noHit struct{}

func (noHit) Contains(float64, float64) bool { return false }

// NoHit makes an element transparent to hit testing (pointer-events: none).
var NoHit HitShape = noHit{}

// Package nodes renders mesh devices as draggable glyphs and couples drag
// gestures to the force simulation.
//
// # Glyphs
//
// A [NodeView] draws one [topology.Node]. The glyph depends only on the
// device type: a Coordinator is a star ([shape.StarOutline] with outer radius
// 14 and inner radius 5), every other type is a circle of radius 5. Both
// carry the "node" class plus the class the [Styles] dictionary maps the
// device type to, if any.
//
// # Dragging
//
// A [NodeCollectionView] renders all nodes and, after every render, re-binds
// a [DragController] to the elements it produced. The controller never
// writes node fields itself; it sends Pin and Unpin commands to a
// [Simulation] and raises the simulation's alpha target while at least one
// gesture is active:
//
//	pointerdown  -> Pin(id, x, y) at the node's current position; first gesture: SetAlphaTarget(0.3), Restart()
//	pointermove  -> Pin(id, pointer x, pointer y)
//	pointerup    -> Unpin(id); last gesture: SetAlphaTarget(0)
//
// Gestures are tracked per pointer, so several pointers can drag several
// nodes at once without cooling the simulation early.
package nodes

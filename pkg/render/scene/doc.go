// Package scene is the retained SVG document meshmap renders into.
//
// Views describe what they want drawn as a tree of [VNode] values. A
// [Document] reconciles that description against the live [Element] tree it
// already holds: an element whose key and tag are unchanged keeps its
// identity, everything else is created fresh, and elements that disappear
// lose their listeners, their bound datum and any pointer capture.
//
// # Data binding
//
// Each element can carry one datum ([Document.Bind]). Interaction layers use
// it to find out which model record an element stands for
// ([Document.Datum]). Bindings live in a side table, not in the element, and
// are dropped together with the element.
//
// # Events
//
// Pointer events are plain values ([PointerEvent]) handed to every handler;
// there is no ambient "current event". [Document.Dispatch] resolves the
// target (explicit, captured, or by hit test), fires declarative handlers
// from the VNode and then imperative listeners added with [Document.On].
// Listeners are removed through the [Handle] returned on registration.
//
// Dispatch is synchronous. A Document is not safe for concurrent use; the
// owner serializes renders and events on one goroutine.
package scene

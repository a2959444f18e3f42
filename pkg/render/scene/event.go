package scene

// EventType names a pointer event.
type EventType string

// Pointer event types.
const (
	PointerDown   EventType = "pointerdown"
	PointerMove   EventType = "pointermove"
	PointerUp     EventType = "pointerup"
	PointerCancel EventType = "pointercancel"
	PointerOver   EventType = "pointerover"
	PointerOut    EventType = "pointerout"
)

// ParseEventType converts a wire name into an EventType.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(s); t {
	case PointerDown, PointerMove, PointerUp, PointerCancel, PointerOver, PointerOut:
		return t, true
	}
	return "", false
}

// PointerEvent is passed to every handler. X and Y are document coordinates.
// Target is filled in by dispatch; callers may preset it to skip hit
// testing.
type PointerEvent struct {
	Type      EventType
	PointerID int
	X, Y      float64
	Target    *Element
}

// Listener handles a pointer event.
type Listener func(PointerEvent)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Handle identifies a registered listener.
type Handle struct {
	doc *Document
	el  *Element
	typ EventType
	id  uint64
}

// Remove unregisters the listener. Removing twice, or removing a listener
// of an element that is already gone, is a no-op.
func (h Handle) Remove() {
	if h.doc == nil || h.el == nil {
		return
	}
	byType := h.doc.listeners[h.el]
	entries := byType[h.typ]
	for i := range entries {
		if entries[i].id == h.id {
			byType[h.typ] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(byType[h.typ]) == 0 {
		delete(byType, h.typ)
	}
	if len(byType) == 0 {
		delete(h.doc.listeners, h.el)
	}
}

package scene

// On registers fn for events of type typ targeted at e.
// Registering on nil or a removed element returns an inert handle.
func (d *Document) On(e *Element, typ EventType, fn Listener) Handle {
	if e == nil || e.removed || fn == nil {
		return Handle{}
	}
	d.nextListener++
	byType := d.listeners[e]
	if byType == nil {
		byType = make(map[EventType][]listenerEntry)
		d.listeners[e] = byType
	}
	byType[typ] = append(byType[typ], listenerEntry{id: d.nextListener, fn: fn})
	return Handle{doc: d, el: e, typ: typ, id: d.nextListener}
}

// ListenerCount returns how many imperative listeners e has.
func (d *Document) ListenerCount(e *Element) int {
	n := 0
	for _, entries := range d.listeners[e] {
		n += len(entries)
	}
	return n
}

// Capture routes subsequent move, up and cancel events of pointerID to e.
func (d *Document) Capture(pointerID int, e *Element) {
	if e == nil || e.removed {
		return
	}
	d.captures[pointerID] = e
}

// Release ends a pointer capture.
func (d *Document) Release(pointerID int) {
	delete(d.captures, pointerID)
}

// Captured returns the element capturing pointerID, if any.
func (d *Document) Captured(pointerID int) *Element {
	return d.captures[pointerID]
}

// Hovered returns the element under pointerID as of the last event.
func (d *Document) Hovered(pointerID int) *Element {
	return d.hover[pointerID]
}

// Dispatch delivers ev and reports whether it reached an element.
//
// Target resolution: a captured pointer wins for move, up and cancel; then
// an explicit ev.Target; then a hit test at (ev.X, ev.Y). Down and move
// events also update hover state and fire pointerout/pointerover when the
// element under the pointer changes. Capture is released after up and
// cancel.
func (d *Document) Dispatch(ev PointerEvent) bool {
	if ev.Target != nil && ev.Target.removed {
		return false
	}

	switch ev.Type {
	case PointerDown:
		target := d.resolve(ev, false)
		d.updateHover(ev, target)
		return d.deliver(target, ev)
	case PointerMove:
		d.updateHover(ev, d.resolve(ev, false))
		return d.deliver(d.resolve(ev, true), ev)
	case PointerUp, PointerCancel:
		target := d.resolve(ev, true)
		ok := d.deliver(target, ev)
		delete(d.captures, ev.PointerID)
		return ok
	case PointerOver, PointerOut:
		return d.deliver(d.resolve(ev, false), ev)
	default:
		return false
	}
}

// Leave reports that pointerID left the document; the hovered element gets
// a pointerout.
func (d *Document) Leave(pointerID int) {
	d.updateHover(PointerEvent{PointerID: pointerID}, nil)
}

func (d *Document) resolve(ev PointerEvent, captured bool) *Element {
	if captured {
		if e := d.captures[ev.PointerID]; e != nil {
			return e
		}
	}
	if ev.Target != nil {
		return ev.Target
	}
	return d.HitTest(ev.X, ev.Y)
}

func (d *Document) updateHover(ev PointerEvent, next *Element) {
	pointerID := ev.PointerID
	prev := d.hover[pointerID]
	if prev == next {
		return
	}
	if next == nil {
		delete(d.hover, pointerID)
	} else {
		d.hover[pointerID] = next
	}
	if prev != nil && !prev.removed {
		d.fire(prev, PointerEvent{Type: PointerOut, PointerID: pointerID, X: ev.X, Y: ev.Y})
	}
	if next != nil {
		d.fire(next, PointerEvent{Type: PointerOver, PointerID: pointerID, X: ev.X, Y: ev.Y})
	}
}

func (d *Document) deliver(target *Element, ev PointerEvent) bool {
	if target == nil || target.removed {
		return false
	}
	d.fire(target, ev)
	return true
}

// fire runs the declarative handler for ev.Type, then a snapshot of the
// imperative listeners, so handlers may add or remove listeners safely.
func (d *Document) fire(e *Element, ev PointerEvent) {
	ev.Target = e
	switch ev.Type {
	case PointerOver:
		if e.props.OnPointerOver != nil {
			e.props.OnPointerOver(ev)
		}
	case PointerOut:
		if e.props.OnPointerOut != nil {
			e.props.OnPointerOut(ev)
		}
	}
	entries := d.listeners[e][ev.Type]
	if len(entries) == 0 {
		return
	}
	snapshot := make([]listenerEntry, len(entries))
	copy(snapshot, entries)
	for _, l := range snapshot {
		if e.removed {
			return
		}
		l.fn(ev)
	}
}

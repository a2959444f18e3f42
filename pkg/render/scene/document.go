package scene

import "strconv"

// Document holds the live element tree together with the datum side table,
// listeners, pointer captures and hover state.
type Document struct {
	root         *Element
	nextID       uint64
	nextListener uint64
	data         map[*Element]any
	listeners    map[*Element]map[EventType][]listenerEntry
	captures     map[int]*Element
	hover        map[int]*Element
}

// New returns an empty document.
func New() *Document {
	return &Document{
		data:      make(map[*Element]any),
		listeners: make(map[*Element]map[EventType][]listenerEntry),
		captures:  make(map[int]*Element),
		hover:     make(map[int]*Element),
	}
}

// Root returns the root element, nil before the first render.
func (d *Document) Root() *Element { return d.root }

// =============================================================================
// Reconciliation
// =============================================================================

// Render reconciles the tree against v and returns the root element.
// Rendering nil empties the document.
func (d *Document) Render(v *VNode) *Element {
	d.root = d.reconcile(d.root, v, nil)
	return d.root
}

func (d *Document) reconcile(old *Element, v *VNode, parent *Element) *Element {
	if v == nil {
		if old != nil {
			d.remove(old)
		}
		return nil
	}
	e := old
	if e == nil || e.tag != v.Tag || e.key != v.Key {
		if e != nil {
			d.remove(e)
		}
		d.nextID++
		e = &Element{id: d.nextID, tag: v.Tag, key: v.Key}
	}
	e.parent = parent
	e.apply(v)
	d.reconcileChildren(e, v.Children)
	if v.Ref != nil {
		v.Ref.Current = e
	}
	return e
}

func (d *Document) reconcileChildren(e *Element, vs []*VNode) {
	prev := make(map[string]*Element, len(e.children))
	for i, c := range e.children {
		prev[childKey(c.key, i)] = c
	}

	next := make([]*Element, 0, len(vs))
	for i, v := range vs {
		if v == nil {
			continue
		}
		k := childKey(v.Key, i)
		old := prev[k]
		delete(prev, k)
		if c := d.reconcile(old, v, e); c != nil {
			next = append(next, c)
		}
	}

	// Remove in previous document order so cancel events fire deterministically.
	for i, c := range e.children {
		if prev[childKey(c.key, i)] == c {
			d.remove(c)
		}
	}
	e.children = next
}

func childKey(key string, index int) string {
	if key != "" {
		return "k:" + key
	}
	return "i:" + strconv.Itoa(index)
}

// remove detaches e and its subtree. A pointer captured by a removed element
// receives a pointercancel first, while its listeners are still attached.
func (d *Document) remove(e *Element) {
	for _, c := range e.children {
		d.remove(c)
	}
	for id, captured := range d.captures {
		if captured == e {
			d.fire(e, PointerEvent{Type: PointerCancel, PointerID: id, Target: e})
			delete(d.captures, id)
		}
	}
	for id, hovered := range d.hover {
		if hovered == e {
			delete(d.hover, id)
		}
	}
	delete(d.listeners, e)
	delete(d.data, e)
	e.removed = true
	e.children = nil
}

// =============================================================================
// Data Binding
// =============================================================================

// Bind attaches datum to e, replacing any previous binding. Binding to a
// removed element is ignored.
func (d *Document) Bind(e *Element, datum any) {
	if e == nil || e.removed {
		return
	}
	d.data[e] = datum
}

// Unbind drops e's datum.
func (d *Document) Unbind(e *Element) {
	delete(d.data, e)
}

// Datum returns the value bound to e.
func (d *Document) Datum(e *Element) (any, bool) {
	if e == nil || e.removed {
		return nil, false
	}
	v, ok := d.data[e]
	return v, ok
}

// =============================================================================
// Queries
// =============================================================================

// SelectAll returns the elements carrying class in document order.
func (d *Document) SelectAll(class string) []*Element {
	var out []*Element
	if d.root == nil {
		return out
	}
	d.root.walk(func(e *Element) {
		if e.HasClass(class) {
			out = append(out, e)
		}
	})
	return out
}

// Find returns the first element in document order matching pred.
func (d *Document) Find(pred func(*Element) bool) *Element {
	var found *Element
	if d.root == nil {
		return nil
	}
	d.root.walk(func(e *Element) {
		if found == nil && pred(e) {
			found = e
		}
	})
	return found
}

// HitTest returns the topmost element containing (x, y), i.e. the last one
// painted.
func (d *Document) HitTest(x, y float64) *Element {
	var hit *Element
	if d.root == nil {
		return nil
	}
	d.root.walk(func(e *Element) {
		if e.Contains(x, y) {
			hit = e
		}
	})
	return hit
}

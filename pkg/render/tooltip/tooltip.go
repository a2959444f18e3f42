// Package tooltip renders the device details box shown while hovering a
// node.
package tooltip

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Layout of the box, in document units.
const (
	OffsetX    = 16.0
	OffsetY    = -8.0
	LineHeight = 14.0
	Padding    = 6.0
	CharWidth  = 6.5
)

// ClassTooltip is the class of the tooltip group.
const ClassTooltip = "tooltip"

// Tooltip follows the hovered node. Its elements never take part in hit
// testing, so showing it cannot steal the hover from the node below.
type Tooltip struct {
	// Now returns the reference time for "last seen". Defaults to time.Now.
	Now func() time.Time

	node *topology.Node
}

// Show displays details of n.
func (t *Tooltip) Show(n *topology.Node) { t.node = n }

// Hide clears the tooltip if it currently shows n. Hiding a different node
// is a no-op, so an out event for a node the pointer already left does not
// hide its successor.
func (t *Tooltip) Hide(n *topology.Node) {
	if t.node == n {
		t.node = nil
	}
}

// Node returns the node being shown, or nil.
func (t *Tooltip) Node() *topology.Node { return t.node }

// Lines returns the text rows for n.
func (t *Tooltip) Lines(n *topology.Node) []string {
	d := n.Device
	lines := []string{d.DisplayName()}
	if d.IEEEAddr != "" && d.IEEEAddr != lines[0] {
		lines = append(lines, d.IEEEAddr)
	}
	typ := string(d.Type)
	if typ == "" {
		typ = "Unknown"
	}
	if d.NetworkAddress != 0 {
		typ = fmt.Sprintf("%s (0x%04x)", typ, d.NetworkAddress)
	}
	lines = append(lines, typ)
	if model := joinNonEmpty(d.ManufacturerName, d.ModelID); model != "" {
		lines = append(lines, model)
	}
	if d.LastSeen != nil {
		lines = append(lines, "last seen "+humanize.RelTime(*d.LastSeen, t.now(), "ago", "from now"))
	}
	return lines
}

// Render declares the tooltip group, or an empty group when hidden.
func (t *Tooltip) Render() *scene.VNode {
	g := scene.Group(ClassTooltip)
	n := t.node
	if n == nil {
		return g
	}

	lines := t.Lines(n)
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	x, y := n.X+OffsetX, n.Y+OffsetY
	g.Key = n.ID
	g.Children = append(g.Children, &scene.VNode{
		Tag:   scene.TagRect,
		Key:   "bg",
		Class: "tooltip-bg",
		X:     x,
		Y:     y,
		W:     float64(width)*CharWidth + 2*Padding,
		H:     float64(len(lines))*LineHeight + 2*Padding,
		Hit:   scene.NoHit,
	})
	for i, l := range lines {
		g.Children = append(g.Children, &scene.VNode{
			Tag:   scene.TagText,
			Class: "tooltip-line",
			X:     x + Padding,
			Y:     y + Padding + float64(i+1)*LineHeight - 3,
			Text:  l,
			Hit:   scene.NoHit,
		})
	}
	return g
}

func (t *Tooltip) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

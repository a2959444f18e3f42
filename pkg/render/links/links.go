// Package links renders the radio links between mesh nodes.
package links

import (
	"strconv"
	"strings"

	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Class names used by link elements.
const (
	ClassLink  = "link"
	ClassLinks = "links"
	ClassWeak  = "weak"
)

// WeakQuality is the link quality below which a link is marked weak.
const WeakQuality = 50

// LinkView renders links as lines between their endpoint nodes. Links whose
// endpoints are not in Nodes are skipped.
type LinkView struct {
	Links []*topology.Link
	Nodes map[string]*topology.Node
}

// New returns a view over g's links.
func New(g *topology.Graph) *LinkView {
	return &LinkView{Links: g.Links, Nodes: g.Index()}
}

// Render declares a <g class="links"> with one line per link. Links are
// keyed by their endpoints so reordering keeps element identity.
func (v *LinkView) Render() *scene.VNode {
	children := make([]*scene.VNode, 0, len(v.Links))
	seen := make(map[string]int, len(v.Links))
	for _, l := range v.Links {
		if l == nil {
			continue
		}
		src, tgt := v.Nodes[l.Source], v.Nodes[l.Target]
		if src == nil || tgt == nil {
			continue
		}
		key := l.Source + "->" + l.Target
		if n := seen[key]; n > 0 {
			key += "#" + strconv.Itoa(n)
		}
		seen[l.Source+"->"+l.Target]++

		children = append(children, &scene.VNode{
			Tag:   scene.TagLine,
			Key:   key,
			Class: Class(l, src, tgt),
			X:     src.X,
			Y:     src.Y,
			X2:    tgt.X,
			Y2:    tgt.Y,
			Hit:   scene.NoHit,
			Attrs: map[string]string{
				"data-lqi":   strconv.Itoa(l.LinkQuality),
				"data-depth": strconv.Itoa(l.Depth),
			},
		})
	}
	return scene.Group(ClassLinks, children...)
}

// Class resolves the class attribute of a link: the base class, the
// lower-cased link type and "weak" for poor link quality.
func Class(l *topology.Link, src, tgt *topology.Node) string {
	parts := []string{ClassLink}
	if t := topology.LinkType(l, src, tgt); t != "" {
		parts = append(parts, strings.ToLower(t))
	}
	if Weak(l) {
		parts = append(parts, ClassWeak)
	}
	return strings.Join(parts, " ")
}

// Weak reports whether l's link quality is below [WeakQuality].
func Weak(l *topology.Link) bool { return l.LinkQuality < WeakQuality }

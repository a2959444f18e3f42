package topology

import (
	"slices"
	"strings"
	"time"
)

// =============================================================================
// Device Types
// =============================================================================

// DeviceType classifies a device by its role in the mesh.
type DeviceType string

// Well-known device types.
const (
	Coordinator DeviceType = "Coordinator"
	Router      DeviceType = "Router"
	EndDevice   DeviceType = "EndDevice"
)

// KnownTypes lists the device types meshmap has dedicated styles for.
var KnownTypes = []DeviceType{Coordinator, Router, EndDevice}

// IsKnown reports whether t is one of [KnownTypes].
func (t DeviceType) IsKnown() bool {
	return slices.Contains(KnownTypes, t)
}

// String returns the type name.
func (t DeviceType) String() string { return string(t) }

// =============================================================================
// Device
// =============================================================================

// Device describes the hardware behind a node.
type Device struct {
	IEEEAddr         string     `json:"ieeeAddr" yaml:"ieeeAddr" toml:"ieeeAddr" bson:"ieeeAddr"`
	FriendlyName     string     `json:"friendlyName,omitempty" yaml:"friendlyName,omitempty" toml:"friendlyName,omitempty" bson:"friendlyName,omitempty"`
	Type             DeviceType `json:"type" yaml:"type" toml:"type" bson:"type"`
	NetworkAddress   int        `json:"networkAddress,omitempty" yaml:"networkAddress,omitempty" toml:"networkAddress,omitempty" bson:"networkAddress,omitempty"`
	ManufacturerName string     `json:"manufacturerName,omitempty" yaml:"manufacturerName,omitempty" toml:"manufacturerName,omitempty" bson:"manufacturerName,omitempty"`
	ModelID          string     `json:"modelID,omitempty" yaml:"modelID,omitempty" toml:"modelID,omitempty" bson:"modelID,omitempty"`
	LastSeen         *time.Time `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty" toml:"lastSeen,omitempty" bson:"lastSeen,omitempty"`
}

// DisplayName returns the friendly name if set, otherwise the IEEE address.
func (d *Device) DisplayName() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.IEEEAddr
}

// =============================================================================
// Node
// =============================================================================

// Node is one device in the topology and one particle in the simulation.
//
// X, Y, VX and VY are written by the simulation on every tick. FX and FY,
// when non-nil, pin the node: the simulation copies them into X and Y and
// stops integrating its velocity.
type Node struct {
	ID     string   `json:"id"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	VX     float64  `json:"vx"`
	VY     float64  `json:"vy"`
	FX     *float64 `json:"fx,omitempty"`
	FY     *float64 `json:"fy,omitempty"`
	Device Device   `json:"device"`
}

// Type returns the node's device type.
func (n *Node) Type() DeviceType { return n.Device.Type }

// Pinned reports whether the node has a fixed position.
func (n *Node) Pinned() bool { return n.FX != nil && n.FY != nil }

// Pin fixes the node at (x, y).
func (n *Node) Pin(x, y float64) {
	n.FX, n.FY = &x, &y
}

// Unpin clears the fixed position, returning the node to free integration.
func (n *Node) Unpin() {
	n.FX, n.FY = nil, nil
}

// =============================================================================
// Link
// =============================================================================

// Link is a radio link between two nodes. Source and Target hold node IDs.
type Link struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	LinkQuality  int    `json:"linkquality"`
	Depth        int    `json:"depth"`
	Relationship int    `json:"relationship"`
	Type         string `json:"type,omitempty"`
}

// LinkType derives the link class from the endpoint device types, e.g.
// "Coordinator2Router". Links carrying an explicit Type keep it.
func LinkType(l *Link, source, target *Node) string {
	if l.Type != "" {
		return l.Type
	}
	if source == nil || target == nil {
		return ""
	}
	return string(source.Type()) + "2" + string(target.Type())
}

// =============================================================================
// Graph
// =============================================================================

// Graph is one snapshot of the mesh network.
type Graph struct {
	Nodes     []*Node   `json:"nodes"`
	Links     []*Link   `json:"links"`
	Timestamp time.Time `json:"timestamp"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Index returns the nodes keyed by ID.
func (g *Graph) Index() map[string]*Node {
	idx := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// CountByType returns how many nodes of each device type the graph holds.
func (g *Graph) CountByType() map[DeviceType]int {
	counts := make(map[DeviceType]int)
	for _, n := range g.Nodes {
		counts[n.Type()]++
	}
	return counts
}

// Clone returns a deep copy of the graph. Positions and pins are copied too,
// so the clone can seed a new simulation without sharing records.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:     make([]*Node, len(g.Nodes)),
		Links:     make([]*Link, len(g.Links)),
		Timestamp: g.Timestamp,
	}
	for i, n := range g.Nodes {
		c := *n
		if n.FX != nil {
			fx := *n.FX
			c.FX = &fx
		}
		if n.FY != nil {
			fy := *n.FY
			c.FY = &fy
		}
		if n.Device.LastSeen != nil {
			ls := *n.Device.LastSeen
			c.Device.LastSeen = &ls
		}
		out.Nodes[i] = &c
	}
	for i, l := range g.Links {
		c := *l
		out.Links[i] = &c
	}
	return out
}

// SortNodes orders nodes by ID. Rendering uses identity keys, so this only
// matters for deterministic output.
func (g *Graph) SortNodes() {
	slices.SortFunc(g.Nodes, func(a, b *Node) int {
		return strings.Compare(a.ID, b.ID)
	})
}

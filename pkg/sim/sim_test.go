package sim

import (
	"math"
	"testing"

	"github.com/matzehuels/meshmap/pkg/topology"
)

func testGraph() *topology.Graph {
	return &topology.Graph{
		Nodes: []*topology.Node{
			{ID: "c", Device: topology.Device{Type: topology.Coordinator}},
			{ID: "r", Device: topology.Device{Type: topology.Router}},
			{ID: "e", Device: topology.Device{Type: topology.EndDevice}},
		},
		Links: []*topology.Link{
			{Source: "r", Target: "c"},
			{Source: "e", Target: "r"},
		},
	}
}

func TestNewPlacesNodes(t *testing.T) {
	s := New(testGraph(), Options{})
	seen := make(map[[2]float64]bool)
	for _, n := range s.Nodes() {
		if n.X == 0 && n.Y == 0 {
			t.Errorf("node %s was not placed", n.ID)
		}
		p := [2]float64{n.X, n.Y}
		if seen[p] {
			t.Errorf("node %s shares position %v", n.ID, p)
		}
		seen[p] = true
		if math.Hypot(n.X-400, n.Y-300) > 50 {
			t.Errorf("node %s placed at (%v, %v), want near center", n.ID, n.X, n.Y)
		}
	}
}

func TestNewKeepsExistingPositions(t *testing.T) {
	g := testGraph()
	g.Nodes[0].X, g.Nodes[0].Y = 12, 34
	s := New(g, Options{})
	if n := s.Node("c"); n.X != 12 || n.Y != 34 {
		t.Errorf("position = (%v, %v), want (12, 34)", n.X, n.Y)
	}
}

func TestNewSkipsDanglingLinks(t *testing.T) {
	g := testGraph()
	g.Links = append(g.Links, &topology.Link{Source: "c", Target: "ghost"})
	s := New(g, Options{})
	if len(s.links) != 2 {
		t.Errorf("links = %d, want 2", len(s.links))
	}
	s.Tick()
}

func TestSettleStops(t *testing.T) {
	s := New(testGraph(), Options{})
	ticks := s.Settle(10000)

	if !s.Stopped() {
		t.Fatal("simulation should stop after cooling")
	}
	if ticks < 250 || ticks > 350 {
		t.Errorf("Settle() = %d ticks, want about 300", ticks)
	}
	if s.Alpha() >= s.Options().AlphaMin {
		t.Errorf("Alpha() = %v, want below %v", s.Alpha(), s.Options().AlphaMin)
	}
	if s.Advance() {
		t.Error("Advance() on a stopped simulation should not tick")
	}
	for _, n := range s.Nodes() {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			t.Errorf("node %s has non-finite position (%v, %v)", n.ID, n.X, n.Y)
		}
	}
}

func TestCenterForce(t *testing.T) {
	s := New(testGraph(), Options{Width: 200, Height: 100})
	s.Settle(1000)

	var sx, sy float64
	for _, n := range s.Nodes() {
		sx += n.X
		sy += n.Y
	}
	cx, cy := sx/3, sy/3
	if math.Abs(cx-100) > 1 || math.Abs(cy-50) > 1 {
		t.Errorf("mean position = (%.2f, %.2f), want about (100, 50)", cx, cy)
	}
}

func TestLinkRestLength(t *testing.T) {
	g := &topology.Graph{
		Nodes: []*topology.Node{{ID: "a"}, {ID: "b"}},
		Links: []*topology.Link{{Source: "a", Target: "b"}},
	}
	s := New(g, Options{LinkDistance: 60, ChargeStrength: -1e-9, CollideRadius: -1})
	s.Settle(1000)

	a, b := s.Node("a"), s.Node("b")
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); math.Abs(d-60) > 2 {
		t.Errorf("link length = %.2f, want about 60", d)
	}
}

func TestCollideSeparatesOverlap(t *testing.T) {
	g := &topology.Graph{Nodes: []*topology.Node{
		{ID: "a", X: 100, Y: 100},
		{ID: "b", X: 100, Y: 100},
	}}
	s := New(g, Options{ChargeStrength: -1e-9, CollideRadius: 10})
	s.Settle(1000)

	a, b := s.Node("a"), s.Node("b")
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < 15 {
		t.Errorf("distance = %.2f, want nodes pushed apart", d)
	}
}

func TestPinnedNodeHoldsPosition(t *testing.T) {
	s := New(testGraph(), Options{})
	s.Pin("r", 50, 60)
	for range 50 {
		s.Tick()
	}
	n := s.Node("r")
	if n.X != 50 || n.Y != 60 || n.VX != 0 || n.VY != 0 {
		t.Errorf("pinned node at (%v, %v) v=(%v, %v), want (50, 60) at rest", n.X, n.Y, n.VX, n.VY)
	}

	s.Unpin("r")
	if n.Pinned() {
		t.Error("Unpin should clear the pin")
	}
}

func TestPinUnknownIgnored(t *testing.T) {
	s := New(testGraph(), Options{})
	s.Pin("nope", 1, 2)
	s.Unpin("nope")
	for _, n := range s.Nodes() {
		if n.Pinned() {
			t.Errorf("node %s pinned by unknown ID", n.ID)
		}
	}
}

func TestAlphaTargetKeepsRunning(t *testing.T) {
	s := New(testGraph(), Options{})
	s.SetAlphaTarget(0.3)
	s.Settle(2000)

	if s.Stopped() {
		t.Fatal("simulation with alphaTarget 0.3 must not stop")
	}
	if math.Abs(s.Alpha()-0.3) > 0.01 {
		t.Errorf("Alpha() = %v, want about 0.3", s.Alpha())
	}
}

func TestRestartAfterStop(t *testing.T) {
	s := New(testGraph(), Options{})
	s.Settle(1000)
	if !s.Stopped() {
		t.Fatal("expected stopped simulation")
	}

	s.SetAlphaTarget(0.3)
	s.Restart()
	if !s.Advance() {
		t.Error("Advance() after Restart should tick")
	}
	if s.Alpha() < s.Options().AlphaMin {
		t.Errorf("Alpha() = %v, want reheating", s.Alpha())
	}
}

func TestSetAlphaClamps(t *testing.T) {
	s := New(testGraph(), Options{})
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		s.SetAlphaTarget(tt.in)
		if got := s.AlphaTarget(); got != tt.want {
			t.Errorf("SetAlphaTarget(%v) -> %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a := New(testGraph(), Options{Seed: 7})
	b := New(testGraph(), Options{Seed: 7})
	a.Settle(500)
	b.Settle(500)
	for i := range a.Nodes() {
		na, nb := a.Nodes()[i], b.Nodes()[i]
		if na.X != nb.X || na.Y != nb.Y {
			t.Errorf("node %s diverged: (%v, %v) vs (%v, %v)", na.ID, na.X, na.Y, nb.X, nb.Y)
		}
	}
}

func TestReplaceCarriesState(t *testing.T) {
	s := New(testGraph(), Options{})
	s.Settle(1000)
	s.Pin("c", 10, 20)
	old := s.Node("r")
	oldX, oldY := old.X, old.Y

	next := testGraph()
	next.Nodes = append(next.Nodes, &topology.Node{ID: "new"})
	s.Replace(next)

	if n := s.Node("r"); n == old || n.X != oldX || n.Y != oldY {
		t.Errorf("replaced node at (%v, %v), want carried (%v, %v)", n.X, n.Y, oldX, oldY)
	}
	if !s.Node("c").Pinned() {
		t.Error("pin should carry over")
	}
	if n := s.Node("new"); n == nil || (n.X == 0 && n.Y == 0) {
		t.Error("new node should be placed")
	}
	if s.Stopped() || s.Alpha() < 0.3 {
		t.Errorf("Replace should reheat, alpha = %v stopped = %v", s.Alpha(), s.Stopped())
	}
	if len(s.Nodes()) != 4 {
		t.Errorf("Nodes() = %d, want 4", len(s.Nodes()))
	}
}

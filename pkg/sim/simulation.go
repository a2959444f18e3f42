package sim

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/meshmap/pkg/topology"
)

const (
	initialRadius = 10.0
	initialAngle  = math.Pi * (3 - 2.2360679774997896) // golden angle
)

// link is a topology link resolved to its endpoints.
type link struct {
	src, tgt *topology.Node
	strength float64
	bias     float64
}

// Simulation is a force-directed layout over a set of nodes.
type Simulation struct {
	opts  Options
	nodes []*topology.Node
	index map[string]*topology.Node
	links []link
	rng   *rand.Rand

	alpha       float64
	alphaTarget float64
	stopped     bool
	ticks       int
}

// New creates a simulation over g's nodes. Nodes without a position are
// placed on a phyllotaxis spiral around the canvas center. The graph's nodes
// are mutated in place; links referring to unknown nodes are skipped.
func New(g *topology.Graph, opts Options) *Simulation {
	opts = opts.WithDefaults()
	s := &Simulation{
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		alpha: 1,
	}
	s.load(g)
	return s
}

// Options returns the effective options.
func (s *Simulation) Options() Options { return s.opts }

// Nodes returns the simulated nodes in input order.
func (s *Simulation) Nodes() []*topology.Node { return s.nodes }

// Node returns the node with the given ID, or nil.
func (s *Simulation) Node(id string) *topology.Node { return s.index[id] }

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the temperature alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlpha sets the current temperature, clamped to [0, 1].
func (s *Simulation) SetAlpha(a float64) {
	s.alpha = clamp01(a)
}

// SetAlphaTarget sets the temperature alpha decays toward, clamped to
// [0, 1].
func (s *Simulation) SetAlphaTarget(target float64) {
	s.alphaTarget = clamp01(target)
}

// Restart resumes ticking after the simulation stopped. It does not change
// alpha; raise alpha or alphaTarget to reheat.
func (s *Simulation) Restart() {
	s.stopped = false
}

// Stopped reports whether alpha fell below AlphaMin since the last restart.
func (s *Simulation) Stopped() bool { return s.stopped }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Pin fixes node id at (x, y). Unknown IDs are ignored.
func (s *Simulation) Pin(id string, x, y float64) {
	if n := s.index[id]; n != nil {
		n.Pin(x, y)
	}
}

// Unpin releases node id. Unknown IDs are ignored.
func (s *Simulation) Unpin(id string) {
	if n := s.index[id]; n != nil {
		n.Unpin()
	}
}

// Replace swaps in a new graph. Nodes whose ID existed before keep their
// position, velocity and pin; new nodes are placed like in [New]. Alpha is
// raised to at least 0.3 and the simulation restarted so the layout adapts.
func (s *Simulation) Replace(g *topology.Graph) {
	prev := s.index
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		if old := prev[n.ID]; old != nil && old != n {
			n.X, n.Y, n.VX, n.VY = old.X, old.Y, old.VX, old.VY
			n.FX, n.FY = old.FX, old.FY
		}
	}
	s.load(g)
	if s.alpha < 0.3 {
		s.alpha = 0.3
	}
	s.stopped = false
}

// Advance runs one tick unless the simulation is stopped and reports
// whether it ticked. It stops the simulation once alpha drops below
// AlphaMin.
func (s *Simulation) Advance() bool {
	if s.stopped {
		return false
	}
	s.Tick()
	if s.alpha < s.opts.AlphaMin {
		s.stopped = true
	}
	return true
}

// Tick runs one integration step regardless of the stopped state.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	s.ticks++

	s.applyLinks()
	s.applyCharge()
	s.applyCollide()
	s.applyCenter()

	keep := 1 - s.opts.VelocityDecay
	for _, n := range s.nodes {
		if n.FX != nil {
			n.X, n.VX = *n.FX, 0
		} else {
			n.VX *= keep
			n.X += n.VX
		}
		if n.FY != nil {
			n.Y, n.VY = *n.FY, 0
		} else {
			n.VY *= keep
			n.Y += n.VY
		}
	}
}

// Settle ticks until the simulation stops or max ticks ran, and returns the
// number of ticks.
func (s *Simulation) Settle(max int) int {
	n := 0
	for n < max && s.Advance() {
		n++
	}
	return n
}

func (s *Simulation) load(g *topology.Graph) {
	s.nodes = nil
	s.index = make(map[string]*topology.Node)
	if g != nil {
		s.nodes = make([]*topology.Node, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			if n == nil {
				continue
			}
			if _, dup := s.index[n.ID]; dup {
				continue
			}
			s.nodes = append(s.nodes, n)
			s.index[n.ID] = n
		}
	}

	cx, cy := s.opts.Width/2, s.opts.Height/2
	for i, n := range s.nodes {
		if n.FX != nil {
			n.X = *n.FX
		}
		if n.FY != nil {
			n.Y = *n.FY
		}
		if n.X == 0 && n.Y == 0 && !n.Pinned() {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = cx + r*math.Cos(a)
			n.Y = cy + r*math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}

	s.links = nil
	if g == nil {
		return
	}
	degree := make(map[*topology.Node]int)
	for _, l := range g.Links {
		if l == nil {
			continue
		}
		src, tgt := s.index[l.Source], s.index[l.Target]
		if src == nil || tgt == nil {
			continue
		}
		degree[src]++
		degree[tgt]++
		s.links = append(s.links, link{src: src, tgt: tgt})
	}
	for i := range s.links {
		l := &s.links[i]
		ds, dt := float64(degree[l.src]), float64(degree[l.tgt])
		l.bias = ds / (ds + dt)
		if s.opts.LinkStrength > 0 {
			l.strength = s.opts.LinkStrength
		} else {
			l.strength = 1 / math.Min(ds, dt)
		}
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

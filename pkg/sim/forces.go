package sim

import "math"

// applyLinks pulls linked nodes toward LinkDistance. The correction is split
// by degree so hubs move less than leaves.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		if l.src == l.tgt {
			continue
		}
		x := l.tgt.X + l.tgt.VX - l.src.X - l.src.VX
		y := l.tgt.Y + l.tgt.VY - l.src.Y - l.src.VY
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - s.opts.LinkDistance) / d * s.alpha * l.strength
		x, y = x*k, y*k
		l.tgt.VX -= x * l.bias
		l.tgt.VY -= y * l.bias
		l.src.VX += x * (1 - l.bias)
		l.src.VY += y * (1 - l.bias)
	}
}

// applyCharge applies pairwise many-body forces. Networks are small enough
// that the quadratic pass beats building a quadtree.
func (s *Simulation) applyCharge() {
	const distanceMin2 = 1.0
	maxD2 := math.Inf(1)
	if s.opts.ChargeDistanceMax > 0 {
		maxD2 = s.opts.ChargeDistanceMax * s.opts.ChargeDistanceMax
	}
	strength := s.opts.ChargeStrength * s.alpha

	for i, a := range s.nodes {
		for j, b := range s.nodes {
			if i == j {
				continue
			}
			x, y := b.X-a.X, b.Y-a.Y
			l := x*x + y*y
			if l >= maxD2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := strength / l
			a.VX += x * w
			a.VY += y * w
		}
	}
}

// applyCollide pushes apart nodes closer than twice CollideRadius, using
// positions advanced by their velocity.
func (s *Simulation) applyCollide() {
	r := s.opts.CollideRadius
	if r <= 0 {
		return
	}
	reach := 2 * r
	for i, a := range s.nodes {
		xi, yi := a.X+a.VX, a.Y+a.VY
		for _, b := range s.nodes[i+1:] {
			x := xi - b.X - b.VX
			y := yi - b.Y - b.VY
			l := x*x + y*y
			if l >= reach*reach {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (reach - d) / d * s.opts.CollideStrength
			x, y = x*k, y*k
			// Equal radii split the correction evenly.
			a.VX += x * 0.5
			a.VY += y * 0.5
			b.VX -= x * 0.5
			b.VY -= y * 0.5
		}
	}
}

// applyCenter translates all nodes so their mean sits at the canvas center.
func (s *Simulation) applyCenter() {
	if len(s.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range s.nodes {
		sx += n.X
		sy += n.Y
	}
	n := float64(len(s.nodes))
	dx := sx/n - s.opts.Width/2
	dy := sy/n - s.opts.Height/2
	for _, node := range s.nodes {
		node.X -= dx
		node.Y -= dy
	}
}

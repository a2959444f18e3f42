package shape

import (
	"math"
	"strconv"
	"strings"
)

// Sample is one polar vertex of a radial line.
type Sample struct {
	Angle  float64 // radians, clockwise from 12 o'clock
	Radius float64
}

// Point is a cartesian vertex in the glyph's local coordinates.
type Point struct {
	X, Y float64
}

// Path is an immutable polyline produced from polar samples.
type Path struct {
	samples []Sample
	points  []Point
}

// RadialLine converts samples into a path. It returns nil when there are no
// samples or any angle or radius is not finite.
func RadialLine(samples []Sample) *Path {
	if len(samples) == 0 {
		return nil
	}
	p := &Path{
		samples: make([]Sample, len(samples)),
		points:  make([]Point, len(samples)),
	}
	for i, s := range samples {
		if !finite(s.Angle) || !finite(s.Radius) {
			return nil
		}
		p.samples[i] = s
		p.points[i] = Point{
			X: s.Radius * math.Sin(s.Angle),
			Y: -s.Radius * math.Cos(s.Angle),
		}
	}
	return p
}

// Samples returns a copy of the polar samples the path was built from.
func (p *Path) Samples() []Sample {
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Points returns a copy of the cartesian vertices.
func (p *Path) Points() []Point {
	out := make([]Point, len(p.points))
	copy(out, p.points)
	return out
}

// D renders the SVG path data: a move to the first vertex followed by a line
// to each remaining vertex.
func (p *Path) D() string {
	var b strings.Builder
	for i, pt := range p.points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatNum(pt.X))
		b.WriteByte(',')
		b.WriteString(formatNum(pt.Y))
	}
	return b.String()
}

// Closed reports whether the last vertex coincides with the first.
func (p *Path) Closed() bool {
	if len(p.points) < 2 {
		return false
	}
	first, last := p.points[0], p.points[len(p.points)-1]
	return math.Abs(first.X-last.X) < 1e-9 && math.Abs(first.Y-last.Y) < 1e-9
}

// Contains reports whether (x, y) lies inside the outline using the even-odd
// rule. Works for concave outlines such as stars.
func (p *Path) Contains(x, y float64) bool {
	n := len(p.points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := p.points[i], p.points[j]
		if (pi.Y > y) != (pj.Y > y) &&
			x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (p *Path) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	return minX, minY, maxX, maxY
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// formatNum prints v with at most three decimals and no trailing zeros.
func formatNum(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0" // also folds -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

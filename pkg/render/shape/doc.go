// Package shape generates SVG path geometry for node glyphs.
//
// Paths are built from polar samples the way a radial line generator does:
// angle 0 points up (12 o'clock) and angles grow clockwise, so a sample
// (a, r) maps to x = r·sin(a), y = -r·cos(a).
//
// [StarOutline] is the only glyph meshmap needs today: a five-pointed star
// alternating between an outer and an inner radius.
//
//	star := shape.StarOutline(14, 5)
//	if star != nil {
//	    fmt.Println(star.D()) // "M0,-14L2.939,-4.045L13.315,-4.326..."
//	}
package shape

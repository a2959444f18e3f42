package shape

import "math"

// StarPoints is the number of tips of a star outline.
const StarPoints = 5

// StarSamples is the number of polar samples in a star outline: one per tip
// and one per notch, plus a closing sample at a full turn.
const StarSamples = 2*StarPoints + 1

// StarOutline returns a closed star outline alternating between outer and
// inner radius, starting with a tip at 12 o'clock. Samples sit at multiples
// of 0.2π and the last one lands exactly on 2π with the outer radius, so the
// outline ends where it started.
//
// It returns nil if either radius is not finite; callers draw nothing for
// such a node.
func StarOutline(outer, inner float64) *Path {
	samples := make([]Sample, StarSamples)
	for k := range samples {
		r := outer
		if k%2 == 1 {
			r = inner
		}
		samples[k] = Sample{
			Angle:  math.Pi * float64(k) / StarPoints,
			Radius: r,
		}
	}
	return RadialLine(samples)
}

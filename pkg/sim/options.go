package sim

import "math"

// Options configures a [Simulation]. Zero fields take the value from
// [DefaultOptions].
type Options struct {
	// Width and Height define the canvas; the center force targets its
	// middle.
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	// LinkDistance is the rest length of a link.
	LinkDistance float64 `toml:"link_distance"`
	// LinkStrength overrides the per-link stiffness. Zero uses
	// 1/min(degree(source), degree(target)).
	LinkStrength float64 `toml:"link_strength"`

	// ChargeStrength is the many-body strength; negative values repel.
	ChargeStrength float64 `toml:"charge_strength"`
	// ChargeDistanceMax bounds the many-body interaction. Zero is unbounded.
	ChargeDistanceMax float64 `toml:"charge_distance_max"`

	// CollideRadius is the exclusion radius around each node. Negative
	// disables collision.
	CollideRadius float64 `toml:"collide_radius"`
	// CollideStrength scales overlap correction, in (0, 1].
	CollideStrength float64 `toml:"collide_strength"`

	AlphaMin      float64 `toml:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay"`

	// Seed makes jiggle and initial placement reproducible.
	Seed uint64 `toml:"seed"`
}

// DefaultOptions returns the engine defaults: an 800x600 canvas, 300 ticks
// from alpha 1 to AlphaMin, and forces tuned for mesh networks of tens of
// devices.
func DefaultOptions() Options {
	return Options{
		Width:           800,
		Height:          600,
		LinkDistance:    60,
		ChargeStrength:  -120,
		CollideRadius:   16,
		CollideStrength: 0.7,
		AlphaMin:        0.001,
		AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:   0.4,
		Seed:            1,
	}
}

// WithDefaults returns o with zero or out-of-range fields replaced by the
// value from [DefaultOptions].
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Width > 0 {
		d.Width = o.Width
	}
	if o.Height > 0 {
		d.Height = o.Height
	}
	if o.LinkDistance > 0 {
		d.LinkDistance = o.LinkDistance
	}
	if o.LinkStrength > 0 {
		d.LinkStrength = o.LinkStrength
	}
	if o.ChargeStrength != 0 {
		d.ChargeStrength = o.ChargeStrength
	}
	if o.ChargeDistanceMax > 0 {
		d.ChargeDistanceMax = o.ChargeDistanceMax
	}
	if o.CollideRadius != 0 {
		d.CollideRadius = o.CollideRadius
	}
	if o.CollideStrength > 0 && o.CollideStrength <= 1 {
		d.CollideStrength = o.CollideStrength
	}
	if o.AlphaMin > 0 {
		d.AlphaMin = o.AlphaMin
	}
	if o.AlphaDecay > 0 && o.AlphaDecay < 1 {
		d.AlphaDecay = o.AlphaDecay
	}
	if o.VelocityDecay > 0 && o.VelocityDecay < 1 {
		d.VelocityDecay = o.VelocityDecay
	}
	if o.Seed != 0 {
		d.Seed = o.Seed
	}
	return d
}

// Package sim implements the force-directed layout engine that positions
// mesh nodes.
//
// A [Simulation] owns velocity-Verlet style integration over the nodes of a
// [topology.Graph] with four forces: links pull connected devices toward a
// rest distance, a many-body charge pushes every pair apart, a centering
// force keeps the mean position at the middle of the canvas, and a
// collision force separates overlapping glyphs.
//
// The simulation "cools" over time: every tick moves alpha toward
// alphaTarget by alphaDecay, and force contributions scale with alpha. When
// alpha falls below AlphaMin the simulation stops until [Simulation.Restart]
// is called. Dragging raises alphaTarget so the layout stays live while a
// node is held.
//
// Pinned nodes ([topology.Node.FX] and FY set) are placed at their pin on
// every tick and have zero velocity. [Simulation.Pin] and
// [Simulation.Unpin] are the only way callers should change pins.
//
// A Simulation is not safe for concurrent use; pkg/mapview serializes
// access on its event loop.
package sim

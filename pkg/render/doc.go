// Package render turns a laid-out mesh into pictures.
//
// The interactive map is a tree of retained elements (see [scene]) built by
// the view packages:
//
//   - [shape]: path generators for node glyphs (the coordinator star)
//   - [nodes]: node glyphs, hover callbacks and drag gestures
//   - [links]: radio links as lines between node centers
//   - [tooltip]: the device detail box shown on hover
//
// Static exports go through [nodelink], which hands pinned node positions
// to Graphviz, or through [ToPDF] and [ToPNG], which convert the map SVG
// with the external rsvg-convert tool:
//
//	svg := m.SVG()
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [scene]: github.com/matzehuels/meshmap/pkg/render/scene
// [shape]: github.com/matzehuels/meshmap/pkg/render/shape
// [nodes]: github.com/matzehuels/meshmap/pkg/render/nodes
// [links]: github.com/matzehuels/meshmap/pkg/render/links
// [tooltip]: github.com/matzehuels/meshmap/pkg/render/tooltip
// [nodelink]: github.com/matzehuels/meshmap/pkg/render/nodelink
package render

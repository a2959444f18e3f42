// Package nodelink renders a laid-out mesh as a Graphviz node-link diagram.
//
// # Overview
//
// The force simulation already decides where every device goes, so the
// DOT produced here pins each node with pos="x,y!" and the neato engine
// only draws. Graphviz then produces raster formats without any external
// tool, which the static exporter uses for PNG and JPG.
//
// # Usage
//
//	dot := nodelink.ToDOT(m.Graph(), nodelink.Options{Height: 600})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.Render(ctx, dot, nodelink.FormatPNG)
//
// Coordinates follow the map: origin top left, y growing downward. ToDOT
// flips them into Graphviz's y-up space.
package nodelink

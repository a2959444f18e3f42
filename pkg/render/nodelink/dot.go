package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/render/links"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Output formats understood by [Render].
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatJPG = "jpg"
)

var formats = map[string]graphviz.Format{
	FormatSVG: graphviz.SVG,
	FormatPNG: graphviz.PNG,
	FormatJPG: graphviz.JPG,
}

// Options configures DOT generation.
type Options struct {
	// Height is the canvas height in points, used to flip y. Zero keeps
	// coordinates as they are.
	Height float64

	// Labels prints display names next to the nodes.
	Labels bool
}

// fill colors match the map's default stylesheet.
var fills = map[topology.DeviceType]string{
	topology.Coordinator: "#f0b429",
	topology.Router:      "#2680c2",
	topology.EndDevice:   "#3ebd93",
}

const defaultFill = "#cbd2d9"

// ToDOT converts the graph's current positions into an undirected DOT graph
// for the neato engine. The coordinator is drawn as a star, every other
// node as a small circle, and weak links are dashed.
func ToDOT(g *topology.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  node [shape=circle, fixedsize=true, width=0.14, style=filled, color=white, penwidth=1.5, fontsize=9, label=\"\"];\n")
	buf.WriteString("  edge [color=\"#9aa5b1\", penwidth=1.5];\n")
	buf.WriteString("\n")

	index := make(map[string]*topology.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		index[n.ID] = n
		attrs := fmtAttrs(n, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		if index[l.Source] == nil || index[l.Target] == nil {
			continue
		}
		if links.Weak(l) {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed];\n", l.Source, l.Target)
		} else {
			fmt.Fprintf(&buf, "  %q -- %q;\n", l.Source, l.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n *topology.Node, opts Options) []string {
	y := n.Y
	if opts.Height > 0 {
		y = opts.Height - n.Y
	}
	fill, ok := fills[n.Type()]
	if !ok {
		fill = defaultFill
	}
	attrs := []string{
		fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(y)),
		fmt.Sprintf("fillcolor=%q", fill),
		fmt.Sprintf("tooltip=%q", n.Device.DisplayName()),
	}
	if n.Type() == topology.Coordinator {
		attrs = append(attrs, "shape=star", "width=0.39")
	}
	if opts.Labels {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", n.Device.DisplayName()))
	}
	return attrs
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Render lays out dot with neato and renders it in format (svg, png or jpg).
func Render(ctx context.Context, dot string, format string) ([]byte, error) {
	gvFormat, ok := formats[format]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported graphviz format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, FormatSVG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one
// sized in user units so the SVG scales like the live map.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

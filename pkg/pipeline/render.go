package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/render"
	"github.com/matzehuels/meshmap/pkg/render/nodelink"
)

// Layout is the JSON export: the map size and every node's settled
// position.
type Layout struct {
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
	Ticks  int                 `json:"ticks"`
	Nodes  []mapview.NodeState `json:"nodes"`
}

// Render generates output artifacts of m in the requested formats.
func Render(ctx context.Context, m *mapview.Map, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg, dot []byte
	getSVG := func() []byte {
		if svg == nil {
			svg = m.SVG()
		}
		return svg
	}
	getDOT := func() []byte {
		if dot == nil {
			_, h := m.Size()
			dot = []byte(nodelink.ToDOT(m.Graph(), nodelink.Options{Height: h, Labels: opts.Labels}))
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = getSVG()
		case FormatPNG:
			if opts.Scale > 0 {
				data, err = render.ToPNG(getSVG(), opts.Scale)
			} else {
				data, err = nodelink.Render(ctx, string(getDOT()), nodelink.FormatPNG)
			}
		case FormatJPG:
			data, err = nodelink.Render(ctx, string(getDOT()), nodelink.FormatJPG)
		case FormatPDF:
			data, err = render.ToPDF(getSVG())
		case FormatDOT:
			data = getDOT()
		case FormatJSON:
			data, err = marshalLayout(m)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func marshalLayout(m *mapview.Map) ([]byte, error) {
	f := m.Frame()
	w, h := m.Size()
	return json.MarshalIndent(Layout{
		Width:  w,
		Height: h,
		Ticks:  f.Tick,
		Nodes:  f.Nodes,
	}, "", "  ")
}

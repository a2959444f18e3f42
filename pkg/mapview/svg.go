package mapview

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultCSS styles the default class names. Custom style dictionaries need
// their own rules.
const DefaultCSS = `
.link { stroke: #9aa5b1; stroke-width: 1.5; stroke-opacity: 0.8; }
.link.weak { stroke-dasharray: 4 3; stroke-opacity: 0.5; }
.node { fill: #cbd2d9; stroke: #fff; stroke-width: 1.5; cursor: grab; }
.node.coordinator { fill: #f0b429; }
.node.router { fill: #2680c2; }
.node.end-device { fill: #3ebd93; }
.tooltip-bg { fill: #1f2933; fill-opacity: 0.92; rx: 4; }
.tooltip-line { fill: #f5f7fa; font: 11px sans-serif; }
`

// WriteSVG writes the current document as a standalone SVG file.
func (m *Map) WriteSVG(w io.Writer) error {
	var buf bytes.Buffer
	m.writeSVG(&buf)
	_, err := w.Write(buf.Bytes())
	return err
}

// SVG returns the current document as a standalone SVG file.
func (m *Map) SVG() []byte {
	var buf bytes.Buffer
	m.writeSVG(&buf)
	return buf.Bytes()
}

func (m *Map) writeSVG(buf *bytes.Buffer) {
	w, h := m.Size()
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	buf.WriteString("  <style>")
	buf.WriteString(strings.TrimSpace(DefaultCSS))
	buf.WriteString("</style>\n")
	m.doc.WriteMarkup(buf)
	buf.WriteString("</svg>\n")
}

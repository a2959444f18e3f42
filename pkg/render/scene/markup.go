package scene

import (
	"bytes"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"
)

// WriteMarkup writes the element tree as SVG markup (without the enclosing
// <svg> element). Keyed elements carry a data-key attribute so browser
// clients can name the element a pointer event landed on.
func (d *Document) WriteMarkup(buf *bytes.Buffer) {
	if d.root == nil {
		return
	}
	writeElement(buf, d.root, 1)
}

func writeElement(buf *bytes.Buffer, e *Element, depth int) {
	indent := strings.Repeat("  ", depth)
	p := &e.props

	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(string(e.tag))
	writeAttr(buf, "id", p.ID)
	writeAttr(buf, "class", p.Class)
	writeAttr(buf, "data-key", e.key)

	switch e.tag {
	case TagCircle:
		fmt.Fprintf(buf, ` cx="%.2f" cy="%.2f" r="%.2f"`, p.X, p.Y, p.R)
	case TagPath:
		writeAttr(buf, "d", p.D)
		if p.X != 0 || p.Y != 0 {
			fmt.Fprintf(buf, ` transform="translate(%.2f,%.2f)"`, p.X, p.Y)
		}
	case TagLine:
		fmt.Fprintf(buf, ` x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"`, p.X, p.Y, p.X2, p.Y2)
	case TagText:
		fmt.Fprintf(buf, ` x="%.2f" y="%.2f"`, p.X, p.Y)
	case TagRect:
		fmt.Fprintf(buf, ` x="%.2f" y="%.2f" width="%.2f" height="%.2f"`, p.X, p.Y, p.W, p.H)
	case TagGroup:
		if p.X != 0 || p.Y != 0 {
			fmt.Fprintf(buf, ` transform="translate(%.2f,%.2f)"`, p.X, p.Y)
		}
	}
	if p.Hit == NoHit {
		writeAttr(buf, "pointer-events", "none")
	}
	for _, k := range slices.Sorted(maps.Keys(p.Attrs)) {
		writeAttr(buf, k, p.Attrs[k])
	}

	switch {
	case e.tag == TagText:
		fmt.Fprintf(buf, ">%s</text>\n", html.EscapeString(p.Text))
	case len(e.children) == 0:
		buf.WriteString("/>\n")
	default:
		buf.WriteString(">\n")
		for _, c := range e.children {
			writeElement(buf, c, depth+1)
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, e.tag)
	}
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(buf, ` %s="%s"`, name, html.EscapeString(value))
}

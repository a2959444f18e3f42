package nodes

import (
	"maps"
	"strings"

	"github.com/matzehuels/meshmap/pkg/topology"
)

// Class names used by the glyphs.
const (
	ClassNode  = "node"  // every node glyph
	ClassNodes = "nodes" // the group holding all glyphs
)

// Styles maps a device type name to a class name. Missing keys are not an
// error; the glyph just gets no type-specific class.
type Styles map[string]string

// DefaultStyles returns the class dictionary for the well-known device types.
func DefaultStyles() Styles {
	return Styles{
		string(topology.Coordinator): "coordinator",
		string(topology.Router):      "router",
		string(topology.EndDevice):   "end-device",
	}
}

// Class returns the class mapped to key.
func (s Styles) Class(key string) (string, bool) {
	c, ok := s[key]
	return c, ok && c != ""
}

// Merge returns a copy of s overlaid with other.
func (s Styles) Merge(other Styles) Styles {
	out := make(Styles, len(s)+len(other))
	maps.Copy(out, s)
	maps.Copy(out, other)
	return out
}

// ClassNames resolves the class attribute of a glyph for device type key.
func (s Styles) ClassNames(base, key string) string {
	c, _ := s.Class(key)
	return joinClasses(base, c)
}

// joinClasses joins the non-empty names with single spaces.
func joinClasses(names ...string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

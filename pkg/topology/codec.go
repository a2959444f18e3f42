package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/meshmap/pkg/errors"
)

// Format is a topology file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported topology file extension %q", filepath.Ext(path))
	}
}

// =============================================================================
// Wire Types
// =============================================================================

type wireEndpoint struct {
	IEEEAddr       string `json:"ieeeAddr" yaml:"ieeeAddr" toml:"ieeeAddr" bson:"ieeeAddr"`
	NetworkAddress int    `json:"networkAddress,omitempty" yaml:"networkAddress,omitempty" toml:"networkAddress,omitempty" bson:"networkAddress,omitempty"`
}

type wireLink struct {
	Source       wireEndpoint `json:"source" yaml:"source" toml:"source" bson:"source"`
	Target       wireEndpoint `json:"target" yaml:"target" toml:"target" bson:"target"`
	LinkQuality  int          `json:"linkquality,omitempty" yaml:"linkquality,omitempty" toml:"linkquality,omitempty" bson:"linkquality,omitempty"`
	LQI          int          `json:"lqi,omitempty" yaml:"lqi,omitempty" toml:"lqi,omitempty" bson:"lqi,omitempty"`
	Depth        int          `json:"depth" yaml:"depth" toml:"depth" bson:"depth"`
	Relationship int          `json:"relationship" yaml:"relationship" toml:"relationship" bson:"relationship"`
	Type         string       `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" bson:"type,omitempty"`
}

// Document is the networkmap wire shape shared by files and database
// backends. Sources decode into it and call [Document.Graph].
type Document struct {
	Nodes     []Device   `json:"nodes" yaml:"nodes" toml:"nodes" bson:"nodes"`
	Links     []wireLink `json:"links" yaml:"links" toml:"links" bson:"links"`
	Timestamp time.Time  `json:"timestamp,omitempty" yaml:"timestamp,omitempty" toml:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// Graph converts the document into a validated graph.
func (d *Document) Graph() (*Graph, error) {
	g := &Graph{
		Nodes:     make([]*Node, 0, len(d.Nodes)),
		Links:     make([]*Link, 0, len(d.Links)),
		Timestamp: d.Timestamp,
	}
	for _, dev := range d.Nodes {
		g.Nodes = append(g.Nodes, &Node{ID: dev.IEEEAddr, Device: dev})
	}
	for _, wl := range d.Links {
		lq := wl.LinkQuality
		if lq == 0 {
			lq = wl.LQI
		}
		g.Links = append(g.Links, &Link{
			Source:       wl.Source.IEEEAddr,
			Target:       wl.Target.IEEEAddr,
			LinkQuality:  lq,
			Depth:        wl.Depth,
			Relationship: wl.Relationship,
			Type:         wl.Type,
		})
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewDocument converts a graph back to its wire shape. Simulation state is
// not part of the wire format.
func NewDocument(g *Graph) *Document {
	d := &Document{
		Nodes:     make([]Device, 0, len(g.Nodes)),
		Links:     make([]wireLink, 0, len(g.Links)),
		Timestamp: g.Timestamp,
	}
	idx := g.Index()
	for _, n := range g.Nodes {
		d.Nodes = append(d.Nodes, n.Device)
	}
	for _, l := range g.Links {
		wl := wireLink{
			Source:       wireEndpoint{IEEEAddr: l.Source},
			Target:       wireEndpoint{IEEEAddr: l.Target},
			LinkQuality:  l.LinkQuality,
			Depth:        l.Depth,
			Relationship: l.Relationship,
			Type:         l.Type,
		}
		if n, ok := idx[l.Source]; ok {
			wl.Source.NetworkAddress = n.Device.NetworkAddress
		}
		if n, ok := idx[l.Target]; ok {
			wl.Target.NetworkAddress = n.Device.NetworkAddress
		}
		d.Links = append(d.Links, wl)
	}
	return d
}

// =============================================================================
// Decode / Encode
// =============================================================================

// Decode reads a topology document in the given format.
func Decode(r io.Reader, format Format) (*Graph, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&doc)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported topology format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s topology", format)
	}
	return doc.Graph()
}

// DecodeFile reads a topology file, picking the format from its extension.
func DecodeFile(path string) (*Graph, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "topology file %s", path)
		}
		return nil, fmt.Errorf("open topology: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

// Encode writes g in the given format.
func Encode(w io.Writer, g *Graph, format Format) error {
	doc := NewDocument(g)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported topology format %q", format)
	}
}

// Marshal encodes g as JSON. It is the canonical form hashed for cache keys.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(NewDocument(g)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

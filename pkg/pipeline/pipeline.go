// Package pipeline provides the static export pipeline for meshmap.
//
// This package implements the load → layout → render pipeline shared by the
// CLI and the HTTP server. By centralizing it, a map exported with
// `meshmap render` and one downloaded from the server are byte-identical
// for the same topology and options.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a topology snapshot from a [source.Source]
//  2. Layout: run the force simulation until it settles
//  3. Render: generate output in various formats (SVG, PNG, JPG, PDF, DOT, JSON)
//
// The layout is deterministic for a given topology and seed, so rendered
// artifacts are cached by topology hash and render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	g, _, err := runner.Load(ctx, src)
//	result, err := runner.Execute(ctx, g, pipeline.Options{Formats: []string{"svg", "png"}})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/sim"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSettleTicks bounds the simulation before rendering. The default
	// alpha decay reaches AlphaMin after 300 ticks.
	DefaultSettleTicks = 300

	// DefaultTTL is how long rendered artifacts stay cached.
	DefaultTTL = 24 * time.Hour

	// SnapshotTTL is how long the last good topology of a source is kept
	// for use while the source is unreachable.
	SnapshotTTL = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJPG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatJPG:  "image/jpeg",
	FormatPDF:  "application/pdf",
	FormatDOT:  "text/vnd.graphviz",
	FormatJSON: "application/json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for an export.
type Options struct {
	// Layout options
	Sim         sim.Options `json:"sim"`
	SettleTicks int         `json:"settle_ticks,omitempty"`

	// Render options
	Formats []string          `json:"formats,omitempty"`
	Styles  map[string]string `json:"styles,omitempty"`
	// Scale renders PNG through rsvg-convert at this factor, keeping the
	// map stylesheet. Zero renders PNG through Graphviz.
	Scale  float64 `json:"scale,omitempty"`
	Labels bool    `json:"labels,omitempty"`

	// Cache options
	TTL     time.Duration `json:"-"`
	Refresh bool          `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the topology with settled positions. It is nil when every
	// artifact came from the cache.
	Graph *topology.Graph

	// TopologyHash is the content hash of the input topology.
	TopologyHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	Ticks      int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	StaleTopology bool // Topology came from the last good snapshot
	RenderHit     bool // All artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, jpg, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatFromPath picks an output format from a file extension.
func FormatFromPath(path string) (string, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", errors.New(errors.ErrCodeInvalidFormat, "output %q has no extension", path)
	}
	f := strings.ToLower(path[i+1:])
	if f == "jpeg" {
		f = FormatJPG
	}
	if err := ValidateFormat(f); err != nil {
		return "", err
	}
	return f, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills zero fields. It is idempotent.
func (o *Options) SetDefaults() {
	o.Sim = o.Sim.WithDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.SettleTicks <= 0 {
		o.SettleTicks = DefaultSettleTicks
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative, got %g", o.Scale)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return nil
}

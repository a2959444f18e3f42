package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/topology"
)

func loadGraph(t *testing.T) *topology.Graph {
	t.Helper()
	g, err := topology.DecodeFile("../topology/testdata/networkmap.json")
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

// memCache is an in-memory cache.Cache that counts operations.
type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	gets, sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

// stubSource returns g or err.
type stubSource struct {
	g   *topology.Graph
	err error
}

func (s *stubSource) Load(context.Context) (*topology.Graph, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.g.Clone(), nil
}
func (s *stubSource) Name() string { return "stub:test" }
func (s *stubSource) Close() error { return nil }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"jpg", false},
		{"pdf", false},
		{"dot", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"map.svg", FormatSVG, false},
		{"out/map.PNG", FormatPNG, false},
		{"map.jpeg", FormatJPG, false},
		{"map.dot", FormatDOT, false},
		{"map", "", true},
		{"map.gif", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", o.Formats)
	}
	if o.SettleTicks != DefaultSettleTicks || o.TTL != DefaultTTL || o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Sim.Width != 800 || o.Sim.Seed == 0 {
		t.Errorf("sim defaults not applied: %+v", o.Sim)
	}

	neg := Options{Scale: -1}
	if err := neg.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative scale: err = %v", err)
	}
}

func TestExecuteRendersFormats(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	g := loadGraph(t)
	before, _ := topology.Marshal(g)

	res, err := r.Execute(context.Background(), g, Options{Formats: []string{FormatSVG, FormatDOT, FormatJSON}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !bytes.HasPrefix(res.Artifacts[FormatSVG], []byte("<svg")) {
		t.Error("svg artifact missing")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "graph G {") {
		t.Error("dot artifact missing")
	}
	var layout Layout
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &layout); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(layout.Nodes) != len(g.Nodes) || layout.Width != 800 {
		t.Errorf("layout = %+v", layout)
	}
	if res.Stats.Ticks == 0 || res.Stats.NodeCount != len(g.Nodes) {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Graph == nil || res.Graph == g {
		t.Error("result graph should be a settled copy")
	}

	after, _ := topology.Marshal(g)
	if !bytes.Equal(before, after) {
		t.Error("Execute modified the input graph")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	opts := Options{Formats: []string{FormatSVG}}
	a, err := r.Execute(context.Background(), loadGraph(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(context.Background(), loadGraph(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Artifacts[FormatSVG], b.Artifacts[FormatSVG]) {
		t.Error("same topology and seed rendered different SVGs")
	}
}

func TestExecuteCaches(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quietLogger())
	g := loadGraph(t)
	opts := Options{Formats: []string{FormatSVG, FormatDOT}}

	first, err := r.Execute(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run should miss")
	}
	if c.sets != 2 {
		t.Errorf("sets = %d, want 2", c.sets)
	}

	second, err := r.Execute(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit || second.Graph != nil {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached artifact differs")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}

	other := Options{Formats: []string{FormatSVG}}
	other.Sim.ChargeStrength = -300
	fourth, err := r.Execute(context.Background(), g, other)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.RenderHit {
		t.Error("different forces must not share a cache entry")
	}
}

func TestExecuteRejectsBadFormat(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), loadGraph(t), Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestLayoutCancelled(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := r.Layout(ctx, loadGraph(t), Options{})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadFallsBackToSnapshot(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quietLogger())
	src := &stubSource{g: loadGraph(t)}
	ctx := context.Background()

	g, stale, err := r.Load(ctx, src)
	if err != nil || stale {
		t.Fatalf("Load = %v, stale %v", err, stale)
	}

	src.err = errors.New(errors.ErrCodeNetwork, "connection refused")
	cached, stale, err := r.Load(ctx, src)
	if err != nil {
		t.Fatalf("Load with network error: %v", err)
	}
	if !stale || len(cached.Nodes) != len(g.Nodes) {
		t.Errorf("stale = %v, nodes = %d", stale, len(cached.Nodes))
	}

	src.err = errors.New(errors.ErrCodeInvalidTopology, "bad document")
	if _, _, err := r.Load(ctx, src); !errors.Is(err, errors.ErrCodeInvalidTopology) {
		t.Errorf("non-network errors must surface, got %v", err)
	}
}

func TestLoadWithoutSnapshot(t *testing.T) {
	r := NewRunner(newMemCache(), nil, quietLogger())
	src := &stubSource{err: errors.New(errors.ErrCodeNetwork, "down")}
	if _, _, err := r.Load(context.Background(), src); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v", err)
	}
}

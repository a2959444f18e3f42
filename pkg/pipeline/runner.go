package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshmap/pkg/cache"
	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/render/nodes"
	"github.com/matzehuels/meshmap/pkg/source"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The cache is wrapped so hits and misses reach pkg/observability.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.WithHooks(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads the current topology from src. Every successful load is kept
// as the source's last good snapshot; when src fails with a network error,
// that snapshot is returned instead and stale is true.
func (r *Runner) Load(ctx context.Context, src source.Source) (g *topology.Graph, stale bool, err error) {
	key := r.Keyer.TopologyKey(src.Name(), "last")

	g, err = src.Load(ctx)
	if err == nil {
		if data, err := topology.Marshal(g); err == nil {
			_ = r.Cache.Set(ctx, key, data, SnapshotTTL)
		}
		return g, false, nil
	}
	if !errors.Is(err, errors.ErrCodeNetwork) && !errors.Is(err, errors.ErrCodeTimeout) {
		return nil, false, err
	}

	data, hit, cerr := r.Cache.Get(ctx, key)
	if cerr != nil || !hit {
		return nil, false, err
	}
	cached, derr := topology.Decode(bytes.NewReader(data), topology.FormatJSON)
	if derr != nil {
		return nil, false, err
	}
	r.Logger.Warn("source unavailable, using last snapshot", "source", src.Name(), "error", err)
	return cached, true, nil
}

// Execute runs layout and render for g with caching. g is not modified.
func (r *Runner) Execute(ctx context.Context, g *topology.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	data, err := topology.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize topology for cache key")
	}
	result := &Result{
		TopologyHash: cache.Hash(data),
		Artifacts:    make(map[string][]byte),
		Stats: Stats{
			NodeCount: len(g.Nodes),
			LinkCount: len(g.Links),
		},
	}

	if !opts.Refresh {
		if artifacts, ok := r.cached(ctx, result.TopologyHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Debug("artifacts from cache", "formats", opts.Formats, "topology", result.TopologyHash[:12])
			return result, nil
		}
	}

	// Stage 1: Layout
	layoutStart := time.Now()
	m, ticks, err := r.Layout(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	result.Graph = m.Graph()
	result.Stats.Ticks = ticks
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Info("settled layout",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"ticks", ticks,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(result.TopologyHash, artifactKeyOpts(opts, format))
		_ = r.Cache.Set(ctx, key, data, opts.TTL)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout builds a map over a copy of g and runs the simulation until it
// settles or SettleTicks is reached. The caller must Close the map.
func (r *Runner) Layout(ctx context.Context, g *topology.Graph, opts Options) (*mapview.Map, int, error) {
	opts.SetDefaults()
	r.applyLogger(&opts)

	m := mapview.New(g.Clone(), mapview.Options{
		Sim:    opts.Sim,
		Styles: nodes.DefaultStyles().Merge(opts.Styles),
		Logger: opts.Logger,
	})
	ticks := m.Settle(ctx, opts.SettleTicks)
	if err := ctx.Err(); err != nil {
		m.Close()
		return nil, ticks, errors.Wrap(errors.ErrCodeTimeout, err, "layout interrupted after %d ticks", ticks)
	}
	return m, ticks, nil
}

// cached returns every requested artifact, or false if any is missing.
func (r *Runner) cached(ctx context.Context, hash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, artifactKeyOpts(opts, format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// artifactKeyOpts expects opts with defaults applied.
func artifactKeyOpts(opts Options, format string) cache.ArtifactKeyOpts {
	forces, _ := json.Marshal(opts.Sim)
	return cache.ArtifactKeyOpts{
		Format:      format,
		Width:       opts.Sim.Width,
		Height:      opts.Sim.Height,
		SettleTicks: opts.SettleTicks,
		Seed:        opts.Sim.Seed,
		Forces:      cache.Hash(forces),
		Styles:      opts.Styles,
		Scale:       opts.Scale,
		Labels:      opts.Labels,
	}
}

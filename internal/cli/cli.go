// Package cli implements the meshmap command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/buildinfo"
	"github.com/matzehuels/meshmap/pkg/cache"
	"github.com/matzehuels/meshmap/pkg/config"
	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/render/nodes"
	"github.com/matzehuels/meshmap/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "meshmap"

// annotationSkipConfig marks commands that run without loading the config
// file, such as the one that creates it.
const annotationSkipConfig = "meshmap/skip-config"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Config is loaded from --config (or the default path) before any
	// command runs. Flags override it per command.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Meshmap draws Zigbee mesh networks as interactive force-directed maps",
		Long: `Meshmap lays out a Zigbee network map with a force simulation and renders it
as SVG. Devices can be dragged in the browser or in the terminal, and the
settled layout can be exported to SVG, PNG, JPG, PDF, DOT or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if cmd.Annotations[annotationSkipConfig] != "" {
				return nil
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if p := c.Config.Cache.Prefix; p != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), p)
	}
	return pipeline.NewRunner(cc, keyer, componentLogger(c.Logger, componentPipeline)), nil
}

// newCache opens the configured cache backend. An unreachable Redis falls
// back to no caching so a render never fails on the cache alone.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr})
		if err != nil {
			c.Logger.Warn("cache disabled", "backend", cfg.Backend, "error", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir is the file cache directory: cache.dir from the config, or the
// XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/meshmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// exportOptions builds pipeline options from the configuration.
func (c *CLI) exportOptions() pipeline.Options {
	sc := c.Config.Simulation
	return pipeline.Options{
		Sim:         sc.Options,
		SettleTicks: sc.SettleTicks,
		Styles:      c.Config.Styles,
		TTL:         c.Config.Cache.TTL,
		Logger:      c.Logger,
	}
}

// mapOptions builds live map options from the configuration.
func (c *CLI) mapOptions() mapview.Options {
	sc := c.Config.Simulation
	return mapview.Options{
		Sim:             sc.Options,
		Styles:          nodes.DefaultStyles().Merge(c.Config.Styles),
		DragAlphaTarget: sc.DragAlphaTarget,
		TickInterval:    sc.TickInterval,
		Logger:          componentLogger(c.Logger, componentMap),
	}
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields nil so callers can pick a default.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Source Flags
// =============================================================================

// sourceFlags selects a topology source. Unset flags fall back to the
// [source] section of the config file.
type sourceFlags struct {
	kind       string
	uri        string
	database   string
	collection string
}

// register adds the source flags to cmd. kindFlag names the flag selecting
// the backend ("source" for readers, "to" for import).
func (f *sourceFlags) register(cmd *cobra.Command, kindFlag string) {
	cmd.Flags().StringVar(&f.kind, kindFlag, "", "source kind: file, sqlite, mongo (default from config)")
	cmd.Flags().StringVar(&f.uri, "uri", "", "mongo connection string")
	cmd.Flags().StringVar(&f.database, "database", "", "mongo database")
	cmd.Flags().StringVar(&f.collection, "collection", "", "mongo collection")
	_ = cmd.RegisterFlagCompletionFunc(kindFlag, completeSourceKinds)
}

// options merges flags over cfg. path is the positional argument naming a
// file or sqlite database; its extension picks the kind when none is set.
func (f *sourceFlags) options(cfg config.SourceConfig, path string) source.Options {
	opts := source.Options{
		Kind:       cfg.Kind,
		Path:       cfg.Path,
		URI:        cfg.URI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	}
	if path != "" {
		opts.Path = path
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			opts.Kind = source.KindSQLite
		default:
			opts.Kind = source.KindFile
		}
	}
	if f.kind != "" {
		opts.Kind = f.kind
	}
	if f.uri != "" {
		opts.URI = f.uri
	}
	if f.database != "" {
		opts.Database = f.database
	}
	if f.collection != "" {
		opts.Collection = f.collection
	}
	return opts
}

// openSource opens the source named by args and flags.
func (c *CLI) openSource(ctx context.Context, f *sourceFlags, args []string) (source.Source, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	opts := f.options(c.Config.Source, path)
	loggerFromContext(ctx).Debug("opening source", "kind", opts.Kind, "path", opts.Path)
	return source.Open(ctx, opts)
}

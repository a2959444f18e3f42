// Package config loads meshmap settings from a TOML file.
//
// Every section has defaults, so a missing file or a partial file is fine.
// Command-line flags override file values; see internal/cli.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/sim"
)

const appName = "meshmap"

// Config holds meshmap configuration.
type Config struct {
	Simulation SimulationConfig  `toml:"simulation"`
	Styles     map[string]string `toml:"styles"`
	Server     ServerConfig      `toml:"server"`
	Cache      CacheConfig       `toml:"cache"`
	Source     SourceConfig      `toml:"source"`
}

// SimulationConfig tunes the force engine and the event loop.
type SimulationConfig struct {
	sim.Options

	// DragAlphaTarget is the alpha target held while a node is dragged.
	DragAlphaTarget float64 `toml:"drag_alpha_target"`
	// TickInterval is the wall-clock time between simulation ticks.
	TickInterval time.Duration `toml:"tick_interval"`
	// SettleTicks bounds the ticks run before a static export.
	SettleTicks int `toml:"settle_ticks"`
}

// ServerConfig controls the live map server.
type ServerConfig struct {
	Addr             string        `toml:"addr"`
	SnapshotInterval time.Duration `toml:"snapshot_interval"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CacheConfig selects the render artifact cache.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	Prefix    string        `toml:"prefix"` // scopes keys so several networks share one Redis
	TTL       time.Duration `toml:"ttl"`
}

// Source kinds.
const (
	SourceFile   = "file"
	SourceMongo  = "mongo"
	SourceSQLite = "sqlite"
)

// SourceConfig selects where topology snapshots come from.
type SourceConfig struct {
	Kind       string `toml:"kind"`
	Path       string `toml:"path"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Options:         sim.DefaultOptions(),
			DragAlphaTarget: 0.3,
			TickInterval:    16 * time.Millisecond,
			SettleTicks:     300,
		},
		Styles: map[string]string{
			"Coordinator": "coordinator",
			"Router":      "router",
			"EndDevice":   "end-device",
		},
		Server: ServerConfig{
			Addr:             "127.0.0.1:8080",
			SnapshotInterval: 100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Source: SourceConfig{
			Kind:       SourceFile,
			Database:   appName,
			Collection: "networkmap",
		},
	}
}

// Dir returns the config directory ($XDG_CONFIG_HOME/meshmap or
// ~/.config/meshmap).
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults. An empty path means [Path]; a missing
// file at the default path yields the defaults, while a missing explicit
// path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate rejects values the engine or the server cannot run with.
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "simulation size must be positive, got %vx%v", s.Width, s.Height)
	case s.DragAlphaTarget < 0 || s.DragAlphaTarget > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "drag_alpha_target must be in [0, 1], got %v", s.DragAlphaTarget)
	case s.AlphaDecay <= 0 || s.AlphaDecay >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "alpha_decay must be in (0, 1), got %v", s.AlphaDecay)
	case s.VelocityDecay <= 0 || s.VelocityDecay >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "velocity_decay must be in (0, 1), got %v", s.VelocityDecay)
	case s.TickInterval <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "tick_interval must be positive")
	case s.SettleTicks < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "settle_ticks must not be negative")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Source.Kind {
	case SourceFile, SourceSQLite:
	case SourceMongo:
		if c.Source.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source.uri is required for the mongo source")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown source kind %q", c.Source.Kind)
	}

	if c.Server.SnapshotInterval <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.snapshot_interval must be positive")
	}
	return nil
}

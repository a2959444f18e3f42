// Package source loads mesh topology snapshots from files and databases.
//
// Every backend implements [Source]. [Open] picks one from [Options]:
//
//	src, err := source.Open(ctx, source.Options{Kind: source.KindFile, Path: "networkmap.json"})
//	g, err := src.Load(ctx)
//
// [Poll] reloads a source on an interval and reports snapshots whose
// content changed, which is how the live server follows a network.
package source

import (
	"context"
	"time"

	"github.com/matzehuels/meshmap/pkg/cache"
	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Source kinds.
const (
	KindFile   = "file"
	KindMongo  = "mongo"
	KindSQLite = "sqlite"
)

// Source yields the current topology snapshot.
type Source interface {
	// Load returns a freshly decoded, validated graph. Callers own it.
	Load(ctx context.Context) (*topology.Graph, error)

	// Name identifies the source in logs and cache keys.
	Name() string

	// Close releases connections.
	Close() error
}

// Store is a source that can also persist snapshots.
type Store interface {
	Source
	Save(ctx context.Context, g *topology.Graph) error
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Mongo)(nil)
)

// Options selects and configures a source.
type Options struct {
	Kind       string
	Path       string // file path or sqlite database path
	URI        string // mongo connection string
	Database   string
	Collection string
}

// Open creates the source described by opts.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Kind {
	case KindFile, "":
		if err := errors.ValidatePath(opts.Path); err != nil {
			return nil, err
		}
		return NewFile(opts.Path), nil
	case KindSQLite:
		if err := errors.ValidatePath(opts.Path); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, opts.Path)
	case KindMongo:
		return OpenMongo(ctx, opts.URI, opts.Database, opts.Collection)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown source kind %q", opts.Kind)
	}
}

// OpenStore opens a writable source. Files are read-only.
func OpenStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case KindSQLite, KindMongo:
		src, err := Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return src.(Store), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "source kind %q cannot store snapshots", opts.Kind)
	}
}

// Fingerprint hashes the wire form of g. Equal topologies give equal
// fingerprints regardless of simulation state.
func Fingerprint(g *topology.Graph) (string, error) {
	data, err := topology.Marshal(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// Poll loads src every interval until ctx ends and calls fn with each
// snapshot whose fingerprint differs from the previous one. The first
// successful load is always reported. Load errors go to onErr (may be nil)
// and polling continues.
func Poll(ctx context.Context, src Source, interval time.Duration, fn func(*topology.Graph), onErr func(error)) {
	var last string
	load := func() {
		g, err := src.Load(ctx)
		if err == nil {
			var fp string
			if fp, err = Fingerprint(g); err == nil {
				if fp != last {
					last = fp
					fn(g)
				}
				return
			}
		}
		if onErr != nil && ctx.Err() == nil {
			onErr(err)
		}
	}

	load()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			load()
		}
	}
}

package source

import (
	"context"

	"github.com/matzehuels/meshmap/pkg/topology"
)

// File reads a networkmap document from disk. The encoding follows the
// extension: .json, .yaml/.yml or .toml.
type File struct {
	Path string
}

// NewFile returns a file source.
func NewFile(path string) *File { return &File{Path: path} }

// Load decodes the file.
func (f *File) Load(ctx context.Context) (*topology.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return topology.DecodeFile(f.Path)
}

// Name returns "file:<path>".
func (f *File) Name() string { return KindFile + ":" + f.Path }

// Close does nothing.
func (f *File) Close() error { return nil }

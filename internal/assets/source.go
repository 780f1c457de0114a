package assets

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
)

//go:embed watermarks/*.png
var packaged embed.FS

// FSSource loads overlay assets from a file system.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source reading from fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Embedded returns the source backed by the overlays compiled into the binary.
func Embedded() *FSSource {
	sub, err := fs.Sub(packaged, "watermarks")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return NewFSSource(sub)
}

// Load opens the named asset.
func (s *FSSource) Load(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", name, err)
	}

	return f, nil
}

// Names lists the asset files available in the source.
func (s *FSSource) Names() ([]string, error) {
	matches, err := fs.Glob(s.fsys, "*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	return matches, nil
}

package source

import (
	"context"
	"io/fs"
	"os"
)

// DirSource reads resources from a file system laid out like the site root.
type DirSource struct {
	FS fs.FS
}

// NewDirSource returns a source reading from the directory at path.
func NewDirSource(path string) *DirSource {
	return &DirSource{FS: os.DirFS(path)}
}

func (s *DirSource) FetchIndex(ctx context.Context) ([]byte, error) {
	return s.read(ctx, IndexPath)
}

func (s *DirSource) FetchPost(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.read(ctx, PostPath(id))
}

func (s *DirSource) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Resource: name, Err: err}
	}
	b, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, &UnavailableError{Resource: name, Err: err}
	}
	return b, nil
}

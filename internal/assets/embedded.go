package assets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed static
var static embed.FS

// EmbeddedStore serves assets compiled into the binary.
type EmbeddedStore struct {
	files fs.FS
}

// NewEmbeddedStore returns a store over the bundled static directory.
func NewEmbeddedStore() *EmbeddedStore {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(fmt.Sprintf("assets: embedded static dir: %v", err))
	}
	return &EmbeddedStore{files: sub}
}

// NewFSStore returns a store over an arbitrary file system, such as
// os.DirFS or fstest.MapFS.
func NewFSStore(files fs.FS) *EmbeddedStore {
	return &EmbeddedStore{files: files}
}

// Open implements Store.
func (s *EmbeddedStore) Open(ctx context.Context, name string) (*Object, error) {
	name, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}

	f, err := s.files.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ErrNotFound
	}

	return &Object{
		Body:        f,
		ContentType: contentTypeFor(name),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

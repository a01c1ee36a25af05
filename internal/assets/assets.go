// Package assets serves the static files referenced by rendered pages, from
// the binary itself or from an S3 bucket.
package assets

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a store has no object under the requested name.
var ErrNotFound = errors.New("asset not found")

// Object is an opened asset. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Store opens assets by name. Names are slash separated and relative,
// e.g. "logo_colour_reverse.svg" or "img/hero.png".
type Store interface {
	Open(ctx context.Context, name string) (*Object, error)
}

// Chain returns a Store that asks each store in turn and returns the first
// object found. Errors other than ErrNotFound stop the search.
func Chain(stores ...Store) Store {
	return chain(stores)
}

type chain []Store

func (c chain) Open(ctx context.Context, name string) (*Object, error) {
	for _, s := range c {
		obj, err := s.Open(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return obj, err
	}
	return nil, ErrNotFound
}

// cleanName normalises name and rejects anything that could escape the
// asset root.
func cleanName(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.Contains(name, "\\") {
		return "", false
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", false
	}
	return cleaned, true
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalOpener serves sources from the local file system. The zero value
// resolves names as paths directly; a non-empty Root is prepended.
type LocalOpener struct {
	Root string
}

// NewLocalOpener creates a LocalOpener resolving names as plain paths.
func NewLocalOpener() *LocalOpener {
	return &LocalOpener{}
}

func (o *LocalOpener) path(name string) string {
	if o.Root == "" {
		return name
	}
	return filepath.Join(o.Root, name)
}

// Stat implements Opener using os.Stat, which never touches file contents.
func (o *LocalOpener) Stat(ctx context.Context, name string) (Info, error) {
	fi, err := os.Stat(o.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Info{}, err
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("%s: is a directory", name)
	}
	return Info{Size: fi.Size()}, nil
}

// Open implements Opener. The returned source reads with pread, so
// concurrent chunk workers need no shared cursor.
func (o *LocalOpener) Open(ctx context.Context, name string) (Source, error) {
	f, err := os.Open(o.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &localSource{File: f, size: fi.Size()}, nil
}

type localSource struct {
	*os.File
	size int64
}

func (s *localSource) Size() int64 {
	return s.size
}

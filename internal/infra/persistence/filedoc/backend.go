// Package filedoc stores the account document as a local JSON file.
package filedoc

import (
	"context"
	"os"
	"path/filepath"

	"credstore/internal/domain/repository"

	"github.com/pkg/errors"
)

const (
	filePerm = 0o600
	dirPerm  = 0o750
)

// Backend reads and atomically replaces a single file.
//
// Replace writes to a temporary file in the same directory, syncs it and renames it
// over the target, so readers see either the old or the new document, never a mix.
type Backend struct {
	path   string
	rename func(oldpath, newpath string) error
}

var _ repository.DocumentBackend = (*Backend)(nil)

// New returns a backend for the file at path.
func New(path string) *Backend {
	return &Backend{
		path:   filepath.Clean(path),
		rename: os.Rename,
	}
}

// Path returns the document location.
func (b *Backend) Path() string {
	return b.path
}

// Read returns the file contents, or ErrDocumentNotFound when the file does not exist.
func (b *Backend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(repository.ErrDocumentNotFound, b.path)
		}

		return nil, errors.Wrapf(err, "read %s", b.path)
	}

	return data, nil
}

// Replace swaps the file contents for data.
func (b *Backend) Replace(ctx context.Context, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "write temporary file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temporary file")
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return errors.Wrap(err, "chmod temporary file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}

	if err = b.rename(tmpName, b.path); err != nil {
		return errors.Wrapf(err, "rename over %s", b.path)
	}

	// The rename is already visible; a failed directory sync only weakens crash durability.
	syncDir(dir)

	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()

	_ = d.Sync()
}

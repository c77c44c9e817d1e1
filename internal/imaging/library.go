package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// ErrOutsideLibrary is returned for paths that do not name a file in the
// library directory.
var ErrOutsideLibrary = errors.New("path outside image library")

// Library stores processed photos in an app-private directory. The paths it
// hands out are opaque to callers and only resolved by the same library.
type Library struct {
	Dir string
}

// NewLibrary creates the library directory if needed.
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving image directory: %w", err)
	}
	return &Library{Dir: abs}, nil
}

// Save processes a photo and writes it under a fresh name, returning the
// stored path.
func (l *Library) Save(r io.Reader) (string, error) {
	data, err := Process(r)
	if err != nil {
		return "", err
	}

	path := filepath.Join(l.Dir, uuid.NewString()+".jpg")
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

// Open opens a stored photo.
func (l *Library) Open(path string) (*os.File, error) {
	p, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes a stored photo. Removing a missing photo is not an error.
func (l *Library) Remove(path string) error {
	p, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

// resolve checks that path names a file directly inside the library.
func (l *Library) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if filepath.Dir(clean) != l.Dir || filepath.Base(clean) == "." {
		return "", ErrOutsideLibrary
	}
	return clean, nil
}

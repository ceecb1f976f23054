// Package artifact provides persistent backends for the serialised health
// model.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/battery-health/core/prediction"
)

// FileStore keeps the artifact in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is not touched until
// the first Load or Save.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Path returns the artifact location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, prediction.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return b, nil
}

// Save writes data to a temporary file next to the target and renames it into
// place so readers never observe a partial artifact.
func (s *FileStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Delete(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MarkerFile is the session marker written inside each spec directory.
const MarkerFile = ".droid_session_id"

// FileStore keeps one plain-text marker file per spec directory.
type FileStore struct {
	mu   sync.Mutex
	name string
}

// NewFileStore creates a store writing MarkerFile.
func NewFileStore() *FileStore {
	return &FileStore{name: MarkerFile}
}

// Path returns the marker file location for specDir.
func (f *FileStore) Path(specDir string) string {
	return filepath.Join(specDir, f.name)
}

// Get reads the marker for specDir. A missing or blank file is not an error.
func (f *FileStore) Get(_ context.Context, specDir string) (string, bool, error) {
	if specDir == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(f.Path(specDir))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read session marker: %w", err)
	}
	id := strings.TrimSpace(string(data))
	return id, id != "", nil
}

// Put overwrites the marker for specDir, creating the directory if needed.
func (f *FileStore) Put(_ context.Context, specDir, id string) error {
	if specDir == "" {
		return ErrNoSpecDir
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		return fmt.Errorf("store: create spec dir: %w", err)
	}
	if err := os.WriteFile(f.Path(specDir), []byte(id), 0o644); err != nil {
		return fmt.Errorf("store: write session marker: %w", err)
	}
	return nil
}

var _ SessionStore = (*FileStore)(nil)

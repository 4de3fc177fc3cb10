// Package utils holds small file helpers shared by the persistence
// services.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore tracks a settings file path and reads/writes its bytes
// atomically.
type FileStore struct {
	mu              sync.RWMutex
	path            string
	defaultFilename string
}

// NewFileStore creates a store with a default filename used when no
// explicit path is provided.
func NewFileStore(defaultFilename string) *FileStore {
	return &FileStore{defaultFilename: defaultFilename}
}

// Path returns the current absolute file path or empty if unset.
func (s *FileStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Resolve returns the stored path if available, otherwise constructs
// one under baseDir (or the working directory when baseDir is empty)
// from the default filename. The resolved path is remembered.
func (s *FileStore) Resolve(baseDir string) (string, error) {
	if existing := s.Path(); existing != "" {
		return existing, nil
	}

	root := strings.TrimSpace(baseDir)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = cwd
	}

	resolved := filepath.Clean(filepath.Join(root, s.defaultFilename))
	s.mu.Lock()
	s.path = resolved
	s.mu.Unlock()
	return resolved, nil
}

// Read loads the file content, creating parent directories if needed.
func (s *FileStore) Read(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return os.ReadFile(path)
}

// Write persists the given bytes atomically to the target path.
func (s *FileStore) Write(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

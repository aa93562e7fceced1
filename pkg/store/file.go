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

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// FileStore is a file-based store for CLI and single-host use.
// Maps are stored as <dir>/<id>.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.config/mindmap/maps/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "mindmap", "maps")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// mapPath returns the file for id, or false if id cannot name a file in
// the store directory.
func (s *FileStore) mapPath(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", false
	}
	return filepath.Join(s.baseDir, id+".json"), true
}

func (s *FileStore) Create(ctx context.Context, m *mindmap.MindMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := prepareCreate(*m)
	path, ok := s.mapPath(created.ID)
	if !ok {
		return fmt.Errorf("invalid map id %q", created.ID)
	}
	if _, err := os.Stat(path); err == nil {
		return ErrExists
	}
	if err := s.write(path, created); err != nil {
		return err
	}
	*m = created
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.mapPath(id)
	if !ok {
		return mindmap.MindMap{}, ErrNotFound
	}
	return s.read(path)
}

func (s *FileStore) Update(ctx context.Context, m *mindmap.MindMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.mapPath(m.ID)
	if !ok {
		return ErrNotFound
	}
	old, err := s.read(path)
	if err != nil {
		return err
	}
	prepareUpdate(m)
	m.CreatedAt = old.CreatedAt
	return s.write(path, *m)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.mapPath(id)
	if !ok {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove map file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var all []mindmap.MindMap
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		m, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		all = append(all, m)
	}
	sortByCreated(all)
	return page(all, skip, limit), nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the map files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) read(path string) (mindmap.MindMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mindmap.MindMap{}, ErrNotFound
		}
		return mindmap.MindMap{}, fmt.Errorf("read map file: %w", err)
	}
	m, err := mindmap.Unmarshal(data, mindmap.FormatJSON)
	if err != nil {
		return mindmap.MindMap{}, fmt.Errorf("parse map %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

func (s *FileStore) write(path string, m mindmap.MindMap) error {
	data, err := mindmap.Marshal(m, mindmap.FormatJSON)
	if err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write map file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write map file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

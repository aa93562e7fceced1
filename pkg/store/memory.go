package store

import (
	"context"
	"sync"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// MemoryStore keeps maps in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	maps map[string]mindmap.MindMap
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maps: make(map[string]mindmap.MindMap)}
}

func (s *MemoryStore) Create(ctx context.Context, m *mindmap.MindMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maps[m.ID]; ok {
		return ErrExists
	}
	created := prepareCreate(*m)
	s.maps[created.ID] = created.Clone()
	*m = created
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[id]
	if !ok {
		return mindmap.MindMap{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, m *mindmap.MindMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.maps[m.ID]
	if !ok {
		return ErrNotFound
	}
	prepareUpdate(m)
	m.CreatedAt = old.CreatedAt
	s.maps[m.ID] = m.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maps[id]; !ok {
		return ErrNotFound
	}
	delete(s.maps, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	s.mu.RLock()
	all := make([]mindmap.MindMap, 0, len(s.maps))
	for _, m := range s.maps {
		all = append(all, m.Clone())
	}
	s.mu.RUnlock()

	sortByCreated(all)
	return page(all, skip, limit), nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

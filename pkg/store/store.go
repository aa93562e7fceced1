// Package store persists mind maps.
//
// Every backend implements [Store]:
//   - memory: in-process map, for tests and single-process use
//   - file: one JSON document per map under a directory
//   - sqlite: a single database file (pure Go driver, no cgo)
//   - redis: JSON strings plus a sorted-set index, for shared deployments
//   - mongo: one document per map
//
// [Open] selects a backend from configuration, wraps remote backends in a
// circuit breaker and reports every call through observability hooks:
//
//	st, err := store.Open(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	m := mindmap.New("Trip")
//	if err := st.Create(ctx, &m); err != nil {
//	    return err
//	}
//	// m.ID, m.CreatedAt and m.UpdatedAt are now set.
//
// Missing maps are reported as [ErrNotFound] by every backend.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a map does not exist.
	ErrNotFound = errors.New("mind map not found")

	// ErrExists is returned by Create when the map ID is already taken.
	ErrExists = errors.New("mind map already exists")

	// ErrUnavailable is returned when a remote backend cannot be reached or
	// its circuit breaker is open.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the interface for mind map storage backends.
// Implementations are safe for concurrent use.
type Store interface {
	// Create stores a new map. An empty ID is replaced with a fresh UUID and
	// both timestamps are set on m.
	Create(ctx context.Context, m *mindmap.MindMap) error

	// Get returns the map with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (mindmap.MindMap, error)

	// Update replaces title, nodes and edges of an existing map. UpdatedAt is
	// refreshed and CreatedAt is restored from the stored copy.
	Update(ctx context.Context, m *mindmap.MindMap) error

	// Delete removes a map or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns maps ordered by creation time. A limit of zero or less
	// returns everything after skip.
	List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error)

	// Close releases the backend's resources.
	Close() error
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// prepareCreate returns m with the ID and timestamps of a new map filled
// in. Create implementations copy it back to the caller only on success.
func prepareCreate(m mindmap.MindMap) mindmap.MindMap {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	t := now()
	m.CreatedAt = t
	m.UpdatedAt = t
	if m.Nodes == nil {
		m.Nodes = []mindmap.Node{}
	}
	if m.Edges == nil {
		m.Edges = []mindmap.Edge{}
	}
	return m
}

// prepareUpdate refreshes UpdatedAt.
func prepareUpdate(m *mindmap.MindMap) {
	m.UpdatedAt = now()
	if m.Nodes == nil {
		m.Nodes = []mindmap.Node{}
	}
	if m.Edges == nil {
		m.Edges = []mindmap.Edge{}
	}
}

// sortByCreated orders maps oldest first, breaking ties by ID.
func sortByCreated(maps []mindmap.MindMap) {
	slices.SortFunc(maps, func(a, b mindmap.MindMap) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// page applies skip and limit to an ordered slice.
func page(maps []mindmap.MindMap, skip, limit int) []mindmap.MindMap {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(maps) {
		return []mindmap.MindMap{}
	}
	maps = maps[skip:]
	if limit > 0 && limit < len(maps) {
		maps = maps[:limit]
	}
	return maps
}

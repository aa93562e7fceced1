package store

import (
	"context"
	"time"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// Instrumented reports every call on the wrapped store to the registered
// observability.StoreHooks, labelled with the backend name.
type Instrumented struct {
	next    Store
	backend string
}

// NewInstrumented wraps next.
func NewInstrumented(backend string, next Store) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (s *Instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *Instrumented) Create(ctx context.Context, m *mindmap.MindMap) error {
	start := time.Now()
	err := s.next.Create(ctx, m)
	s.report(ctx, "create", start, err)
	return err
}

func (s *Instrumented) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	start := time.Now()
	m, err := s.next.Get(ctx, id)
	s.report(ctx, "get", start, err)
	return m, err
}

func (s *Instrumented) Update(ctx context.Context, m *mindmap.MindMap) error {
	start := time.Now()
	err := s.next.Update(ctx, m)
	s.report(ctx, "update", start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.report(ctx, "delete", start, err)
	return err
}

func (s *Instrumented) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	start := time.Now()
	maps, err := s.next.List(ctx, skip, limit)
	s.report(ctx, "list", start, err)
	return maps, err
}

func (s *Instrumented) Close() error { return s.next.Close() }

var _ Store = (*Instrumented)(nil)

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/mindmap/pkg/config"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

var errBackend = errors.New("connection refused")

// flakyStore fails Get while failing is set.
type flakyStore struct {
	*MemoryStore
	failing bool
}

func (s *flakyStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	if s.failing {
		return mindmap.MindMap{}, errBackend
	}
	return s.MemoryStore.Get(ctx, id)
}

type recordingStoreHooks struct {
	observability.NoopStoreHooks
	mu          sync.Mutex
	ops         []string
	transitions []string
}

func (h *recordingStoreHooks) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.ops = append(h.ops, backend+"/"+op+"/"+status)
}

func (h *recordingStoreHooks) OnBreakerStateChange(name, from, to string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, name+":"+from+"->"+to)
}

func TestBreaker_OpensAndFailsFast(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failing: true}
	b := NewBreaker("test", flaky, BreakerSettings{
		MaxRequests:  1,
		MinRequests:  2,
		Interval:     time.Minute,
		Timeout:      time.Hour,
		FailureRatio: 0.5,
	}, nil)

	ctx := context.Background()
	for range 2 {
		if _, err := b.Get(ctx, "x"); !errors.Is(err, errBackend) {
			t.Fatalf("Get() error = %v, want backend error", err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	flaky.failing = false
	if _, err := b.Get(ctx, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() while open error = %v, want ErrUnavailable", err)
	}
	if len(hooks.transitions) != 1 || hooks.transitions[0] != "test:closed->open" {
		t.Errorf("transitions = %v", hooks.transitions)
	}
}

func TestBreaker_NotFoundIsNotAFailure(t *testing.T) {
	b := NewBreaker("test", NewMemoryStore(), BreakerSettings{
		MaxRequests:  1,
		MinRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Hour,
		FailureRatio: 0.1,
	}, nil)

	ctx := context.Background()
	for range 5 {
		if _, err := b.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}
}

func TestBreaker_PassesResults(t *testing.T) {
	b := NewBreaker("test", NewMemoryStore(), DefaultBreakerSettings(), nil)
	ctx := context.Background()

	m := mindmap.New("x")
	if err := b.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}
	maps, err := b.List(ctx, 0, 0)
	if err != nil || len(maps) != 1 || maps[0].ID != m.ID {
		t.Errorf("List() = %v, %v", maps, err)
	}
}

func TestInstrumented_ReportsOps(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	st := NewInstrumented("memory", NewMemoryStore())
	ctx := context.Background()
	m := mindmap.New("x")
	_ = st.Create(ctx, &m)
	_, _ = st.Get(ctx, "missing")
	_, _ = st.List(ctx, 0, 0)

	want := []string{"memory/create/ok", "memory/get/error", "memory/list/ok"}
	if len(hooks.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", hooks.ops, want)
	}
	for i := range want {
		if hooks.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, hooks.ops[i], want[i])
		}
	}
}

func TestOpen_LocalBackends(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: config.BackendMemory}, false},
		{"default", config.StoreConfig{}, false},
		{"file", config.StoreConfig{Backend: config.BackendFile, Dir: t.TempDir()}, false},
		{"sqlite", config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: t.TempDir() + "/m.db"}, false},
		{"unknown", config.StoreConfig{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(context.Background(), tt.cfg, config.Default().Breaker, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				st.Close()
			}
		})
	}
}

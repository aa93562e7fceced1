package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// fakeClock makes timestamps strictly increasing.
func fakeClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	orig := now
	now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	t.Cleanup(func() { now = orig })
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "maps.db"))
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
	}
}

func TestStore_CRUD(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fakeClock(t)
			ctx := context.Background()
			st := open(t)
			defer st.Close()

			m := mindmap.New("Trip")
			if err := st.Create(ctx, &m); err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if m.ID == "" || m.CreatedAt.IsZero() || !m.CreatedAt.Equal(m.UpdatedAt) {
				t.Fatalf("Create() did not stamp map: %+v", m)
			}

			got, err := st.Get(ctx, m.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.Title != "Trip" || len(got.Nodes) != 1 || got.Nodes[0].Label != mindmap.DefaultRootLabel {
				t.Errorf("Get() = %+v", got)
			}
			if !got.CreatedAt.Equal(m.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, m.CreatedAt)
			}

			upd := got.WithNode(mindmap.Node{ID: "2", Label: "Flights"})
			upd.Title = "Trip 2025"
			upd.CreatedAt = time.Time{}
			if err := st.Update(ctx, &upd); err != nil {
				t.Fatalf("Update() error: %v", err)
			}
			if !upd.CreatedAt.Equal(m.CreatedAt) {
				t.Errorf("Update() CreatedAt = %v, want restored %v", upd.CreatedAt, m.CreatedAt)
			}
			if !upd.UpdatedAt.After(m.UpdatedAt) {
				t.Error("Update() should advance UpdatedAt")
			}

			got, _ = st.Get(ctx, m.ID)
			if got.Title != "Trip 2025" || len(got.Nodes) != 2 {
				t.Errorf("after Update Get() = %+v", got)
			}

			if err := st.Delete(ctx, m.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, m.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open(t)
			defer st.Close()

			if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v", err)
			}
			m := mindmap.New("x")
			m.ID = "missing"
			if err := st.Update(ctx, &m); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update() error = %v", err)
			}
			if err := st.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete() error = %v", err)
			}
		})
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open(t)
			defer st.Close()

			a := mindmap.New("a")
			a.ID = "fixed"
			if err := st.Create(ctx, &a); err != nil {
				t.Fatal(err)
			}
			b := mindmap.New("b")
			b.ID = "fixed"
			if err := st.Create(ctx, &b); !errors.Is(err, ErrExists) {
				t.Errorf("Create() duplicate error = %v, want ErrExists", err)
			}
			if !b.CreatedAt.IsZero() || !b.UpdatedAt.IsZero() {
				t.Errorf("failed Create() stamped the map: %+v", b)
			}

			got, err := st.Get(ctx, "fixed")
			if err != nil {
				t.Fatal(err)
			}
			if got.Title != "a" || !got.CreatedAt.Equal(a.CreatedAt) {
				t.Errorf("stored map = %+v, want the first one", got)
			}
		})
	}
}

func TestStore_ListPaging(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fakeClock(t)
			ctx := context.Background()
			st := open(t)
			defer st.Close()

			var ids []string
			for _, title := range []string{"a", "b", "c", "d"} {
				m := mindmap.New(title)
				if err := st.Create(ctx, &m); err != nil {
					t.Fatal(err)
				}
				ids = append(ids, m.ID)
			}

			tests := []struct {
				skip, limit int
				want        []string
			}{
				{0, 0, []string{"a", "b", "c", "d"}},
				{0, 2, []string{"a", "b"}},
				{1, 2, []string{"b", "c"}},
				{3, 10, []string{"d"}},
				{9, 10, nil},
			}
			for _, tt := range tests {
				got, err := st.List(ctx, tt.skip, tt.limit)
				if err != nil {
					t.Fatalf("List(%d, %d) error: %v", tt.skip, tt.limit, err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("List(%d, %d) returned %d maps, want %d", tt.skip, tt.limit, len(got), len(tt.want))
				}
				for i := range got {
					if got[i].Title != tt.want[i] {
						t.Errorf("List(%d, %d)[%d] = %q, want %q", tt.skip, tt.limit, i, got[i].Title, tt.want[i])
					}
				}
			}
		})
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	m := mindmap.New("x")
	if err := st.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}
	m.Nodes[0].Label = "mutated"

	got, _ := st.Get(ctx, m.ID)
	if got.Nodes[0].Label != mindmap.DefaultRootLabel {
		t.Error("store shares node slice with caller")
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"../x", "a/b", `a\b`, ".."} {
		if _, err := st.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestPage(t *testing.T) {
	maps := make([]mindmap.MindMap, 5)
	tests := []struct {
		skip, limit, want int
	}{
		{0, 0, 5},
		{-1, 2, 2},
		{4, 2, 1},
		{5, 1, 0},
	}
	for _, tt := range tests {
		if got := page(maps, tt.skip, tt.limit); len(got) != tt.want {
			t.Errorf("page(%d, %d) len = %d, want %d", tt.skip, tt.limit, len(got), tt.want)
		}
	}
}

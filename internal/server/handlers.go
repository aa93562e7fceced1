package server

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindmap/pkg/editor"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render"
)

// List paging defaults.
const (
	defaultLimit = 10
	maxLimit     = 100
)

type createMapRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type updateMapRequest struct {
	Title *string         `json:"title" validate:"omitempty,max=200"`
	Nodes *[]mindmap.Node `json:"nodes"`
	Edges *[]mindmap.Edge `json:"edges"`
}

type addNodeRequest struct {
	Label string `json:"label" validate:"max=200"`
}

type addNodeResponse struct {
	Node mindmap.Node `json:"node"`
	Edge mindmap.Edge `json:"edge"`
}

type updateNodeRequest struct {
	Label       *string           `json:"label" validate:"omitempty,max=200"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	Position    *mindmap.Position `json:"position"`
}

type connectRequest struct {
	Source string `json:"source" validate:"required,max=64"`
	Target string `json:"target" validate:"required,max=64"`
}

type connectResponse struct {
	Edge  mindmap.Edge `json:"edge"`
	Added bool         `json:"added"`
}

type layoutResponse struct {
	Map    mindmap.MindMap `json:"mindmap"`
	Placed int             `json:"placed"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// Maps
// =============================================================================

func (s *Server) createMap(w http.ResponseWriter, r *http.Request) {
	var req createMapRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := apperrors.ValidateTitle(req.Title); err != nil {
		s.respondError(w, r, err)
		return
	}

	m := mindmap.New(req.Title)
	if err := s.store.Create(r.Context(), &m); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Debug("created map", "id", m.ID, "title", m.Title)
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if limit < 1 || limit > maxLimit {
		s.respondError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "limit must be between 1 and %d", maxLimit))
		return
	}

	maps, err := s.store.List(r.Context(), skip, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get(r.Context(), chi.URLParam(r, "mapID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) updateMap(w http.ResponseWriter, r *http.Request) {
	var req updateMapRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if req.Title != nil {
		if err := apperrors.ValidateTitle(*req.Title); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Nodes != nil {
		for _, n := range *req.Nodes {
			if n.Label == "" {
				continue
			}
			if err := apperrors.ValidateLabel(n.Label); err != nil {
				s.respondError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidLabel, err, "node %q", n.ID))
				return
			}
		}
	}

	id := chi.URLParam(r, "mapID")
	unlock := s.lock(id)
	defer unlock()

	m, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Nodes != nil {
		m = m.WithNodes(*req.Nodes)
	}
	if req.Edges != nil {
		m.Edges = append([]mindmap.Edge{}, *req.Edges...)
	}
	if err := m.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Update(r.Context(), &m); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mapID")
	unlock := s.lock(id)
	defer unlock()

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Mind map deleted successfully"})
}

// =============================================================================
// Gestures
// =============================================================================

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if req.Label != "" {
		if err := apperrors.ValidateLabel(req.Label); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	var resp addNodeResponse
	_, err := s.edit(r.Context(), chi.URLParam(r, "mapID"), func(sess *editor.Session) error {
		resp.Node, resp.Edge = sess.AddTopicLabeled(req.Label)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var req updateNodeRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Label != nil {
		if err := apperrors.ValidateLabel(*req.Label); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Position != nil && !req.Position.IsFinite() {
		s.respondError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "position must be finite"))
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	m, err := s.edit(r.Context(), chi.URLParam(r, "mapID"), func(sess *editor.Session) error {
		if req.Label != nil {
			if err := sess.Rename(nodeID, *req.Label); err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := sess.Describe(nodeID, *req.Description); err != nil {
				return err
			}
		}
		if req.Position != nil {
			if err := sess.Move(nodeID, *req.Position); err != nil {
				return err
			}
		}
		if _, ok := sess.Snapshot().Node(nodeID); !ok {
			return editor.ErrNodeNotFound
		}
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	n, _ := m.Node(nodeID)
	respondJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	_, err := s.edit(r.Context(), chi.URLParam(r, "mapID"), func(sess *editor.Session) error {
		return sess.Remove(nodeID)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Node deleted successfully"})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var resp connectResponse
	_, err := s.edit(r.Context(), chi.URLParam(r, "mapID"), func(sess *editor.Session) error {
		var err error
		resp.Edge, resp.Added, err = sess.Connect(req.Source, req.Target)
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Added {
		status = http.StatusCreated
	}
	respondJSON(w, status, resp)
}

func (s *Server) organize(w http.ResponseWriter, r *http.Request) {
	var placed int
	m, err := s.edit(r.Context(), chi.URLParam(r, "mapID"), func(sess *editor.Session) error {
		var err error
		placed, err = sess.Organize(r.Context())
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, layoutResponse{Map: m, Placed: placed})
}

// =============================================================================
// Read-only views
// =============================================================================

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get(r.Context(), chi.URLParam(r, "mapID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m.Analyze(s.layout().Root))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := render.FormatSVG
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = render.ParseFormat(f); err != nil {
			s.respondError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "%v", err))
			return
		}
	}
	opts := render.Options{
		Detailed: queryBool(q.Get("detailed")),
		Free:     queryBool(q.Get("free")),
	}

	m, err := s.store.Get(r.Context(), chi.URLParam(r, "mapID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, cached, err := s.renderer.Render(r.Context(), m, format, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

// edit loads a map, applies fn to an editor session over it and stores the
// result. Calls for the same map are serialized.
func (s *Server) edit(ctx context.Context, id string, fn func(*editor.Session) error) (mindmap.MindMap, error) {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return mindmap.MindMap{}, err
	}
	sess := s.session(m)
	if err := fn(sess); err != nil {
		return mindmap.MindMap{}, err
	}
	out := sess.Snapshot()
	if err := s.store.Update(ctx, &out); err != nil {
		return mindmap.MindMap{}, err
	}
	return out, nil
}

func (s *Server) session(m mindmap.MindMap) *editor.Session {
	lc := s.layout()
	opts := []editor.Option{
		editor.WithRoot(lc.Root),
		editor.WithLayoutOptions(lc.Options()...),
		editor.WithLogger(s.logger),
	}
	if s.seed != nil {
		opts = append(opts, editor.WithRand(rand.New(rand.NewPCG(*s.seed, 0))))
	}
	return editor.Open(m, opts...)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "%s must be a non-negative integer", key)
	}
	return n, nil
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

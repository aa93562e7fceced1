// Package server exposes mind maps over a JSON REST API.
//
// Routes (all under /api/v1):
//
//	POST   /mindmaps                         create a map with its root topic
//	GET    /mindmaps?skip=0&limit=10         list maps
//	GET    /mindmaps/{id}                    fetch a map
//	PUT    /mindmaps/{id}                    replace title, nodes or edges
//	DELETE /mindmaps/{id}                    delete a map
//	POST   /mindmaps/{id}/nodes              add a topic under the root
//	PUT    /mindmaps/{id}/nodes/{nodeID}     rename, describe or move a topic
//	DELETE /mindmaps/{id}/nodes/{nodeID}     remove a topic and its edges
//	POST   /mindmaps/{id}/edges              connect two topics
//	POST   /mindmaps/{id}/layout             run the radial auto-layout
//	GET    /mindmaps/{id}/stats              structure metrics
//	GET    /mindmaps/{id}/render?format=svg  draw the map (svg, png or dot)
//
// plus GET /healthz and, when configured, GET /metrics.
//
// Errors are returned as {"code": "...", "error": "..."} with the status
// derived from the code.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/mindmap/pkg/buildinfo"
	"github.com/matzehuels/mindmap/pkg/config"
	"github.com/matzehuels/mindmap/pkg/render"
	"github.com/matzehuels/mindmap/pkg/store"
)

// Server handles API requests against a store.
type Server struct {
	store    store.Store
	renderer *render.Renderer
	layout   func() config.LayoutConfig
	metrics  http.Handler
	origins  []string
	logger   *log.Logger
	seed     *uint64

	// Mutations of one map are serialized; the store only guarantees
	// atomic single operations.
	locksMu sync.Mutex
	locks   map[string]*mapLock
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRenderer sets the renderer, typically one backed by an artifact cache.
func WithRenderer(r *render.Renderer) Option { return func(s *Server) { s.renderer = r } }

// WithLayout sets the source of layout settings. It is called per request so
// settings can be reloaded while serving.
func WithLayout(fn func() config.LayoutConfig) Option { return func(s *Server) { s.layout = fn } }

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option { return func(s *Server) { s.origins = origins } }

// WithSeed makes topic spawn positions deterministic.
func WithSeed(seed uint64) Option { return func(s *Server) { s.seed = &seed } }

// New creates a server backed by st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store: st,
		locks: make(map[string]*mapLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.renderer == nil {
		s.renderer = render.NewRenderer(nil, nil)
	}
	if s.layout == nil {
		def := config.Default().Layout
		s.layout = func() config.LayoutConfig { return def }
	}
	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Cache"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1/mindmaps", func(r chi.Router) {
		r.Post("/", s.createMap)
		r.Get("/", s.listMaps)

		r.Route("/{mapID}", func(r chi.Router) {
			r.Use(s.validateParams)
			r.Get("/", s.getMap)
			r.Put("/", s.updateMap)
			r.Delete("/", s.deleteMap)

			r.Post("/nodes", s.addNode)
			r.Put("/nodes/{nodeID}", s.updateNode)
			r.Delete("/nodes/{nodeID}", s.deleteNode)
			r.Post("/edges", s.connect)

			r.Post("/layout", s.organize)
			r.Get("/stats", s.stats)
			r.Get("/render", s.render)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Error: "route not found"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, cfg config.ServerConfig) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// mapLock is a per-map mutex shared by the requests currently touching
// that map. refs counts them; the entry is dropped when it reaches zero.
type mapLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializes mutations of one map. The returned func unlocks.
func (s *Server) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &mapLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Get().Version,
	})
}

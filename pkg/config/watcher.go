package config

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/internal/watch"
)

// Watcher reloads the [layout] section of a config file when it changes.
// Other sections need a restart and are ignored on reload.
type Watcher struct {
	path   string
	logger *log.Logger

	mu        sync.RWMutex
	layout    LayoutConfig
	callbacks []func(LayoutConfig)
}

// NewWatcher returns a watcher for path starting from the given layout.
func NewWatcher(path string, initial LayoutConfig, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Watcher{path: path, layout: initial, logger: logger}
}

// Layout returns the current layout section.
func (w *Watcher) Layout() LayoutConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.layout
}

// OnChange registers fn to be called with each successfully reloaded section.
func (w *Watcher) OnChange(fn func(LayoutConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Run watches the file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	return watch.File(ctx, w.path, w.Reload, watch.WithLogger(w.logger))
}

// Reload rereads the file. Invalid files are logged and the previous
// section is kept.
func (w *Watcher) Reload() {
	cfg, err := LoadFile(w.path)
	if err == nil {
		err = cfg.Layout.Validate()
	}
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous layout settings", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if cfg.Layout == w.layout {
		w.mu.Unlock()
		return
	}
	w.layout = cfg.Layout
	callbacks := slices.Clone(w.callbacks)
	w.mu.Unlock()

	w.logger.Info("layout settings reloaded",
		"horizontal_spacing", cfg.Layout.HorizontalSpacing,
		"vertical_spacing", cfg.Layout.VerticalSpacing,
		"root", cfg.Layout.Root,
		"strict", cfg.Layout.Strict)
	for _, fn := range callbacks {
		fn(cfg.Layout)
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/internal/server"
	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/config"
	"github.com/matzehuels/mindmap/pkg/observability"
	"github.com/matzehuels/mindmap/pkg/render"
	"github.com/matzehuels/mindmap/pkg/store"
)

// serveOpts holds the command-line overrides for the serve command.
type serveOpts struct {
	addr    string
	backend string
	seed    uint64
}

// serveCommand creates the serve command that runs the REST API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve mind maps over a REST API",
		Long: `Serve mind maps over a REST API.

Maps are kept in the configured store (memory, file, sqlite, redis or
mongo). Rendered images are cached in redis when the redis store is used
and on disk otherwise. Prometheus metrics are exposed at /metrics.

When the server was started from a config file, edits to its [layout]
section apply without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&opts.backend, "store", "s", "", fmt.Sprintf("storage backend %v (default from config)", config.Backends))
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for topic spawn positions (0 = random)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := loggerFromContext(ctx)

	metrics := observability.NewPrometheusHooks(appName)
	metrics.Register()
	defer observability.Reset()

	st, err := store.Open(ctx, cfg.Store, cfg.Breaker, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close()

	artifacts, keyer := c.serveCache(ctx, cfg, logger)
	defer artifacts.Close()

	layoutFn := func() config.LayoutConfig { return cfg.Layout }
	if path != "" {
		w := config.NewWatcher(path, cfg.Layout, logger)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watcher stopped", "path", path, "err", err)
			}
		}()
		layoutFn = w.Layout
	}

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithRenderer(render.NewRenderer(cache.NewInstrumented(artifacts), keyer)),
		server.WithLayout(layoutFn),
		server.WithMetrics(metrics.Handler()),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if opts.seed != 0 {
		serverOpts = append(serverOpts, server.WithSeed(opts.seed))
	}

	printInfo("Serving mind maps on %s", StyleHighlight.Render(cfg.Server.Addr))
	printDetail("store: %s", cfg.Store.Backend)
	if path != "" {
		printDetail("config: %s", path)
	}

	err = server.New(st, serverOpts...).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server)
	if err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// serveCache picks the artifact cache for the server. A redis deployment
// shares rendered images across instances; everything else uses the local
// file cache. Failing to open a cache disables caching rather than the server.
func (c *CLI) serveCache(ctx context.Context, cfg config.Config, logger *log.Logger) (cache.Cache, cache.Keyer) {
	if cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Store.Backend == config.BackendRedis {
		rc, err := cache.DialRedisCache(ctx, cfg.Store.RedisAddr, cfg.Store.RedisDB, cfg.Store.RedisPrefix)
		if err == nil {
			return rc, cache.NewScopedKeyer(nil, "render:")
		}
		logger.Warn("redis cache unavailable, falling back to file cache", "err", err)
	}
	if cfg.Cache.Dir == "" {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "dir", cfg.Cache.Dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

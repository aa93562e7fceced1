// Package cli implements the mindmap command-line interface.
package cli

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/buildinfo"
	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/config"
	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mindmap"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	getenv     func(string) string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		getenv: os.Getenv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Mindmap edits mind maps and lays them out radially",
		Long: `Mindmap is a small mind map editor. Maps are JSON or YAML files with
topics and connections; the layout command arranges every topic on
half-circles around its parent, starting from the central topic.

The same maps can be served over a REST API with 'mindmap serve'.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./mindmap.toml or ~/.config/mindmap/config.toml)")

	// Editing
	root.AddCommand(c.newCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.editCommand())

	// Layout and output
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.statsCommand())

	// Service and housekeeping
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Sessions
// =============================================================================

// loadConfig loads the configuration selected by --config and the environment.
func (c *CLI) loadConfig() (config.Config, string, error) {
	cfg, path, err := config.Load(c.configPath, c.getenv)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, path, nil
}

// openSession reads the map at path and starts an editor session on it
// with the configured layout settings. A non-zero seed makes spawn
// positions deterministic.
func (c *CLI) openSession(path string, lc config.LayoutConfig, seed uint64) (*editor.Session, error) {
	m, err := mindmap.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts := []editor.Option{
		editor.WithRoot(lc.Root),
		editor.WithLayoutOptions(lc.Options()...),
		editor.WithLogger(c.Logger),
	}
	if seed != 0 {
		opts = append(opts, editor.WithRand(rand.New(rand.NewPCG(seed, 0))))
	}
	return editor.Open(m, opts...), nil
}

// =============================================================================
// Cache
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.NewInstrumented(fc), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

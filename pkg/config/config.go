// Package config loads mindmap settings from a TOML file and the environment.
//
// Config file locations (priority order):
//  1. the --config flag
//  2. $MINDMAP_CONFIG
//  3. ./mindmap.toml
//  4. $XDG_CONFIG_HOME/mindmap/config.toml (~/.config/mindmap/config.toml)
//
// Missing files are not an error except when named explicitly; defaults
// apply. Environment variables override the file:
//
//	MINDMAP_ADDR        server.addr
//	MINDMAP_STORE       store.backend
//	MINDMAP_REDIS_ADDR  store.redis_addr
//	MINDMAP_MONGO_URI   store.mongo_uri
//
// A minimal file:
//
//	[server]
//	addr = ":8080"
//
//	[store]
//	backend = "sqlite"
//	sqlite_path = "mindmaps.db"
//
//	[layout]
//	horizontal_spacing = 240
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every storage backend name.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Environment variable names.
const (
	EnvConfig    = "MINDMAP_CONFIG"
	EnvAddr      = "MINDMAP_ADDR"
	EnvStore     = "MINDMAP_STORE"
	EnvRedisAddr = "MINDMAP_REDIS_ADDR"
	EnvMongoURI  = "MINDMAP_MONGO_URI"
)

// Config is the complete configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Layout  LayoutConfig  `toml:"layout"`
	Breaker BreakerConfig `toml:"breaker"`
	Cache   CacheConfig   `toml:"cache"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	SQLitePath      string `toml:"sqlite_path"`
	RedisAddr       string `toml:"redis_addr"`
	RedisDB         int    `toml:"redis_db"`
	RedisPrefix     string `toml:"redis_prefix"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// LayoutConfig holds the auto-layout parameters. This section is reloaded
// while the server runs.
type LayoutConfig struct {
	HorizontalSpacing float64 `toml:"horizontal_spacing"`
	VerticalSpacing   float64 `toml:"vertical_spacing"`
	Root              string  `toml:"root"`
	Strict            bool    `toml:"strict"`
}

// BreakerConfig tunes the circuit breaker in front of remote stores.
type BreakerConfig struct {
	MaxRequests  uint32   `toml:"max_requests"`
	MinRequests  uint32   `toml:"min_requests"`
	Interval     Duration `toml:"interval"`
	Timeout      Duration `toml:"timeout"`
	FailureRatio float64  `toml:"failure_ratio"`
}

// CacheConfig configures the rendered artifact cache.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Store: StoreConfig{
			Backend:         BackendMemory,
			Dir:             "mindmaps",
			SQLitePath:      "mindmaps.db",
			RedisAddr:       "localhost:6379",
			RedisPrefix:     "mindmap:",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "mindmap",
			MongoCollection: "mindmaps",
		},
		Layout: LayoutConfig{
			HorizontalSpacing: layout.DefaultHorizontalSpacing,
			VerticalSpacing:   layout.DefaultVerticalSpacing,
			Root:              mindmap.DefaultRootID,
		},
		Breaker: BreakerConfig{
			MaxRequests:  3,
			MinRequests:  5,
			Interval:     Duration{time.Minute},
			Timeout:      Duration{30 * time.Second},
			FailureRatio: 0.6,
		},
		Cache: CacheConfig{
			Dir: defaultCacheDir(),
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mindmap")
}

// FindPath returns the config file to load, or "" if there is none.
// explicit, when set, is returned as is.
func FindPath(explicit string, getenv func(string) string) string {
	if explicit != "" {
		return explicit
	}
	if p := getenv(EnvConfig); p != "" {
		return p
	}
	candidates := []string{"mindmap.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "mindmap", "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load finds, decodes and validates the configuration. It returns the path
// that was loaded, which is empty when only defaults and environment apply.
func Load(explicit string, getenv func(string) string) (Config, string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	path := FindPath(explicit, getenv)
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist) && explicit == "" && getenv(EnvConfig) == "":
			path = ""
		default:
			return Config{}, path, err
		}
	}
	cfg.ApplyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// LoadFile decodes path on top of the defaults without applying the
// environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvStore); v != "" {
		c.Store.Backend = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Store.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if !slices.Contains(Backends, c.Store.Backend) {
		return fmt.Errorf("store.backend %q must be one of %v", c.Store.Backend, Backends)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if r := c.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("breaker.failure_ratio %v must be in (0, 1]", r)
	}
	return nil
}

// Validate checks the layout parameters.
func (l LayoutConfig) Validate() error {
	if l.HorizontalSpacing <= 0 {
		return fmt.Errorf("layout.horizontal_spacing %v must be positive", l.HorizontalSpacing)
	}
	if l.VerticalSpacing < 0 {
		return fmt.Errorf("layout.vertical_spacing %v must not be negative", l.VerticalSpacing)
	}
	if l.Root == "" {
		return errors.New("layout.root must not be empty")
	}
	return nil
}

// Options converts the section to layout options.
func (l LayoutConfig) Options() []layout.Option {
	opts := []layout.Option{
		layout.WithHorizontalSpacing(l.HorizontalSpacing),
		layout.WithVerticalSpacing(l.VerticalSpacing),
	}
	if l.Strict {
		opts = append(opts, layout.WithStrict())
	}
	return opts
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/config"
)

// dialBackoff is the first retry delay when a remote backend is unreachable.
const dialBackoff = 200 * time.Millisecond

// Open creates the backend selected by cfg.Backend. Remote backends are
// dialed with retries and wrapped in a circuit breaker; every backend is
// instrumented.
func Open(ctx context.Context, cfg config.StoreConfig, breaker config.BreakerConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var (
		st     Store
		remote bool
		err    error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		st = NewMemoryStore()
	case config.BackendFile:
		st, err = NewFileStore(cfg.Dir)
	case config.BackendSQLite:
		st, err = NewSQLiteStore(cfg.SQLitePath)
	case config.BackendRedis:
		remote = true
		st, err = dial(ctx, func() (Store, error) {
			return DialRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
		})
	case config.BackendMongo:
		remote = true
		st, err = dial(ctx, func() (Store, error) {
			return DialMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendMemory
	}
	if remote {
		st = NewBreaker(backend, st, BreakerSettings{
			MaxRequests:  breaker.MaxRequests,
			MinRequests:  breaker.MinRequests,
			Interval:     breaker.Interval.Duration,
			Timeout:      breaker.Timeout.Duration,
			FailureRatio: breaker.FailureRatio,
		}, logger)
	}
	logger.Debug("store opened", "backend", backend)
	return NewInstrumented(backend, st), nil
}

// dial retries connect while it reports ErrUnavailable.
func dial(ctx context.Context, connect func() (Store, error)) (Store, error) {
	var st Store
	err := cache.RetryWithBackoff(ctx, dialBackoff, func() error {
		s, err := connect()
		if errors.Is(err, ErrUnavailable) {
			return cache.Retryable(err)
		}
		if err != nil {
			return err
		}
		st = s
		return nil
	})
	return st, err
}

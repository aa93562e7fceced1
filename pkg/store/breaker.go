package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// BreakerSettings tunes a circuit breaker.
type BreakerSettings struct {
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// MinRequests is the number of calls in an interval before the failure
	// ratio is considered.
	MinRequests uint32
	// Interval is the cyclic period after which closed-state counts reset.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

// DefaultBreakerSettings returns conservative settings for remote stores.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		MinRequests:  5,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
	}
}

// Breaker fails fast with ErrUnavailable while the wrapped store keeps
// failing. ErrNotFound and ErrExists count as successes.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker named name.
func NewBreaker(name string, next Store, settings BreakerSettings, logger *log.Logger) *Breaker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			observability.Store().OnBreakerStateChange(name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// State returns the breaker's current state name.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Create(ctx context.Context, m *mindmap.MindMap) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Create(ctx, m) })
	return err
}

func (b *Breaker) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	return execute(b, func() (mindmap.MindMap, error) { return b.next.Get(ctx, id) })
}

func (b *Breaker) Update(ctx context.Context, m *mindmap.MindMap) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Update(ctx, m) })
	return err
}

func (b *Breaker) Delete(ctx context.Context, id string) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Delete(ctx, id) })
	return err
}

func (b *Breaker) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	return execute(b, func() ([]mindmap.MindMap, error) { return b.next.List(ctx, skip, limit) })
}

func (b *Breaker) Close() error { return b.next.Close() }

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	v, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %s: %v", ErrUnavailable, b.cb.Name(), err)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

var _ Store = (*Breaker)(nil)

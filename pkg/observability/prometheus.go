package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHooks implements every hook interface on top of a private
// Prometheus registry.
type PrometheusHooks struct {
	registry *prometheus.Registry

	edits          *prometheus.CounterVec
	layouts        *prometheus.CounterVec
	layoutDuration prometheus.Histogram
	layoutPlaced   prometheus.Histogram
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var (
	_ EditorHooks = (*PrometheusHooks)(nil)
	_ StoreHooks  = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)

// NewPrometheusHooks creates hooks whose metrics live under namespace.
// Each call creates a fresh registry, so tests can build as many as they like.
func NewPrometheusHooks(namespace string) *PrometheusHooks {
	p := &PrometheusHooks{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Total number of editing gestures",
		}, []string{"gesture"}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Total number of layout runs",
		}, []string{"status"}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		layoutPlaced: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_placed_nodes",
			Help:      "Number of nodes repositioned per layout run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of rendered artifacts",
		}, []string{"format", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of storage operations",
		}, []string{"backend", "operation", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_open",
			Help:      "1 if the named circuit breaker is open, 0.5 if half-open, 0 if closed",
		}, []string{"name"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Total number of cache lookups and writes",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Total bytes written to the cache",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		p.edits, p.layouts, p.layoutDuration, p.layoutPlaced,
		p.renders, p.renderDuration,
		p.storeOps, p.storeDuration, p.breakerState,
		p.cacheEvents, p.cacheBytes,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// Registry exposes the underlying registry, mainly for tests.
func (p *PrometheusHooks) Registry() *prometheus.Registry { return p.registry }

// Handler serves the metrics in the Prometheus text format.
func (p *PrometheusHooks) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Register installs p as every global hook.
func (p *PrometheusHooks) Register() {
	SetEditorHooks(p)
	SetStoreHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PrometheusHooks) OnEdit(_ context.Context, gesture string) {
	p.edits.WithLabelValues(gesture).Inc()
}

func (p *PrometheusHooks) OnLayoutStart(context.Context, string, int) {}

func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, _ string, placed int, d time.Duration, err error) {
	p.layouts.WithLabelValues(status(err)).Inc()
	p.layoutDuration.Observe(d.Seconds())
	if err == nil {
		p.layoutPlaced.Observe(float64(placed))
	}
}

func (p *PrometheusHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	p.renders.WithLabelValues(format, status(err)).Inc()
	p.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	p.storeOps.WithLabelValues(backend, op, status(err)).Inc()
	p.storeDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnBreakerStateChange(name, _, to string) {
	v := 0.0
	switch to {
	case "open":
		v = 1
	case "half-open":
		v = 0.5
	}
	p.breakerState.WithLabelValues(name).Set(v)
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
